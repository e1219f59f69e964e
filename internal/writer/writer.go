// Package writer implements the partition-atomic write protocol: resolve
// the applicable version, run pre-invariants, submit a MERGE-based
// replace-per-partition statement, run post-invariants, and return a
// result record.
package writer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/withObsrvr/versionlake/internal/artifact"
	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/invariant"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/warehouse"
)

// ErrPartition is returned when no version applies to a partition's
// date.
type ErrPartition struct {
	Query string
	Date  time.Time
}

func (e *ErrPartition) Error() string {
	return fmt.Sprintf("writer: no version of %q applies to %s", e.Query, e.Date.Format("2006-01-02"))
}

// Code implements versionlakeerr.Error.
func (e *ErrPartition) Code() string { return "NO_APPLICABLE_VERSION" }

// Unwrap implements versionlakeerr.Error; ErrPartition has no underlying cause.
func (e *ErrPartition) Unwrap() error { return nil }

// ErrInvariantFailed is returned when a pre-invariant ERROR-severity
// check fails, aborting execution before SQL runs.
type ErrInvariantFailed struct {
	Query  string
	Report invariant.Report
}

func (e *ErrInvariantFailed) Error() string {
	return fmt.Sprintf("writer: pre-invariant failure blocked execution of %q", e.Query)
}

// Code implements versionlakeerr.Error.
func (e *ErrInvariantFailed) Code() string { return "INVARIANT_FAILED" }

// Unwrap implements versionlakeerr.Error; ErrInvariantFailed has no single underlying cause.
func (e *ErrInvariantFailed) Unwrap() error { return nil }

// Result is returned on successful execution (the writer does not
// return a Result on ErrPartition/ErrInvariantFailed).
type Result struct {
	QueryName      string
	Version        int
	Revision       *int
	PartitionKey   partition.Key
	SQLExecuted    string
	RowsWritten    *int64
	BytesProcessed *int64
	Invariants     invariant.Report

	// Checksums and CompressedSQL are the artifact.Triple and
	// gzip+base64 envelope of the exact (unsubstituted) source SQL
	// chosen for this run, ready to copy directly into a ledger.Entry.
	Checksums     artifact.Triple
	CompressedSQL string
}

// Clock is injected so "today" (the writer selects SQL using the
// current date, not the partition date) is controllable in tests.
type Clock func() time.Time

// Writer executes one partition of one query against a warehouse.
type Writer struct {
	Client          warehouse.Client
	InvariantEngine *invariant.Engine
	Now             Clock
}

func New(client warehouse.Client) *Writer {
	return &Writer{
		Client:          client,
		InvariantEngine: invariant.NewEngine(client),
		Now:             time.Now,
	}
}

// Write executes query's SQL for partition key, following the ordered
// steps in order: resolve version, pre-invariants, SQL, post-
// invariants, result. declarationText is the exact YAML text the
// query was declared with, folded into the ledger checksum triple
// alongside the chosen SQL and schema.
func (w *Writer) Write(ctx context.Context, q catalog.QueryDef, key partition.Key, declarationText string) (*Result, error) {
	partitionDate := key.Date()
	version, ok := q.VersionFor(partitionDate)
	if !ok {
		return nil, &ErrPartition{Query: q.Name, Date: partitionDate}
	}

	destination := q.Destination.String()
	today := w.Now()

	var report invariant.Report
	if len(version.Invariants.Before) > 0 {
		report.Before = w.InvariantEngine.Run(ctx, version.Invariants.Before, destination, key, q.Partition.Field)
		if report.HasBlockingFailure() {
			return nil, &ErrInvariantFailed{Query: q.Name, Report: report}
		}
	}

	// sqlText is the declared source, unsubstituted: this is what gets
	// checksummed and stored, so the immutability/source audits compare
	// like against like regardless of which partition ran it. execSQL is
	// the same text with @partition_date resolved, used only to build
	// the statement actually submitted to the warehouse.
	sqlText := version.SQLFor(today)
	execSQL := strings.ReplaceAll(sqlText, "@partition_date", key.SQLLiteral())

	mergeSQL, err := BuildMergeStatement(q.Destination.Dataset, q.Destination.Table, q.Partition, key, execSQL)
	if err != nil {
		return nil, err
	}
	if err := w.Client.Execute(ctx, mergeSQL); err != nil {
		return nil, err
	}

	// Built from the already-resolved `version` directly, rather than
	// calling QueryDef.Checksums (which re-resolves VersionFor from a
	// single as-of date): the version here was chosen by partition date
	// while its SQL was chosen by today, and re-deriving both from one
	// date could pick a different version than the one actually run.
	schemaJSON, err := version.Schema.Canonical()
	if err != nil {
		return nil, fmt.Errorf("writer: canonicalize schema for %q: %w", q.Name, err)
	}
	triple, err := artifact.ComputeTriple(sqlText, string(schemaJSON), declarationText)
	if err != nil {
		return nil, fmt.Errorf("writer: compute checksum triple for %q: %w", q.Name, err)
	}
	compressedSQL, err := artifact.Compress(sqlText)
	if err != nil {
		return nil, fmt.Errorf("writer: compress executed SQL for %q: %w", q.Name, err)
	}

	if len(version.Invariants.After) > 0 {
		report.After = w.InvariantEngine.Run(ctx, version.Invariants.After, destination, key, q.Partition.Field)
		// Post-check failures, at any severity, are reported but never
		// roll back — the write already committed.
	}

	var revisionPtr *int
	if rev, ok := version.RevisionFor(today); ok {
		r := rev.Revision
		revisionPtr = &r
	}

	return &Result{
		QueryName:     q.Name,
		Version:       version.Version,
		Revision:      revisionPtr,
		PartitionKey:  key,
		SQLExecuted:   mergeSQL,
		Invariants:    report,
		Checksums:     triple,
		CompressedSQL: compressedSQL,
	}, nil
}

// BuildMergeStatement builds the partition-atomic replacement
// statement: delete every row in the destination partition window not
// matched by source, insert every source row, via a MERGE with an
// always-false join condition.
func BuildMergeStatement(dataset, table string, pc partition.Config, key partition.Key, userSQL string) (string, error) {
	cond, err := partitionCondition(pc, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MERGE `%s.%s` AS target\nUSING (%s) AS source\nON FALSE\nWHEN NOT MATCHED BY SOURCE AND %s THEN DELETE\nWHEN NOT MATCHED BY TARGET THEN INSERT ROW",
		dataset, table, userSQL, cond,
	), nil
}

func partitionCondition(pc partition.Config, key partition.Key) (string, error) {
	field := pc.Field
	switch key.Kind {
	case partition.TypeDay, partition.TypeIngestionTime:
		return fmt.Sprintf("target.%s = %s", field, key.SQLLiteral()), nil
	case partition.TypeHour:
		return fmt.Sprintf("TIMESTAMP_TRUNC(target.%s, HOUR) = %s", field, key.SQLLiteral()), nil
	case partition.TypeMonth:
		return fmt.Sprintf("DATE_TRUNC(target.%s, MONTH) = %s", field, key.SQLLiteral()), nil
	case partition.TypeYear:
		return fmt.Sprintf("DATE_TRUNC(target.%s, YEAR) = %s", field, key.SQLLiteral()), nil
	case partition.TypeRange:
		return fmt.Sprintf("target.%s = %s", field, key.SQLLiteral()), nil
	default:
		return "", fmt.Errorf("writer: unsupported partition type %q", key.Kind)
	}
}

// TruncateStatements returns the alternate truncate-mode pair (delete,
// insert) using the warehouse's partition decorator, semantically
// equivalent to the MERGE form but expressed as the warehouse's
// idiomatic overwrite path.
func TruncateStatements(dataset, table string, key partition.Key, userSQL string) (deleteSQL, insertSQL string) {
	decorated := table + key.Decorator()
	deleteSQL = fmt.Sprintf("DELETE FROM `%s.%s` WHERE TRUE", dataset, decorated)
	insertSQL = fmt.Sprintf("INSERT INTO `%s.%s` %s", dataset, decorated, userSQL)
	return deleteSQL, insertSQL
}
