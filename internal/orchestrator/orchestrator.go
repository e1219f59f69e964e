// Package orchestrator sequences writer runs across partitions and
// queries. The scheduling model is single-threaded cooperative: no
// fan-out, partitions run strictly in order, and a multi-partition run
// continues past a per-partition failure rather than aborting.
package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/ledger"
	"github.com/withObsrvr/versionlake/internal/logging"
	"github.com/withObsrvr/versionlake/internal/migration"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/writer"
)

// RunFailure records one partition's failure during a multi-partition
// run, so the run can continue rather than propagate.
type RunFailure struct {
	QueryName    string
	PartitionKey partition.Key
	Error        string
}

// RunReport is returned by every multi-partition entry point.
type RunReport struct {
	Succeeded []writer.Result
	Failures  []RunFailure
}

// Orchestrator drives the writer across partitions/queries and mirrors
// every successful and failed attempt into a Ledger. Migrations and
// Logger are optional; when set, version bumps are recorded and every
// run outcome is logged with structured fields.
type Orchestrator struct {
	Writer     *writer.Writer
	Ledger     ledger.Ledger
	Migrations migration.Tracker
	Logger     *logrus.Logger
}

func New(w *writer.Writer, l ledger.Ledger) *Orchestrator {
	return &Orchestrator{Writer: w, Ledger: l}
}

// RunPartition executes exactly one (query, partition) and appends a
// ledger entry for both success and failure. declarationText is the
// exact YAML text q was declared with, forwarded to the writer so the
// ledger entry's checksum triple covers it.
func (o *Orchestrator) RunPartition(ctx context.Context, q catalog.QueryDef, key partition.Key, declarationText string) (*writer.Result, error) {
	previous := o.latestFor(ctx, q.Name, key)

	result, err := o.Writer.Write(ctx, q, key, declarationText)
	if err != nil {
		if o.Logger != nil {
			o.Logger.WithFields(logging.RunFields(q.Name, key.String())).WithError(err).Error("partition write failed")
		}
		o.appendFailure(ctx, q, key, err)
		return nil, err
	}
	if o.Logger != nil {
		o.Logger.WithFields(logging.RunFields(q.Name, key.String())).WithField("version", result.Version).Info("partition write committed")
	}
	o.appendSuccess(ctx, result)
	o.recordMigration(ctx, previous, result)
	return result, nil
}

// latestFor returns the most recent successful ledger entry for
// (queryName, key), or nil when the ledger has none (or can't be read
// back, as with the warehouse-backed ledger).
func (o *Orchestrator) latestFor(ctx context.Context, queryName string, key partition.Key) *ledger.Entry {
	entries, err := o.Ledger.Query(ctx, queryName, time.Time{}, time.Time{})
	if err != nil {
		return nil
	}
	var best *ledger.Entry
	for i := range entries {
		e := &entries[i]
		if !e.PartitionKey.Equal(key) || e.Status != ledger.StatusSuccess {
			continue
		}
		if best == nil || e.ExecutedAt.After(best.ExecutedAt) {
			best = e
		}
	}
	return best
}

// recordMigration appends a migration record when this run re-executed
// a partition under a different version than its previous successful
// entry.
func (o *Orchestrator) recordMigration(ctx context.Context, previous *ledger.Entry, result *writer.Result) {
	if o.Migrations == nil || previous == nil {
		return
	}
	if previous.Status != ledger.StatusSuccess || previous.Version == result.Version {
		return
	}
	_ = o.Migrations.Record(ctx, migration.Record{
		QueryName:    result.QueryName,
		PartitionKey: result.PartitionKey,
		FromVersion:  previous.Version,
		ToVersion:    result.Version,
		AppliedAt:    time.Now(),
	})
}

// RunAll executes every partition key in keys for q, in the given
// order, continuing past a per-partition failure and accumulating a
// RunFailure for each one instead of propagating it.
func (o *Orchestrator) RunAll(ctx context.Context, q catalog.QueryDef, keys []partition.Key, declarationText string) RunReport {
	var report RunReport
	for _, key := range keys {
		result, err := o.RunPartition(ctx, q, key, declarationText)
		if err != nil {
			report.Failures = append(report.Failures, RunFailure{QueryName: q.Name, PartitionKey: key, Error: err.Error()})
			continue
		}
		report.Succeeded = append(report.Succeeded, *result)
	}
	return report
}

// Backfill runs every partition from `from` to `to` inclusive
// (ascending by partition key), for one query.
func (o *Orchestrator) Backfill(ctx context.Context, q catalog.QueryDef, from, to partition.Key, declarationText string) RunReport {
	var keys []partition.Key
	for k := from; ; k = k.Next() {
		keys = append(keys, k)
		if !k.Less(to) {
			break
		}
	}
	return o.RunAll(ctx, q, keys, declarationText)
}

// RunAllQueries runs every query in queries against its catalog's
// resolved partition key for a given date, preserving the catalog's
// insertion order. A per-query, per-partition failure never aborts
// the rest of the batch. declarationTexts maps query name to its
// declared YAML text; a query missing from the map runs with an empty
// declaration checksum input.
func (o *Orchestrator) RunAllQueries(ctx context.Context, queries []catalog.QueryDef, key partition.Key, declarationTexts map[string]string) RunReport {
	var report RunReport
	for _, q := range queries {
		result, err := o.RunPartition(ctx, q, key, declarationTexts[q.Name])
		if err != nil {
			report.Failures = append(report.Failures, RunFailure{QueryName: q.Name, PartitionKey: key, Error: err.Error()})
			continue
		}
		report.Succeeded = append(report.Succeeded, *result)
	}
	return report
}

func (o *Orchestrator) appendSuccess(ctx context.Context, result *writer.Result) {
	entry := ledger.Entry{
		QueryName:      result.QueryName,
		PartitionKey:   result.PartitionKey,
		Version:        result.Version,
		Revision:       result.Revision,
		ExecutedAt:     time.Now(),
		RowsWritten:    result.RowsWritten,
		BytesProcessed: result.BytesProcessed,
		Status:         ledger.StatusSuccess,
		Checksums:      result.Checksums,
		CompressedSQL:  result.CompressedSQL,
	}
	// If the warehouse write succeeded but this append fails, the next
	// drift detection classifies the partition NeverRun and proposes a
	// rerun; the replace-per-partition write is idempotent so that is
	// an acceptable outcome rather than silent data loss.
	_ = o.Ledger.Append(ctx, entry)
}

func (o *Orchestrator) appendFailure(ctx context.Context, q catalog.QueryDef, key partition.Key, writeErr error) {
	entry := ledger.Entry{
		QueryName:    q.Name,
		PartitionKey: key,
		ExecutedAt:   time.Now(),
		Status:       ledger.StatusFailed,
	}
	_ = o.Ledger.Append(ctx, entry)
}
