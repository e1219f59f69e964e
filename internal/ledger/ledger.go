// Package ledger implements the append-only execution record: one
// LedgerEntry per successful or failed (query, partition) run, stored
// in a warehouse-managed table and content-addressed by the
// artifact.Triple checksums.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/withObsrvr/versionlake/internal/artifact"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/warehouse"
)

// Status is the closed set of run outcomes recorded in the ledger.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Entry is one row of the ledger (a.k.a. PartitionState): one per run
// of a (query, partition) pair.
type Entry struct {
	ID            string
	QueryName     string
	PartitionKey  partition.Key
	Version       int
	Revision      *int
	EffectiveFrom time.Time

	Checksums artifact.Triple

	// CompressedSQL is the gzip+base64 envelope of the declared SQL
	// chosen for the run, before @partition_date is substituted (not the
	// MERGE statement sent to the warehouse), retained for diff/audit.
	// Optional on FAILED entries where no SQL reached the warehouse.
	CompressedSQL string

	// UpstreamStates maps upstream dependency identifier to that
	// upstream's last-executed instant at the time this partition ran.
	// Reserved extension point: no writer in this core populates it.
	UpstreamStates map[string]time.Time

	ExecutedAt     time.Time
	DurationMS     int64
	RowsWritten    *int64
	BytesProcessed *int64
	Status         Status
}

// Ledger is the append-only store of execution records.
type Ledger interface {
	Ensure(ctx context.Context) error
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, queryName string, from, to time.Time) ([]Entry, error)
}

// Latest returns the entry with the greatest ExecutedAt for each
// (QueryName, PartitionKey) pair in entries — "a latest entry for
// (query, partition) is the one with the greatest executed-at".
func Latest(entries []Entry) map[string]Entry {
	out := map[string]Entry{}
	for _, e := range entries {
		key := e.QueryName + "|" + e.PartitionKey.String()
		existing, ok := out[key]
		if !ok || e.ExecutedAt.After(existing.ExecutedAt) {
			out[key] = e
		}
	}
	return out
}

// NewEntryID generates a new opaque identifier for a ledger entry.
func NewEntryID() string {
	return uuid.NewString()
}

// Warehouse is a Ledger backed by a table the warehouse client manages,
// per the ledger table schema below.
type Warehouse struct {
	Client  warehouse.Client
	Dataset string
	Table   string
}

func NewWarehouseLedger(client warehouse.Client, dataset, table string) *Warehouse {
	return &Warehouse{Client: client, Dataset: dataset, Table: table}
}

func (w *Warehouse) fullName() string {
	return fmt.Sprintf("%s.%s", w.Dataset, w.Table)
}

// Ensure idempotently creates the ledger table.
func (w *Warehouse) Ensure(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  entry_id STRING NOT NULL,
  query_name STRING NOT NULL,
  query_version INT64 NOT NULL,
  sql_revision INT64,
  partition_key STRING NOT NULL,
  partition_date DATE NOT NULL,
  executed_at TIMESTAMP NOT NULL,
  duration_ms INT64,
  rows_written INT64,
  bytes_processed INT64,
  status STRING NOT NULL,
  sql_checksum STRING NOT NULL,
  schema_checksum STRING NOT NULL,
  yaml_checksum STRING NOT NULL,
  executed_sql_b64 STRING,
  upstream_states STRING
)`, w.fullName())
	return w.Client.Execute(ctx, ddl)
}

// Append inserts one entry. The ledger is append-only: there is no
// update, only a new row per re-execution.
func (w *Warehouse) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = NewEntryID()
	}
	insert := fmt.Sprintf(
		`INSERT INTO %s (entry_id, query_name, query_version, sql_revision, partition_key, partition_date, executed_at, duration_ms, rows_written, bytes_processed, status, sql_checksum, schema_checksum, yaml_checksum, executed_sql_b64) VALUES ('%s', '%s', %d, %s, '%s', %s, TIMESTAMP '%s', %d, %s, %s, '%s', '%s', '%s', '%s', '%s')`,
		w.fullName(),
		e.ID, e.QueryName, e.Version, nullableInt(e.Revision), e.PartitionKey.String(), e.PartitionKey.SQLLiteral(),
		e.ExecutedAt.UTC().Format("2006-01-02 15:04:05"), e.DurationMS,
		nullableInt64(e.RowsWritten), nullableInt64(e.BytesProcessed), e.Status,
		e.Checksums.SQL, e.Checksums.Schema, e.Checksums.YAML, e.CompressedSQL,
	)
	return w.Client.Execute(ctx, insert)
}

func nullableInt(v *int) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%d", *v)
}

func nullableInt64(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%d", *v)
}

// Query is not implementable purely in terms of the narrow
// warehouse.Client capability surface (it has no row-returning query
// operation, only query_scalar). Warehouse satisfies the Ledger
// interface for Ensure/Append; Query always returns an error here, which
// the orchestrator treats as "no previous entry".
func (w *Warehouse) Query(ctx context.Context, queryName string, from, to time.Time) ([]Entry, error) {
	return nil, fmt.Errorf("ledger: Query is not supported by the warehouse.Client capability surface; use an InMemory mirror")
}

// InMemory is a Ledger kept entirely in process memory, used by tests.
type InMemory struct {
	entries []Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Ensure(ctx context.Context) error { return nil }

func (m *InMemory) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = NewEntryID()
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *InMemory) Query(ctx context.Context, queryName string, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if queryName != "" && e.QueryName != queryName {
			continue
		}
		date := e.PartitionKey.Date()
		if !from.IsZero() && date.Before(from) {
			continue
		}
		if !to.IsZero() && date.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
