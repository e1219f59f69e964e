package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/ledger"
	"github.com/withObsrvr/versionlake/internal/migration"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/schema"
	"github.com/withObsrvr/versionlake/internal/warehouse"
	"github.com/withObsrvr/versionlake/internal/writer"
)

func simpleQuery(name string, effectiveFrom time.Time) catalog.QueryDef {
	return catalog.QueryDef{
		Name:        name,
		Destination: catalog.TableRef{Dataset: "dataset", Table: name},
		Partition:   partition.Config{Field: "date", Type: partition.TypeDay},
		Versions: []catalog.VersionDef{
			{
				Version:       1,
				EffectiveFrom: effectiveFrom,
				Schema:        schema.Schema{{Name: "date", Type: schema.TypeDate}, {Name: "n", Type: schema.TypeInt64}},
				SQLContent:    "SELECT @partition_date AS date, 1 AS n",
			},
		},
	}
}

func TestBackfillContinuesPastFailure(t *testing.T) {
	client := warehouse.NewMemory()
	w := writer.New(client)
	w.Now = func() time.Time { return time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) }
	l := ledger.NewInMemory()
	o := New(w, l)

	// The version only covers partitions from June 16 onward, so the
	// first day of the requested range (June 15) has no applicable
	// version and must fail without aborting the rest of the backfill.
	q := simpleQuery("q", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC))
	from := partition.Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	to := partition.Day(time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC))

	report := o.Backfill(context.Background(), q, from, to, "name: q\n")

	if len(report.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(report.Failures))
	}
	if report.Failures[0].PartitionKey.String() != from.String() {
		t.Errorf("expected the failure to be June 15, got %s", report.Failures[0].PartitionKey)
	}
	if len(report.Succeeded) != 3 {
		t.Fatalf("got %d successes, want 3 (June 16-18)", len(report.Succeeded))
	}

	entries, err := l.Query(context.Background(), "q", time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected every attempt (success and failure) mirrored to the ledger, got %d", len(entries))
	}
	failedCount := 0
	for _, e := range entries {
		if e.Status == ledger.StatusFailed {
			failedCount++
		}
	}
	if failedCount != 1 {
		t.Errorf("expected exactly 1 FAILED ledger entry, got %d", failedCount)
	}
}

func TestRunAllQueriesPreservesOrderAndIsolatesFailures(t *testing.T) {
	client := warehouse.NewMemory()
	w := writer.New(client)
	w.Now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	l := ledger.NewInMemory()
	o := New(w, l)

	queries := []catalog.QueryDef{
		simpleQuery("a", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		simpleQuery("b", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)), // not yet effective: fails
		simpleQuery("c", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	key := partition.Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	declarations := map[string]string{"a": "name: a\n", "b": "name: b\n", "c": "name: c\n"}
	report := o.RunAllQueries(context.Background(), queries, key, declarations)

	if len(report.Succeeded) != 2 {
		t.Fatalf("got %d successes, want 2", len(report.Succeeded))
	}
	if report.Succeeded[0].QueryName != "a" || report.Succeeded[1].QueryName != "c" {
		t.Errorf("expected insertion order a, c; got %s, %s", report.Succeeded[0].QueryName, report.Succeeded[1].QueryName)
	}
	if len(report.Failures) != 1 || report.Failures[0].QueryName != "b" {
		t.Fatalf("expected query b alone to fail, got %+v", report.Failures)
	}
}

func TestRunPartitionMirrorsSuccessToLedger(t *testing.T) {
	client := warehouse.NewMemory()
	w := writer.New(client)
	w.Now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	l := ledger.NewInMemory()
	o := New(w, l)

	q := simpleQuery("q", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	key := partition.Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	result, err := o.RunPartition(context.Background(), q, key, "name: q\n")
	if err != nil {
		t.Fatal(err)
	}
	if result.QueryName != "q" {
		t.Errorf("got query name %q", result.QueryName)
	}

	entries, err := l.Query(context.Background(), "q", time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != ledger.StatusSuccess {
		t.Fatalf("expected one SUCCESS ledger entry, got %+v", entries)
	}
	entry := entries[0]
	if entry.Checksums.SQL == "" || entry.Checksums.Schema == "" || entry.Checksums.YAML == "" {
		t.Errorf("expected a non-empty checksum triple on the mirrored entry, got %+v", entry.Checksums)
	}
	if entry.CompressedSQL == "" {
		t.Error("expected a non-empty CompressedSQL on the mirrored entry")
	}
	if entry.Checksums != result.Checksums || entry.CompressedSQL != result.CompressedSQL {
		t.Error("expected the ledger entry's checksum triple and compressed SQL to match the writer result exactly")
	}
}

func TestVersionBumpRecordsMigration(t *testing.T) {
	client := warehouse.NewMemory()
	w := writer.New(client)
	w.Now = func() time.Time { return time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC) }
	l := ledger.NewInMemory()
	o := New(w, l)
	tracker := migration.NewInMemory()
	o.Migrations = tracker

	q := simpleQuery("q", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	key := partition.Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	if _, err := o.RunPartition(context.Background(), q, key, "name: q\n"); err != nil {
		t.Fatal(err)
	}
	records, _ := tracker.List(context.Background(), "")
	if len(records) != 0 {
		t.Fatalf("first run must not record a migration, got %+v", records)
	}

	// A second version now covers the partition; re-running bumps it.
	q.Versions = append(q.Versions, catalog.VersionDef{
		Version:       2,
		EffectiveFrom: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Schema:        q.Versions[0].Schema,
		SQLContent:    "SELECT @partition_date AS date, 2 AS n",
	})
	if _, err := o.RunPartition(context.Background(), q, key, "name: q\n"); err != nil {
		t.Fatal(err)
	}

	records, _ = tracker.List(context.Background(), "q")
	if len(records) != 1 {
		t.Fatalf("got %d migration records, want 1", len(records))
	}
	if records[0].FromVersion != 1 || records[0].ToVersion != 2 {
		t.Errorf("got v%d -> v%d, want v1 -> v2", records[0].FromVersion, records[0].ToVersion)
	}
}
