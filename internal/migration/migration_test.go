package migration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/withObsrvr/versionlake/internal/partition"
)

func TestFileRecordAndList(t *testing.T) {
	ctx := context.Background()
	f := NewFile(filepath.Join(t.TempDir(), "migrations.jsonl"))

	key := partition.Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	err := f.Record(ctx, Record{
		QueryName:    "q",
		PartitionKey: key,
		FromVersion:  1,
		ToVersion:    2,
		AppliedAt:    time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	records, err := f.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.ID == "" {
		t.Error("expected an auto-assigned ID")
	}
	if r.FromVersion != 1 || r.ToVersion != 2 {
		t.Errorf("got v%d -> v%d, want v1 -> v2", r.FromVersion, r.ToVersion)
	}
	if !r.PartitionKey.Equal(key) {
		t.Errorf("partition key did not round-trip: %+v", r.PartitionKey)
	}
}

func TestListFiltersByQueryName(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	key := partition.Day(time.Now())
	_ = m.Record(ctx, Record{QueryName: "a", PartitionKey: key, FromVersion: 1, ToVersion: 2})
	_ = m.Record(ctx, Record{QueryName: "b", PartitionKey: key, FromVersion: 1, ToVersion: 2})

	records, err := m.List(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].QueryName != "a" {
		t.Errorf("expected only query a records, got %+v", records)
	}
}

func TestListMissingFileReturnsEmpty(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	records, err := f.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if records != nil {
		t.Errorf("expected nil records for missing file, got %v", records)
	}
}
