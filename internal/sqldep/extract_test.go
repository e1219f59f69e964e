package sqldep

import (
	"reflect"
	"testing"
)

func TestExtractSimpleJoin(t *testing.T) {
	sql := `SELECT a.id FROM events a JOIN users u ON a.user_id = u.id`
	got := Extract(sql)
	want := []string{"events", "users"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractExcludesCTE(t *testing.T) {
	sql := `WITH recent AS (SELECT * FROM events WHERE dt > '2024-01-01')
		SELECT * FROM recent JOIN users ON recent.user_id = users.id`
	got := Extract(sql)
	want := []string{"events", "users"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	sql := `SELECT * FROM events WHERE id IN (SELECT id FROM events WHERE dt = '2024-01-01')`
	got := Extract(sql)
	want := []string{"events"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractFallbackOnUnparsableDialect(t *testing.T) {
	// QUALIFY is a warehouse extension the grammar rejects; the fallback
	// regex scan should still surface the table name.
	sql := `SELECT * FROM events QUALIFY ROW_NUMBER() OVER (PARTITION BY id ORDER BY dt DESC) = 1`
	got := Extract(sql)
	if len(got) != 1 || got[0] != "events" {
		t.Errorf("got %v, want [events]", got)
	}
}

func TestExtractQualifiedTableNames(t *testing.T) {
	sql := `SELECT * FROM project.dataset.events`
	got := Extract(sql)
	if len(got) != 1 {
		t.Fatalf("got %v, want one qualified table", got)
	}
}
