package invariant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/warehouse"
)

func int64p(v int64) *int64     { return &v }
func floatp(v float64) *float64 { return &v }

func TestZeroRowsPassesOnZero(t *testing.T) {
	client := warehouse.NewMemory()
	client.ScalarFunc = func(sqlText string) (warehouse.Scalar, error) {
		return warehouse.Scalar{Int: int64p(0)}, nil
	}
	e := NewEngine(client)
	key := partition.Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	results := e.Run(context.Background(), []Invariant{
		{Name: "no_dupes", Severity: SeverityError, Check: ZeroRows("SELECT COUNT(*) FROM dupes")},
	}, "dataset.table", key, "date")

	if results[0].Status != StatusPassed {
		t.Errorf("got %v, want Passed", results[0].Status)
	}
}

func TestZeroRowsFailsOnNonzero(t *testing.T) {
	client := warehouse.NewMemory()
	client.ScalarFunc = func(sqlText string) (warehouse.Scalar, error) {
		return warehouse.Scalar{Int: int64p(4)}, nil
	}
	e := NewEngine(client)
	key := partition.Day(time.Now())
	results := e.Run(context.Background(), []Invariant{
		{Name: "no_dupes", Severity: SeverityError, Check: ZeroRows("SELECT COUNT(*) FROM dupes")},
	}, "dataset.table", key, "date")

	if results[0].Status != StatusFailed {
		t.Errorf("got %v, want Failed", results[0].Status)
	}
}

func TestRowCountWithinBounds(t *testing.T) {
	client := warehouse.NewMemory()
	client.ScalarFunc = func(sqlText string) (warehouse.Scalar, error) {
		return warehouse.Scalar{Int: int64p(50)}, nil
	}
	e := NewEngine(client)
	results := e.Run(context.Background(), []Invariant{
		{Name: "count", Severity: SeverityWarning, Check: RowCount("", floatp(10), floatp(100))},
	}, "dataset.table", partition.Day(time.Now()), "date")

	if results[0].Status != StatusPassed {
		t.Errorf("got %v, want Passed", results[0].Status)
	}
}

// TestRowCountDefaultSourceUsesPartitionField checks that the
// synthesized default source filters on the destination's partition
// field, not Check.Column (which RowCount always leaves empty).
func TestRowCountDefaultSourceUsesPartitionField(t *testing.T) {
	client := warehouse.NewMemory()
	var captured string
	client.ScalarFunc = func(sqlText string) (warehouse.Scalar, error) {
		captured = sqlText
		return warehouse.Scalar{Int: int64p(50)}, nil
	}
	e := NewEngine(client)
	key := partition.Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	e.Run(context.Background(), []Invariant{
		{Name: "count", Severity: SeverityWarning, Check: RowCount("", floatp(10), floatp(100))},
	}, "dataset.table", key, "event_date")

	if !strings.Contains(captured, "WHERE event_date = DATE '2024-06-15'") {
		t.Errorf("expected default source to filter on the partition field, got %s", captured)
	}
}

func TestColumnCheckSubstitutesColumn(t *testing.T) {
	client := warehouse.NewMemory()
	var captured string
	client.ScalarFunc = func(sqlText string) (warehouse.Scalar, error) {
		captured = sqlText
		return warehouse.Scalar{Int: int64p(1)}, nil
	}
	e := NewEngine(client)
	e.Run(context.Background(), []Invariant{
		{Name: "positive", Severity: SeverityError, Check: ColumnCheck("SELECT * FROM t", "n", "{column} > 0")},
	}, "dataset.table", partition.Day(time.Now()), "date")

	if !strings.Contains(captured, "n > 0") {
		t.Errorf("predicate not substituted: %s", captured)
	}
}

func TestHasBlockingFailureOnlyErrorSeverity(t *testing.T) {
	r := Report{Before: []Result{{Status: StatusFailed, Severity: SeverityWarning}}}
	if r.HasBlockingFailure() {
		t.Errorf("warning-severity failure should not block")
	}
	r.Before = append(r.Before, Result{Status: StatusFailed, Severity: SeverityError})
	if !r.HasBlockingFailure() {
		t.Errorf("error-severity failure should block")
	}
}
