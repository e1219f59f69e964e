package invariant

import (
	"context"
	"fmt"
	"strings"

	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/warehouse"
)

// Engine executes resolved invariant lists against a warehouse.Client.
type Engine struct {
	Client warehouse.Client
}

func NewEngine(client warehouse.Client) *Engine {
	return &Engine{Client: client}
}

// Run executes every invariant in list in order and returns one Result
// per check. Placeholder substitution: {destination} becomes the
// back-ticked dataset.table, @partition_date becomes the partition's
// SQL literal. partitionField is the destination table's partition
// column, used to build the default source when a check declares none
// of its own.
func (e *Engine) Run(ctx context.Context, list []Invariant, destination string, key partition.Key, partitionField string) []Result {
	results := make([]Result, 0, len(list))
	for _, inv := range list {
		results = append(results, e.runOne(ctx, inv, destination, key, partitionField))
	}
	return results
}

func (e *Engine) runOne(ctx context.Context, inv Invariant, destination string, key partition.Key, partitionField string) Result {
	base := Result{Name: inv.Name, Severity: inv.Severity}

	defaultSource := func() string {
		if inv.Check.Source != "" {
			return substitute(inv.Check.Source, destination, key)
		}
		return fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", destination, partitionField, key.SQLLiteral())
	}

	switch inv.Check.Kind {
	case CheckZeroRows:
		sqlText := substitute(inv.Check.SQL, destination, key)
		scalar, err := e.Client.QueryScalar(ctx, sqlText)
		if err != nil {
			base.Status = StatusFailed
			base.Message = err.Error()
			return base
		}
		count := scalarInt(scalar)
		base.Status = pass(count == 0)
		base.Message = fmt.Sprintf("row count = %d", count)
		return base

	case CheckRowCount:
		source := defaultSource()
		sqlText := fmt.Sprintf("SELECT COUNT(*) FROM (%s)", source)
		scalar, err := e.Client.QueryScalar(ctx, sqlText)
		if err != nil {
			base.Status = StatusFailed
			base.Message = err.Error()
			return base
		}
		count := float64(scalarInt(scalar))
		base.Status = pass(withinBounds(count, inv.Check.Min, inv.Check.Max))
		base.Message = fmt.Sprintf("row count = %v", count)
		return base

	case CheckNullPercentage:
		source := defaultSource()
		sqlText := fmt.Sprintf("SELECT COUNTIF(%s IS NULL) * 100.0 / NULLIF(COUNT(*), 0) FROM (%s)", inv.Check.Column, source)
		scalar, err := e.Client.QueryScalar(ctx, sqlText)
		if err != nil {
			base.Status = StatusFailed
			base.Message = err.Error()
			return base
		}
		pct := scalarFloat(scalar)
		base.Status = pass(pct <= inv.Check.MaxPercent)
		base.Message = fmt.Sprintf("null percentage = %.2f", pct)
		return base

	case CheckValueRange:
		source := defaultSource()
		sqlText := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM (%s)", inv.Check.Column, inv.Check.Column, source)
		scalar, err := e.Client.QueryScalar(ctx, sqlText)
		if err != nil {
			base.Status = StatusFailed
			base.Message = err.Error()
			return base
		}
		minV, maxV := scalarMinMax(scalar)
		ok := true
		if inv.Check.Min != nil && minV < *inv.Check.Min {
			ok = false
		}
		if inv.Check.Max != nil && maxV > *inv.Check.Max {
			ok = false
		}
		base.Status = pass(ok)
		base.Message = fmt.Sprintf("range = [%v, %v]", minV, maxV)
		return base

	case CheckColumnCheck:
		source := defaultSource()
		predicate := strings.ReplaceAll(inv.Check.Predicate, "{column}", inv.Check.Column)
		sqlText := fmt.Sprintf("SELECT CASE WHEN %s THEN 1 ELSE 0 END FROM (%s)", predicate, source)
		scalar, err := e.Client.QueryScalar(ctx, sqlText)
		if err != nil {
			base.Status = StatusFailed
			base.Message = err.Error()
			return base
		}
		base.Status = pass(scalarInt(scalar) == 1)
		return base

	case CheckDistinctCount:
		source := defaultSource()
		sqlText := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM (%s)", inv.Check.Column, source)
		scalar, err := e.Client.QueryScalar(ctx, sqlText)
		if err != nil {
			base.Status = StatusFailed
			base.Message = err.Error()
			return base
		}
		count := float64(scalarInt(scalar))
		base.Status = pass(withinBounds(count, inv.Check.Min, inv.Check.Max))
		base.Message = fmt.Sprintf("distinct count = %v", count)
		return base

	default:
		base.Status = StatusSkipped
		base.Message = fmt.Sprintf("unknown check kind %q", inv.Check.Kind)
		return base
	}
}

func substitute(sqlText, destination string, key partition.Key) string {
	sqlText = strings.ReplaceAll(sqlText, "{destination}", "`"+destination+"`")
	sqlText = strings.ReplaceAll(sqlText, "@partition_date", key.SQLLiteral())
	return sqlText
}

func withinBounds(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

func pass(ok bool) Status {
	if ok {
		return StatusPassed
	}
	return StatusFailed
}

func scalarInt(s warehouse.Scalar) int64 {
	if s.Int != nil {
		return *s.Int
	}
	if s.Float != nil {
		return int64(*s.Float)
	}
	return 0
}

func scalarFloat(s warehouse.Scalar) float64 {
	if s.Float != nil {
		return *s.Float
	}
	if s.Int != nil {
		return float64(*s.Int)
	}
	return 0
}

func scalarMinMax(s warehouse.Scalar) (float64, float64) {
	if s.MinMax != nil {
		return s.MinMax[0], s.MinMax[1]
	}
	return 0, 0
}
