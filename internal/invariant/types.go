// Package invariant models the closed set of data-quality checks that
// can run before or after a partition write, and the engine that lowers
// each to SQL and executes it against a warehouse.Client.
package invariant

// Severity is the closed set of invariant severities.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// CheckKind is the closed tag of the InvariantCheck union.
type CheckKind string

const (
	CheckZeroRows       CheckKind = "ZERO_ROWS"
	CheckRowCount       CheckKind = "ROW_COUNT"
	CheckNullPercentage CheckKind = "NULL_PERCENTAGE"
	CheckValueRange     CheckKind = "VALUE_RANGE"
	CheckColumnCheck    CheckKind = "COLUMN_CHECK"
	CheckDistinctCount  CheckKind = "DISTINCT_COUNT"
)

// Check is the tagged union of invariant checks. Exactly one
// constructor below should populate the fields relevant to its Kind;
// the engine dispatches on Kind alone.
type Check struct {
	Kind CheckKind

	// ZeroRows
	SQL string

	// Shared across RowCount/NullPercentage/ValueRange/ColumnCheck/DistinctCount.
	Source string // optional; empty means "the destination partition just written"
	Column string

	// RowCount, ValueRange, DistinctCount
	Min *float64
	Max *float64

	// NullPercentage
	MaxPercent float64

	// ColumnCheck
	Predicate string
}

func ZeroRows(sql string) Check {
	return Check{Kind: CheckZeroRows, SQL: sql}
}

func RowCount(source string, min, max *float64) Check {
	return Check{Kind: CheckRowCount, Source: source, Min: min, Max: max}
}

func NullPercentage(source, column string, maxPct float64) Check {
	return Check{Kind: CheckNullPercentage, Source: source, Column: column, MaxPercent: maxPct}
}

func ValueRange(source, column string, min, max *float64) Check {
	return Check{Kind: CheckValueRange, Source: source, Column: column, Min: min, Max: max}
}

func ColumnCheck(source, column, predicate string) Check {
	return Check{Kind: CheckColumnCheck, Source: source, Column: column, Predicate: predicate}
}

func DistinctCount(source, column string, min, max *float64) Check {
	return Check{Kind: CheckDistinctCount, Source: source, Column: column, Min: min, Max: max}
}

// Invariant names, describes and attaches severity to one Check.
type Invariant struct {
	Name        string
	Description string
	Severity    Severity
	Check       Check
}

// Def is the before/after pair resolved for one version.
type Def struct {
	Before []Invariant
	After  []Invariant
}

// Status is the outcome of running one invariant.
type Status string

const (
	StatusPassed  Status = "Passed"
	StatusFailed  Status = "Failed"
	StatusSkipped Status = "Skipped"
)

// Result is the per-check outcome the engine returns.
type Result struct {
	Name     string
	Status   Status
	Severity Severity
	Message  string
	Details  string
}

// Report bundles the before/after results of one writer run.
type Report struct {
	Before []Result
	After  []Result
}

// HasBlockingFailure reports whether any before-result is a Failed
// ERROR-severity check, the condition that aborts the writer before
// SQL executes.
func (r Report) HasBlockingFailure() bool {
	for _, res := range r.Before {
		if res.Status == StatusFailed && res.Severity == SeverityError {
			return true
		}
	}
	return false
}
