// Package drift classifies every (query, partition) pair in a date
// range against the execution ledger, detecting disagreements between
// what the catalog now declares and what was last executed.
package drift

// State is the closed, ordered set of drift classifications. Order
// matters: each rule presumes every earlier rule's condition failed.
type State string

const (
	StateNeverRun        State = "NeverRun"
	StateFailed          State = "Failed"
	StateSchemaChanged   State = "SchemaChanged"
	StateSqlChanged      State = "SqlChanged"
	StateVersionUpgraded State = "VersionUpgraded"
	StateUpstreamChanged State = "UpstreamChanged"
	StateCurrent         State = "Current"
)

// Priority is the evaluation order used by Classify, exposed so callers
// (tests, reports) can assert ordering without duplicating the list.
var Priority = []State{
	StateNeverRun, StateFailed, StateSchemaChanged, StateSqlChanged,
	StateVersionUpgraded, StateUpstreamChanged, StateCurrent,
}
