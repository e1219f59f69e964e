package dsl

// RawQuery is the unresolved, directly-unmarshaled form of one
// declaration file, before the preprocessor and resolver run.
type RawQuery struct {
	Name        string         `yaml:"name"`
	Destination RawDestination `yaml:"destination"`
	Description string         `yaml:"description,omitempty"`
	Owner       string         `yaml:"owner,omitempty"`
	Tags        []string       `yaml:"tags,omitempty"`
	Versions    []RawVersion   `yaml:"versions"`
}

type RawDestination struct {
	Project   string       `yaml:"project,omitempty"`
	Dataset   string       `yaml:"dataset"`
	Table     string       `yaml:"table"`
	Partition RawPartition `yaml:"partition"`
	Cluster   []string     `yaml:"cluster,omitempty"`
}

type RawPartition struct {
	Field    string `yaml:"field,omitempty"`
	Type     string `yaml:"type"`
	Start    int64  `yaml:"start,omitempty"`
	End      int64  `yaml:"end,omitempty"`
	Interval int64  `yaml:"interval,omitempty"`
}

type RawVersion struct {
	Version       int              `yaml:"version"`
	EffectiveFrom string           `yaml:"effective_from"`
	Source        string           `yaml:"source"`
	Schema        RawSchemaRef     `yaml:"schema"`
	Invariants    RawInvariantsRef `yaml:"invariants"`
	Revisions     []RawRevision    `yaml:"revisions,omitempty"`
	BackfillSince string           `yaml:"backfill_since,omitempty"`
	Description   string           `yaml:"description,omitempty"`
}

type RawRevision struct {
	Revision      int    `yaml:"revision"`
	EffectiveFrom string `yaml:"effective_from"`
	Source        string `yaml:"source"`
	Reason        string `yaml:"reason,omitempty"`
}

// RawSchemaRef is one of three forms: inline field list, a reference to
// an earlier version's resolved schema, or an extension of one.
type RawSchemaRef struct {
	Inline []RawField `yaml:"-"` // populated when the node is a sequence
	Ref    string     `yaml:"-"` // "${{ versions.N.schema }}" form
	Base   string     `yaml:"base,omitempty"`
	Add    []RawField `yaml:"add,omitempty"`
	Modify []RawField `yaml:"modify,omitempty"`
	Remove []string   `yaml:"remove,omitempty"`
}

type RawField struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Mode        string     `yaml:"mode,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Fields      []RawField `yaml:"fields,omitempty"`
}

// RawInvariantsRef mirrors RawSchemaRef's three forms, with separate
// before/after sub-lists for add/modify/remove.
type RawInvariantsRef struct {
	InlineBefore []RawInvariant `yaml:"-"`
	InlineAfter  []RawInvariant `yaml:"-"`
	Ref          string         `yaml:"-"`
	Base         string         `yaml:"base,omitempty"`
	AddBefore    []RawInvariant `yaml:"add_before,omitempty"`
	ModifyBefore []RawInvariant `yaml:"modify_before,omitempty"`
	RemoveBefore []string       `yaml:"remove_before,omitempty"`
	AddAfter     []RawInvariant `yaml:"add_after,omitempty"`
	ModifyAfter  []RawInvariant `yaml:"modify_after,omitempty"`
	RemoveAfter  []string       `yaml:"remove_after,omitempty"`
}

type RawInvariant struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Severity    string   `yaml:"severity"`
	Kind        string   `yaml:"kind"`
	SQL         string   `yaml:"sql,omitempty"`
	Source      string   `yaml:"source,omitempty"`
	Column      string   `yaml:"column,omitempty"`
	Min         *float64 `yaml:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty"`
	MaxPercent  float64  `yaml:"max_pct,omitempty"`
	Predicate   string   `yaml:"predicate,omitempty"`
}
