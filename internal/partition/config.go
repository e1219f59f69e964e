package partition

import "fmt"

// Config describes how a destination table is partitioned: the field it
// is keyed on (absent for ingestion-time tables) and, for RANGE, the
// integer bucket boundaries.
type Config struct {
	Field string `yaml:"field"`
	Type  Type   `yaml:"type"`

	// RANGE only.
	Start    int64 `yaml:"start"`
	End      int64 `yaml:"end"`
	Interval int64 `yaml:"interval"`
}

// Validate checks internal consistency of a partition config.
func (c Config) Validate() error {
	switch c.Type {
	case TypeHour, TypeDay, TypeMonth, TypeYear, TypeIngestionTime:
		return nil
	case TypeRange:
		if c.Interval <= 0 {
			return fmt.Errorf("partition: range config requires interval > 0")
		}
		if c.End <= c.Start {
			return fmt.Errorf("partition: range config requires end > start")
		}
		return nil
	default:
		return fmt.Errorf("partition: unknown partition type %q", c.Type)
	}
}

// Cluster is an ordered list of 1-4 field names used to cluster the
// destination table. More than four fields is a construction error.
type Cluster []string

// Validate enforces the 1-4 field limit. An empty cluster is valid —
// absence of clustering is expressed by a nil Cluster, not an empty one,
// but callers that do construct one with zero fields aren't breaking any
// invariant stated anywhere else.
func (c Cluster) Validate() error {
	if len(c) > 4 {
		return fmt.Errorf("partition: cluster config allows at most 4 fields, got %d", len(c))
	}
	return nil
}
