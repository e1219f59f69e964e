// Package sourceaudit provides a diagnostic view of every declared SQL
// source: whether it has ever executed, and if so whether every
// execution matches the currently declared text. It classifies the
// same (stored SQL vs current SQL) comparison internal/immutability
// audits for violations, but reports every source rather than only
// mismatching ones.
package sourceaudit

import (
	"time"

	"github.com/withObsrvr/versionlake/internal/artifact"
	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/immutability"
	"github.com/withObsrvr/versionlake/internal/ledger"
)

// Classification is the closed per-source outcome.
type Classification string

const (
	NeverExecuted Classification = "NeverExecuted"
	Current       Classification = "Current"
	Modified      Classification = "Modified"
)

// SourceReport is the per-source diagnostic record.
type SourceReport struct {
	Source         immutability.SourceID
	Classification Classification
	ExecutionCount int
	FirstExecuted  *time.Time
	LastExecuted   *time.Time
}

// Audit enumerates every (query, version, revision?) source in queries
// and classifies it against entries.
func Audit(queries []catalog.QueryDef, entries []ledger.Entry) []SourceReport {
	var reports []SourceReport
	for _, q := range queries {
		for _, v := range q.Versions {
			reports = append(reports, classify(q.Name, v.Version, nil, v.SQLContent, entries))
			for _, rev := range v.Revisions {
				r := rev.Revision
				reports = append(reports, classify(q.Name, v.Version, &r, rev.SQLContent, entries))
			}
		}
	}
	return reports
}

func classify(queryName string, version int, revision *int, currentSQL string, entries []ledger.Entry) SourceReport {
	source := immutability.SourceID{Query: queryName, Version: version, Revision: revision}
	var matching []ledger.Entry
	for _, e := range entries {
		if e.QueryName == queryName && e.Version == version && sameRevision(e.Revision, revision) {
			matching = append(matching, e)
		}
	}
	if len(matching) == 0 {
		return SourceReport{Source: source, Classification: NeverExecuted}
	}

	class := Current
	var first, last *time.Time
	for _, e := range matching {
		decoded, err := artifact.Decompress(e.CompressedSQL)
		if err == nil && decoded != currentSQL {
			class = Modified
		}
		t := e.ExecutedAt
		if first == nil || t.Before(*first) {
			first = &t
		}
		if last == nil || t.After(*last) {
			last = &t
		}
	}
	return SourceReport{
		Source:         source,
		Classification: class,
		ExecutionCount: len(matching),
		FirstExecuted:  first,
		LastExecuted:   last,
	}
}

func sameRevision(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Aggregate summarizes a set of reports by classification count.
func Aggregate(reports []SourceReport) map[Classification]int {
	out := map[Classification]int{}
	for _, r := range reports {
		out[r.Classification]++
	}
	return out
}
