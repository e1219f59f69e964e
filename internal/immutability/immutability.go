// Package immutability audits already-executed SQL sources for
// post-hoc mutation: a (query, version, revision) pair's SQL must never
// change once it has an execution record, because the ledger's
// checksum history assumes it didn't.
package immutability

import (
	"time"

	"github.com/withObsrvr/versionlake/internal/artifact"
	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/ledger"
)

// SourceID names one (query, version, revision?) SQL source.
type SourceID struct {
	Query    string
	Version  int
	Revision *int // nil for the version's base source
}

// Violation is emitted when a source's currently-declared SQL differs
// from SQL the ledger recorded as having actually executed under it.
type Violation struct {
	Source     SourceID
	Dates      []time.Time
	StoredSQL  string
	CurrentSQL string
}

// Audit walks every source in queries and compares it against every
// ledger entry that ran under it. Whitespace-sensitive: any character
// differing is a violation.
func Audit(queries []catalog.QueryDef, entries []ledger.Entry) []Violation {
	var violations []Violation
	for _, q := range queries {
		for _, v := range q.Versions {
			violations = append(violations, auditOne(q.Name, v.Version, nil, v.SQLContent, entries)...)
			for _, rev := range v.Revisions {
				r := rev.Revision
				violations = append(violations, auditOne(q.Name, v.Version, &r, rev.SQLContent, entries)...)
			}
		}
	}
	return violations
}

func auditOne(queryName string, version int, revision *int, currentSQL string, entries []ledger.Entry) []Violation {
	var mismatchDates []time.Time
	var storedSQL string
	mismatched := false

	for _, e := range entries {
		if e.QueryName != queryName || e.Version != version || !sameRevision(e.Revision, revision) {
			continue
		}
		decoded, err := artifact.Decompress(e.CompressedSQL)
		if err != nil {
			continue
		}
		if decoded != currentSQL {
			mismatched = true
			mismatchDates = append(mismatchDates, e.PartitionKey.Date())
			storedSQL = decoded
		}
	}

	if !mismatched {
		return nil
	}
	return []Violation{{
		Source:     SourceID{Query: queryName, Version: version, Revision: revision},
		Dates:      mismatchDates,
		StoredSQL:  storedSQL,
		CurrentSQL: currentSQL,
	}}
}

func sameRevision(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
