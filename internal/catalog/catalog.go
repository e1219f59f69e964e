// Package catalog holds the resolved, immutable declaration model:
// QueryDef, VersionDef, Revision and their invariant lists, plus the
// version_for/sql_for resolution rules that every other component
// (writer, drift detector, auditors) relies on.
package catalog

import (
	"time"

	"github.com/withObsrvr/versionlake/internal/artifact"
	"github.com/withObsrvr/versionlake/internal/invariant"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/schema"
)

// TableRef identifies a warehouse table — a query's destination or a
// dependency. Project is optional and defaults to the warehouse
// client's configured project.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

// String renders the dotted identifier, omitting the project when
// unset.
func (t TableRef) String() string {
	if t.Project != "" {
		return t.Project + "." + t.Dataset + "." + t.Table
	}
	return t.Dataset + "." + t.Table
}

// QueryDef is one declared query: a stable name, a destination, its
// partitioning/clustering configuration, and an ordered list of
// versions.
type QueryDef struct {
	Name        string
	Destination TableRef
	Partition   partition.Config
	Cluster     partition.Cluster
	Description string
	Owner       string
	Tags        []string
	Versions    []VersionDef // ordered ascending by Version
}

// VersionDef is the immutable unit of correctness: a schema, a primary
// SQL body, and zero or more forward-dated bug-fix revisions.
type VersionDef struct {
	Version       int
	EffectiveFrom time.Time
	Schema        schema.Schema
	SQLContent    string
	Revisions     []Revision // ordered ascending by Revision
	BackfillSince *time.Time
	Description   string
	Dependencies  []string
	Invariants    invariant.Def
}

// Revision is a SQL-only replacement within a version.
type Revision struct {
	Revision      int
	EffectiveFrom time.Time
	SQLContent    string
	Reason        string
	Dependencies  []string
}

// VersionFor returns the version applicable to date, per the rule:
// the version with the greatest EffectiveFrom <= date. Returns false if
// date precedes every version's EffectiveFrom.
func (q QueryDef) VersionFor(date time.Time) (VersionDef, bool) {
	var best *VersionDef
	for i := range q.Versions {
		v := &q.Versions[i]
		if !v.EffectiveFrom.After(date) {
			if best == nil || v.EffectiveFrom.After(best.EffectiveFrom) {
				best = v
			}
		}
	}
	if best == nil {
		return VersionDef{}, false
	}
	return *best, true
}

// SQLFor returns the SQL text applicable on date: the latest revision
// whose EffectiveFrom <= date, or the version's own SQLContent if none
// qualifies.
func (v VersionDef) SQLFor(date time.Time) string {
	var best *Revision
	for i := range v.Revisions {
		r := &v.Revisions[i]
		if !r.EffectiveFrom.After(date) {
			if best == nil || r.EffectiveFrom.After(best.EffectiveFrom) {
				best = r
			}
		}
	}
	if best != nil {
		return best.SQLContent
	}
	return v.SQLContent
}

// DependenciesFor mirrors SQLFor for the dependency set attached to the
// chosen source, since revisions carry their own independently
// extracted dependency list.
func (v VersionDef) DependenciesFor(date time.Time) []string {
	var best *Revision
	for i := range v.Revisions {
		r := &v.Revisions[i]
		if !r.EffectiveFrom.After(date) {
			if best == nil || r.EffectiveFrom.After(best.EffectiveFrom) {
				best = r
			}
		}
	}
	if best != nil {
		return best.Dependencies
	}
	return v.Dependencies
}

// RevisionFor returns the specific Revision (if any) selected by SQLFor
// for date, used by the ledger/writer to record which revision, if
// any, executed.
func (v VersionDef) RevisionFor(date time.Time) (Revision, bool) {
	var best *Revision
	for i := range v.Revisions {
		r := &v.Revisions[i]
		if !r.EffectiveFrom.After(date) {
			if best == nil || r.EffectiveFrom.After(best.EffectiveFrom) {
				best = r
			}
		}
	}
	if best == nil {
		return Revision{}, false
	}
	return *best, true
}

// Checksums computes the (sql, schema, yaml) checksum triple for the
// version applicable on asOfDate, using the SQL that applies on that
// same date (normally time.Now(), but injectable for deterministic
// resolution and tests).
func (q QueryDef) Checksums(asOfDate time.Time, declarationText string) (artifact.Triple, bool, error) {
	v, ok := q.VersionFor(asOfDate)
	if !ok {
		return artifact.Triple{}, false, nil
	}
	sqlText := v.SQLFor(asOfDate)
	schemaJSON, err := v.Schema.Canonical()
	if err != nil {
		return artifact.Triple{}, true, err
	}
	triple, err := artifact.ComputeTriple(sqlText, string(schemaJSON), declarationText)
	return triple, true, err
}
