// Package validate runs the closed set of static checks over a
// resolved catalog.QueryDef. The validator is pure: it never mutates
// its input and always returns a full report, leaving callers to decide
// whether warnings are fatal.
package validate

import (
	"fmt"
	"strings"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/schema"
)

// Code is the closed set of validator diagnostic codes.
type Code string

const (
	E001 Code = "E001" // partition field not present in some version's schema
	E002 Code = "E002" // cluster field not present in some version's schema
	E003 Code = "E003" // duplicate version integer
	E004 Code = "E004" // RECORD field with empty or missing nested fields
	W001 Code = "W001" // version N+1's effective_from precedes version N's
	W002 Code = "W002" // duplicate revision integer within a version
	W003 Code = "W003" // field removed across versions
	W004 Code = "W004" // field type changed across versions
	W005 Code = "W005" // SQL contains none of the partition-date placeholders
	W006 Code = "W006" // version has empty schema
)

// Diagnostic is one reported finding.
type Diagnostic struct {
	Code    Code
	Message string
}

// Report is the validator's pure output: two lists, never mutated
// in-place by callers who want to keep the original.
type Report struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

func (r *Report) addError(code Code, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) addWarning(code Code, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)})
}

// OK reports whether the catalog has no errors (warnings never fail
// validation on their own; callers decide).
func (r Report) OK() bool { return len(r.Errors) == 0 }

var placeholders = []string{"@partition_date", "@run_date", "@execution_date"}

// Validate runs every static check over q and returns a full report.
func Validate(q catalog.QueryDef) Report {
	var r Report

	checkDuplicateVersions(q, &r)
	checkPartitionField(q, &r)
	checkClusterFields(q, &r)

	for i, v := range q.Versions {
		checkRecordFields(q.Name, v.Version, v.Schema, &r)
		checkEmptySchema(q.Name, v, &r)
		checkDuplicateRevisions(q.Name, v, &r)
		checkEffectiveFromOrdering(q.Name, q.Versions, i, &r)
		checkPlaceholder(q.Name, v, &r)

		if i > 0 {
			checkFieldDrift(q.Name, q.Versions[i-1], v, &r)
		}
	}

	return r
}

func checkDuplicateVersions(q catalog.QueryDef, r *Report) {
	seen := map[int]bool{}
	for _, v := range q.Versions {
		if seen[v.Version] {
			r.addError(E003, "query %q: duplicate version %d", q.Name, v.Version)
		}
		seen[v.Version] = true
	}
}

func checkPartitionField(q catalog.QueryDef, r *Report) {
	if q.Partition.Field == "" {
		return // ingestion-time tables carry no partition field
	}
	for _, v := range q.Versions {
		if _, ok := v.Schema.FieldByName(q.Partition.Field); !ok {
			r.addError(E001, "query %q: version %d schema has no partition field %q", q.Name, v.Version, q.Partition.Field)
		}
	}
}

func checkClusterFields(q catalog.QueryDef, r *Report) {
	for _, field := range q.Cluster {
		for _, v := range q.Versions {
			if _, ok := v.Schema.FieldByName(field); !ok {
				r.addError(E002, "query %q: version %d schema has no cluster field %q", q.Name, v.Version, field)
			}
		}
	}
}

func checkRecordFields(queryName string, version int, s schema.Schema, r *Report) {
	for _, f := range s {
		checkRecordField(queryName, version, f, r)
	}
}

func checkRecordField(queryName string, version int, f schema.Field, r *Report) {
	if f.Type == schema.TypeRecord && len(f.Fields) == 0 {
		r.addError(E004, "query %q: version %d field %q is RECORD with no nested fields", queryName, version, f.Name)
		return
	}
	for _, nested := range f.Fields {
		checkRecordField(queryName, version, nested, r)
	}
}

func checkEmptySchema(queryName string, v catalog.VersionDef, r *Report) {
	if len(v.Schema) == 0 {
		r.addWarning(W006, "query %q: version %d has an empty schema", queryName, v.Version)
	}
}

func checkDuplicateRevisions(queryName string, v catalog.VersionDef, r *Report) {
	seen := map[int]bool{}
	for _, rev := range v.Revisions {
		if seen[rev.Revision] {
			r.addWarning(W002, "query %q: version %d has duplicate revision %d", queryName, v.Version, rev.Revision)
		}
		seen[rev.Revision] = true
	}
}

func checkEffectiveFromOrdering(queryName string, versions []catalog.VersionDef, i int, r *Report) {
	if i == 0 {
		return
	}
	prev, cur := versions[i-1], versions[i]
	if cur.EffectiveFrom.Before(prev.EffectiveFrom) {
		r.addWarning(W001, "query %q: version %d effective_from precedes version %d's", queryName, cur.Version, prev.Version)
	}
}

func checkPlaceholder(queryName string, v catalog.VersionDef, r *Report) {
	for _, ph := range placeholders {
		if strings.Contains(v.SQLContent, ph) {
			return
		}
	}
	r.addWarning(W005, "query %q: version %d SQL contains none of %v", queryName, v.Version, placeholders)
}

func checkFieldDrift(queryName string, prev, cur catalog.VersionDef, r *Report) {
	for _, pf := range prev.Schema {
		cf, ok := cur.Schema.FieldByName(pf.Name)
		if !ok {
			r.addWarning(W003, "query %q: field %q removed between version %d and %d", queryName, pf.Name, prev.Version, cur.Version)
			continue
		}
		if cf.Type != pf.Type {
			r.addWarning(W004, "query %q: field %q changed type %s -> %s between version %d and %d", queryName, pf.Name, pf.Type, cf.Type, prev.Version, cur.Version)
		}
	}
}
