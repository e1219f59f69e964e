package dsl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/invariant"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/schema"
	"github.com/withObsrvr/versionlake/internal/sqldep"
)

// ErrResolve is a fatal catalog-resolution error: a malformed version
// reference, an unknown base version, a duplicated version number, or
// a schema/invariant reference naming the wrong field.
type ErrResolve struct {
	Query  string
	Reason string
}

func (e *ErrResolve) Error() string {
	return fmt.Sprintf("dsl: query %q: %s", e.Query, e.Reason)
}

// Code implements versionlakeerr.Error.
func (e *ErrResolve) Code() string { return "RESOLVE_FAILED" }

// Unwrap implements versionlakeerr.Error; the reason is already flattened to a string.
func (e *ErrResolve) Unwrap() error { return nil }

var versionRefPattern = regexp.MustCompile(`^\$\{\{\s*versions\.(\d+)\.(schema|invariants|sql)\s*\}\}$`)

type resolvedVersion struct {
	schema     schema.Schema
	invariants invariant.Def
	sql        string
}

// ResolveQuery resolves a RawQuery into an immutable catalog.QueryDef,
// processing versions in ascending version-number order and
// maintaining a table of resolved schema/invariants per version so
// later versions can reference earlier ones.
func ResolveQuery(raw RawQuery) (catalog.QueryDef, error) {
	q := catalog.QueryDef{
		Name:        raw.Name,
		Destination: catalog.TableRef{Project: raw.Destination.Project, Dataset: raw.Destination.Dataset, Table: raw.Destination.Table},
		Description: raw.Description,
		Owner:       raw.Owner,
		Tags:        raw.Tags,
	}

	pc := partition.Config{
		Field:    raw.Destination.Partition.Field,
		Type:     partition.Type(raw.Destination.Partition.Type),
		Start:    raw.Destination.Partition.Start,
		End:      raw.Destination.Partition.End,
		Interval: raw.Destination.Partition.Interval,
	}
	if err := pc.Validate(); err != nil {
		return catalog.QueryDef{}, &ErrResolve{Query: raw.Name, Reason: err.Error()}
	}
	q.Partition = pc

	cluster := partition.Cluster(raw.Destination.Cluster)
	if err := cluster.Validate(); err != nil {
		return catalog.QueryDef{}, &ErrResolve{Query: raw.Name, Reason: err.Error()}
	}
	q.Cluster = cluster

	versions := append([]RawVersion(nil), raw.Versions...)
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })

	seen := map[int]bool{}
	resolvedByVersion := map[int]resolvedVersion{}

	for _, rv := range versions {
		if seen[rv.Version] {
			return catalog.QueryDef{}, &ErrResolve{Query: raw.Name, Reason: fmt.Sprintf("duplicate version %d", rv.Version)}
		}
		seen[rv.Version] = true

		effectiveFrom, err := parseDate(rv.EffectiveFrom)
		if err != nil {
			return catalog.QueryDef{}, &ErrResolve{Query: raw.Name, Reason: fmt.Sprintf("version %d: %s", rv.Version, err)}
		}

		resolvedSchema, err := resolveSchema(raw.Name, rv.Version, rv.Schema, resolvedByVersion)
		if err != nil {
			return catalog.QueryDef{}, err
		}

		resolvedInvariants, err := resolveInvariants(raw.Name, rv.Version, rv.Invariants, resolvedByVersion)
		if err != nil {
			return catalog.QueryDef{}, err
		}

		resolvedSQL, err := resolveSource(raw.Name, rv.Version, rv.Source, resolvedByVersion)
		if err != nil {
			return catalog.QueryDef{}, err
		}

		resolvedByVersion[rv.Version] = resolvedVersion{schema: resolvedSchema, invariants: resolvedInvariants, sql: resolvedSQL}

		v := catalog.VersionDef{
			Version:       rv.Version,
			EffectiveFrom: effectiveFrom,
			Schema:        resolvedSchema,
			SQLContent:    resolvedSQL,
			Dependencies:  sqldep.Extract(resolvedSQL),
			Invariants:    resolvedInvariants,
			Description:   rv.Description,
		}
		if rv.BackfillSince != "" {
			bf, err := parseDate(rv.BackfillSince)
			if err != nil {
				return catalog.QueryDef{}, &ErrResolve{Query: raw.Name, Reason: fmt.Sprintf("version %d backfill_since: %s", rv.Version, err)}
			}
			v.BackfillSince = &bf
		}

		revisions := append([]RawRevision(nil), rv.Revisions...)
		sort.Slice(revisions, func(i, j int) bool { return revisions[i].Revision < revisions[j].Revision })
		for _, rr := range revisions {
			revEffectiveFrom, err := parseDate(rr.EffectiveFrom)
			if err != nil {
				return catalog.QueryDef{}, &ErrResolve{Query: raw.Name, Reason: fmt.Sprintf("version %d revision %d: %s", rv.Version, rr.Revision, err)}
			}
			v.Revisions = append(v.Revisions, catalog.Revision{
				Revision:      rr.Revision,
				EffectiveFrom: revEffectiveFrom,
				SQLContent:    rr.Source,
				Reason:        rr.Reason,
				Dependencies:  sqldep.Extract(rr.Source),
			})
		}

		q.Versions = append(q.Versions, v)
	}

	return q, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// resolveSource handles the "${{ versions.N.sql }}" form of a version's
// source; any other text (inline SQL, or the expansion the preprocessor
// already substituted for a file include) passes through unchanged.
func resolveSource(queryName string, version int, source string, resolved map[int]resolvedVersion) (string, error) {
	trimmed := strings.TrimSpace(source)
	if !versionRefPattern.MatchString(trimmed) {
		return source, nil
	}
	n, field, err := parseVersionRef(trimmed)
	if err != nil {
		return "", &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: %s", version, err)}
	}
	if field != "sql" {
		return "", &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: source reference names field %q, want \"sql\"", version, field)}
	}
	base, ok := resolved[n]
	if !ok {
		return "", &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: source references unresolved version %d", version, n)}
	}
	return base.sql, nil
}

func resolveSchema(queryName string, version int, ref RawSchemaRef, resolved map[int]resolvedVersion) (schema.Schema, error) {
	if ref.Ref != "" {
		n, field, err := parseVersionRef(ref.Ref)
		if err != nil {
			return nil, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: %s", version, err)}
		}
		if field != "schema" {
			return nil, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: schema reference names field %q, want \"schema\"", version, field)}
		}
		base, ok := resolved[n]
		if !ok {
			return nil, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: schema references unresolved version %d", version, n)}
		}
		return base.schema.Clone(), nil
	}

	if ref.Base != "" {
		n, field, err := parseVersionRef(ref.Base)
		if err != nil {
			return nil, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: %s", version, err)}
		}
		if field != "schema" {
			return nil, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: base reference names field %q, want \"schema\"", version, field)}
		}
		base, ok := resolved[n]
		if !ok {
			return nil, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: extends unresolved base version %d", version, n)}
		}
		return applySchemaOps(base.schema.Clone(), ref), nil
	}

	return convertFields(ref.Inline), nil
}

func applySchemaOps(base schema.Schema, ref RawSchemaRef) schema.Schema {
	removeSet := map[string]bool{}
	for _, name := range ref.Remove {
		removeSet[name] = true
	}
	var out schema.Schema
	for _, f := range base {
		if removeSet[f.Name] {
			continue
		}
		out = append(out, f)
	}
	for _, mf := range convertFields(ref.Modify) {
		for i, f := range out {
			if f.Name == mf.Name {
				out[i] = mf
			}
		}
	}
	out = append(out, convertFields(ref.Add)...)
	return out
}

func convertFields(raw []RawField) schema.Schema {
	if raw == nil {
		return nil
	}
	out := make(schema.Schema, len(raw))
	for i, f := range raw {
		out[i] = schema.Field{
			Name:        f.Name,
			Type:        schema.FieldType(f.Type),
			Mode:        schema.Mode(f.Mode),
			Description: f.Description,
			Fields:      convertFields(f.Fields),
		}
	}
	return out
}

func resolveInvariants(queryName string, version int, ref RawInvariantsRef, resolved map[int]resolvedVersion) (invariant.Def, error) {
	if ref.Ref != "" {
		n, field, err := parseVersionRef(ref.Ref)
		if err != nil {
			return invariant.Def{}, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: %s", version, err)}
		}
		if field != "invariants" {
			return invariant.Def{}, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: invariants reference names field %q, want \"invariants\"", version, field)}
		}
		base, ok := resolved[n]
		if !ok {
			return invariant.Def{}, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: invariants references unresolved version %d", version, n)}
		}
		return base.invariants, nil
	}

	if ref.Base != "" {
		n, field, err := parseVersionRef(ref.Base)
		if err != nil {
			return invariant.Def{}, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: %s", version, err)}
		}
		if field != "invariants" {
			return invariant.Def{}, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: base reference names field %q, want \"invariants\"", version, field)}
		}
		base, ok := resolved[n]
		if !ok {
			return invariant.Def{}, &ErrResolve{Query: queryName, Reason: fmt.Sprintf("version %d: extends unresolved base version %d", version, n)}
		}
		return invariant.Def{
			Before: applyInvariantOps(base.invariants.Before, ref.RemoveBefore, ref.ModifyBefore, ref.AddBefore),
			After:  applyInvariantOps(base.invariants.After, ref.RemoveAfter, ref.ModifyAfter, ref.AddAfter),
		}, nil
	}

	return invariant.Def{
		Before: convertInvariants(ref.InlineBefore),
		After:  convertInvariants(ref.InlineAfter),
	}, nil
}

func applyInvariantOps(base []invariant.Invariant, remove []string, modify, add []RawInvariant) []invariant.Invariant {
	removeSet := map[string]bool{}
	for _, name := range remove {
		removeSet[name] = true
	}
	var out []invariant.Invariant
	for _, inv := range base {
		if removeSet[inv.Name] {
			continue
		}
		out = append(out, inv)
	}
	for _, mi := range convertInvariants(modify) {
		for i, inv := range out {
			if inv.Name == mi.Name {
				out[i] = mi
			}
		}
	}
	out = append(out, convertInvariants(add)...)
	return out
}

func convertInvariants(raw []RawInvariant) []invariant.Invariant {
	if raw == nil {
		return nil
	}
	out := make([]invariant.Invariant, len(raw))
	for i, ri := range raw {
		out[i] = invariant.Invariant{
			Name:        ri.Name,
			Description: ri.Description,
			Severity:    invariant.Severity(ri.Severity),
			Check:       convertCheck(ri),
		}
	}
	return out
}

func convertCheck(ri RawInvariant) invariant.Check {
	switch invariant.CheckKind(ri.Kind) {
	case invariant.CheckZeroRows:
		return invariant.ZeroRows(ri.SQL)
	case invariant.CheckRowCount:
		return invariant.RowCount(ri.Source, ri.Min, ri.Max)
	case invariant.CheckNullPercentage:
		return invariant.NullPercentage(ri.Source, ri.Column, ri.MaxPercent)
	case invariant.CheckValueRange:
		return invariant.ValueRange(ri.Source, ri.Column, ri.Min, ri.Max)
	case invariant.CheckColumnCheck:
		return invariant.ColumnCheck(ri.Source, ri.Column, ri.Predicate)
	case invariant.CheckDistinctCount:
		return invariant.DistinctCount(ri.Source, ri.Column, ri.Min, ri.Max)
	default:
		return invariant.Check{Kind: invariant.CheckKind(ri.Kind)}
	}
}

func parseVersionRef(ref string) (int, string, error) {
	m := versionRefPattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, "", fmt.Errorf("malformed version reference %q", ref)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", fmt.Errorf("malformed version reference %q", ref)
	}
	return n, m[2], nil
}
