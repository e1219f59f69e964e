package catalog

import (
	"testing"
	"time"

	"github.com/withObsrvr/versionlake/internal/schema"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func twoVersionQuery() QueryDef {
	return QueryDef{
		Name: "q",
		Versions: []VersionDef{
			{
				Version:       1,
				EffectiveFrom: date(2024, 1, 1),
				Schema:        schema.Schema{{Name: "dt", Type: schema.TypeDate}},
				SQLContent:    "SELECT 1",
			},
			{
				Version:       2,
				EffectiveFrom: date(2024, 6, 1),
				Schema:        schema.Schema{{Name: "dt", Type: schema.TypeDate}},
				SQLContent:    "SELECT 2",
			},
		},
	}
}

func TestVersionForPicksGreatestEffectiveFrom(t *testing.T) {
	q := twoVersionQuery()

	v, ok := q.VersionFor(date(2024, 3, 1))
	if !ok || v.Version != 1 {
		t.Errorf("mid-window date resolved to %+v, want version 1", v)
	}

	v, ok = q.VersionFor(date(2024, 8, 1))
	if !ok || v.Version != 2 {
		t.Errorf("post-cutover date resolved to %+v, want version 2", v)
	}
}

func TestVersionForEffectiveFromIsInclusive(t *testing.T) {
	q := twoVersionQuery()
	v, ok := q.VersionFor(date(2024, 6, 1))
	if !ok || v.Version != 2 {
		t.Errorf("exact effective_from resolved to %+v, want version 2", v)
	}
}

func TestVersionForBeforeEarliestReturnsNone(t *testing.T) {
	q := twoVersionQuery()
	if _, ok := q.VersionFor(date(2023, 12, 31)); ok {
		t.Error("expected no version before the earliest effective_from")
	}
}

func TestVersionForIsMonotonic(t *testing.T) {
	q := twoVersionQuery()
	dates := []time.Time{
		date(2024, 1, 1), date(2024, 3, 1), date(2024, 5, 31),
		date(2024, 6, 1), date(2024, 12, 31),
	}
	last := 0
	for _, d := range dates {
		v, ok := q.VersionFor(d)
		if !ok {
			t.Fatalf("no version for %s", d.Format("2006-01-02"))
		}
		if v.Version < last {
			t.Errorf("version regressed at %s: %d < %d", d.Format("2006-01-02"), v.Version, last)
		}
		last = v.Version
	}
}

func TestSQLForPicksLatestApplicableRevision(t *testing.T) {
	v := VersionDef{
		Version:       1,
		EffectiveFrom: date(2024, 1, 1),
		SQLContent:    "SELECT base",
		Revisions: []Revision{
			{Revision: 1, EffectiveFrom: date(2024, 3, 15), SQLContent: "SELECT r1"},
			{Revision: 2, EffectiveFrom: date(2024, 9, 1), SQLContent: "SELECT r2"},
		},
	}

	if got := v.SQLFor(date(2024, 2, 1)); got != "SELECT base" {
		t.Errorf("before any revision: got %q", got)
	}
	if got := v.SQLFor(date(2024, 3, 15)); got != "SELECT r1" {
		t.Errorf("exact revision effective_from: got %q", got)
	}
	if got := v.SQLFor(date(2024, 10, 1)); got != "SELECT r2" {
		t.Errorf("after both revisions: got %q", got)
	}
}

func TestRevisionForMatchesSQLFor(t *testing.T) {
	v := VersionDef{
		Version:       1,
		EffectiveFrom: date(2024, 1, 1),
		SQLContent:    "SELECT base",
		Revisions: []Revision{
			{Revision: 1, EffectiveFrom: date(2024, 3, 15), SQLContent: "SELECT r1"},
		},
	}

	if _, ok := v.RevisionFor(date(2024, 2, 1)); ok {
		t.Error("expected no revision before effective_from")
	}
	rev, ok := v.RevisionFor(date(2024, 4, 1))
	if !ok || rev.Revision != 1 {
		t.Errorf("got %+v, want revision 1", rev)
	}
	if rev.SQLContent != v.SQLFor(date(2024, 4, 1)) {
		t.Error("RevisionFor and SQLFor disagree on the applicable SQL")
	}
}

func TestDependenciesForFollowsRevisionSelection(t *testing.T) {
	v := VersionDef{
		Version:       1,
		EffectiveFrom: date(2024, 1, 1),
		SQLContent:    "SELECT 1 FROM base_table",
		Dependencies:  []string{"base_table"},
		Revisions: []Revision{
			{
				Revision:      1,
				EffectiveFrom: date(2024, 3, 15),
				SQLContent:    "SELECT 1 FROM rev_table",
				Dependencies:  []string{"rev_table"},
			},
		},
	}

	deps := v.DependenciesFor(date(2024, 2, 1))
	if len(deps) != 1 || deps[0] != "base_table" {
		t.Errorf("before revision: got %v", deps)
	}
	deps = v.DependenciesFor(date(2024, 4, 1))
	if len(deps) != 1 || deps[0] != "rev_table" {
		t.Errorf("after revision: got %v", deps)
	}
}

func TestChecksumsUsesSQLForAsOfDate(t *testing.T) {
	q := QueryDef{
		Name: "q",
		Versions: []VersionDef{
			{
				Version:       1,
				EffectiveFrom: date(2024, 1, 1),
				Schema:        schema.Schema{{Name: "dt", Type: schema.TypeDate}},
				SQLContent:    "SELECT base",
				Revisions: []Revision{
					{Revision: 1, EffectiveFrom: date(2024, 3, 15), SQLContent: "SELECT r1"},
				},
			},
		},
	}

	before, ok, err := q.Checksums(date(2024, 2, 1), "decl")
	if err != nil || !ok {
		t.Fatalf("Checksums before revision: ok=%v err=%v", ok, err)
	}
	after, ok, err := q.Checksums(date(2024, 4, 1), "decl")
	if err != nil || !ok {
		t.Fatalf("Checksums after revision: ok=%v err=%v", ok, err)
	}
	if before.SQL == after.SQL {
		t.Error("expected the sql checksum to change once the revision applies")
	}
	if before.Schema != after.Schema || before.YAML != after.YAML {
		t.Error("schema and yaml checksums should be unaffected by a revision")
	}

	if _, ok, _ := q.Checksums(date(2023, 1, 1), "decl"); ok {
		t.Error("expected no checksums before the earliest version")
	}
}
