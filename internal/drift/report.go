package drift

import (
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/withObsrvr/versionlake/internal/artifact"
	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/ledger"
	"github.com/withObsrvr/versionlake/internal/partition"
)

// Report bundles the drift classification of every (query, partition)
// pair in a catalog x range run.
type Report struct {
	Drifts []Drift
}

// Run classifies every partition of every query in queries that falls
// within [from, to], stepping by the query's own partition granularity.
func (d *Detector) Run(queries []catalog.QueryDef, entries []ledger.Entry, declarationTexts map[string]string, from, to time.Time) Report {
	var report Report
	for _, q := range queries {
		for key := firstKey(q.Partition, from); !key.Date().After(to); key = key.Next() {
			report.Drifts = append(report.Drifts, d.Classify(q, key, entries, declarationTexts[q.Name]))
		}
	}
	return report
}

func firstKey(pc partition.Config, from time.Time) partition.Key {
	switch pc.Type {
	case partition.TypeHour:
		return partition.Hour(from)
	case partition.TypeMonth:
		return partition.MonthKey(from.Year(), from.Month())
	case partition.TypeYear:
		return partition.YearKey(from.Year())
	case partition.TypeRange:
		return partition.RangeKey(pc.Start)
	default:
		return partition.Day(from)
	}
}

// ByQuery groups drifts by query name.
func (r Report) ByQuery() map[string][]Drift {
	out := map[string][]Drift{}
	for _, d := range r.Drifts {
		out[d.QueryName] = append(out[d.QueryName], d)
	}
	return out
}

// ByState groups drifts by classification.
func (r Report) ByState() map[State][]Drift {
	out := map[State][]Drift{}
	for _, d := range r.Drifts {
		out[d.State] = append(out[d.State], d)
	}
	return out
}

// NeedsRerun returns every drift whose state is not Current.
func (r Report) NeedsRerun() []Drift {
	var out []Drift
	for _, d := range r.Drifts {
		if d.State != StateCurrent {
			out = append(out, d)
		}
	}
	return out
}

// CountByState summarizes the report as a count per state.
func (r Report) CountByState() map[State]int {
	out := map[State]int{}
	for _, d := range r.Drifts {
		out[d.State]++
	}
	return out
}

// Diff decodes a drift's stored executed SQL and returns a
// line-oriented diff against the currently applicable SQL, so callers
// can render it without a second ledger lookup.
func Diff(d Drift) (string, error) {
	var executed string
	if d.ExecutedSQLB64 != "" {
		decoded, err := artifact.Decompress(d.ExecutedSQLB64)
		if err != nil {
			return "", err
		}
		executed = decoded
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(executed, d.CurrentSQL)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	return dmp.DiffPrettyText(diffs), nil
}
