// Package sqldep extracts the set of upstream tables a query SQL text
// reads from, used by the catalog resolver to attach a dependency list
// to every resolved version and revision. Extraction parses with a real SQL grammar and falls back to
// a conservative regex scan when the grammar rejects the dialect
// extension in use (window functions, QUALIFY, warehouse-specific
// functions).
package sqldep

import (
	"regexp"
	"sort"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Extract returns the sorted, de-duplicated set of table references read
// by sql, excluding any name bound by a WITH clause (a CTE is a local
// alias, not an upstream dependency).
func Extract(sql string) []string {
	if refs, ok := extractParsed(sql); ok {
		return refs
	}
	return extractFallback(sql)
}

func extractParsed(sql string) ([]string, bool) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, false
	}

	ctes := cteNames(sql)
	seen := map[string]bool{}

	sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.ColName:
			// A column's qualifier (a.id) is a TableName node too; skip it.
			return false, nil
		case sqlparser.TableName:
			name := n.Name.String()
			if name != "" && !ctes[strings.ToLower(name)] {
				qualified := name
				if !n.Qualifier.IsEmpty() {
					qualified = n.Qualifier.String() + "." + name
				}
				seen[qualified] = true
			}
		}
		return true, nil
	}, stmt)

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, true
}

// cteNames is a best-effort scan for `WITH name AS (` bindings so common
// table expressions aren't reported as upstream dependencies. sqlparser
// exposes CTEs as ordinary TableName nodes in its AST, so this has to be
// done textually rather than through the visitor.
var cteNamePattern = regexp.MustCompile(`(?is)(?:\bwith\b|,)\s*([a-zA-Z_][a-zA-Z0-9_]*)\s+as\s*\(`)

func cteNames(sql string) map[string]bool {
	withIdx := regexp.MustCompile(`(?i)^\s*with\b`).FindStringIndex(sql)
	if withIdx == nil {
		return nil
	}
	names := map[string]bool{}
	for _, m := range cteNamePattern.FindAllStringSubmatch(sql, -1) {
		names[strings.ToLower(m[1])] = true
	}
	return names
}

// fromTablePattern is the fallback extraction regex, used when the
// dialect extension used by the query text isn't supported by the
// grammar. It looks for identifiers following FROM, JOIN, INTO or
// UPDATE, skipping a
// stoplist of reserved words that can legally follow those keywords in
// constructs the regex can't otherwise distinguish.
var fromTablePattern = regexp.MustCompile(`(?i)\b(?:from|join|into|update)\s+` +
	`([a-zA-Z_][a-zA-Z0-9_.` + "`" + `]*)`)

var fallbackStoplist = map[string]bool{
	"lateral": true, "unnest": true, "select": true, "set": true, "(": true,
}

func extractFallback(sql string) []string {
	ctes := cteNames(sql)
	seen := map[string]bool{}
	for _, m := range fromTablePattern.FindAllStringSubmatch(sql, -1) {
		name := strings.Trim(m[1], "`")
		lower := strings.ToLower(name)
		if fallbackStoplist[lower] || ctes[lower] {
			continue
		}
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
