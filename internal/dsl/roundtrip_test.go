package dsl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const roundtripDecl = `
name: orders_daily
description: "daily order rollup"
owner: analytics-team
tags: ["finance", "daily"]
destination:
  dataset: analytics
  table: orders_daily
  partition:
    field: dt
    type: DAY
  cluster: ["customer_id"]
versions:
  - version: 1
    effective_from: "2024-01-01"
    source: "SELECT @partition_date AS dt, customer_id, 1 AS n FROM upstream_orders"
    schema:
      - name: dt
        type: DATE
      - name: customer_id
        type: STRING
      - name: n
        type: INT64
    revisions:
      - revision: 1
        effective_from: "2024-03-01"
        source: "SELECT @partition_date AS dt, customer_id, 2 AS n FROM upstream_orders"
        reason: "double-counted fix"
`

// TestCatalogRoundTrip checks that loading, discarding and reloading a
// declaration yields the same catalog.QueryDef under structural
// equality (dependency-set ordering aside), the way the resolver's own
// sorting by version/revision number already guarantees.
func TestCatalogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orders_daily.yaml", roundtripDecl)

	first, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	firstQuery, err := ResolveQuery(first.Query)
	if err != nil {
		t.Fatal(err)
	}

	second, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	secondQuery, err := ResolveQuery(second.Query)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(firstQuery, secondQuery); diff != "" {
		t.Errorf("reloading the same declaration produced a structurally different QueryDef (-first +second):\n%s", diff)
	}
}
