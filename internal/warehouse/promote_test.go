package warehouse

import "testing"

func TestPromoteInvalidQueryExtractsLocation(t *testing.T) {
	e := Promote(400, "syntax error at [12:5] near SELECT", "execute", "SELECT *", "p", "d", "t", nil)
	if e.Kind != KindInvalidQuery {
		t.Fatalf("kind = %s, want INVALID_QUERY", e.Kind)
	}
	if e.Location != "[12:5]" {
		t.Errorf("location = %q, want [12:5]", e.Location)
	}
}

func TestPromoteTableNotFound(t *testing.T) {
	e := Promote(404, "Not found: Table project:dataset.table", "query_scalar", "", "p", "d", "t", nil)
	if e.Kind != KindTableNotFound {
		t.Fatalf("kind = %s, want TABLE_NOT_FOUND", e.Kind)
	}
}

func TestPromoteAccessDeniedExtractsPermission(t *testing.T) {
	e := Promote(403, "Access Denied: missing bigquery.tables.get permission", "execute", "", "", "", "", nil)
	if e.Kind != KindAccessDenied {
		t.Fatalf("kind = %s, want ACCESS_DENIED", e.Kind)
	}
	if e.RequiredPermission != "bigquery.tables.get" {
		t.Errorf("permission = %q", e.RequiredPermission)
	}
}

func TestPromoteQuotaExceededClassifiesType(t *testing.T) {
	e := Promote(0, "Quota exceeded: concurrent rate limit", "execute", "", "", "", "", nil)
	if e.Kind != KindQuotaExceeded {
		t.Fatalf("kind = %s, want QUOTA_EXCEEDED", e.Kind)
	}
	if e.QuotaType != "concurrent" {
		t.Errorf("quota type = %q, want concurrent", e.QuotaType)
	}
}

func TestPromoteUnmatchedFallsToUnknown(t *testing.T) {
	e := Promote(0, "something entirely unclassified happened", "execute", "", "", "", "", nil)
	if e.Kind != KindUnknown {
		t.Fatalf("kind = %s, want UNKNOWN", e.Kind)
	}
}

func TestSQLPreviewTruncatedTo500(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	e := Promote(0, "syntax error", "execute", string(long), "", "", "", nil)
	if len(e.SQLPreview) != 500 {
		t.Errorf("preview len = %d, want 500", len(e.SQLPreview))
	}
}

func TestHintFallsBackWhenNoSuggestion(t *testing.T) {
	e := Promote(401, "authentication failed", "execute", "", "", "", "", nil)
	if e.Hint() == "" {
		t.Errorf("expected non-empty hint")
	}
}
