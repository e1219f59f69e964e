package warehouse

import "fmt"

// ErrorKind is the closed set of warehouse-error classifications.
type ErrorKind string

const (
	KindAuthenticationFailed ErrorKind = "AUTH_FAILED"
	KindInvalidCredentials   ErrorKind = "INVALID_CREDENTIALS"
	KindConnectionFailed     ErrorKind = "CONNECTION_FAILED"
	KindInvalidQuery         ErrorKind = "INVALID_QUERY"
	KindTableNotFound        ErrorKind = "TABLE_NOT_FOUND"
	KindDatasetNotFound      ErrorKind = "DATASET_NOT_FOUND"
	KindAccessDenied         ErrorKind = "ACCESS_DENIED"
	KindQuotaExceeded        ErrorKind = "QUOTA_EXCEEDED"
	KindResourcesExceeded    ErrorKind = "RESOURCES_EXCEEDED"
	KindTimeout              ErrorKind = "TIMEOUT"
	KindSchemaMismatch       ErrorKind = "SCHEMA_MISMATCH"
	KindUnknown              ErrorKind = "UNKNOWN"
)

// Error is the promoted, classified form of a raw client error, carrying
// the context needed to render a remediation hint.
type Error struct {
	Kind ErrorKind

	// context common to most kinds
	SQLPreview string
	Operation  string
	Project    string
	Dataset    string
	Table      string

	Message            string
	Location           string // "[line:col]"
	RequiredPermission string
	QuotaType          string
	Suggestion         string
	DurationMS         int64
	Field              string
	RawCode            string
	Raw                error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Raw }

// Code implements versionlakeerr.Error.
func (e *Error) Code() string { return string(e.Kind) }

// Hint returns a human-readable remediation suggestion for the error's
// kind. Warehouse errors that already carry a driver-supplied
// suggestion (ResourcesExceeded) prefer that text.
func (e *Error) Hint() string {
	if e.Suggestion != "" {
		return e.Suggestion
	}
	switch e.Kind {
	case KindAuthenticationFailed, KindInvalidCredentials:
		return "verify warehouse credentials are present and unexpired"
	case KindConnectionFailed:
		return "check network connectivity and the warehouse endpoint"
	case KindInvalidQuery:
		if e.Location != "" {
			return fmt.Sprintf("fix the SQL syntax error at %s", e.Location)
		}
		return "fix the SQL syntax error"
	case KindTableNotFound:
		return fmt.Sprintf("table %s.%s.%s does not exist; run versionlakectl load --migrate to create it", e.Project, e.Dataset, e.Table)
	case KindDatasetNotFound:
		return fmt.Sprintf("dataset %s.%s does not exist", e.Project, e.Dataset)
	case KindAccessDenied:
		if e.RequiredPermission != "" {
			return fmt.Sprintf("grant the %s permission on %s", e.RequiredPermission, e.Operation)
		}
		return "grant the missing IAM permission"
	case KindQuotaExceeded:
		return fmt.Sprintf("%s quota exceeded; retry after backoff or request a quota increase", e.QuotaType)
	case KindResourcesExceeded:
		return "simplify the query or increase resource limits"
	case KindTimeout:
		return fmt.Sprintf("operation %s exceeded its timeout; consider increasing it", e.Operation)
	case KindSchemaMismatch:
		if e.Field != "" {
			return fmt.Sprintf("reconcile schema field %q with the destination table", e.Field)
		}
		return "reconcile the declared schema with the destination table"
	default:
		return "no automatic remediation available"
	}
}

func truncateSQL(sql string) string {
	const max = 500
	if len(sql) <= max {
		return sql
	}
	return sql[:max]
}
