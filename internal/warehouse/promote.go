package warehouse

import (
	"regexp"
	"strconv"
	"strings"
)

var locationPattern = regexp.MustCompile(`\[(\d+):(\d+)\]`)
var permissionPattern = regexp.MustCompile(`bigquery\.[a-zA-Z]+\.[a-zA-Z]+`)

// Promote classifies a raw driver error into the closed taxonomy, using
// the HTTP status (0 if not applicable) and the raw reason string.
// Unmatched cases fall to Unknown rather than guessing.
func Promote(status int, reason string, operation, sqlPreview, project, dataset, table string, raw error) *Error {
	lower := strings.ToLower(reason)
	e := &Error{
		Operation:  operation,
		SQLPreview: truncateSQL(sqlPreview),
		Project:    project,
		Dataset:    dataset,
		Table:      table,
		Message:    reason,
		Raw:        raw,
	}

	switch {
	case status == 401 || strings.Contains(lower, "authentication"):
		e.Kind = KindAuthenticationFailed
	case strings.Contains(lower, "invalid credentials") || strings.Contains(lower, "invalid_grant"):
		e.Kind = KindInvalidCredentials
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "dial tcp") || strings.Contains(lower, "no such host"):
		e.Kind = KindConnectionFailed
	case strings.Contains(lower, "syntax error") || strings.Contains(lower, "invalid query") || strings.Contains(lower, "parse error"):
		e.Kind = KindInvalidQuery
		if m := locationPattern.FindStringSubmatch(reason); m != nil {
			e.Location = "[" + m[1] + ":" + m[2] + "]"
		}
	case strings.Contains(lower, "not found: table") || (status == 404 && strings.Contains(lower, "table")):
		e.Kind = KindTableNotFound
	case strings.Contains(lower, "not found: dataset") || (status == 404 && strings.Contains(lower, "dataset")):
		e.Kind = KindDatasetNotFound
	case status == 403 || strings.Contains(lower, "access denied") || strings.Contains(lower, "permission"):
		e.Kind = KindAccessDenied
		if m := permissionPattern.FindString(reason); m != "" {
			e.RequiredPermission = m
		}
	case strings.Contains(lower, "quota"):
		e.Kind = KindQuotaExceeded
		e.QuotaType = quotaType(lower)
	case strings.Contains(lower, "resources exceeded"):
		e.Kind = KindResourcesExceeded
		e.Suggestion = extractSuggestion(reason)
	case status == 408 || strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		e.Kind = KindTimeout
		e.DurationMS = extractDurationMS(lower)
	case strings.Contains(lower, "schema") && (strings.Contains(lower, "mismatch") || strings.Contains(lower, "does not match")):
		e.Kind = KindSchemaMismatch
		e.Field = extractField(reason)
	default:
		e.Kind = KindUnknown
		e.RawCode = strconv.Itoa(status)
	}
	return e
}

func quotaType(lower string) string {
	switch {
	case strings.Contains(lower, "concurrent"):
		return "concurrent"
	case strings.Contains(lower, "daily"):
		return "daily"
	case strings.Contains(lower, "rate"):
		return "rate"
	case strings.Contains(lower, "bytes"):
		return "bytes"
	default:
		return "unknown"
	}
}

var suggestionPattern = regexp.MustCompile(`(?is)suggestion:\s*(.+)$`)

func extractSuggestion(reason string) string {
	if m := suggestionPattern.FindStringSubmatch(reason); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var durationPattern = regexp.MustCompile(`(\d+)\s*ms`)

func extractDurationMS(lower string) int64 {
	if m := durationPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		return n
	}
	return 0
}

var fieldPattern = regexp.MustCompile(`field\s+['"]?([a-zA-Z_][a-zA-Z0-9_]*)['"]?`)

func extractField(reason string) string {
	if m := fieldPattern.FindStringSubmatch(reason); m != nil {
		return m[1]
	}
	return ""
}
