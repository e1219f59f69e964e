// Package dsl loads a directory of declaration files into resolved
// catalog.QueryDef values: textual preprocessing of ${{ file: ... }}
// includes, YAML parsing, and cross-version reference resolution
// (${{ versions.N.schema/invariants/sql }}, extends/base/add/modify/
// remove).
package dsl

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// fileIncludePattern matches the ${{ file: path }} escape. Whitespace
// around the colon and inside the braces is tolerated.
var fileIncludePattern = regexp.MustCompile(`\$\{\{\s*file:\s*([^\}]+?)\s*\}\}`)

// ErrFileInclude is returned for any preprocessor failure: a missing
// included file or a cycle.
type ErrFileInclude struct {
	Path   string
	Reason string
}

func (e *ErrFileInclude) Error() string {
	return fmt.Sprintf("dsl: file include %q: %s", e.Path, e.Reason)
}

// Code implements versionlakeerr.Error.
func (e *ErrFileInclude) Code() string { return "FILE_INCLUDE_FAILED" }

// Unwrap implements versionlakeerr.Error; the reason is already flattened to a string.
func (e *ErrFileInclude) Unwrap() error { return nil }

// Preprocess expands every ${{ file: path }} reference in the file at
// path, returning the fully-expanded text. visited must start empty (or
// nil) on the outermost call; it is threaded through recursive calls to
// detect cycles.
func Preprocess(path string, visited map[string]bool) (string, error) {
	if visited == nil {
		visited = map[string]bool{}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ErrFileInclude{Path: path, Reason: err.Error()}
	}
	if visited[abs] {
		return "", &ErrFileInclude{Path: path, Reason: "circular include"}
	}
	visited[abs] = true
	defer delete(visited, abs)

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &ErrFileInclude{Path: path, Reason: err.Error()}
	}
	return expand(string(raw), filepath.Dir(path), visited)
}

func expand(content, baseDir string, visited map[string]bool) (string, error) {
	lines := strings.Split(content, "\n")
	var out []string

	for _, line := range lines {
		match := fileIncludePattern.FindStringSubmatchIndex(line)
		if match == nil {
			out = append(out, line)
			continue
		}

		refPath := line[match[2]:match[3]]
		includePath := refPath
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}

		included, err := Preprocess(includePath, visited)
		if err != nil {
			return "", err
		}

		prefix := line[:match[0]]
		suffix := line[match[1]:]
		out = append(out, renderInclude(prefix, suffix, included))
	}

	return strings.Join(out, "\n"), nil
}

// renderInclude emits the expansion of one ${{ file: ... }} reference.
// A value position is detected heuristically: the text preceding the
// reference, trimmed, ends with ":". Multi-line content at a value
// position is folded as a block scalar; otherwise each continuation
// line repeats the detected indentation prefix.
func renderInclude(prefix, suffix, included string) string {
	indent := leadingWhitespace(prefix)
	trimmedPrefix := strings.TrimRight(prefix, " \t")
	isValuePosition := strings.HasSuffix(strings.TrimSpace(trimmedPrefix), ":")

	if !strings.Contains(included, "\n") {
		return prefix + included + suffix
	}

	includedLines := strings.Split(included, "\n")

	if isValuePosition {
		var b strings.Builder
		b.WriteString(trimmedPrefix)
		b.WriteString(" |\n")
		for _, l := range includedLines {
			b.WriteString(indent)
			b.WriteString("  ")
			b.WriteString(l)
			b.WriteString("\n")
		}
		return strings.TrimSuffix(b.String(), "\n") + suffix
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(includedLines[0])
	for _, l := range includedLines[1:] {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(l)
	}
	b.WriteString(suffix)
	return b.String()
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}
