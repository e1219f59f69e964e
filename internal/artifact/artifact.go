// Package artifact implements the gzip+base64 envelope and SHA-256
// checksum used to content-address SQL, schema and declaration text in
// the execution ledger.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Compress gzips s and returns the result base64-standard-encoded. This
// is the exact form stored in the ledger's executed_sql_b64 column and
// hashed to produce a checksum.
func Compress(s string) (string, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		return "", fmt.Errorf("artifact: gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("artifact: gzip close: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress.
func Decompress(envelope string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("artifact: base64 decode: %w", err)
	}
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("artifact: gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("artifact: gzip read: %w", err)
	}
	return string(out), nil
}

// Checksum returns the SHA-256 hex digest of the gzip+base64 envelope of
// s. The hash input is the compressed envelope, not the plaintext:
// ledger entries written under one algorithm stay comparable only if the
// envelope encoding never changes.
func Checksum(s string) (string, error) {
	envelope, err := Compress(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(envelope))
	return hex.EncodeToString(sum[:]), nil
}

// Triple is the (sql, schema, yaml) checksum triple recorded with every
// ledger entry.
type Triple struct {
	SQL    string
	Schema string
	YAML   string
}

// ComputeTriple checksums the three inputs independently.
func ComputeTriple(sqlText, schemaText, yamlText string) (Triple, error) {
	sqlSum, err := Checksum(sqlText)
	if err != nil {
		return Triple{}, fmt.Errorf("artifact: sql checksum: %w", err)
	}
	schemaSum, err := Checksum(schemaText)
	if err != nil {
		return Triple{}, fmt.Errorf("artifact: schema checksum: %w", err)
	}
	yamlSum, err := Checksum(yamlText)
	if err != nil {
		return Triple{}, fmt.Errorf("artifact: yaml checksum: %w", err)
	}
	return Triple{SQL: sqlSum, Schema: schemaSum, YAML: yamlSum}, nil
}
