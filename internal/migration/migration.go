// Package migration keeps bookkeeping records of version bumps: every
// time a partition re-executes under a different version than its
// previous successful ledger entry, a record of the bump is appended here. The
// records are additive diagnostics over successful migrations; failures
// to migrate still surface as errors through the writer.
package migration

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/withObsrvr/versionlake/internal/partition"
)

// Record is one applied version bump for a (query, partition).
type Record struct {
	ID           string
	QueryName    string
	PartitionKey partition.Key
	FromVersion  int
	ToVersion    int
	AppliedAt    time.Time
	Reason       string
}

// Tracker is the append-only store of migration records.
type Tracker interface {
	Record(ctx context.Context, r Record) error
	List(ctx context.Context, queryName string) ([]Record, error)
}

// File is a Tracker backed by a newline-delimited JSON file, the same
// storage discipline as ledger.File.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Record(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("migration: create dir for %s: %w", f.Path, err)
	}
	file, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("migration: open %s: %w", f.Path, err)
	}
	defer file.Close()

	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("migration: encode record: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("migration: write %s: %w", f.Path, err)
	}
	return nil
}

func (f *File) List(ctx context.Context, queryName string) ([]Record, error) {
	file, err := os.Open(f.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("migration: open %s: %w", f.Path, err)
	}
	defer file.Close()

	var out []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("migration: decode record in %s: %w", f.Path, err)
		}
		if queryName != "" && r.QueryName != queryName {
			continue
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("migration: scan %s: %w", f.Path, err)
	}
	return out, nil
}

// InMemory is a Tracker kept in process memory, used by tests.
type InMemory struct {
	records []Record
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Record(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.records = append(m.records, r)
	return nil
}

func (m *InMemory) List(ctx context.Context, queryName string) ([]Record, error) {
	var out []Record
	for _, r := range m.records {
		if queryName != "" && r.QueryName != queryName {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
