package warehouse

import (
	"context"
	"fmt"

	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/schema"
)

// Memory is an in-process Client used by tests that exercise the
// invariant engine, writer and orchestrator without a real database.
// ScalarFunc lets a test script per-query responses; Executed records
// every statement submitted via Execute for assertions.
type Memory struct {
	ScalarFunc func(sqlText string) (Scalar, error)
	Executed   []string
	Tables     map[string]schema.Schema
	Datasets   map[string]bool
}

func NewMemory() *Memory {
	return &Memory{Tables: map[string]schema.Schema{}, Datasets: map[string]bool{}}
}

func (m *Memory) CreateTable(ctx context.Context, project, dataset, table string, s schema.Schema, pc partition.Config, cluster partition.Cluster, expiration *int64) error {
	key := dataset + "." + table
	if _, ok := m.Tables[key]; ok {
		return nil
	}
	m.Tables[key] = s
	return nil
}

func (m *Memory) Execute(ctx context.Context, sqlText string) error {
	m.Executed = append(m.Executed, sqlText)
	return nil
}

func (m *Memory) QueryScalar(ctx context.Context, sqlText string) (Scalar, error) {
	if m.ScalarFunc == nil {
		return Scalar{}, fmt.Errorf("warehouse: memory client has no ScalarFunc configured")
	}
	return m.ScalarFunc(sqlText)
}

func (m *Memory) EnsureDataset(ctx context.Context, name string) error {
	m.Datasets[name] = true
	return nil
}

func (m *Memory) DropTable(ctx context.Context, project, dataset, table string) error {
	delete(m.Tables, dataset+"."+table)
	return nil
}

func (m *Memory) ListTables(ctx context.Context, project, dataset string) ([]string, error) {
	var out []string
	for key := range m.Tables {
		out = append(out, key)
	}
	return out, nil
}
