// Package warehouse defines the narrow capability surface the core
// requires of the columnar warehouse, a closed error taxonomy promoted
// from the underlying driver's raw errors, a DuckDB-backed
// implementation used by the CLI, and an in-memory implementation used
// by tests.
package warehouse

import (
	"context"

	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/schema"
)

// Scalar is the result of query_scalar: the core only ever needs four
// coercions out of a single-row result.
type Scalar struct {
	Int    *int64
	Float  *float64
	MinMax *[2]float64
	IsNull bool
}

// Client is the external collaborator the core treats as an opaque SQL
// execution engine. Implementations must make CreateTable idempotent on
// "already exists".
type Client interface {
	CreateTable(ctx context.Context, project, dataset, table string, s schema.Schema, pc partition.Config, cluster partition.Cluster, expiration *int64) error
	Execute(ctx context.Context, sql string) error
	QueryScalar(ctx context.Context, sql string) (Scalar, error)
	EnsureDataset(ctx context.Context, name string) error
	DropTable(ctx context.Context, project, dataset, table string) error
	ListTables(ctx context.Context, project, dataset string) ([]string, error)
}
