package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/withObsrvr/versionlake/internal/partition"
	schemapkg "github.com/withObsrvr/versionlake/internal/schema"
)

// DuckDB is a Client backed by an embedded DuckDB database, used by the
// versionlakectl binary for local development without a live warehouse
// project.
type DuckDB struct {
	db *sql.DB
}

// OpenDuckDB opens (creating if absent) the DuckDB file at path. Use
// ":memory:" for an ephemeral in-process warehouse.
func OpenDuckDB(path string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("warehouse: open duckdb: %w", err)
	}
	return &DuckDB{db: db}, nil
}

func (d *DuckDB) Close() error { return d.db.Close() }

func sqlType(t schemapkg.FieldType) string {
	switch t {
	case schemapkg.TypeString, schemapkg.TypeGeography, schemapkg.TypeJSON:
		return "VARCHAR"
	case schemapkg.TypeBytes:
		return "BLOB"
	case schemapkg.TypeInt64:
		return "BIGINT"
	case schemapkg.TypeFloat64:
		return "DOUBLE"
	case schemapkg.TypeNumeric:
		return "DECIMAL(38,9)"
	case schemapkg.TypeBigNumeric:
		return "DECIMAL(38,9)"
	case schemapkg.TypeBool:
		return "BOOLEAN"
	case schemapkg.TypeDate:
		return "DATE"
	case schemapkg.TypeDatetime:
		return "TIMESTAMP"
	case schemapkg.TypeTime:
		return "TIME"
	case schemapkg.TypeTimestamp:
		return "TIMESTAMP"
	case schemapkg.TypeRecord:
		return "STRUCT"
	default:
		return "VARCHAR"
	}
}

func columnDDL(f schemapkg.Field) string {
	col := fmt.Sprintf("%q %s", f.Name, sqlType(f.Type))
	if f.Mode == schemapkg.ModeRepeated {
		col += "[]"
	}
	if f.Mode == schemapkg.ModeRequired {
		col += " NOT NULL"
	}
	return col
}

// CreateTable is idempotent on "already exists" via IF NOT EXISTS.
func (d *DuckDB) CreateTable(ctx context.Context, project, dataset, table string, s schemapkg.Schema, pc partition.Config, cluster partition.Cluster, expiration *int64) error {
	cols := make([]string, 0, len(s))
	for _, f := range s {
		cols = append(cols, columnDDL(f))
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q.%q (%s)", dataset, table, strings.Join(cols, ", "))
	_, err := d.db.ExecContext(ctx, ddl)
	if err != nil {
		return Promote(0, err.Error(), "create_table", ddl, project, dataset, table, err)
	}
	return nil
}

func (d *DuckDB) Execute(ctx context.Context, sqlText string) error {
	_, err := d.db.ExecContext(ctx, sqlText)
	if err != nil {
		return Promote(0, err.Error(), "execute", sqlText, "", "", "", err)
	}
	return nil
}

func (d *DuckDB) QueryScalar(ctx context.Context, sqlText string) (Scalar, error) {
	rows, err := d.db.QueryContext(ctx, sqlText)
	if err != nil {
		return Scalar{}, Promote(0, err.Error(), "query_scalar", sqlText, "", "", "", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return Scalar{IsNull: true}, nil
	}
	cols, err := rows.Columns()
	if err != nil {
		return Scalar{}, Promote(0, err.Error(), "query_scalar", sqlText, "", "", "", err)
	}

	switch len(cols) {
	case 2:
		var a, b float64
		if err := rows.Scan(&a, &b); err != nil {
			return Scalar{}, Promote(0, err.Error(), "query_scalar", sqlText, "", "", "", err)
		}
		return Scalar{MinMax: &[2]float64{a, b}}, nil
	default:
		var raw interface{}
		if err := rows.Scan(&raw); err != nil {
			return Scalar{}, Promote(0, err.Error(), "query_scalar", sqlText, "", "", "", err)
		}
		return coerceScalar(raw), nil
	}
}

func coerceScalar(raw interface{}) Scalar {
	switch v := raw.(type) {
	case nil:
		return Scalar{IsNull: true}
	case int64:
		return Scalar{Int: &v}
	case float64:
		return Scalar{Float: &v}
	default:
		return Scalar{IsNull: true}
	}
}

func (d *DuckDB) EnsureDataset(ctx context.Context, name string) error {
	_, err := d.db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", name))
	if err != nil {
		return Promote(0, err.Error(), "ensure_dataset", "", "", name, "", err)
	}
	return nil
}

func (d *DuckDB) DropTable(ctx context.Context, project, dataset, table string) error {
	_, err := d.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q.%q", dataset, table))
	if err != nil {
		return Promote(0, err.Error(), "drop_table", "", project, dataset, table, err)
	}
	return nil
}

func (d *DuckDB) ListTables(ctx context.Context, project, dataset string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = ?`, dataset)
	if err != nil {
		return nil, Promote(0, err.Error(), "list_tables", "", project, dataset, "", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, Promote(0, err.Error(), "list_tables", "", project, dataset, "", err)
		}
		out = append(out, name)
	}
	return out, nil
}
