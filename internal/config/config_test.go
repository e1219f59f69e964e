package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":memory:", cfg.Warehouse.Path)
	require.Equal(t, "versionlake", cfg.Ledger.Dataset)
	require.Equal(t, "execution_ledger", cfg.Ledger.Table)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "warehouse:\n  path: /tmp/warehouse.duckdb\ncatalog:\n  dir: /tmp/catalog\nlogging:\n  level: debug\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/warehouse.duckdb", cfg.Warehouse.Path)
	require.Equal(t, "/tmp/catalog", cfg.Catalog.Dir)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
}

func TestValidateRejectsEmptyLedgerDataset(t *testing.T) {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	cfg.Ledger.Dataset = ""
	require.Error(t, cfg.Validate())
}
