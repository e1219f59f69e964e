package main

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/config"
	"github.com/withObsrvr/versionlake/internal/dsl"
	"github.com/withObsrvr/versionlake/internal/ledger"
	"github.com/withObsrvr/versionlake/internal/logging"
	"github.com/withObsrvr/versionlake/internal/migration"
	"github.com/withObsrvr/versionlake/internal/warehouse"
)

// globalFlags carries the persistent flags every subcommand reads
// through cfg/logger/warehouse, rather than each owning its own
// connection setup.
type globalFlags struct {
	configPath string
	warehouse  string
	catalogDir string
}

var flags globalFlags

func addGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.warehouse, "warehouse", "", "override warehouse.path from config")
	root.PersistentFlags().StringVar(&flags.catalogDir, "catalog-dir", "", "override catalog.dir from config")
}

// loadApp resolves config, logger, warehouse client and ledger from the
// persistent flags. Every subcommand calls this first.
func loadApp() (*config.AppConfig, *logrus.Logger, *warehouse.DuckDB, *ledger.File, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if flags.warehouse != "" {
		cfg.Warehouse.Path = flags.warehouse
	}
	if flags.catalogDir != "" {
		cfg.Catalog.Dir = flags.catalogDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	client, err := warehouse.OpenDuckDB(cfg.Warehouse.Path)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ledgerPath := filepath.Join(filepath.Dir(cfg.Warehouse.Path), ".versionlake-ledger.jsonl")
	if cfg.Warehouse.Path == ":memory:" {
		ledgerPath = filepath.Join(".", ".versionlake-ledger.jsonl")
	}
	led := ledger.NewFile(ledgerPath)

	return cfg, logger, client, led, nil
}

// migrationTracker returns the file-backed migration store, kept in the
// same directory as the ledger file.
func migrationTracker(cfg *config.AppConfig) *migration.File {
	dir := filepath.Dir(cfg.Warehouse.Path)
	if cfg.Warehouse.Path == ":memory:" {
		dir = "."
	}
	return migration.NewFile(filepath.Join(dir, ".versionlake-migrations.jsonl"))
}

// loadCatalog parses and resolves every declaration in dir, returning
// the resolved queries plus the exact preprocessed text of each
// declaration (folded into the ledger's yaml checksum by run and
// backfill).
func loadCatalog(dir string) ([]queryWithText, error) {
	files, err := dsl.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]queryWithText, 0, len(files))
	for _, lf := range files {
		q, err := dsl.ResolveQuery(lf.Query)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", lf.Path, err)
		}
		out = append(out, queryWithText{Query: q, Text: lf.Text})
	}
	return out, nil
}

type queryWithText struct {
	Query catalog.QueryDef
	Text  string
}
