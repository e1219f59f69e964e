// Package config loads the application configuration from a YAML file
// via viper, with CLI flags and VERSIONLAKE_* environment variables
// layered on top of file values.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig is the full application configuration, mirroring the
// teacher's nested-struct-plus-yaml-tags shape.
type AppConfig struct {
	Warehouse struct {
		// Path is the DuckDB database file (":memory:" for an ephemeral
		// warehouse used in tests and one-shot CLI invocations).
		Path    string `yaml:"path" mapstructure:"path"`
		Project string `yaml:"project" mapstructure:"project"`
	} `yaml:"warehouse" mapstructure:"warehouse"`

	Catalog struct {
		// Dir is walked for *.yaml/*.yml declaration files, one query per file.
		Dir string `yaml:"dir" mapstructure:"dir"`
	} `yaml:"catalog" mapstructure:"catalog"`

	Ledger struct {
		Dataset string `yaml:"dataset" mapstructure:"dataset"`
		Table   string `yaml:"table" mapstructure:"table"`
	} `yaml:"ledger" mapstructure:"ledger"`

	Logging struct {
		Level  string `yaml:"level" mapstructure:"level"`
		Format string `yaml:"format" mapstructure:"format"`
	} `yaml:"logging" mapstructure:"logging"`
}

const envPrefix = "VERSIONLAKE"

// Load reads path (if non-empty) into v, binds VERSIONLAKE_* environment
// variables over it, applies defaults, and returns the result.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields with their defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.Warehouse.Path == "" {
		c.Warehouse.Path = ":memory:"
	}
	if c.Catalog.Dir == "" {
		c.Catalog.Dir = "./catalog"
	}
	if c.Ledger.Dataset == "" {
		c.Ledger.Dataset = "versionlake"
	}
	if c.Ledger.Table == "" {
		c.Ledger.Table = "execution_ledger"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that the configuration is complete enough to run.
func (c *AppConfig) Validate() error {
	if c.Warehouse.Path == "" {
		return fmt.Errorf("warehouse.path is required")
	}
	if c.Catalog.Dir == "" {
		return fmt.Errorf("catalog.dir is required")
	}
	if c.Ledger.Dataset == "" {
		return fmt.Errorf("ledger.dataset is required")
	}
	if c.Ledger.Table == "" {
		return fmt.Errorf("ledger.table is required")
	}
	return nil
}
