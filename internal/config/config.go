// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package config provides layered configuration for the RecoMart pipeline.
//
// Configuration is loaded via koanf with the following precedence (highest
// wins): environment variables > optional YAML config file > built-in
// defaults.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration for the pipeline.
type Config struct {
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Features FeaturesConfig `koanf:"features"`
	Store    StoreConfig    `koanf:"store"`
	Trainer  TrainerConfig  `koanf:"trainer"`
	Reports  ReportsConfig  `koanf:"reports"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// DatabaseConfig controls the DuckDB backing store.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" opens an in-memory database.
	Path string `koanf:"path"`

	// Schema is the schema all pipeline tables live under.
	Schema string `koanf:"schema"`

	// MaxMemory is the DuckDB memory limit (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// FeaturesConfig controls the feature engine.
type FeaturesConfig struct {
	// SchemaVersion is stamped onto every computed feature row.
	SchemaVersion string `koanf:"schema_version"`

	// Columns lists the derived columns to compute. Unknown names are a
	// configuration error. Column sets are configuration rather than code so
	// variants of the feature computation stay in one place.
	Columns []string `koanf:"columns"`
}

// StoreConfig controls the feature store.
type StoreConfig struct {
	// Table is the feature table name (without schema qualifier).
	Table string `koanf:"table"`

	// FeatureSet is the name the published feature set is registered under.
	FeatureSet string `koanf:"feature_set"`

	// RegistryPath is the JSON registry file location.
	RegistryPath string `koanf:"registry_path"`
}

// TrainerConfig controls the factorization fit.
type TrainerConfig struct {
	// PowerIterations bounds the per-component power iteration count.
	PowerIterations int `koanf:"power_iterations"`

	// Tolerance is the eigenvalue convergence threshold.
	Tolerance float64 `koanf:"tolerance"`
}

// ReportsConfig controls report artifacts.
type ReportsConfig struct {
	// Dir is the directory JSON report snapshots are written to.
	Dir string `koanf:"dir"`
}

// defaultConfig returns a Config with all default values. Defaults are applied
// first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:      "data/recomart.duckdb",
			Schema:    "recomart",
			MaxMemory: "2GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Features: FeaturesConfig{
			SchemaVersion: "v2",
			Columns: []string{
				"avg_user_rating",
				"avg_item_rating",
				"user_activity_count",
				"co_occurrence_count",
				"category_encoded",
			},
		},
		Store: StoreConfig{
			Table:        "feature_store",
			FeatureSet:   "user_item_features",
			RegistryPath: "config/feature_registry.json",
		},
		Trainer: TrainerConfig{
			PowerIterations: 200,
			Tolerance:       1e-10,
		},
		Reports: ReportsConfig{
			Dir: "reports",
		},
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateTrainer(); err != nil {
		return err
	}
	if c.Features.SchemaVersion == "" {
		return fmt.Errorf("features.schema_version must not be empty")
	}
	if c.Reports.Dir == "" {
		return fmt.Errorf("reports.dir must not be empty")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Schema == "" {
		return fmt.Errorf("database.schema must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Table == "" {
		return fmt.Errorf("store.table must not be empty")
	}
	if c.Store.FeatureSet == "" {
		return fmt.Errorf("store.feature_set must not be empty")
	}
	if c.Store.RegistryPath == "" {
		return fmt.Errorf("store.registry_path must not be empty")
	}
	return nil
}

func (c *Config) validateTrainer() error {
	if c.Trainer.PowerIterations <= 0 {
		return fmt.Errorf("trainer.power_iterations must be > 0, got %d", c.Trainer.PowerIterations)
	}
	if c.Trainer.Tolerance <= 0 {
		return fmt.Errorf("trainer.tolerance must be > 0, got %g", c.Trainer.Tolerance)
	}
	return nil
}
