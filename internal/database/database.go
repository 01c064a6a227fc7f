// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package database wraps the DuckDB connection and provides typed data access
// for the pipeline tables: raw_interactions, raw_products, the feature table,
// and model_metadata.
//
// The DB handle is passed explicitly to the components that need persistence;
// there is no package-level connection state. The pipeline assumes at most one
// run is active at a time (coordinator-enforced); the only multi-access hazard
// the layer guards against is a reader observing a half-replaced feature
// generation, which ReplaceFeatureGeneration prevents with a transaction.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/2024ac05667-alt/recomart/internal/config"
	"github.com/2024ac05667-alt/recomart/internal/logging"
)

// identPattern restricts schema and table names to safe SQL identifiers,
// since they are interpolated into statements.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	schema string
}

// New creates a new database connection and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if !identPattern.MatchString(cfg.Schema) {
		return nil, fmt.Errorf("invalid schema name %q", cfg.Schema)
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Disable auto-install/auto-load of extensions to prevent hangs in
	// restricted network environments; the pipeline needs none.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		schema: cfg.Schema,
	}

	// DuckDB is embedded: a single connection avoids write contention.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// Conn returns the underlying sql.DB for advanced use (tests, ad hoc queries).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Schema returns the schema name the pipeline tables live under.
func (db *DB) Schema() string {
	return db.schema
}

// Close closes the database connection.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initialize creates the schema and core tables.
func (db *DB) initialize() error {
	start := time.Now()
	if err := db.createSchema(); err != nil {
		return err
	}
	if err := db.createTables(); err != nil {
		return err
	}
	logging.Debug().
		Str("schema", db.schema).
		Dur("elapsed", time.Since(start)).
		Msg("Database initialized")
	return nil
}

// table returns the schema-qualified table name.
func (db *DB) table(name string) string {
	return db.schema + "." + name
}

// closeQuietly closes the connection, logging any error instead of returning it.
func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}
