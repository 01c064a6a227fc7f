// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

/*
database_schema.go - Database Schema Management

Tables:
  - raw_interactions: one row per observed user-item rating event, written by
    the ingestion collaborator and read by the trainer and validator
  - raw_products: item metadata (category, price), written by the ingestion
    collaborator
  - feature_store: computed feature rows at the (user, item) grain, carrying a
    generation label so a full replace never leaves a torn read
  - model_metadata: append-only training run lineage records

Schema Strategy:
All columns are defined in the CREATE TABLE statements. The raw and metadata
tables are created at startup; the feature table is created on first publish
because its name is store configuration. The feature table is fully replaced
each publish cycle, so there is no migration concern for derived columns; new
columns require a schema_version bump.

Index Strategy:
feature_store carries an index on (user_id, last_updated) to support
versioned retrieval by entity and freshness.
*/
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema ensures the pipeline schema exists.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", db.schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", db.schema, err)
	}
	return nil
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			user_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			rating INTEGER,
			observed_at TIMESTAMP
		)`, db.table("raw_interactions")),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			item_id BIGINT NOT NULL,
			category TEXT,
			price DOUBLE
		)`, db.table("raw_products")),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id UUID PRIMARY KEY,
			trained_at TIMESTAMP NOT NULL,
			rmse DOUBLE,
			evaluable_pairs INTEGER NOT NULL,
			explained_variance DOUBLE NOT NULL,
			n_components INTEGER NOT NULL,
			model_kind TEXT NOT NULL
		)`, db.table("model_metadata")),
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// ensureFeatureTable creates the feature table and its index if they do not
// exist. The table name comes from store configuration rather than a schema
// constant, so the historical feature_store/feature_transform naming drift is
// resolved in one configurable place. Called on first publish.
func (db *DB) ensureFeatureTable(ctx context.Context, table string) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("invalid feature table name %q", table)
	}

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		user_id BIGINT NOT NULL,
		item_id BIGINT NOT NULL,
		avg_user_rating DOUBLE,
		avg_item_rating DOUBLE,
		user_activity_count BIGINT,
		co_occurrence_count BIGINT,
		category_encoded BIGINT,
		last_updated TIMESTAMP NOT NULL,
		schema_version TEXT NOT NULL,
		generation TEXT NOT NULL
	)`, db.table(table))
	if _, err := db.conn.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create feature table %s: %w", table, err)
	}

	// Supports versioned retrieval by entity and freshness.
	index := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_user_updated ON %s (user_id, last_updated)`,
		table, db.table(table),
	)
	if _, err := db.conn.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create feature index: %w", err)
	}

	return nil
}
