// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package featurestore persists computed feature rows under a versioned
// generation identity and answers point lookups by entity id.
//
// Publish replaces the entire feature generation (never an upsert) inside a
// single transaction, then overwrites the registry entry describing the set.
// The two writes are one logical unit: a failed registry write is surfaced as
// an error naming the now-stale registry rather than silently leaving
// metadata pointing at a generation that no longer matches the data.
//
// The store performs no locking or multi-writer arbitration beyond the
// publish transaction: the pipeline coordinator is expected to enforce at
// most one active run against a given feature table.
package featurestore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/2024ac05667-alt/recomart/internal/database"
	"github.com/2024ac05667-alt/recomart/internal/metrics"
	"github.com/2024ac05667-alt/recomart/internal/models"
)

// entityKey is the column point lookups are keyed on. Feature rows live at
// the (user, item) grain; retrieval is by user.
const entityKey = "user_id"

// Config describes the feature set the store publishes.
type Config struct {
	// Table is the backing table name (without schema qualifier).
	Table string

	// FeatureSet is the registry name the published set is registered under.
	FeatureSet string

	// SchemaVersion is the feature schema version being published.
	SchemaVersion string

	// Columns maps published derived columns to their descriptions.
	Columns map[string]string
}

// Store publishes and serves feature rows.
type Store struct {
	db       *database.DB
	registry *Registry
	cfg      Config
	logger   zerolog.Logger
}

// New creates a feature store over the given database handle and registry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(db *database.DB, registry *Registry, cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("feature table name must not be empty")
	}
	if cfg.FeatureSet == "" {
		return nil, fmt.Errorf("feature set name must not be empty")
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("feature column set must not be empty")
	}

	return &Store{
		db:       db,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With().Str("component", "featurestore").Logger(),
	}, nil
}

// Publish writes rows as the new content of the feature table under the
// given generation label, replacing the prior generation, then overwrites
// the registry entry for the feature set.
//
// Re-publishing an unchanged row set is idempotent: stored content is
// identical except for last_updated. Publishing an empty row set is valid
// and yields an empty generation.
func (s *Store) Publish(ctx context.Context, rows []models.FeatureRow, generation string) error {
	if generation == "" {
		return fmt.Errorf("generation label must not be empty")
	}

	start := time.Now()

	if err := s.db.ReplaceFeatureGeneration(ctx, s.cfg.Table, rows, generation); err != nil {
		metrics.PipelineErrors.WithLabelValues("publish").Inc()
		return fmt.Errorf("publish generation %s (%d rows): %w", generation, len(rows), err)
	}

	entry := models.RegistryEntry{
		Name:          s.cfg.FeatureSet,
		SourceTable:   s.cfg.Table,
		SchemaVersion: s.cfg.SchemaVersion,
		EntityKey:     entityKey,
		Generation:    generation,
		RowCount:      len(rows),
		LastSyncAt:    time.Now().UTC(),
		Columns:       s.cfg.Columns,
	}

	if err := s.registry.Put(entry); err != nil {
		metrics.PipelineErrors.WithLabelValues("publish").Inc()
		// The data write committed but the registry did not: metadata is now
		// stale for this table and must not be trusted until a re-publish
		// succeeds.
		return fmt.Errorf("generation %s written but registry update failed, registry is stale: %w", generation, err)
	}

	metrics.FeaturePublishDuration.Observe(time.Since(start).Seconds())
	metrics.FeaturePublishRows.Set(float64(len(rows)))
	s.logger.Info().
		Str("generation", generation).
		Str("table", s.cfg.Table).
		Int("rows", len(rows)).
		Msg("Feature generation published")

	return nil
}

// GetFeature resolves name against the registry and returns the rows of the
// current generation whose entity key is in entityIDs. The result is a strict
// subset: no partial matches, no fuzzy lookup.
//
// Returns UnknownFeatureError for an unregistered name and
// DataUnavailableError when the resolved backing table does not exist.
func (s *Store) GetFeature(ctx context.Context, name string, entityIDs []int64) ([]models.FeatureRow, error) {
	entry, ok := s.registry.Get(name)
	if !ok {
		return nil, &UnknownFeatureError{Feature: name}
	}

	rows, err := s.db.QueryFeatureRows(ctx, entry.SourceTable, entry.EntityKey, entry.Generation, entityIDs)
	if err != nil {
		if database.IsMissingTableError(err) {
			return nil, &DataUnavailableError{Feature: name, Table: entry.SourceTable, Err: err}
		}
		return nil, fmt.Errorf("get feature %q: %w", name, err)
	}

	return rows, nil
}

// ListFeatures returns the registered feature set names. Pure registry read;
// never touches the data store.
func (s *Store) ListFeatures() []string {
	return s.registry.Names()
}
