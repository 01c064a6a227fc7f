// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package validation scans the raw ingestion tables for data quality
// anomalies before feature computation. Anomalies are reported, never
// repaired; the pipeline proceeds regardless so a noisy batch still yields
// features, but the report makes the noise visible.
package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/2024ac05667-alt/recomart/internal/database"
	"github.com/2024ac05667-alt/recomart/internal/metrics"
	"github.com/2024ac05667-alt/recomart/internal/models"
)

// Validator runs data quality scans against the raw tables.
type Validator struct {
	db     *database.DB
	logger zerolog.Logger
}

// New creates a validator over the given persistence handle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(db *database.DB, logger zerolog.Logger) *Validator {
	return &Validator{
		db:     db,
		logger: logger.With().Str("component", "validation").Logger(),
	}
}

// Validate scans both raw tables and returns an anomaly report. Each anomaly
// class found is logged at warn level; a clean scan logs once at info.
func (v *Validator) Validate(ctx context.Context) (*models.DataQualityReport, error) {
	counts, err := v.db.DataQualityCounts(ctx)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues("validate").Inc()
		return nil, fmt.Errorf("data quality scan: %w", err)
	}

	report := &models.DataQualityReport{
		GeneratedAt:           time.Now().UTC(),
		InteractionRows:       counts.InteractionRows,
		DuplicateInteractions: counts.DuplicateInteractions,
		MissingRatings:        counts.MissingRatings,
		InvalidRatings:        counts.InvalidRatings,
		ProductRows:           counts.ProductRows,
		MissingPrices:         counts.MissingPrices,
		InvalidPrices:         counts.InvalidPrices,
		DuplicateItems:        counts.DuplicateItems,
	}

	v.logAnomalies(report)
	return report, nil
}

func (v *Validator) logAnomalies(report *models.DataQualityReport) {
	if report.AnomalyCount() == 0 {
		v.logger.Info().
			Int("interaction_rows", report.InteractionRows).
			Int("product_rows", report.ProductRows).
			Msg("Data quality scan clean")
		return
	}

	if report.DuplicateInteractions > 0 {
		v.logger.Warn().Int("count", report.DuplicateInteractions).Msg("Duplicate interaction rows")
	}
	if report.MissingRatings > 0 {
		v.logger.Warn().Int("count", report.MissingRatings).Msg("Interactions with missing ratings")
	}
	if report.InvalidRatings > 0 {
		v.logger.Warn().Int("count", report.InvalidRatings).Msg("Interactions with out-of-range ratings")
	}
	if report.MissingPrices > 0 {
		v.logger.Warn().Int("count", report.MissingPrices).Msg("Products with missing prices")
	}
	if report.InvalidPrices > 0 {
		v.logger.Warn().Int("count", report.InvalidPrices).Msg("Products with negative prices")
	}
	if report.DuplicateItems > 0 {
		v.logger.Warn().Int("count", report.DuplicateItems).Msg("Duplicate item_id values in product catalog")
	}

	v.logger.Warn().
		Int("anomalies", report.AnomalyCount()).
		Msg("Data quality scan found anomalies, pipeline continues")
}
