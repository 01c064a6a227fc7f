// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package features computes derived signals from raw user-item interaction
// events and product metadata.
//
// The engine is pure: it holds no connection state and touches no storage.
// All aggregates are keyed by entity id and left-joined back onto the
// (user_id, item_id) grain of the input; a missing join produces an explicit
// nil marker on the row, never a dropped row.
//
// # Determinism
//
// category_encoded codes are assigned in first-seen order over the
// item_id-deduplicated product batch. The assignment order matters for any
// downstream numeric comparison, so callers that need stable codes across
// runs must supply the product batch in a stable order.
package features

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/2024ac05667-alt/recomart/internal/metrics"
	"github.com/2024ac05667-alt/recomart/internal/models"
)

// Derived column names. The enabled set is configuration so feature variants
// do not fork the computation code.
const (
	ColAvgUserRating     = "avg_user_rating"
	ColAvgItemRating     = "avg_item_rating"
	ColUserActivityCount = "user_activity_count"
	ColCoOccurrenceCount = "co_occurrence_count"
	ColCategoryEncoded   = "category_encoded"
)

// ColumnDescriptions maps each derived column to the human-readable
// description published in the feature registry.
var ColumnDescriptions = map[string]string{
	ColAvgUserRating:     "mean rating given by the user",
	ColAvgItemRating:     "mean rating received by the item",
	ColUserActivityCount: "number of interactions recorded for the user",
	ColCoOccurrenceCount: "number of distinct users who rated the item",
	ColCategoryEncoded:   "integer category code, first-seen order over the product batch",
}

// Config controls which derived columns the engine computes.
type Config struct {
	// SchemaVersion is stamped onto every output row.
	SchemaVersion string

	// Columns is the enabled derived column set. Empty enables all columns.
	Columns []string
}

// Engine computes feature rows from interaction and product batches.
type Engine struct {
	schemaVersion string
	enabled       map[string]bool
	logger        zerolog.Logger
}

// NewEngine creates a feature engine. Unknown column names in cfg.Columns are
// rejected so configuration drift surfaces at startup, not as silently
// missing columns.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, logger zerolog.Logger) (*Engine, error) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = "v2"
	}

	columns := cfg.Columns
	if len(columns) == 0 {
		columns = []string{
			ColAvgUserRating, ColAvgItemRating, ColUserActivityCount,
			ColCoOccurrenceCount, ColCategoryEncoded,
		}
	}

	enabled := make(map[string]bool, len(columns))
	for _, col := range columns {
		if _, ok := ColumnDescriptions[col]; !ok {
			return nil, fmt.Errorf("unknown feature column %q", col)
		}
		enabled[col] = true
	}

	return &Engine{
		schemaVersion: cfg.SchemaVersion,
		enabled:       enabled,
		logger:        logger.With().Str("component", "features").Logger(),
	}, nil
}

// SchemaVersion returns the version stamped onto computed rows.
func (e *Engine) SchemaVersion() string {
	return e.schemaVersion
}

// Columns returns the enabled column names with their descriptions, for
// registry publication.
func (e *Engine) Columns() map[string]string {
	cols := make(map[string]string, len(e.enabled))
	for col := range e.enabled {
		cols[col] = ColumnDescriptions[col]
	}
	return cols
}

// Compute derives one feature row per distinct (user_id, item_id) pair in the
// interaction batch, in first-seen input order.
//
// An empty interaction batch yields an empty result, not an error. An empty
// or absent product batch omits product-derived signals (nil markers) rather
// than failing.
func (e *Engine) Compute(interactions []models.Interaction, products []models.Product) ([]models.FeatureRow, error) {
	if len(interactions) == 0 {
		e.logger.Warn().Msg("No features computed: empty interaction batch")
		return []models.FeatureRow{}, nil
	}

	userAgg := aggregateUsers(interactions)
	itemAgg := aggregateItems(interactions)
	categoryCodes := encodeCategories(products)

	now := time.Now().UTC()
	seen := make(map[[2]int64]bool, len(interactions))
	rows := make([]models.FeatureRow, 0, len(interactions))

	for _, inter := range interactions {
		pair := [2]int64{inter.UserID, inter.ItemID}
		if seen[pair] {
			continue
		}
		seen[pair] = true

		row := models.FeatureRow{
			UserID:        inter.UserID,
			ItemID:        inter.ItemID,
			LastUpdated:   now,
			SchemaVersion: e.schemaVersion,
		}

		if u, ok := userAgg[inter.UserID]; ok {
			if e.enabled[ColAvgUserRating] {
				avg := u.ratingSum / float64(u.count)
				row.AvgUserRating = &avg
			}
			if e.enabled[ColUserActivityCount] {
				count := u.count
				row.UserActivityCount = &count
			}
		}

		if it, ok := itemAgg[inter.ItemID]; ok {
			if e.enabled[ColAvgItemRating] {
				avg := it.ratingSum / float64(it.count)
				row.AvgItemRating = &avg
			}
			if e.enabled[ColCoOccurrenceCount] {
				distinct := int64(len(it.users))
				row.CoOccurrenceCount = &distinct
			}
		}

		if e.enabled[ColCategoryEncoded] {
			if code, ok := categoryCodes[inter.ItemID]; ok {
				c := code
				row.CategoryEncoded = &c
			}
			// No product row for this item: the column stays an explicit nil.
		}

		rows = append(rows, row)
	}

	metrics.FeatureRowsComputed.Add(float64(len(rows)))
	e.logger.Info().
		Int("interactions", len(interactions)).
		Int("products", len(products)).
		Int("rows", len(rows)).
		Msg("Features computed")

	return rows, nil
}

// userAggregate accumulates per-user signals.
type userAggregate struct {
	count     int64
	ratingSum float64
}

// itemAggregate accumulates per-item signals.
type itemAggregate struct {
	count     int64
	ratingSum float64
	users     map[int64]struct{}
}

func aggregateUsers(interactions []models.Interaction) map[int64]*userAggregate {
	agg := make(map[int64]*userAggregate)
	for _, inter := range interactions {
		u := agg[inter.UserID]
		if u == nil {
			u = &userAggregate{}
			agg[inter.UserID] = u
		}
		u.count++
		u.ratingSum += float64(inter.Rating)
	}
	return agg
}

func aggregateItems(interactions []models.Interaction) map[int64]*itemAggregate {
	agg := make(map[int64]*itemAggregate)
	for _, inter := range interactions {
		it := agg[inter.ItemID]
		if it == nil {
			it = &itemAggregate{users: make(map[int64]struct{})}
			agg[inter.ItemID] = it
		}
		it.count++
		it.ratingSum += float64(inter.Rating)
		it.users[inter.UserID] = struct{}{}
	}
	return agg
}

// encodeCategories assigns a stable integer code per distinct category value
// and returns the item_id -> code mapping. The product batch is deduplicated
// by item_id first (first row wins); codes follow first-seen order over the
// deduplicated batch.
func encodeCategories(products []models.Product) map[int64]int64 {
	codes := make(map[string]int64)
	itemCode := make(map[int64]int64, len(products))
	seenItem := make(map[int64]bool, len(products))

	for _, prod := range products {
		if seenItem[prod.ItemID] {
			continue
		}
		seenItem[prod.ItemID] = true

		code, ok := codes[prod.Category]
		if !ok {
			code = int64(len(codes))
			codes[prod.Category] = code
		}
		itemCode[prod.ItemID] = code
	}

	return itemCode
}
