// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

package database

import (
	"context"
	"fmt"
)

// QualityCounts holds raw anomaly tallies over the ingestion tables.
type QualityCounts struct {
	InteractionRows       int
	DuplicateInteractions int
	MissingRatings        int
	InvalidRatings        int

	ProductRows    int
	MissingPrices  int
	InvalidPrices  int
	DuplicateItems int
}

// DataQualityCounts scans the raw tables for anomalies in a single pass per
// table. Duplicate interactions are rows identical across all columns beyond
// the first occurrence; duplicate items are repeated item_id values in the
// product catalog.
func (db *DB) DataQualityCounts(ctx context.Context) (*QualityCounts, error) {
	counts := &QualityCounts{}

	interactionsQuery := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) - COUNT(DISTINCT (user_id, item_id, rating, observed_at)) AS duplicates,
			COUNT(*) - COUNT(rating) AS missing_ratings,
			COUNT(CASE WHEN rating < 1 OR rating > 5 THEN 1 END) AS invalid_ratings
		FROM %s
	`, db.table("raw_interactions"))

	err := db.conn.QueryRowContext(ctx, interactionsQuery).Scan(
		&counts.InteractionRows,
		&counts.DuplicateInteractions,
		&counts.MissingRatings,
		&counts.InvalidRatings,
	)
	if err != nil {
		return nil, &PersistenceError{Op: "quality-scan", Table: "raw_interactions", Err: err}
	}

	productsQuery := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) - COUNT(price) AS missing_prices,
			COUNT(CASE WHEN price < 0 THEN 1 END) AS invalid_prices,
			COUNT(*) - COUNT(DISTINCT item_id) AS duplicate_items
		FROM %s
	`, db.table("raw_products"))

	err = db.conn.QueryRowContext(ctx, productsQuery).Scan(
		&counts.ProductRows,
		&counts.MissingPrices,
		&counts.InvalidPrices,
		&counts.DuplicateItems,
	)
	if err != nil {
		return nil, &PersistenceError{Op: "quality-scan", Table: "raw_products", Err: err}
	}

	return counts, nil
}
