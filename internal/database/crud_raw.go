// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// crud_raw.go - access to the raw ingestion tables.
//
// The shape of raw_interactions and raw_products is a shared contract with the
// ingestion collaborator: the trainer reads user_id/item_id/rating, the
// validator reads everything. The replace writers exist for that collaborator
// (and for tests); the pipeline core itself never fetches raw sources.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/2024ac05667-alt/recomart/internal/models"
)

// ReadInteractions returns all rows from raw_interactions.
func (db *DB) ReadInteractions(ctx context.Context) ([]models.Interaction, error) {
	query := fmt.Sprintf(
		`SELECT user_id, item_id, rating, observed_at FROM %s`,
		db.table("raw_interactions"),
	)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &PersistenceError{Op: "read_interactions", Table: "raw_interactions", Err: err}
	}
	defer rows.Close()

	interactions := make([]models.Interaction, 0)
	for rows.Next() {
		var inter models.Interaction
		var rating sql.NullInt64
		var observedAt sql.NullTime
		if err := rows.Scan(&inter.UserID, &inter.ItemID, &rating, &observedAt); err != nil {
			return nil, &PersistenceError{Op: "read_interactions", Table: "raw_interactions", Err: err}
		}
		if rating.Valid {
			inter.Rating = int(rating.Int64)
		}
		if observedAt.Valid {
			inter.ObservedAt = observedAt.Time
		}
		interactions = append(interactions, inter)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "read_interactions", Table: "raw_interactions", Err: err}
	}

	return interactions, nil
}

// ReadProducts returns all rows from raw_products.
func (db *DB) ReadProducts(ctx context.Context) ([]models.Product, error) {
	query := fmt.Sprintf(
		`SELECT item_id, category, price FROM %s`,
		db.table("raw_products"),
	)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &PersistenceError{Op: "read_products", Table: "raw_products", Err: err}
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var prod models.Product
		var category sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&prod.ItemID, &category, &price); err != nil {
			return nil, &PersistenceError{Op: "read_products", Table: "raw_products", Err: err}
		}
		if category.Valid {
			prod.Category = category.String
		}
		if price.Valid {
			prod.Price = price.Float64
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "read_products", Table: "raw_products", Err: err}
	}

	return products, nil
}

// ReplaceInteractions replaces the full contents of raw_interactions inside a
// single transaction.
func (db *DB) ReplaceInteractions(ctx context.Context, interactions []models.Interaction) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: "replace_interactions", Table: "raw_interactions", Err: err}
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", db.table("raw_interactions"))); err != nil {
		return &PersistenceError{Op: "replace_interactions", Table: "raw_interactions", Err: err}
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s (user_id, item_id, rating, observed_at) VALUES (?, ?, ?, ?)`,
		db.table("raw_interactions"),
	)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return &PersistenceError{Op: "replace_interactions", Table: "raw_interactions", Err: err}
	}
	defer stmt.Close()

	for _, inter := range interactions {
		if _, err := stmt.ExecContext(ctx, inter.UserID, inter.ItemID, inter.Rating, inter.ObservedAt); err != nil {
			return &PersistenceError{Op: "replace_interactions", Table: "raw_interactions", Rows: len(interactions), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "replace_interactions", Table: "raw_interactions", Rows: len(interactions), Err: err}
	}
	return nil
}

// ReplaceProducts replaces the full contents of raw_products inside a single
// transaction.
func (db *DB) ReplaceProducts(ctx context.Context, products []models.Product) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: "replace_products", Table: "raw_products", Err: err}
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", db.table("raw_products"))); err != nil {
		return &PersistenceError{Op: "replace_products", Table: "raw_products", Err: err}
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s (item_id, category, price) VALUES (?, ?, ?)`,
		db.table("raw_products"),
	)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return &PersistenceError{Op: "replace_products", Table: "raw_products", Err: err}
	}
	defer stmt.Close()

	for _, prod := range products {
		if _, err := stmt.ExecContext(ctx, prod.ItemID, prod.Category, prod.Price); err != nil {
			return &PersistenceError{Op: "replace_products", Table: "raw_products", Rows: len(products), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "replace_products", Table: "raw_products", Rows: len(products), Err: err}
	}
	return nil
}

// rollbackQuietly rolls back a transaction, ignoring the error returned when
// the transaction was already committed.
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
