// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// crud_features.go - feature table access.
//
// Feature rows are never patched in place: each publish writes a complete new
// generation and removes prior generations in the same transaction. A reader
// filtering on a generation label therefore observes either the old
// generation or the new one, never a mix.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/2024ac05667-alt/recomart/internal/models"
)

// ReplaceFeatureGeneration writes rows as the new content of the feature
// table under the given generation label and deletes all prior generations,
// in one transaction.
func (db *DB) ReplaceFeatureGeneration(ctx context.Context, table string, rows []models.FeatureRow, generation string) error {
	if err := db.ensureFeatureTable(ctx, table); err != nil {
		return &PersistenceError{Op: "ensure_feature_table", Table: table, Err: err}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: "replace_features", Table: table, Err: err}
	}
	defer rollbackQuietly(tx)

	// Clear all prior content first, including rows under the same label, so
	// a retried publish of the same generation stays idempotent and never
	// duplicates the (user_id, item_id) grain.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, db.table(table))); err != nil {
		return &PersistenceError{Op: "replace_features", Table: table, Err: err}
	}

	insert := fmt.Sprintf(`INSERT INTO %s (
		user_id, item_id,
		avg_user_rating, avg_item_rating, user_activity_count,
		co_occurrence_count, category_encoded,
		last_updated, schema_version, generation
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, db.table(table))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return &PersistenceError{Op: "replace_features", Table: table, Err: err}
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.UserID, row.ItemID,
			row.AvgUserRating, row.AvgItemRating, row.UserActivityCount,
			row.CoOccurrenceCount, row.CategoryEncoded,
			row.LastUpdated, row.SchemaVersion, generation,
		)
		if err != nil {
			return &PersistenceError{Op: "replace_features", Table: table, Rows: len(rows), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "replace_features", Table: table, Rows: len(rows), Err: err}
	}
	return nil
}

// QueryFeatureRows returns the feature rows of the given generation whose
// entity key column value is in ids. The entity key must be one of the two
// grain columns. An empty id set returns no rows.
func (db *DB) QueryFeatureRows(ctx context.Context, table, entityKey, generation string, ids []int64) ([]models.FeatureRow, error) {
	if entityKey != "user_id" && entityKey != "item_id" {
		return nil, fmt.Errorf("invalid entity key %q", entityKey)
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid feature table name %q", table)
	}
	if len(ids) == 0 {
		return []models.FeatureRow{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`SELECT
		user_id, item_id,
		avg_user_rating, avg_item_rating, user_activity_count,
		co_occurrence_count, category_encoded,
		last_updated, schema_version
	FROM %s WHERE generation = ? AND %s IN (%s)
	ORDER BY user_id, item_id`, db.table(table), entityKey, placeholders)

	args := make([]any, 0, len(ids)+1)
	args = append(args, generation)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "query_features", Table: table, Err: err}
	}
	defer rows.Close()

	result := make([]models.FeatureRow, 0)
	for rows.Next() {
		row, err := scanFeatureRow(rows)
		if err != nil {
			return nil, &PersistenceError{Op: "query_features", Table: table, Err: err}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "query_features", Table: table, Err: err}
	}

	return result, nil
}

// CountFeatureRows returns the number of rows in the given generation.
func (db *DB) CountFeatureRows(ctx context.Context, table, generation string) (int, error) {
	if !identPattern.MatchString(table) {
		return 0, fmt.Errorf("invalid feature table name %q", table)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE generation = ?`, db.table(table))
	var count int
	if err := db.conn.QueryRowContext(ctx, query, generation).Scan(&count); err != nil {
		return 0, &PersistenceError{Op: "count_features", Table: table, Err: err}
	}
	return count, nil
}

// scanFeatureRow scans one feature row, converting SQL nulls into the row's
// explicit null markers.
func scanFeatureRow(rows *sql.Rows) (models.FeatureRow, error) {
	var row models.FeatureRow
	var avgUser, avgItem sql.NullFloat64
	var activity, coOccur, category sql.NullInt64

	err := rows.Scan(
		&row.UserID, &row.ItemID,
		&avgUser, &avgItem, &activity,
		&coOccur, &category,
		&row.LastUpdated, &row.SchemaVersion,
	)
	if err != nil {
		return models.FeatureRow{}, err
	}

	if avgUser.Valid {
		row.AvgUserRating = &avgUser.Float64
	}
	if avgItem.Valid {
		row.AvgItemRating = &avgItem.Float64
	}
	if activity.Valid {
		row.UserActivityCount = &activity.Int64
	}
	if coOccur.Valid {
		row.CoOccurrenceCount = &coOccur.Int64
	}
	if category.Valid {
		row.CategoryEncoded = &category.Int64
	}

	return row, nil
}
