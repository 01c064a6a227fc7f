// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// crud_runs.go - append-only training run lineage records.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/2024ac05667-alt/recomart/internal/models"
)

// AppendTrainingRun appends one training run record to model_metadata.
// Records are never updated or deleted.
func (db *DB) AppendTrainingRun(ctx context.Context, run models.TrainingRun) error {
	query := fmt.Sprintf(`INSERT INTO %s (
		run_id, trained_at, rmse, evaluable_pairs,
		explained_variance, n_components, model_kind
	) VALUES (?, ?, ?, ?, ?, ?, ?)`, db.table("model_metadata"))

	_, err := db.conn.ExecContext(ctx, query,
		run.RunID, run.TrainedAt, run.RMSE, run.EvaluablePairs,
		run.ExplainedVariance, run.NComponents, run.ModelKind,
	)
	if err != nil {
		return &PersistenceError{Op: "append_run", Table: "model_metadata", Rows: 1, Err: err}
	}
	return nil
}

// ListTrainingRuns returns all training run records, newest first.
func (db *DB) ListTrainingRuns(ctx context.Context) ([]models.TrainingRun, error) {
	// run_id is a native UUID column; cast so it scans as canonical text
	// rather than the raw 16-byte value.
	query := fmt.Sprintf(`SELECT
		CAST(run_id AS VARCHAR), trained_at, rmse, evaluable_pairs,
		explained_variance, n_components, model_kind
	FROM %s ORDER BY trained_at DESC`, db.table("model_metadata"))

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &PersistenceError{Op: "list_runs", Table: "model_metadata", Err: err}
	}
	defer rows.Close()

	runs := make([]models.TrainingRun, 0)
	for rows.Next() {
		var run models.TrainingRun
		var rmse sql.NullFloat64
		if err := rows.Scan(
			&run.RunID, &run.TrainedAt, &rmse, &run.EvaluablePairs,
			&run.ExplainedVariance, &run.NComponents, &run.ModelKind,
		); err != nil {
			return nil, &PersistenceError{Op: "list_runs", Table: "model_metadata", Err: err}
		}
		if rmse.Valid {
			run.RMSE = &rmse.Float64
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list_runs", Table: "model_metadata", Err: err}
	}

	return runs, nil
}
