// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/2024ac05667-alt/recomart/internal/config"
	"github.com/2024ac05667-alt/recomart/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		Schema:    "recomart",
		MaxMemory: "512MB",
		Threads:   1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewRejectsInvalidSchema(t *testing.T) {
	tests := []string{"", "bad-name", "1start", "drop;table"}
	for _, schema := range tests {
		t.Run(fmt.Sprintf("schema %q", schema), func(t *testing.T) {
			_, err := New(&config.DatabaseConfig{
				Path:      ":memory:",
				Schema:    schema,
				MaxMemory: "512MB",
				Threads:   1,
			})
			if err == nil {
				t.Error("New() expected error for invalid schema name, got nil")
			}
		})
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestInteractionsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	observed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interactions := []models.Interaction{
		{UserID: 1, ItemID: 10, Rating: 5, ObservedAt: observed},
		{UserID: 2, ItemID: 20, Rating: 3, ObservedAt: observed.Add(time.Hour)},
	}

	if err := db.ReplaceInteractions(ctx, interactions); err != nil {
		t.Fatalf("ReplaceInteractions() error = %v", err)
	}

	got, err := db.ReadInteractions(ctx)
	if err != nil {
		t.Fatalf("ReadInteractions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadInteractions() rows = %d, want 2", len(got))
	}

	// Replace wipes the prior content.
	if err := db.ReplaceInteractions(ctx, interactions[:1]); err != nil {
		t.Fatalf("ReplaceInteractions() second error = %v", err)
	}
	got, err = db.ReadInteractions(ctx)
	if err != nil {
		t.Fatalf("ReadInteractions() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ReadInteractions() rows = %d after replace, want 1", len(got))
	}
}

func TestProductsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	products := []models.Product{
		{ItemID: 1, Category: "Electronics", Price: 99.99},
		{ItemID: 2, Category: "Books", Price: 14.50},
	}

	if err := db.ReplaceProducts(ctx, products); err != nil {
		t.Fatalf("ReplaceProducts() error = %v", err)
	}

	got, err := db.ReadProducts(ctx)
	if err != nil {
		t.Fatalf("ReadProducts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadProducts() rows = %d, want 2", len(got))
	}
	for i, prod := range got {
		if prod.ItemID != products[i].ItemID || prod.Category != products[i].Category {
			t.Errorf("product[%d] = %+v, want %+v", i, prod, products[i])
		}
	}
}

func TestReplaceFeatureGeneration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	avg := 4.5
	activity := int64(3)
	rows := []models.FeatureRow{
		{UserID: 1, ItemID: 10, AvgUserRating: &avg, UserActivityCount: &activity,
			LastUpdated: time.Now().UTC(), SchemaVersion: "v2"},
		{UserID: 2, ItemID: 10, LastUpdated: time.Now().UTC(), SchemaVersion: "v2"},
	}

	if err := db.ReplaceFeatureGeneration(ctx, "feature_store", rows, "gen1"); err != nil {
		t.Fatalf("ReplaceFeatureGeneration() error = %v", err)
	}

	got, err := db.QueryFeatureRows(ctx, "feature_store", "user_id", "gen1", []int64{1, 2})
	if err != nil {
		t.Fatalf("QueryFeatureRows() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("QueryFeatureRows() rows = %d, want 2", len(got))
	}

	// Null markers survive the round trip.
	if got[0].AvgUserRating == nil || *got[0].AvgUserRating != avg {
		t.Errorf("AvgUserRating = %v, want %v", got[0].AvgUserRating, avg)
	}
	if got[1].AvgUserRating != nil {
		t.Errorf("AvgUserRating = %v for null column, want nil", *got[1].AvgUserRating)
	}
	if got[1].CategoryEncoded != nil {
		t.Error("CategoryEncoded must stay nil when never set")
	}

	// A second generation fully replaces the first.
	if err := db.ReplaceFeatureGeneration(ctx, "feature_store", rows[:1], "gen2"); err != nil {
		t.Fatalf("ReplaceFeatureGeneration() gen2 error = %v", err)
	}
	count, err := db.CountFeatureRows(ctx, "feature_store", "gen1")
	if err != nil {
		t.Fatalf("CountFeatureRows() error = %v", err)
	}
	if count != 0 {
		t.Errorf("gen1 rows = %d after replacement, want 0", count)
	}
}

func TestReplaceFeatureGenerationSameLabel(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows := []models.FeatureRow{
		{UserID: 1, ItemID: 10, LastUpdated: time.Now().UTC(), SchemaVersion: "v2"},
		{UserID: 2, ItemID: 20, LastUpdated: time.Now().UTC(), SchemaVersion: "v2"},
	}

	// Writing the same label twice models a retried publish; the second write
	// replaces the first instead of stacking on top of it.
	if err := db.ReplaceFeatureGeneration(ctx, "feature_store", rows, "gen1"); err != nil {
		t.Fatalf("ReplaceFeatureGeneration() first error = %v", err)
	}
	if err := db.ReplaceFeatureGeneration(ctx, "feature_store", rows, "gen1"); err != nil {
		t.Fatalf("ReplaceFeatureGeneration() retry error = %v", err)
	}

	count, err := db.CountFeatureRows(ctx, "feature_store", "gen1")
	if err != nil {
		t.Fatalf("CountFeatureRows() error = %v", err)
	}
	if count != len(rows) {
		t.Errorf("rows after same-label rewrite = %d, want %d", count, len(rows))
	}
}

func TestQueryFeatureRowsValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.QueryFeatureRows(ctx, "feature_store", "session_id", "gen1", []int64{1}); err == nil {
		t.Error("QueryFeatureRows() expected error for invalid entity key, got nil")
	}
	if _, err := db.QueryFeatureRows(ctx, "bad;table", "user_id", "gen1", []int64{1}); err == nil {
		t.Error("QueryFeatureRows() expected error for invalid table name, got nil")
	}

	got, err := db.QueryFeatureRows(ctx, "feature_store", "user_id", "gen1", nil)
	if err != nil {
		t.Fatalf("QueryFeatureRows() empty ids error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("QueryFeatureRows() empty ids rows = %d, want 0", len(got))
	}
}

func TestTrainingRunsAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rmse := 1.25
	first := models.TrainingRun{
		RunID:             "0d7c9b1e-6a3f-4b6e-8c1d-2f5a9e7b3c4d",
		TrainedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RMSE:              &rmse,
		EvaluablePairs:    12,
		ExplainedVariance: 0.82,
		NComponents:       5,
		ModelKind:         "collaborative-SVD",
	}
	second := first
	second.RunID = "4f2b8d6c-1e9a-4c7b-b3d5-8a0e6f4c2d1b"
	second.TrainedAt = first.TrainedAt.Add(time.Hour)
	second.RMSE = nil

	if err := db.AppendTrainingRun(ctx, first); err != nil {
		t.Fatalf("AppendTrainingRun() error = %v", err)
	}
	if err := db.AppendTrainingRun(ctx, second); err != nil {
		t.Fatalf("AppendTrainingRun() second error = %v", err)
	}

	runs, err := db.ListTrainingRuns(ctx)
	if err != nil {
		t.Fatalf("ListTrainingRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListTrainingRuns() = %d runs, want 2", len(runs))
	}

	// Newest first, with the id back in canonical text form despite the
	// native UUID column type.
	if runs[0].RunID != second.RunID {
		t.Errorf("runs[0].RunID = %q, want newest %q", runs[0].RunID, second.RunID)
	}
	if _, err := uuid.Parse(runs[0].RunID); err != nil {
		t.Errorf("runs[0].RunID %q is not a canonical UUID: %v", runs[0].RunID, err)
	}
	if runs[0].RMSE != nil {
		t.Error("nil RMSE must survive the round trip as nil")
	}
	if runs[1].RMSE == nil || *runs[1].RMSE != rmse {
		t.Errorf("runs[1].RMSE = %v, want %v", runs[1].RMSE, rmse)
	}
}

func TestDataQualityCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	observed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interactions := []models.Interaction{
		{UserID: 1, ItemID: 10, Rating: 5, ObservedAt: observed},
		{UserID: 1, ItemID: 10, Rating: 5, ObservedAt: observed}, // exact duplicate
		{UserID: 2, ItemID: 20, Rating: 9, ObservedAt: observed}, // out of range
	}
	if err := db.ReplaceInteractions(ctx, interactions); err != nil {
		t.Fatalf("ReplaceInteractions() error = %v", err)
	}

	// NULL rating only arrives through external ingestion, so insert directly.
	insertNull := fmt.Sprintf(
		"INSERT INTO %s (user_id, item_id, rating, observed_at) VALUES (3, 30, NULL, ?)",
		db.table("raw_interactions"),
	)
	if _, err := db.Conn().ExecContext(ctx, insertNull, observed); err != nil {
		t.Fatalf("insert null rating: %v", err)
	}

	products := []models.Product{
		{ItemID: 1, Category: "Electronics", Price: 99.99},
		{ItemID: 1, Category: "Electronics", Price: 89.99}, // duplicate item_id
		{ItemID: 2, Category: "Books", Price: -5},          // negative price
	}
	if err := db.ReplaceProducts(ctx, products); err != nil {
		t.Fatalf("ReplaceProducts() error = %v", err)
	}

	counts, err := db.DataQualityCounts(ctx)
	if err != nil {
		t.Fatalf("DataQualityCounts() error = %v", err)
	}

	if counts.InteractionRows != 4 {
		t.Errorf("InteractionRows = %d, want 4", counts.InteractionRows)
	}
	if counts.DuplicateInteractions != 1 {
		t.Errorf("DuplicateInteractions = %d, want 1", counts.DuplicateInteractions)
	}
	if counts.MissingRatings != 1 {
		t.Errorf("MissingRatings = %d, want 1", counts.MissingRatings)
	}
	if counts.InvalidRatings != 1 {
		t.Errorf("InvalidRatings = %d, want 1", counts.InvalidRatings)
	}
	if counts.ProductRows != 3 {
		t.Errorf("ProductRows = %d, want 3", counts.ProductRows)
	}
	if counts.DuplicateItems != 1 {
		t.Errorf("DuplicateItems = %d, want 1", counts.DuplicateItems)
	}
	if counts.InvalidPrices != 1 {
		t.Errorf("InvalidPrices = %d, want 1", counts.InvalidPrices)
	}
	if counts.MissingPrices != 0 {
		t.Errorf("MissingPrices = %d, want 0", counts.MissingPrices)
	}
}

func TestIsMissingTableError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.QueryFeatureRows(ctx, "never_created", "user_id", "gen1", []int64{1})
	if err == nil {
		t.Fatal("QueryFeatureRows() expected error for missing table, got nil")
	}
	if !IsMissingTableError(err) {
		t.Errorf("IsMissingTableError() = false for %v, want true", err)
	}

	if IsMissingTableError(nil) {
		t.Error("IsMissingTableError(nil) = true, want false")
	}
}
