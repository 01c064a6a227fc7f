// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

package features

import (
	"io"
	"testing"
	"time"

	"github.com/2024ac05667-alt/recomart/internal/logging"
	"github.com/2024ac05667-alt/recomart/internal/models"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func sampleInteractions() []models.Interaction {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Interaction{
		{UserID: 1, ItemID: 1, Rating: 5, ObservedAt: base},
		{UserID: 2, ItemID: 1, Rating: 4, ObservedAt: base.Add(time.Hour)},
		{UserID: 1, ItemID: 2, Rating: 3, ObservedAt: base.Add(2 * time.Hour)},
	}
}

func sampleProducts() []models.Product {
	return []models.Product{
		{ItemID: 1, Category: "Electronics", Price: 99.99},
		{ItemID: 2, Category: "Books", Price: 14.50},
	}
}

func findRow(t *testing.T, rows []models.FeatureRow, userID, itemID int64) models.FeatureRow {
	t.Helper()
	for _, row := range rows {
		if row.UserID == userID && row.ItemID == itemID {
			return row
		}
	}
	t.Fatalf("no feature row for user %d item %d", userID, itemID)
	return models.FeatureRow{}
}

func TestNewEngineRejectsUnknownColumn(t *testing.T) {
	_, err := NewEngine(Config{Columns: []string{"avg_user_rating", "bogus_column"}}, logging.NewTestLogger(io.Discard))
	if err == nil {
		t.Fatal("NewEngine() expected error for unknown column, got nil")
	}
}

func TestComputeEmptyBatch(t *testing.T) {
	engine := newTestEngine(t, Config{SchemaVersion: "v2"})

	rows, err := engine.Compute(nil, sampleProducts())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Compute() rows = %d, want 0", len(rows))
	}
}

func TestComputeAggregates(t *testing.T) {
	engine := newTestEngine(t, Config{SchemaVersion: "v2"})

	rows, err := engine.Compute(sampleInteractions(), sampleProducts())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Compute() rows = %d, want 3", len(rows))
	}

	tests := []struct {
		name             string
		userID, itemID   int64
		wantAvgItem      float64
		wantAvgUser      float64
		wantActivity     int64
		wantCoOccurrence int64
		wantCategoryEnc  int64
	}{
		{
			name:   "item rated by two users",
			userID: 1, itemID: 1,
			wantAvgItem:      4.5,
			wantAvgUser:      4.0,
			wantActivity:     2,
			wantCoOccurrence: 2,
			wantCategoryEnc:  0,
		},
		{
			name:   "item rated by one user",
			userID: 1, itemID: 2,
			wantAvgItem:      3.0,
			wantAvgUser:      4.0,
			wantActivity:     2,
			wantCoOccurrence: 1,
			wantCategoryEnc:  1,
		},
		{
			name:   "single interaction user",
			userID: 2, itemID: 1,
			wantAvgItem:      4.5,
			wantAvgUser:      4.0,
			wantActivity:     1,
			wantCoOccurrence: 2,
			wantCategoryEnc:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := findRow(t, rows, tt.userID, tt.itemID)

			if row.AvgItemRating == nil || *row.AvgItemRating != tt.wantAvgItem {
				t.Errorf("AvgItemRating = %v, want %v", row.AvgItemRating, tt.wantAvgItem)
			}
			if row.AvgUserRating == nil || *row.AvgUserRating != tt.wantAvgUser {
				t.Errorf("AvgUserRating = %v, want %v", row.AvgUserRating, tt.wantAvgUser)
			}
			if row.UserActivityCount == nil || *row.UserActivityCount != tt.wantActivity {
				t.Errorf("UserActivityCount = %v, want %d", row.UserActivityCount, tt.wantActivity)
			}
			if row.CoOccurrenceCount == nil || *row.CoOccurrenceCount != tt.wantCoOccurrence {
				t.Errorf("CoOccurrenceCount = %v, want %d", row.CoOccurrenceCount, tt.wantCoOccurrence)
			}
			if row.CategoryEncoded == nil || *row.CategoryEncoded != tt.wantCategoryEnc {
				t.Errorf("CategoryEncoded = %v, want %d", row.CategoryEncoded, tt.wantCategoryEnc)
			}
			if row.SchemaVersion != "v2" {
				t.Errorf("SchemaVersion = %q, want %q", row.SchemaVersion, "v2")
			}
		})
	}
}

func TestComputeDeduplicatesPairs(t *testing.T) {
	engine := newTestEngine(t, Config{SchemaVersion: "v2"})

	interactions := append(sampleInteractions(), models.Interaction{
		UserID: 1, ItemID: 1, Rating: 2,
	})

	rows, err := engine.Compute(interactions, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	seen := make(map[[2]int64]int)
	for _, row := range rows {
		seen[[2]int64{row.UserID, row.ItemID}]++
	}
	for pair, count := range seen {
		if count > 1 {
			t.Errorf("pair %v appears %d times, want 1", pair, count)
		}
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}

	// The duplicate's rating still feeds the aggregates.
	row := findRow(t, rows, 1, 1)
	if row.UserActivityCount == nil || *row.UserActivityCount != 3 {
		t.Errorf("UserActivityCount = %v, want 3", row.UserActivityCount)
	}
}

func TestComputeMissingProductYieldsNilCategory(t *testing.T) {
	engine := newTestEngine(t, Config{SchemaVersion: "v2"})

	rows, err := engine.Compute(sampleInteractions(), []models.Product{
		{ItemID: 1, Category: "Electronics", Price: 99.99},
	})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	withProduct := findRow(t, rows, 1, 1)
	if withProduct.CategoryEncoded == nil {
		t.Error("CategoryEncoded = nil for item with product row, want code")
	}

	// Item 2 has no product row; the row survives with an explicit null.
	withoutProduct := findRow(t, rows, 1, 2)
	if withoutProduct.CategoryEncoded != nil {
		t.Errorf("CategoryEncoded = %v for item without product row, want nil", *withoutProduct.CategoryEncoded)
	}
	if withoutProduct.AvgItemRating == nil {
		t.Error("AvgItemRating = nil, interaction-derived signals must survive a missing join")
	}
}

func TestComputeDisabledColumns(t *testing.T) {
	engine := newTestEngine(t, Config{
		SchemaVersion: "v2",
		Columns:       []string{ColAvgUserRating},
	})

	rows, err := engine.Compute(sampleInteractions(), sampleProducts())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	row := findRow(t, rows, 1, 1)
	if row.AvgUserRating == nil {
		t.Error("AvgUserRating = nil, want value for enabled column")
	}
	if row.AvgItemRating != nil || row.UserActivityCount != nil ||
		row.CoOccurrenceCount != nil || row.CategoryEncoded != nil {
		t.Error("disabled columns must stay nil")
	}
}

func TestEncodeCategories(t *testing.T) {
	tests := []struct {
		name     string
		products []models.Product
		want     map[int64]int64
	}{
		{
			name: "first seen order",
			products: []models.Product{
				{ItemID: 10, Category: "Electronics"},
				{ItemID: 20, Category: "Books"},
				{ItemID: 30, Category: "Electronics"},
			},
			want: map[int64]int64{10: 0, 20: 1, 30: 0},
		},
		{
			name: "duplicate item first row wins",
			products: []models.Product{
				{ItemID: 10, Category: "Electronics"},
				{ItemID: 10, Category: "Books"},
			},
			want: map[int64]int64{10: 0},
		},
		{
			name:     "empty batch",
			products: nil,
			want:     map[int64]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeCategories(tt.products)
			if len(got) != len(tt.want) {
				t.Fatalf("encodeCategories() len = %d, want %d", len(got), len(tt.want))
			}
			for itemID, wantCode := range tt.want {
				if got[itemID] != wantCode {
					t.Errorf("item %d code = %d, want %d", itemID, got[itemID], wantCode)
				}
			}
		})
	}
}

func TestColumnsMatchesEnabledSet(t *testing.T) {
	engine := newTestEngine(t, Config{Columns: []string{ColAvgUserRating, ColCategoryEncoded}})

	cols := engine.Columns()
	if len(cols) != 2 {
		t.Fatalf("Columns() len = %d, want 2", len(cols))
	}
	for _, name := range []string{ColAvgUserRating, ColCategoryEncoded} {
		if cols[name] == "" {
			t.Errorf("Columns() missing description for %q", name)
		}
	}
}
