// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package models defines the core record types shared across the pipeline:
// raw interaction and product rows, computed feature rows, registry entries,
// and training run metadata.
package models

import "time"

// Interaction represents one observed rating event between a user and an item.
// Interactions are immutable once ingested.
type Interaction struct {
	// UserID is the internal user identifier.
	UserID int64 `json:"user_id"`

	// ItemID is the internal item identifier.
	ItemID int64 `json:"item_id"`

	// Rating is the explicit preference signal (1-5).
	Rating int `json:"rating"`

	// ObservedAt is when the interaction occurred.
	ObservedAt time.Time `json:"observed_at"`
}

// Product represents item metadata. One row per ItemID; duplicate rows within
// a batch are deduplicated by ItemID before use.
type Product struct {
	// ItemID is the internal item identifier.
	ItemID int64 `json:"item_id"`

	// Category is the product category label.
	Category string `json:"category"`

	// Price is the non-negative list price.
	Price float64 `json:"price"`
}

// FeatureRow is one computed feature record at the (user, item) grain.
// At most one row exists per (UserID, ItemID) pair within a store generation.
//
// Derived columns are pointers: a nil value is an explicit null marker for a
// signal that could not be joined (for example category_encoded when the item
// has no product row) or that is disabled by column configuration. Rows are
// never dropped for a missing join.
type FeatureRow struct {
	UserID int64 `json:"user_id"`
	ItemID int64 `json:"item_id"`

	// AvgUserRating is the mean rating given by this user.
	AvgUserRating *float64 `json:"avg_user_rating"`

	// AvgItemRating is the mean rating received by this item.
	AvgItemRating *float64 `json:"avg_item_rating"`

	// UserActivityCount is the number of interactions recorded for this user.
	UserActivityCount *int64 `json:"user_activity_count"`

	// CoOccurrenceCount is the number of distinct users who interacted with
	// this item (item popularity).
	CoOccurrenceCount *int64 `json:"co_occurrence_count"`

	// CategoryEncoded is the stable integer code for the item's category,
	// assigned in first-seen order over the product batch.
	CategoryEncoded *int64 `json:"category_encoded"`

	// LastUpdated is when this row was computed.
	LastUpdated time.Time `json:"last_updated"`

	// SchemaVersion identifies the feature schema this row was computed under.
	SchemaVersion string `json:"schema_version"`
}

// RegistryEntry describes a named feature set: where it is stored, how it is
// keyed, and what it contains. One entry is written per publish cycle and is
// the only durable description of available features for downstream consumers.
//
// The registry file is external input, so fields carry validation tags and are
// checked on load.
type RegistryEntry struct {
	// Name is the registered feature set name.
	Name string `json:"name" validate:"required"`

	// SourceTable is the backing table (without schema qualifier).
	SourceTable string `json:"source_table" validate:"required"`

	// SchemaVersion is the feature schema version the rows were computed under.
	SchemaVersion string `json:"schema_version" validate:"required"`

	// EntityKey is the column used for point lookups by entity id.
	EntityKey string `json:"entity_key" validate:"required,oneof=user_id item_id"`

	// Generation is the current store generation label.
	Generation string `json:"generation" validate:"required"`

	// RowCount is the number of rows in the current generation.
	RowCount int `json:"row_count" validate:"min=0"`

	// LastSyncAt is when the current generation was published.
	LastSyncAt time.Time `json:"last_sync_at"`

	// Columns maps each derived column name to a human-readable description.
	Columns map[string]string `json:"columns" validate:"required,min=1"`
}

// TrainingRun is the immutable lineage record for one training execution.
// Rows are append-only: every invocation creates a new record and none is
// ever mutated or deleted.
type TrainingRun struct {
	// RunID is the unique run identifier.
	RunID string `json:"run_id"`

	// TrainedAt is when the run completed training.
	TrainedAt time.Time `json:"trained_at"`

	// RMSE is the held-out root-mean-squared-error. Nil when the run produced
	// no model (or evaluation was not performed).
	RMSE *float64 `json:"rmse"`

	// EvaluablePairs is the number of held-out pairs that overlapped the
	// training matrix. A zero here means RMSE carries no held-out signal and
	// must not be read as a perfect run.
	EvaluablePairs int `json:"evaluable_pairs"`

	// ExplainedVariance is the fraction of matrix variance captured by the
	// retained components.
	ExplainedVariance float64 `json:"explained_variance"`

	// NComponents is the number of latent components fitted.
	NComponents int `json:"n_components"`

	// ModelKind identifies the model family.
	ModelKind string `json:"model_kind"`
}

// DataQualityReport summarizes anomaly counts over the raw tables.
type DataQualityReport struct {
	GeneratedAt time.Time `json:"generated_at"`

	InteractionRows       int `json:"interaction_rows"`
	DuplicateInteractions int `json:"duplicate_interactions"` // identical (user, item, rating, observed_at)
	MissingRatings        int `json:"missing_ratings"`
	InvalidRatings        int `json:"invalid_ratings"` // outside 1-5

	ProductRows    int `json:"product_rows"`
	MissingPrices  int `json:"missing_prices"`
	InvalidPrices  int `json:"invalid_prices"` // negative
	DuplicateItems int `json:"duplicate_items"`
}

// AnomalyCount returns the total number of anomalies across both tables.
func (r *DataQualityReport) AnomalyCount() int {
	return r.DuplicateInteractions + r.MissingRatings + r.InvalidRatings +
		r.MissingPrices + r.InvalidPrices + r.DuplicateItems
}
