// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package metrics provides Prometheus instrumentation for the pipeline.
//
// Metrics are registered with the default registry via promauto. The batch
// runner does not serve an HTTP endpoint itself (serving is out of scope);
// counters are available to any embedding process that exposes the default
// registry, and to push-based collection by the coordinator.
//
// Available metrics:
//   - feature_rows_computed_total: feature rows produced by the engine (counter)
//   - feature_publish_duration_seconds: publish latency (histogram)
//   - feature_publish_rows: rows per published generation (gauge)
//   - training_duration_seconds: training run latency (histogram)
//   - training_runs_total: training runs by terminal state (counter)
//     Labels: state (no_data, done, failed)
//   - pipeline_errors_total: errors by stage (counter)
//     Labels: stage
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeatureRowsComputed counts feature rows produced by the engine.
	FeatureRowsComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_rows_computed_total",
			Help: "Total number of feature rows computed",
		},
	)

	// FeaturePublishDuration tracks feature store publish latency.
	FeaturePublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feature_publish_duration_seconds",
			Help:    "Duration of feature store publish operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	// FeaturePublishRows records the row count of the last published generation.
	FeaturePublishRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feature_publish_rows",
			Help: "Number of rows in the most recently published feature generation",
		},
	)

	// TrainingDuration tracks training run latency.
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	// TrainingRuns counts training runs by terminal state.
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of training runs by terminal state",
		},
		[]string{"state"},
	)

	// PipelineErrors counts errors by pipeline stage.
	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_errors_total",
			Help: "Total number of pipeline errors by stage",
		},
		[]string{"stage"},
	)
)
