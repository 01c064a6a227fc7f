// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package trainer fits a collaborative-filtering model from interaction
// history and records accuracy metrics with a reproducible lineage record.
//
// A training run moves through a fixed sequence of states: an empty input
// short-circuits to NO_DATA (an explicit result, not an error); otherwise the
// run splits the interactions into train/test partitions, pivots the training
// split into a user-item matrix, fits a truncated rank-k factorization,
// evaluates held-out error, and appends one immutable run record plus a JSON
// report snapshot.
//
// # Determinism
//
// The train/test split uses a fixed seed (randomSeed) and the factorization
// uses deterministic initialization, so two runs on byte-identical input
// produce identical split membership, identical component counts, and RMSE
// within floating-point tolerance.
//
// # Operating assumption
//
// The trainer performs no locking: the pipeline coordinator enforces at most
// one active training run. Persistence failures propagate without internal
// retry; retry policy is the coordinator's.
package trainer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/2024ac05667-alt/recomart/internal/database"
	"github.com/2024ac05667-alt/recomart/internal/metrics"
	"github.com/2024ac05667-alt/recomart/internal/models"
	"github.com/2024ac05667-alt/recomart/internal/reports"
)

const (
	// ModelKind identifies the model family in lineage records.
	ModelKind = "collaborative-SVD"

	// randomSeed fixes split membership and factor initialization so repeated
	// runs on identical input are bit-for-bit reproducible.
	randomSeed int64 = 42

	// trainPercent of interactions go to the training split; the remainder is
	// held out for evaluation.
	trainPercent = 80

	// maxComponents caps the number of latent components.
	maxComponents = 5

	// trainingReportName prefixes the JSON report artifact.
	trainingReportName = "model_performance"
)

// RunState is the training run lifecycle state.
type RunState int

const (
	// StateNoData is the terminal state for an empty interaction set.
	StateNoData RunState = iota
	// StateSplit partitions interactions into train/test.
	StateSplit
	// StateFit builds the matrix and fits the factorization.
	StateFit
	// StateEvaluate computes held-out error.
	StateEvaluate
	// StatePersist writes the run record and report snapshot.
	StatePersist
	// StateDone is the terminal state for a completed run.
	StateDone
)

// String returns a human-readable state name.
func (s RunState) String() string {
	switch s {
	case StateNoData:
		return "no_data"
	case StateSplit:
		return "split"
	case StateFit:
		return "fit"
	case StateEvaluate:
		return "evaluate"
	case StatePersist:
		return "persist"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ConfigurationError reports degenerate dimensionality that makes the
// factorization undefined. It is fatal to the current run and propagates to
// the coordinator.
type ConfigurationError struct {
	// Stage is the run state where the configuration failed.
	Stage RunState

	// Reason describes the failure.
	Reason string

	// DistinctItems is the distinct item count in the training split.
	DistinctItems int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s (distinct items: %d)", e.Stage, e.Reason, e.DistinctItems)
}

// Config tunes the factorization fit.
type Config struct {
	// PowerIterations bounds the per-component power iteration count.
	// Defaults to 200.
	PowerIterations int

	// Tolerance is the eigenvalue convergence threshold. Defaults to 1e-10.
	Tolerance float64
}

// Metrics summarizes one training run's accuracy.
type Metrics struct {
	// RMSE is the held-out root-mean-squared-error over evaluable pairs.
	// Meaningless when EvaluablePairs is zero.
	RMSE float64 `json:"rmse"`

	// EvaluablePairs is the number of held-out observations whose (user,
	// item) pair was present in the training matrix. Zero means the RMSE
	// carries no held-out signal and must not be read as a perfect run.
	EvaluablePairs int `json:"evaluable_pairs"`

	// ExplainedVariance is the fraction of total matrix variance captured by
	// the retained components.
	ExplainedVariance float64 `json:"explained_variance"`

	// NComponents is the number of latent components fitted.
	NComponents int `json:"n_components"`

	// TrainSize and TestSize are the split sizes.
	TrainSize int `json:"train_size"`
	TestSize  int `json:"test_size"`
}

// Result is the outcome of one training invocation.
type Result struct {
	// State is the terminal run state: StateNoData or StateDone.
	State RunState

	// Run is the persisted lineage record; nil for StateNoData.
	Run *models.TrainingRun

	// Model is the fitted model; nil for StateNoData.
	Model *Model

	// Metrics summarizes the run; zero-valued for StateNoData.
	Metrics Metrics
}

// Trainer fits models and persists their lineage records.
type Trainer struct {
	db      *database.DB
	reports *reports.Writer
	cfg     Config
	logger  zerolog.Logger
}

// New creates a trainer over the given persistence handle and report writer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(db *database.DB, reportWriter *reports.Writer, cfg Config, logger zerolog.Logger) *Trainer {
	if cfg.PowerIterations <= 0 {
		cfg.PowerIterations = 200
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-10
	}

	return &Trainer{
		db:      db,
		reports: reportWriter,
		cfg:     cfg,
		logger:  logger.With().Str("component", "trainer").Logger(),
	}
}

// TrainFromStore reads the full interaction history from raw_interactions and
// trains on it. This is the trainer's sole data source in pipeline runs.
func (t *Trainer) TrainFromStore(ctx context.Context) (*Result, error) {
	interactions, err := t.db.ReadInteractions(ctx)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues("train").Inc()
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	return t.Train(ctx, interactions)
}

// Train fits a model on the given interactions.
//
// An empty input returns a StateNoData result without error and writes no
// run record. A training split with fewer than two distinct items returns a
// ConfigurationError. Persistence failures propagate unretried.
func (t *Trainer) Train(ctx context.Context, interactions []models.Interaction) (*Result, error) {
	start := time.Now()

	if len(interactions) == 0 {
		t.logger.Warn().Msg("No interactions, skipping model training")
		metrics.TrainingRuns.WithLabelValues(StateNoData.String()).Inc()
		return &Result{State: StateNoData}, nil
	}

	// SPLIT
	trainSet, testSet := splitInteractions(interactions)
	t.logger.Debug().
		Int("train", len(trainSet)).
		Int("test", len(testSet)).
		Msg("Interactions partitioned")

	// FIT
	matrix := buildMatrix(trainSet)
	distinctItems := len(matrix.items)
	if distinctItems < 2 {
		metrics.PipelineErrors.WithLabelValues("fit").Inc()
		return nil, &ConfigurationError{
			Stage:         StateFit,
			Reason:        "factorization is undefined with fewer than 2 distinct items",
			DistinctItems: distinctItems,
		}
	}

	k := maxComponents
	if distinctItems-1 < k {
		k = distinctItems - 1
	}
	if k < 1 {
		k = 1
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fact := fitTruncatedSVD(matrix.cells, k, t.cfg.PowerIterations, t.cfg.Tolerance)

	model := &Model{
		UserFactors:    fact.transformed,
		ItemFactors:    fact.components,
		SingularValues: fact.singular,
		NComponents:    k,
		userIndex:      matrix.userIndex,
		itemIndex:      matrix.itemIndex,
	}

	// EVALUATE
	rmse, evaluable := evaluate(model, testSet)
	if evaluable == 0 {
		t.logger.Warn().Msg("No held-out pair overlapped the training matrix; RMSE carries no signal")
	}

	m := Metrics{
		RMSE:              rmse,
		EvaluablePairs:    evaluable,
		ExplainedVariance: fact.explainedVariance,
		NComponents:       k,
		TrainSize:         len(trainSet),
		TestSize:          len(testSet),
	}

	// PERSIST
	run := models.TrainingRun{
		RunID:             uuid.New().String(),
		TrainedAt:         time.Now().UTC(),
		RMSE:              &m.RMSE,
		EvaluablePairs:    m.EvaluablePairs,
		ExplainedVariance: m.ExplainedVariance,
		NComponents:       m.NComponents,
		ModelKind:         ModelKind,
	}

	if err := t.db.AppendTrainingRun(ctx, run); err != nil {
		metrics.PipelineErrors.WithLabelValues("persist").Inc()
		return nil, fmt.Errorf("persist run %s: %w", run.RunID, err)
	}

	reportPath, err := t.reports.Write(trainingReportName, trainingReport{Run: run, Metrics: m})
	if err != nil {
		metrics.PipelineErrors.WithLabelValues("persist").Inc()
		return nil, fmt.Errorf("write report for run %s: %w", run.RunID, err)
	}

	metrics.TrainingRuns.WithLabelValues(StateDone.String()).Inc()
	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	t.logger.Info().
		Str("run_id", run.RunID).
		Float64("rmse", m.RMSE).
		Int("evaluable_pairs", m.EvaluablePairs).
		Float64("explained_variance", m.ExplainedVariance).
		Int("n_components", m.NComponents).
		Str("report", reportPath).
		Msg("Training run complete")

	return &Result{State: StateDone, Run: &run, Model: model, Metrics: m}, nil
}

// trainingReport is the JSON report snapshot layout.
type trainingReport struct {
	Run     models.TrainingRun `json:"run"`
	Metrics Metrics            `json:"metrics"`
}

// evaluate compares observed held-out ratings to reconstructed predictions.
// Pairs absent from the training matrix (cold-start user or item) are
// skipped, not imputed. Returns RMSE over retained pairs and the retained
// pair count; zero retained pairs yields an RMSE of 0.0 that the caller must
// interpret via the count.
func evaluate(model *Model, testSet []models.Interaction) (rmse float64, evaluable int) {
	var sumSq float64
	for _, inter := range testSet {
		pred, ok := model.Predict(inter.UserID, inter.ItemID)
		if !ok {
			continue
		}
		diff := float64(inter.Rating) - pred
		sumSq += diff * diff
		evaluable++
	}

	if evaluable == 0 {
		return 0.0, 0
	}
	return math.Sqrt(sumSq / float64(evaluable)), evaluable
}
