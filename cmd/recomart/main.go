// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Command recomart runs one batch pipeline cycle: validate the raw tables,
// compute feature rows, publish them as a new feature generation, and train
// a recommendation model with a persisted lineage record.
//
// The process is single-shot. Scheduling and retry live outside this binary;
// the orchestrator guarantees at most one run is active at a time, so the
// pipeline itself takes no locks.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/2024ac05667-alt/recomart/internal/config"
	"github.com/2024ac05667-alt/recomart/internal/database"
	"github.com/2024ac05667-alt/recomart/internal/features"
	"github.com/2024ac05667-alt/recomart/internal/featurestore"
	"github.com/2024ac05667-alt/recomart/internal/logging"
	"github.com/2024ac05667-alt/recomart/internal/models"
	"github.com/2024ac05667-alt/recomart/internal/reports"
	"github.com/2024ac05667-alt/recomart/internal/trainer"
	"github.com/2024ac05667-alt/recomart/internal/validation"
)

// Version information set at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// generationLayout stamps each publish cycle with a UTC timestamp label.
const generationLayout = "20060102T150405Z"

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	seedDemo := flag.Bool("seed", false, "load synthetic demo data into the raw tables before running")
	flag.Parse()

	if *showVersion {
		fmt.Printf("recomart %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})

	logging.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Msg("RecoMart pipeline starting")

	if err := run(context.Background(), cfg, *seedDemo); err != nil {
		logging.Error().Err(err).Msg("Pipeline run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seedDemo bool) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close database")
		}
	}()

	if seedDemo {
		if err := seedDemoData(ctx, db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	reportWriter, err := reports.NewWriter(cfg.Reports.Dir)
	if err != nil {
		return fmt.Errorf("create report writer: %w", err)
	}

	// Stage 1: data quality scan. Anomalies are reported, not fatal.
	validator := validation.New(db, logging.Logger())
	qualityReport, err := validator.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validate raw data: %w", err)
	}
	qualityPath, err := reportWriter.Write("data_quality", qualityReport)
	if err != nil {
		return fmt.Errorf("write data quality report: %w", err)
	}
	logging.Debug().Str("path", qualityPath).Msg("Data quality report written")

	// Stage 2: feature computation.
	engine, err := features.NewEngine(features.Config{
		SchemaVersion: cfg.Features.SchemaVersion,
		Columns:       cfg.Features.Columns,
	}, logging.Logger())
	if err != nil {
		return fmt.Errorf("create feature engine: %w", err)
	}

	interactions, err := db.ReadInteractions(ctx)
	if err != nil {
		return fmt.Errorf("read interactions: %w", err)
	}
	products, err := db.ReadProducts(ctx)
	if err != nil {
		return fmt.Errorf("read products: %w", err)
	}

	rows, err := engine.Compute(interactions, products)
	if err != nil {
		return fmt.Errorf("compute features: %w", err)
	}

	// Stage 3: publish the new feature generation.
	registry, err := featurestore.NewRegistry(cfg.Store.RegistryPath)
	if err != nil {
		return fmt.Errorf("open feature registry: %w", err)
	}
	store, err := featurestore.New(db, registry, featurestore.Config{
		Table:         cfg.Store.Table,
		FeatureSet:    cfg.Store.FeatureSet,
		SchemaVersion: engine.SchemaVersion(),
		Columns:       engine.Columns(),
	}, logging.Logger())
	if err != nil {
		return fmt.Errorf("create feature store: %w", err)
	}

	generation := time.Now().UTC().Format(generationLayout)
	if err := store.Publish(ctx, rows, generation); err != nil {
		return fmt.Errorf("publish features: %w", err)
	}

	// Stage 4: train and record lineage.
	t := trainer.New(db, reportWriter, trainer.Config{
		PowerIterations: cfg.Trainer.PowerIterations,
		Tolerance:       cfg.Trainer.Tolerance,
	}, logging.Logger())

	result, err := t.Train(ctx, interactions)
	if err != nil {
		return fmt.Errorf("train model: %w", err)
	}

	if result.State == trainer.StateNoData {
		logging.Warn().Msg("Pipeline complete without training: no interaction data")
		return nil
	}

	logging.Info().
		Str("generation", generation).
		Str("run_id", result.Run.RunID).
		Int("feature_rows", len(rows)).
		Float64("rmse", result.Metrics.RMSE).
		Int("evaluable_pairs", result.Metrics.EvaluablePairs).
		Msg("Pipeline run complete")

	return nil
}

// seedDemoData fills the raw tables with a small synthetic batch for local
// runs: 100 interactions over 20 users and 20 items, and a 5-item catalog.
// Generation is seeded so repeated demo runs are identical.
func seedDemoData(ctx context.Context, db *database.DB) error {
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // demo data, not cryptographic

	interactions := make([]models.Interaction, 0, 100)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		interactions = append(interactions, models.Interaction{
			UserID:     int64(rng.Intn(20) + 1),
			ItemID:     int64(rng.Intn(20) + 1),
			Rating:     rng.Intn(5) + 1,
			ObservedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	categories := []string{"Electronics", "Books", "Clothing", "Sports", "Home"}
	products := make([]models.Product, 0, len(categories))
	for i, cat := range categories {
		products = append(products, models.Product{
			ItemID:   int64(i + 1),
			Category: cat,
			Price:    5 + rng.Float64()*495,
		})
	}

	if err := db.ReplaceInteractions(ctx, interactions); err != nil {
		return err
	}
	if err := db.ReplaceProducts(ctx, products); err != nil {
		return err
	}

	logging.Info().
		Int("interactions", len(interactions)).
		Int("products", len(products)).
		Msg("Demo data seeded")
	return nil
}
