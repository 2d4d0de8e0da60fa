// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for the Trendspotter server.
//
// Trendspotter serves hybrid content recommendations for local discovery
// (events, places, visual posts) and runs the A/B experimentation surface
// on top of them.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config.yaml and
//     environment variables (Koanf v2); blend and experiment weight
//     validation is fatal here
//  2. Storage: BadgerDB for sticky experiment assignments and counters
//  3. Recommendation engine: four signal scorers behind a worker pool,
//     with a background retrain loop
//  4. Experiment service: weighted sticky variant assignment and
//     impression/conversion tracking
//  5. HTTP server: REST API under /api/v1 plus Prometheus /metrics
//
// Graceful shutdown on SIGINT/SIGTERM: stop accepting connections, drain
// in-flight requests, stop the training loop, close the store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/trendspotter/trendspotter/internal/api"
	"github.com/trendspotter/trendspotter/internal/config"
	"github.com/trendspotter/trendspotter/internal/experiment"
	"github.com/trendspotter/trendspotter/internal/logging"
	"github.com/trendspotter/trendspotter/internal/provider"
	"github.com/trendspotter/trendspotter/internal/recommend"
	"github.com/trendspotter/trendspotter/internal/recommend/scorers"
	"github.com/trendspotter/trendspotter/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging may not be configured yet; write straight to stderr.
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("version", version).Msg("Starting Trendspotter")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Server stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Experiment store.
	var expStore experiment.Store
	switch cfg.Storage.Backend {
	case "memory":
		expStore = experiment.NewMemoryStore()
		logging.Warn().Msg("Using in-memory experiment store; state is lost on restart")
	default:
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Closing store failed")
			}
		}()
		expStore = store.NewBadgerStore(db)
	}

	// Experiment service.
	defs := make([]experiment.Definition, 0, len(cfg.Experiments))
	for _, e := range cfg.Experiments {
		weights := e.Weights
		if len(weights) == 0 {
			// Config omits weights to mean a uniform split.
			weights = make([]float64, len(e.Variants))
			for i := range weights {
				weights[i] = 1.0 / float64(len(e.Variants))
			}
		}
		defs = append(defs, experiment.Definition{
			Name:     e.Name,
			Enabled:  e.Enabled,
			Variants: e.Variants,
			Weights:  weights,
		})
	}
	registry, err := experiment.NewRegistry(defs)
	if err != nil {
		return fmt.Errorf("experiment registry: %w", err)
	}
	experiments := experiment.NewService(registry, expStore, 0)

	// Data provider. The in-memory provider ships with a demo catalog;
	// a remote provider would be wrapped in provider.NewBreaker here.
	dataProvider := provider.NewMemory()
	if cfg.Recommend.SeedDemoData {
		dataProvider.SeedDemo(time.Now())
		logging.Info().Msg("Seeded demo catalog")
	}

	// Recommendation engine.
	engineCfg := recommend.Config{
		Weights: recommend.Weights{
			Collaborative: cfg.Recommend.Weights.Collaborative,
			Content:       cfg.Recommend.Weights.Content,
			Location:      cfg.Recommend.Weights.Location,
			Temporal:      cfg.Recommend.Weights.Temporal,
		},
		MinScoreFloor:   cfg.Recommend.MinScoreFloor,
		BackfillEnabled: cfg.Recommend.BackfillEnabled,
		EventWindow:     cfg.Recommend.EventWindow(),
		Workers:         cfg.Recommend.Workers,
		MaxCandidates:   cfg.Recommend.MaxCandidates,
		DefaultCount:    cfg.Recommend.DefaultCount,
		MaxCount:        cfg.Recommend.MaxCount,
		TrainInterval:   cfg.Recommend.TrainInterval,
		MinInteractions: cfg.Recommend.MinInteractions,
	}
	popularity := scorers.NewPopularity()
	signalScorers := []recommend.Scorer{
		scorers.NewCollaborative(cfg.Recommend.MinInteractions),
		scorers.NewContent(),
		scorers.NewLocation(),
		scorers.NewTemporal(engineCfg.EventWindow),
	}
	engine, err := recommend.NewEngine(engineCfg, dataProvider, signalScorers, popularity)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()

	// HTTP server.
	handler := api.NewHandler(engine, experiments, version)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP shutdown incomplete")
	}
	wg.Wait()
	return nil
}
