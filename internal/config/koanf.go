// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trendspotter/config.yaml",
	"/etc/trendspotter/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "/data/trendspotter",
		},
		Recommend: RecommendConfig{
			Weights: WeightsConfig{
				Collaborative: 0.35,
				Content:       0.30,
				Location:      0.25,
				Temporal:      0.10,
			},
			MinScoreFloor:   0.05,
			BackfillEnabled: true,
			EventWindowDays: 30,
			Workers:         8,
			MaxCandidates:   1000,
			DefaultCount:    10,
			MaxCount:        50,
			TrainInterval:   time.Hour,
			MinInteractions: 20,
			SeedDemoData:    true,
		},
		Experiments: []ExperimentConfig{
			{
				Name:     "HOMEPAGE_LAYOUT",
				Enabled:  true,
				Variants: []string{"Standard", "LocationFirst", "PersonalizedFirst"},
				Weights:  []float64{0.4, 0.3, 0.3},
			},
			{
				Name:     "RANKING_STRATEGY",
				Enabled:  true,
				Variants: []string{"hybrid", "collaborative", "content"},
				Weights:  []float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
			},
		},
	}
}

// Load loads configuration using koanf with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Validation runs before returning; an invalid configuration is an error
// and the caller must treat it as fatal.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Slice values from the file replace defaults wholesale, so a config
	// file that declares experiments overrides the built-in set.
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when they arrive as env var strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment variables cannot
// pollute the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - RECOMMEND_WEIGHT_LOCATION -> recommend.weights.location
//   - STORAGE_PATH -> storage.path
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"shutdown_timeout":    "server.shutdown_timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Storage mappings
		"storage_backend": "storage.backend",
		"storage_path":    "storage.path",

		// Recommendation engine mappings
		"recommend_weight_collaborative": "recommend.weights.collaborative",
		"recommend_weight_content":       "recommend.weights.content",
		"recommend_weight_location":      "recommend.weights.location",
		"recommend_weight_temporal":      "recommend.weights.temporal",
		"recommend_min_score_floor":      "recommend.min_score_floor",
		"recommend_backfill_enabled":     "recommend.backfill_enabled",
		"recommend_event_window_days":    "recommend.event_window_days",
		"recommend_workers":              "recommend.workers",
		"recommend_max_candidates":       "recommend.max_candidates",
		"recommend_default_count":        "recommend.default_count",
		"recommend_max_count":            "recommend.max_count",
		"recommend_train_interval":       "recommend.train_interval",
		"recommend_min_interactions":     "recommend.min_interactions",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
