// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package config loads layered application configuration: built-in
// defaults, an optional YAML file, then GUSTUS_-prefixed environment
// variables. Precedence is ENV > file > defaults.
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

	"github.com/tomtom215/gustus/internal/recommend"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/gustus/config.yaml",
	"/etc/gustus/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "GUSTUS_CONFIG_PATH"

// envPrefix namespaces all environment overrides.
const envPrefix = "GUSTUS_"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Database  DatabaseConfig   `koanf:"database"`
	Cache     CacheConfig      `koanf:"cache"`
	Rebuild   RebuildConfig    `koanf:"rebuild"`
	Logging   LoggingConfig    `koanf:"logging"`
	Recommend recommend.Config `koanf:"recommend"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds the DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	Threads   int    `koanf:"threads"`
	MaxMemory string `koanf:"max_memory"`
}

// CacheConfig holds the portfolio cache settings.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Dir     string        `koanf:"dir"`
	TTL     time.Duration `koanf:"ttl"`
}

// RebuildConfig holds the periodic catalog rebuild settings.
type RebuildConfig struct {
	Enabled           bool          `koanf:"enabled"`
	OnStartup         bool          `koanf:"on_startup"`
	Interval          time.Duration `koanf:"interval"`
	ProfilesPerSecond float64       `koanf:"profiles_per_second"`
	ShortlistSize     int           `koanf:"shortlist_size"`
}

// LoggingConfig holds the zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/gustus.duckdb",
			Threads:   0, // 0 = runtime.NumCPU()
			MaxMemory: "1GB",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "/data/cache",
			TTL:     5 * time.Minute,
		},
		Rebuild: RebuildConfig{
			Enabled:           false, // opt-in; catalogctl covers one-shot rebuilds
			OnStartup:         false,
			Interval:          24 * time.Hour,
			ProfilesPerSecond: 200,
			ShortlistSize:     0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: *recommend.DefaultConfig(),
	}
}

// Load reads configuration from defaults, an optional YAML file, and
// GUSTUS_-prefixed environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// GUSTUS_SERVER_PORT -> server.port, GUSTUS_DATABASE_MAX_MEMORY ->
	// database.max_memory. The first underscore separates the section.
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	return cfg, nil
}

// envTransform maps GUSTUS_SECTION_SOME_KEY to section.some_key.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return section
	}
	return section + "." + rest
}

// findConfigFile returns the first existing config file path.
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

// sliceConfigPaths lists paths parsed as comma-separated slices when they
// arrive as env strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		raw, ok := val.(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set slice field %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks cross-field invariants; engine config has its own
// validation.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1..65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must not be negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled, got %s", c.Cache.TTL)
	}
	if c.Rebuild.Enabled && c.Rebuild.Interval <= 0 {
		return fmt.Errorf("rebuild.interval must be positive when rebuild is enabled, got %s", c.Rebuild.Interval)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}
