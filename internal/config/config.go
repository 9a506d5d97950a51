// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the catalog service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OCMS_DB_PATH" envDefault:"./data/catalog.db"`
	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// Locales
	DefaultLocale string   `env:"OCMS_DEFAULT_LOCALE" envDefault:"en"`
	Locales       []string `env:"OCMS_LOCALES" envSeparator:"," envDefault:"en"`

	// Cache configuration
	RedisURL     string `env:"OCMS_REDIS_URL"`                               // Optional Redis URL for shared locale bundles
	CachePrefix  string `env:"OCMS_CACHE_PREFIX" envDefault:"ocms:catalog:"` // Redis key prefix
	CacheTTL     int    `env:"OCMS_CACHE_TTL" envDefault:"3600"`             // Bundle TTL in seconds
	CacheMaxSize int    `env:"OCMS_CACHE_MAX_SIZE" envDefault:"10000"`       // Max memory cache entries

	// Code scanning
	ScanPaths          []string `env:"OCMS_SCAN_PATHS" envSeparator:","`
	RescanSchedule     string   `env:"OCMS_RESCAN_SCHEDULE"` // Cron spec; empty disables
	RescanPurgeOrphans bool     `env:"OCMS_RESCAN_PURGE_ORPHANS" envDefault:"false"`

	// Event log entries older than this are pruned daily; 0 keeps them forever
	EventRetentionDays int `env:"OCMS_EVENT_RETENTION_DAYS" envDefault:"30"`

	// API write throttling per client
	WriteRPS   float64 `env:"OCMS_API_WRITE_RPS" envDefault:"5"`
	WriteBurst int     `env:"OCMS_API_WRITE_BURST" envDefault:"20"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the bundle TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// RescanEnabled returns true if a periodic re-scan is scheduled.
func (c Config) RescanEnabled() bool {
	return c.RescanSchedule != "" && len(c.ScanPaths) > 0
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("OCMS_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.EventRetentionDays < 0 {
		return fmt.Errorf("OCMS_EVENT_RETENTION_DAYS must not be negative, got %d", c.EventRetentionDays)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("OCMS_CACHE_TTL must be positive, got %d", c.CacheTTL)
	}

	c.DefaultLocale = strings.TrimSpace(c.DefaultLocale)
	if _, err := language.Parse(c.DefaultLocale); err != nil {
		return fmt.Errorf("OCMS_DEFAULT_LOCALE %q is not a valid locale: %w", c.DefaultLocale, err)
	}

	locales := make([]string, 0, len(c.Locales)+1)
	for _, l := range c.Locales {
		l = strings.TrimSpace(l)
		if l == "" || slices.Contains(locales, l) {
			continue
		}
		if _, err := language.Parse(l); err != nil {
			return fmt.Errorf("OCMS_LOCALES entry %q is not a valid locale: %w", l, err)
		}
		locales = append(locales, l)
	}
	if !slices.Contains(locales, c.DefaultLocale) {
		locales = slices.Insert(locales, 0, c.DefaultLocale)
	}
	c.Locales = locales

	paths := c.ScanPaths[:0]
	for _, p := range c.ScanPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	c.ScanPaths = paths

	c.RescanSchedule = strings.TrimSpace(c.RescanSchedule)
	if c.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.RescanSchedule); err != nil {
			return fmt.Errorf("OCMS_RESCAN_SCHEDULE %q: %w", c.RescanSchedule, err)
		}
	}

	return nil
}
