// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// CacheType identifies a specific cache.
type CacheType string

// Cache types.
const (
	CacheTypeCatalog CacheType = "catalog"
	CacheTypeBundles CacheType = "bundles"
)

// CacheStats holds statistics for a specific cache.
type CacheStats struct {
	Name     string     `json:"name"`
	Type     CacheType  `json:"type"`
	Backend  string     `json:"backend"`
	Stats    Stats      `json:"stats"`
	CachedAt *time.Time `json:"cached_at,omitempty"` // when the catalog snapshot was built
	Rebuilds int64      `json:"rebuilds,omitempty"`
}

// Manager owns the catalog caches and provides a unified interface.
type Manager struct {
	Catalog *CatalogCache
	Bundles *BundleCache

	backend Cacher
	logger  *slog.Logger
}

// NewManager creates the catalog cache and a bundle cache on the backend
// described by cfg.
func NewManager(source Source, cfg Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := NewCache(cfg, logger)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalogCache(source, logger)
	return &Manager{
		Catalog: catalog,
		Bundles: NewBundleCache(backend, catalog, source, cfg.DefaultTTL),
		backend: backend,
		logger:  logger,
	}, nil
}

// ClearAll clears all caches and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) error {
	m.Catalog.Clear()
	if err := m.Bundles.Clear(ctx); err != nil {
		return err
	}

	m.Catalog.ResetStats()
	if sp, ok := m.backend.(StatsProvider); ok {
		sp.ResetStats()
	}

	m.logger.Info("catalog caches cleared", "category", "cache")
	return nil
}

// AllStats returns statistics for all caches.
func (m *Manager) AllStats() []CacheStats {
	catalogStats := CacheStats{
		Name:     "Message Catalog",
		Type:     CacheTypeCatalog,
		Backend:  TypeMemory,
		Stats:    m.Catalog.Stats(),
		Rebuilds: m.Catalog.Rebuilds(),
	}
	if builtAt, ok := m.Catalog.BuiltAt(); ok {
		catalogStats.CachedAt = &builtAt
	}

	bundleStats := CacheStats{
		Name:    "Locale Bundles",
		Type:    CacheTypeBundles,
		Backend: m.Info(),
	}
	if sp, ok := m.backend.(StatsProvider); ok {
		bundleStats.Stats = sp.Stats()
	}

	return []CacheStats{catalogStats, bundleStats}
}

// TotalStats returns aggregated statistics across all caches.
func (m *Manager) TotalStats() Stats {
	var total Stats
	for _, cs := range m.AllStats() {
		total.Hits += cs.Stats.Hits
		total.Misses += cs.Stats.Misses
		total.Sets += cs.Stats.Sets
		total.Items += cs.Stats.Items
		if cs.Stats.ResetAt != nil && (total.ResetAt == nil || cs.Stats.ResetAt.After(*total.ResetAt)) {
			total.ResetAt = cs.Stats.ResetAt
		}
	}
	total.HitRate = hitRate(total.Hits, total.Misses)
	return total
}

// Preload builds the catalog snapshot and the bundles of the given locales.
func (m *Manager) Preload(ctx context.Context, locales []string) error {
	if err := m.Catalog.Rebuild(ctx); err != nil {
		return err
	}
	for _, locale := range locales {
		if _, err := m.Bundles.Get(ctx, locale); err != nil {
			return err
		}
	}
	return nil
}

// IsRedis reports whether bundles are stored in Redis.
func (m *Manager) IsRedis() bool {
	_, ok := m.backend.(*RedisCache)
	return ok
}

// Info returns the name of the bundle backend.
func (m *Manager) Info() string {
	if m.IsRedis() {
		return TypeRedis
	}
	return TypeMemory
}

// HealthCheck pings the bundle backend when it is Redis.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if rc, ok := m.backend.(*RedisCache); ok {
		return rc.Ping(ctx)
	}
	return nil
}

// Close releases the bundle backend.
func (m *Manager) Close() error {
	if m.backend == nil {
		return nil
	}
	err := m.backend.Close()
	if errors.Is(err, ErrCacheClosed) {
		return nil
	}
	return err
}
