// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/model"
)

// defaultRebuildAttempts bounds how often a rebuild retries when the catalog
// changes while it is being projected.
const defaultRebuildAttempts = 3

// Source is the message set the catalog cache projects.
type Source interface {
	// Scan visits every message under a consistent view and returns that view's version.
	Scan(ctx context.Context, fn func(m model.Message)) (uint64, error)
	// Version returns the current version stamp.
	Version() uint64
	// Get returns one message.
	Get(ctx context.Context, code string) (model.Message, error)
	// OnChange registers a hook run after every committed write.
	OnChange(fn func())
}

// snapshot is one immutable locale -> code -> text projection.
type snapshot struct {
	version uint64
	locales map[string]map[string]string
	entries int
	builtAt time.Time
}

// CatalogCache serves runtime lookups from a locale-indexed projection of the
// catalog. The projection is rebuilt lazily after any write and is only used
// while its version matches the source.
type CatalogCache struct {
	source      Source
	logger      *slog.Logger
	maxAttempts int

	mu   sync.RWMutex
	snap *snapshot

	group    singleflight.Group
	rebuilds atomic.Int64
	stats    counters
}

// NewCatalogCache creates a catalog cache over source and subscribes it to
// the source's change notifications.
func NewCatalogCache(source Source, logger *slog.Logger) *CatalogCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CatalogCache{
		source:      source,
		logger:      logger,
		maxAttempts: defaultRebuildAttempts,
	}
	source.OnChange(c.Invalidate)
	return c
}

// Lookup returns the text of code in locale. Unknown locales and codes are
// reported as absent.
func (c *CatalogCache) Lookup(ctx context.Context, locale, code string) (string, bool) {
	if locale == "" || code == "" {
		return "", false
	}

	if s := c.current(ctx); s != nil {
		c.stats.hits.Add(1)
		text, ok := s.locales[locale][code]
		return text, ok
	}

	c.stats.misses.Add(1)
	m, err := c.source.Get(ctx, code)
	if err != nil {
		return "", false
	}
	return m.ForLocale(locale)
}

// Locale returns a copy of the code -> text map of one locale.
func (c *CatalogCache) Locale(ctx context.Context, locale string) (map[string]string, error) {
	if s := c.current(ctx); s != nil {
		c.stats.hits.Add(1)
		return maps.Clone(s.locales[locale]), nil
	}

	c.stats.misses.Add(1)
	bundle := make(map[string]string)
	_, err := c.source.Scan(ctx, func(m model.Message) {
		if text, ok := m.Text[locale]; ok {
			bundle[m.Code] = text
		}
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// Rebuild projects the source into a new snapshot. Concurrent calls share one
// rebuild. It returns catalog.ErrConcurrencyConflict if the source kept
// changing for every attempt; the cache is then left invalid.
func (c *CatalogCache) Rebuild(ctx context.Context) error {
	_, err, _ := c.group.Do("rebuild", func() (any, error) {
		return nil, c.rebuild(ctx)
	})
	return err
}

func (c *CatalogCache) rebuild(ctx context.Context) error {
	for range c.maxAttempts {
		locales := make(map[string]map[string]string)
		entries := 0
		version, err := c.source.Scan(ctx, func(m model.Message) {
			for locale, text := range m.Text {
				byCode, ok := locales[locale]
				if !ok {
					byCode = make(map[string]string)
					locales[locale] = byCode
				}
				byCode[m.Code] = text
				entries++
			}
		})
		if err != nil {
			return fmt.Errorf("scanning catalog: %w", err)
		}

		c.mu.Lock()
		if c.source.Version() == version {
			c.snap = &snapshot{
				version: version,
				locales: locales,
				entries: entries,
				builtAt: time.Now(),
			}
			c.mu.Unlock()
			c.rebuilds.Add(1)
			c.stats.sets.Add(1)
			return nil
		}
		c.mu.Unlock()
	}

	return fmt.Errorf("%w: catalog changed during %d rebuild attempts",
		catalog.ErrConcurrencyConflict, c.maxAttempts)
}

// current returns a snapshot matching the source version, rebuilding if
// needed. nil means callers must read through to the source.
func (c *CatalogCache) current(ctx context.Context) *snapshot {
	if s := c.valid(); s != nil {
		return s
	}
	if err := c.Rebuild(ctx); err != nil {
		c.logger.Warn("catalog cache rebuild failed, reading through", "error", err)
		return nil
	}
	return c.valid()
}

func (c *CatalogCache) valid() *snapshot {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()

	if s == nil || s.version != c.source.Version() {
		return nil
	}
	return s
}

// Invalidate drops the current snapshot. The next lookup rebuilds it.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Clear invalidates the cache. It is the external invalidation signal.
func (c *CatalogCache) Clear() {
	c.Invalidate()
}

// IsValid reports whether a snapshot matching the source is installed.
func (c *CatalogCache) IsValid() bool {
	return c.valid() != nil
}

// BuiltAt returns when the installed snapshot was built.
func (c *CatalogCache) BuiltAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return time.Time{}, false
	}
	return c.snap.builtAt, true
}

// Rebuilds returns the number of installed snapshots.
func (c *CatalogCache) Rebuilds() int64 {
	return c.rebuilds.Load()
}

// Stats returns lookup statistics. Hits are lookups served by a snapshot,
// misses are lookups that read through to the source.
func (c *CatalogCache) Stats() Stats {
	s := c.stats.snapshot()
	c.mu.RLock()
	if c.snap != nil {
		s.Items = c.snap.entries
	}
	c.mu.RUnlock()
	return s
}

// ResetStats resets the cache statistics.
func (c *CatalogCache) ResetStats() {
	c.stats.reset()
}

var _ StatsProvider = (*CatalogCache)(nil)
