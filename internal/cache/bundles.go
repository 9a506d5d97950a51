// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BundleCache keeps serialized locale bundles in a byte cache. Keys carry the
// process instance and the catalog version, so a bundle is never served after
// the catalog changes and instances sharing a Redis never mix bundles.
type BundleCache struct {
	bundles  *TypedCache[map[string]string]
	catalog  *CatalogCache
	source   Source
	instance string
}

// NewBundleCache creates a bundle cache storing into backend.
func NewBundleCache(backend Cacher, catalog *CatalogCache, source Source, ttl time.Duration) *BundleCache {
	return &BundleCache{
		bundles:  NewTypedCache[map[string]string](backend, ttl),
		catalog:  catalog,
		source:   source,
		instance: uuid.NewString(),
	}
}

// Get returns the bundle of locale, building it from the catalog cache on a miss.
func (b *BundleCache) Get(ctx context.Context, locale string) (map[string]string, error) {
	key := b.key(b.source.Version(), locale)

	bundle, err := b.bundles.GetOrSet(ctx, key, func() (*map[string]string, error) {
		m, err := b.catalog.Locale(ctx, locale)
		if err != nil {
			return nil, err
		}
		return &m, nil
	})
	if err != nil {
		return nil, err
	}
	return *bundle, nil
}

// Clear removes every bundle of this instance.
func (b *BundleCache) Clear(ctx context.Context) error {
	return b.bundles.DeleteByPrefix(ctx, b.prefix())
}

// Instance returns the id that scopes this cache's keys.
func (b *BundleCache) Instance() string {
	return b.instance
}

func (b *BundleCache) prefix() string {
	return "bundle:" + b.instance + ":"
}

func (b *BundleCache) key(version uint64, locale string) string {
	return fmt.Sprintf("%s%d:%s", b.prefix(), version, locale)
}
