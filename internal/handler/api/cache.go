// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-catalog/internal/cache"
)

// CacheStatsResponse is the body of GET /api/v1/cache/stats.
type CacheStatsResponse struct {
	Backend string             `json:"backend"`
	Caches  []cache.CacheStats `json:"caches"`
	Total   cache.Stats        `json:"total"`
}

// ClearCache handles POST /api/v1/cache/clear.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.caches.ClearAll(r.Context()); err != nil {
		h.logger.Error("failed to clear caches", "error", err)
		WriteInternalError(w, "Failed to clear cache")
		return
	}
	WriteSuccess(w, map[string]string{"message": "Cache cleared"}, nil)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, CacheStatsResponse{
		Backend: h.caches.Info(),
		Caches:  h.caches.AllStats(),
		Total:   h.caches.TotalStats(),
	}, nil)
}
