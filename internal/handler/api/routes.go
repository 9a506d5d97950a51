// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-catalog/internal/middleware"
)

// RouteOptions tunes the router middleware.
type RouteOptions struct {
	IsDevelopment  bool
	RequestTimeout time.Duration
	HSTSMaxAge     int
	// WriteRPS and WriteBurst limit mutating requests per client. Zero disables the limit.
	WriteRPS   float64
	WriteBurst int
}

// DefaultRouteOptions returns production defaults.
func DefaultRouteOptions() RouteOptions {
	return RouteOptions{
		RequestTimeout: 30 * time.Second,
		HSTSMaxAge:     31536000,
		WriteRPS:       5,
		WriteBurst:     20,
	}
}

// Routes returns the API router.
func (h *Handler) Routes(opts RouteOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	r.Use(middleware.SecurityHeaders(opts.IsDevelopment, opts.HSTSMaxAge))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/messages", h.ListMessages)
		r.Get("/catalog/{locale}", h.Bundle)
		r.Get("/catalog/{locale}/{code}", h.Lookup)
		r.Get("/cache/stats", h.CacheStats)
		r.Get("/events", h.ListEvents)
		r.Get("/scan/status", h.ScanStatus)

		r.Group(func(r chi.Router) {
			if opts.WriteRPS > 0 {
				r.Use(middleware.RateLimit(opts.WriteRPS, opts.WriteBurst))
			}
			r.Post("/messages/purge-orphans", h.PurgeOrphans)
			r.Put("/messages/{code}", h.UpdateMessage)
			r.Put("/messages/{code}/row", h.UpdateRow)
			r.Delete("/messages/{code}", h.DeleteMessage)
			r.Post("/scan", h.Scan)
			r.Post("/cache/clear", h.ClearCache)
		})
	})

	return r
}
