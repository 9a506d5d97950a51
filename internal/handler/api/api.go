// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides REST API handlers for the message catalog.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-catalog/internal/admin"
	"github.com/olegiv/ocms-catalog/internal/cache"
	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/model"
	"github.com/olegiv/ocms-catalog/internal/reconcile"
	"github.com/olegiv/ocms-catalog/internal/scheduler"
	"github.com/olegiv/ocms-catalog/internal/version"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// EventLister reads the durable event log.
type EventLister interface {
	ListEvents(ctx context.Context, limit int) ([]model.Event, error)
}

// JobReporter describes the scheduled re-scan job.
type JobReporter interface {
	Info() scheduler.JobInfo
}

// Deps are the components the API serves.
type Deps struct {
	DB      Pinger
	Facade  *admin.Facade
	Engine  *reconcile.Engine
	Scanner reconcile.Scanner
	Caches  *cache.Manager
	Events  EventLister
	Jobs    JobReporter
	Logger  *slog.Logger
	Version *version.Info
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db      Pinger
	facade  *admin.Facade
	engine  *reconcile.Engine
	scanner reconcile.Scanner
	caches  *cache.Manager
	events  EventLister
	jobs    JobReporter
	logger  *slog.Logger
	version *version.Info

	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        d.DB,
		facade:    d.Facade,
		engine:    d.Engine,
		scanner:   d.Scanner,
		caches:    d.Caches,
		events:    d.Events,
		jobs:      d.Jobs,
		logger:    logger,
		version:   d.Version,
		startTime: time.Now(),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination and other metadata.
type Meta struct {
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	WriteJSON(w, statusCode, resp)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeCatalogError maps catalog errors to HTTP responses.
func (h *Handler) writeCatalogError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		WriteNotFound(w, "Message not found")
	case errors.Is(err, catalog.ErrInvalidArgument):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_argument", err.Error(), nil)
	default:
		h.logger.Error("catalog request failed", "action", action, "error", err)
		WriteInternalError(w, "Failed to "+action)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathParam returns the URL parameter name. chi matches on the raw path only
// when it carries escapes the decoded path cannot express, so only then is
// the parameter still escaped.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// parseIntParam parses an integer query parameter. Missing, invalid or
// out-of-range values yield defaultVal.
func parseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(param)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil || val < minVal || (maxVal > 0 && val > maxVal) {
		return defaultVal
	}
	return val
}

// parseBoolParam accepts the strconv.ParseBool forms; anything else is false.
func parseBoolParam(r *http.Request, param string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(param))
	return err == nil && v
}
