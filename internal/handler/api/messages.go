// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-catalog/internal/admin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ListMessages handles GET /api/v1/messages.
// Query: from, to, hide_translated, search, offset, count.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := admin.Request{
		FromLocale:     q.Get("from"),
		HideTranslated: parseBoolParam(r, "hide_translated"),
		Search:         q.Get("search"),
		Offset:         parseIntParam(r, "offset", 0, 0, 0),
		Count:          parseIntParam(r, "count", defaultPageSize, 1, maxPageSize),
	}
	if q.Has("to") {
		to := q.Get("to")
		req.ToLocale = &to
	}

	resp, err := h.facade.Rows(r.Context(), req)
	if err != nil {
		h.writeCatalogError(w, err, "list messages")
		return
	}

	WriteSuccess(w, resp, &Meta{
		Total:   resp.TotalCount,
		Offset:  req.Offset,
		Count:   len(resp.Rows),
		HasMore: resp.HasMore,
	})
}

// UpdateMessageRequest is the body of PUT /api/v1/messages/{code}.
// A null or missing text clears the locale.
type UpdateMessageRequest struct {
	Locale string  `json:"locale"`
	Text   *string `json:"text"`
}

// UpdateMessage handles PUT /api/v1/messages/{code}.
func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	code := pathParam(r, "code")

	var req UpdateMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.Locale == "" {
		WriteValidationError(w, map[string]string{"locale": "Locale is required"})
		return
	}

	if err := h.facade.Update(r.Context(), code, req.Locale, req.Text); err != nil {
		h.writeCatalogError(w, err, "update message")
		return
	}

	WriteSuccess(w, map[string]any{
		"code":   code,
		"locale": req.Locale,
		"text":   req.Text,
	}, nil)
}

// UpdateRowRequest is the body of PUT /api/v1/messages/{code}/row: the two
// cells of one grid row. A null or missing text clears the locale.
type UpdateRowRequest struct {
	FromLocale string  `json:"from_locale"`
	ToLocale   string  `json:"to_locale"`
	From       *string `json:"from"`
	To         *string `json:"to"`
}

// UpdateRow handles PUT /api/v1/messages/{code}/row. Cells of unconfigured
// locales are ignored and unchanged cells are not written.
func (h *Handler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	code := pathParam(r, "code")

	var req UpdateRowRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.FromLocale == "" && req.ToLocale == "" {
		WriteValidationError(w, map[string]string{"to_locale": "At least one locale is required"})
		return
	}

	err := h.facade.UpdateRow(r.Context(), admin.RowUpdate{
		Code:       code,
		FromLocale: req.FromLocale,
		ToLocale:   req.ToLocale,
		From:       req.From,
		To:         req.To,
	})
	if err != nil {
		h.writeCatalogError(w, err, "update message row")
		return
	}

	msg, err := h.facade.Message(r.Context(), code)
	if err != nil {
		h.writeCatalogError(w, err, "update message row")
		return
	}
	WriteSuccess(w, msg, nil)
}

// DeleteMessage handles DELETE /api/v1/messages/{code}.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.facade.Delete(r.Context(), pathParam(r, "code")); err != nil {
		h.writeCatalogError(w, err, "delete message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeOrphans handles POST /api/v1/messages/purge-orphans.
func (h *Handler) PurgeOrphans(w http.ResponseWriter, r *http.Request) {
	n, err := h.facade.PurgeOrphans(r.Context())
	if err != nil {
		h.writeCatalogError(w, err, "purge orphan messages")
		return
	}
	WriteSuccess(w, map[string]int{"purged": n}, nil)
}
