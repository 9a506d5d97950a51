// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-catalog/internal/model"
)

// LookupResponse is one runtime lookup. Text is null when absent.
type LookupResponse struct {
	Code   string  `json:"code"`
	Locale string  `json:"locale"`
	Text   *string `json:"text"`
}

// Bundle handles GET /api/v1/catalog/{locale}.
// With with_empty, every code of the default locale is listed and
// untranslated codes map to null.
func (h *Handler) Bundle(w http.ResponseWriter, r *http.Request) {
	locale := pathParam(r, "locale")
	if !model.ValidLocale(locale) {
		WriteBadRequest(w, "Invalid locale", map[string]string{"locale": locale})
		return
	}

	if parseBoolParam(r, "with_empty") {
		texts, err := h.facade.LocaleMessages(r.Context(), locale, true)
		if err != nil {
			h.writeCatalogError(w, err, "load locale")
			return
		}
		bundle := make(map[string]*string, len(texts))
		for _, t := range texts {
			if text, ok := t.Text(); ok {
				bundle[t.Code] = &text
			} else {
				bundle[t.Code] = nil
			}
		}
		WriteSuccess(w, bundle, nil)
		return
	}

	bundle, err := h.caches.Bundles.Get(r.Context(), locale)
	if err != nil {
		h.writeCatalogError(w, err, "load locale")
		return
	}
	WriteSuccess(w, bundle, nil)
}

// Lookup handles GET /api/v1/catalog/{locale}/{code}. Absent text is not an error.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	locale := pathParam(r, "locale")
	code := pathParam(r, "code")

	resp := LookupResponse{Code: code, Locale: locale}
	if text, ok := h.caches.Catalog.Lookup(r.Context(), locale, code); ok {
		resp.Text = &text
	}
	WriteSuccess(w, resp, nil)
}
