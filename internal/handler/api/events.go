// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import "net/http"

// ListEvents handles GET /api/v1/events?limit=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50, 1, 500)

	events, err := h.events.ListEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}

	WriteSuccess(w, events, &Meta{Count: len(events)})
}
