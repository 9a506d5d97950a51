// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/reconcile"
)

// ScanRequest is the body of POST /api/v1/scan. All fields are optional.
type ScanRequest struct {
	PurgeMessages        bool `json:"purge_messages"`
	PurgeDeletedMessages bool `json:"purge_deleted_messages"`
	Confirm              bool `json:"confirm"`
}

// ScanResponse is returned after a successful scan.
type ScanResponse struct {
	Message string           `json:"message"`
	Report  reconcile.Report `json:"report"`
}

// Scan handles POST /api/v1/scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		WriteError(w, http.StatusServiceUnavailable, "scanner_unavailable", "No code scanner is configured", nil)
		return
	}

	var req ScanRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.PurgeMessages && !req.Confirm {
		WriteValidationError(w, map[string]string{
			"confirm": "purge_messages deletes every message and translation; set confirm to true",
		})
		return
	}

	report, err := h.engine.RunScanner(r.Context(), h.scanner, reconcile.Options{
		Truncate:     req.PurgeMessages,
		PurgeOrphans: req.PurgeDeletedMessages,
	})
	if err != nil {
		var stepErr *reconcile.StepError
		switch {
		case errors.Is(err, catalog.ErrInvalidArgument):
			WriteError(w, http.StatusUnprocessableEntity, "invalid_argument", err.Error(), nil)
		case errors.As(err, &stepErr):
			h.logger.Error("scan failed", "step", stepErr.Step, "error", err)
			WriteError(w, http.StatusInternalServerError, "scan_failed", "Scan failed",
				map[string]string{"step": string(stepErr.Step)})
		default:
			h.logger.Error("scan failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "scan_failed", "Scan failed", nil)
		}
		return
	}

	WriteSuccess(w, ScanResponse{Message: "Messages scanned", Report: report}, nil)
}

// ScanStatus handles GET /api/v1/scan/status.
func (h *Handler) ScanStatus(w http.ResponseWriter, _ *http.Request) {
	if h.jobs == nil {
		WriteError(w, http.StatusServiceUnavailable, "scheduler_unavailable", "No scheduler is running", nil)
		return
	}
	WriteSuccess(w, h.jobs.Info(), nil)
}
