// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package reconcile merges the set of codes reported by a scan into the
// message catalog without discarding translations.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/model"
)

// Step names one phase of a reconciliation run.
type Step string

// Reconciliation steps, in execution order.
const (
	StepScan        Step = "scan"
	StepTruncate    Step = "truncate"
	StepInsert      Step = "insert_missing"
	StepMarkFound   Step = "mark_found"
	StepMarkMissing Step = "mark_missing"
	StepPurge       Step = "purge_orphans"
)

// StepError reports the step that aborted a run. Steps before it stay committed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("reconcile step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Options controls the destructive parts of a run.
type Options struct {
	// Truncate removes every message before inserting the scanned codes.
	// Callers must obtain explicit confirmation first.
	Truncate bool
	// PurgeOrphans removes messages the scan did not report.
	PurgeOrphans bool
}

// Report summarizes one run.
type Report struct {
	RunID         string        `json:"run_id"`
	Scanned       int           `json:"scanned"`
	Truncated     bool          `json:"truncated"`
	Inserted      int           `json:"inserted"`
	MarkedFound   int           `json:"marked_found"`
	MarkedMissing int           `json:"marked_missing"`
	Purged        int           `json:"purged"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// Engine runs reconciliations against a repository.
type Engine struct {
	repo   *catalog.Repository
	logger *slog.Logger
}

// NewEngine creates an engine for repo.
func NewEngine(repo *catalog.Repository, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, logger: logger}
}

// RunScanner scans for live codes and reconciles them.
func (e *Engine) RunScanner(ctx context.Context, s Scanner, opts Options) (Report, error) {
	codes, err := s.Scan(ctx)
	if err != nil {
		err = &StepError{Step: StepScan, Err: err}
		e.logger.Error("code scan failed", "error", err, "category", model.EventCategoryScan)
		return Report{}, err
	}
	return e.Run(ctx, codes, opts)
}

// Run reconciles the repository with the given live codes. The whole run
// holds the repository's exclusive phase. Running it again with the same
// codes changes nothing.
func (e *Engine) Run(ctx context.Context, codes []string, opts Options) (Report, error) {
	live := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if strings.TrimSpace(code) == "" || !utf8.ValidString(code) {
			return Report{}, fmt.Errorf("%w: scanned code %q", catalog.ErrInvalidArgument, code)
		}
		live[code] = struct{}{}
	}

	rep := Report{
		RunID:     uuid.NewString(),
		Scanned:   len(live),
		StartedAt: time.Now(),
	}
	inSet := func(code string) bool {
		_, ok := live[code]
		return ok
	}

	err := e.repo.Exclusive(ctx, func(b *catalog.Batch) error {
		var err error
		if opts.Truncate {
			if err = b.Truncate(); err != nil {
				return &StepError{Step: StepTruncate, Err: err}
			}
			rep.Truncated = true
		}
		if rep.Inserted, err = b.InsertMissing(codes); err != nil {
			return &StepError{Step: StepInsert, Err: err}
		}
		if rep.MarkedFound, err = b.SetFound(inSet, true); err != nil {
			return &StepError{Step: StepMarkFound, Err: err}
		}
		notInSet := func(code string) bool { return !inSet(code) }
		if rep.MarkedMissing, err = b.SetFound(notInSet, false); err != nil {
			return &StepError{Step: StepMarkMissing, Err: err}
		}
		if opts.PurgeOrphans {
			if rep.Purged, err = b.DeleteOrphans(); err != nil {
				return &StepError{Step: StepPurge, Err: err}
			}
		}
		return nil
	})
	rep.Duration = time.Since(rep.StartedAt)

	if err != nil {
		e.logger.Error("reconciliation failed",
			"run_id", rep.RunID,
			"error", err,
			"category", model.EventCategoryScan,
		)
		return rep, err
	}

	e.logger.Info("reconciliation finished",
		"run_id", rep.RunID,
		"scanned", rep.Scanned,
		"truncated", rep.Truncated,
		"inserted", rep.Inserted,
		"marked_found", rep.MarkedFound,
		"marked_missing", rep.MarkedMissing,
		"purged", rep.Purged,
		"duration", rep.Duration,
		"category", model.EventCategoryScan,
	)
	return rep, nil
}
