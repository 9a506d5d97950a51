// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic catalog re-scans.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-catalog/internal/model"
	"github.com/olegiv/ocms-catalog/internal/reconcile"
)

// ErrRunInProgress is returned by RunNow while another re-scan is running.
var ErrRunInProgress = errors.New("re-scan already in progress")

// runTimeout bounds a single scheduled re-scan.
const runTimeout = 10 * time.Minute

// Runner reconciles the catalog with a scanner.
type Runner interface {
	RunScanner(ctx context.Context, s reconcile.Scanner, opts reconcile.Options) (reconcile.Report, error)
}

// JobInfo is the public view of the re-scan job.
type JobInfo struct {
	Schedule   string            `json:"schedule"`
	LastRun    time.Time         `json:"last_run,omitzero"`
	NextRun    time.Time         `json:"next_run,omitzero"`
	LastError  string            `json:"last_error,omitempty"`
	LastReport *reconcile.Report `json:"last_report,omitempty"`
}

// Scheduler runs the reconciliation engine on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	scanner reconcile.Scanner
	logger  *slog.Logger

	opts     reconcile.Options
	schedule string
	entryID  cron.EntryID

	runMu sync.Mutex // held for the duration of a run

	mu         sync.RWMutex
	lastRun    time.Time
	lastErr    error
	lastReport *reconcile.Report
}

// New creates a new scheduler instance.
func New(runner Runner, scanner reconcile.Scanner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		scanner: scanner,
		logger:  logger,
	}
}

// ScheduleRescan adds the re-scan job with a standard cron spec.
func (s *Scheduler) ScheduleRescan(schedule string, opts reconcile.Options) error {
	s.opts = opts

	id, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.RunNow(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
			s.logger.Error("scheduled re-scan failed", "error", err, "category", model.EventCategoryScan)
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.schedule = schedule
	s.entryID = id
	s.mu.Unlock()

	s.logger.Info("re-scan scheduled", "schedule", schedule, "purge_orphans", opts.PurgeOrphans)
	return nil
}

// AddJob adds a named maintenance job with a standard cron spec.
func (s *Scheduler) AddJob(name, schedule string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	})
	return err
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunNow runs one re-scan immediately. Overlapping runs are rejected.
func (s *Scheduler) RunNow(ctx context.Context) (reconcile.Report, error) {
	if !s.runMu.TryLock() {
		s.logger.Warn("re-scan skipped, previous run still active", "category", model.EventCategoryScan)
		return reconcile.Report{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	report, err := s.runner.RunScanner(ctx, s.scanner, s.opts)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	if err == nil {
		s.lastReport = &report
	}
	s.mu.Unlock()

	if err != nil {
		return reconcile.Report{}, err
	}

	s.logger.Info("scheduled re-scan completed",
		"run_id", report.RunID,
		"scanned", report.Scanned,
		"inserted", report.Inserted,
		"marked_missing", report.MarkedMissing,
		"purged", report.Purged,
		"category", model.EventCategoryScan,
	)
	return report, nil
}

// Info returns the job's schedule and last outcome.
func (s *Scheduler) Info() JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := JobInfo{
		Schedule:   s.schedule,
		LastRun:    s.lastRun,
		LastReport: s.lastReport,
	}
	if s.lastErr != nil {
		info.LastError = s.lastErr.Error()
	}
	if s.entryID != 0 {
		info.NextRun = s.cron.Entry(s.entryID).Next
	}
	return info
}
