// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/reconcile"
)

// fakeRunner counts runs and can block until released.
type fakeRunner struct {
	runs    atomic.Int32
	err     error
	release chan struct{}
	started chan struct{}
	once    sync.Once
	purge   atomic.Bool
}

func (f *fakeRunner) RunScanner(ctx context.Context, s reconcile.Scanner, opts reconcile.Options) (reconcile.Report, error) {
	f.purge.Store(opts.PurgeOrphans)
	f.runs.Add(1)
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return reconcile.Report{}, f.err
	}
	codes, err := s.Scan(ctx)
	if err != nil {
		return reconcile.Report{}, err
	}
	return reconcile.Report{RunID: "run", Scanned: len(codes)}, nil
}

func TestNew(t *testing.T) {
	s := New(&fakeRunner{}, reconcile.NewStaticScanner("a"), nil)
	require.NotNil(t, s)
	assert.NotNil(t, s.cron)
	assert.NotNil(t, s.logger)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakeRunner{}, reconcile.NewStaticScanner("a"), nil)

	require.NoError(t, s.ScheduleRescan("0 3 * * *", reconcile.Options{PurgeOrphans: true}))
	s.Start()
	info := s.Info()
	assert.Equal(t, "0 3 * * *", info.Schedule)
	assert.False(t, info.NextRun.IsZero())

	s.Stop()
}

func TestScheduler_StartInvalidSchedule(t *testing.T) {
	s := New(&fakeRunner{}, reconcile.NewStaticScanner("a"), nil)
	assert.Error(t, s.ScheduleRescan("not a schedule", reconcile.Options{}))
	assert.Error(t, s.AddJob("cleanup", "61 * * * *", func(context.Context) error { return nil }))
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, reconcile.NewStaticScanner("a", "b"), nil)

	require.NoError(t, s.ScheduleRescan("@every 1s", reconcile.Options{PurgeOrphans: true}))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Info().LastReport != nil }, time.Second, 10*time.Millisecond)
	assert.True(t, runner.purge.Load())
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(&fakeRunner{}, reconcile.NewStaticScanner("a"), nil)

	var calls atomic.Int32
	require.NoError(t, s.AddJob("prune events", "@every 1s", func(context.Context) error {
		calls.Add(1)
		return errors.New("database is locked")
	}))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	assert.Empty(t, s.Info().Schedule)
}

func TestScheduler_RunNow(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, reconcile.NewStaticScanner("a", "b"), nil)

	report, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)

	info := s.Info()
	assert.False(t, info.LastRun.IsZero())
	require.NotNil(t, info.LastReport)
	assert.Empty(t, info.LastError)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	stepErr := &reconcile.StepError{Step: reconcile.StepScan, Err: errors.New("manifest unreadable")}
	s := New(&fakeRunner{err: stepErr}, reconcile.NewStaticScanner("a"), nil)

	_, err := s.RunNow(context.Background())
	require.ErrorIs(t, err, stepErr)
	assert.Contains(t, s.Info().LastError, "manifest unreadable")
}

func TestScheduler_RejectsOverlappingRuns(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{}), started: make(chan struct{})}
	s := New(runner, reconcile.NewStaticScanner("a"), nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background())
		done <- err
	}()
	<-runner.started

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(runner.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestScheduler_WithEngine(t *testing.T) {
	repo := catalog.NewRepository(nil, nil)
	s := New(reconcile.NewEngine(repo, nil), reconcile.NewStaticScanner("greet", "farewell"), nil)

	report, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 2, repo.Len())
}
