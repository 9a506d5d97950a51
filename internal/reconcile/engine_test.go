// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/model"
)

// flakyStore keeps nothing and fails the named operation.
type flakyStore struct {
	failOn string
}

var errDisk = errors.New("disk I/O error")

func (s *flakyStore) fail(op string) error {
	if s.failOn == op {
		return errDisk
	}
	return nil
}

func (s *flakyStore) LoadMessages(context.Context) ([]model.Message, error) { return nil, nil }
func (s *flakyStore) SaveMessage(context.Context, model.Message) error      { return s.fail("save") }
func (s *flakyStore) InsertMessages(context.Context, []model.Message) error {
	return s.fail("insert")
}
func (s *flakyStore) SetFound(_ context.Context, _ []string, found bool) error {
	if found {
		return s.fail("found")
	}
	return s.fail("missing")
}
func (s *flakyStore) DeleteMessage(context.Context, string) error { return s.fail("delete") }
func (s *flakyStore) DeleteOrphans(context.Context) (int64, error) {
	return 0, s.fail("purge")
}
func (s *flakyStore) Truncate(context.Context) error { return s.fail("truncate") }

func snapshot(t *testing.T, r *catalog.Repository) map[string]model.Message {
	t.Helper()
	out := map[string]model.Message{}
	_, err := r.Scan(context.Background(), func(m model.Message) {
		c := m.Clone()
		c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
		out[m.Code] = c
	})
	require.NoError(t, err)
	return out
}

func TestEngine_GreetFarewell(t *testing.T) {
	r := catalog.NewRepository(nil, nil)
	e := NewEngine(r, nil)
	ctx := context.Background()

	rep, err := e.Run(ctx, []string{"greet", "farewell"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Inserted)
	assert.NotEmpty(t, rep.RunID)

	require.NoError(t, r.UpsertText(ctx, model.Text("greet", "en", "Hello")))
	require.NoError(t, r.UpsertText(ctx, model.Text("greet", "fr", "Bonjour")))

	page, _, err := r.List(ctx, catalog.Filter{}, catalog.Order{Reference: "en"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "farewell", page[0].Code, "absent reference text sorts first")
	assert.Equal(t, "greet", page[1].Code)

	// The next scan only sees greet.
	rep, err = e.Run(ctx, []string{"greet"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Inserted)
	assert.Equal(t, 1, rep.MarkedMissing)

	farewell, err := r.Get(ctx, "farewell")
	require.NoError(t, err)
	assert.False(t, farewell.Found)

	greet, err := r.Get(ctx, "greet")
	require.NoError(t, err)
	assert.True(t, greet.Found)
	assert.Equal(t, map[string]string{"en": "Hello", "fr": "Bonjour"}, greet.Text)

	// Coming back restores the flag without touching text.
	rep, err = e.Run(ctx, []string{"greet", "farewell"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.MarkedFound)
	farewell, err = r.Get(ctx, "farewell")
	require.NoError(t, err)
	assert.True(t, farewell.Found)
}

func TestEngine_Idempotent(t *testing.T) {
	r := catalog.NewRepository(nil, nil)
	e := NewEngine(r, nil)
	ctx := context.Background()

	_, err := e.Run(ctx, []string{"a", "b", "c"}, Options{})
	require.NoError(t, err)
	require.NoError(t, r.UpsertText(ctx, model.Text("a", "fr", "A")))
	_, err = e.Run(ctx, []string{"a", "b"}, Options{})
	require.NoError(t, err)

	before := snapshot(t, r)
	version := r.Version()

	rep, err := e.Run(ctx, []string{"b", "a", "a"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Inserted+rep.MarkedFound+rep.MarkedMissing+rep.Purged)
	assert.Equal(t, 2, rep.Scanned)
	assert.Equal(t, before, snapshot(t, r))
	assert.Equal(t, version, r.Version(), "a no-op run commits nothing")
}

func TestEngine_PreservesTranslations(t *testing.T) {
	r := catalog.NewRepository(nil, nil)
	e := NewEngine(r, nil)
	ctx := context.Background()

	_, err := e.Run(ctx, []string{"x", "y"}, Options{})
	require.NoError(t, err)
	require.NoError(t, r.UpsertText(ctx, model.Text("x", "de", "Ix")))
	require.NoError(t, r.UpsertText(ctx, model.Text("y", "de", "")))

	for _, codes := range [][]string{{}, {"z"}, {"x"}, {"x", "y", "z"}} {
		_, err := e.Run(ctx, codes, Options{})
		require.NoError(t, err)

		x, err := r.Get(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"de": "Ix"}, x.Text)

		y, err := r.Get(ctx, "y")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"de": ""}, y.Text)
	}
}

func TestEngine_PurgeOrphans(t *testing.T) {
	r := catalog.NewRepository(nil, nil)
	e := NewEngine(r, nil)
	ctx := context.Background()

	_, err := e.Run(ctx, []string{"keep", "drop1", "drop2"}, Options{})
	require.NoError(t, err)

	rep, err := e.Run(ctx, []string{"keep"}, Options{PurgeOrphans: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.MarkedMissing)
	assert.Equal(t, 2, rep.Purged)
	assert.Equal(t, 1, r.Len())
}

func TestEngine_Truncate(t *testing.T) {
	r := catalog.NewRepository(nil, nil)
	e := NewEngine(r, nil)
	ctx := context.Background()

	_, err := e.Run(ctx, []string{"a", "b"}, Options{})
	require.NoError(t, err)
	require.NoError(t, r.UpsertText(ctx, model.Text("a", "fr", "A")))

	rep, err := e.Run(ctx, []string{"a", "c"}, Options{Truncate: true})
	require.NoError(t, err)
	assert.True(t, rep.Truncated)
	assert.Equal(t, 2, rep.Inserted)

	a, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, a.Text, "truncate discards translations")
	_, err = r.Get(ctx, "b")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestEngine_StepFailure(t *testing.T) {
	tests := []struct {
		failOn string
		step   Step
	}{
		{"truncate", StepTruncate},
		{"insert", StepInsert},
		{"missing", StepMarkMissing},
		{"purge", StepPurge},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			store := &flakyStore{}
			r := catalog.NewRepository(store, nil)
			e := NewEngine(r, nil)
			ctx := context.Background()

			_, err := e.Run(ctx, []string{"old"}, Options{})
			require.NoError(t, err)

			store.failOn = tt.failOn
			_, err = e.Run(ctx, []string{"new"}, Options{Truncate: tt.step == StepTruncate, PurgeOrphans: true})

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tt.step, stepErr.Step)
			assert.ErrorIs(t, err, catalog.ErrStorageFailure)
			assert.ErrorIs(t, err, errDisk)
		})
	}
}

func TestEngine_EarlierStepsStayCommitted(t *testing.T) {
	store := &flakyStore{}
	r := catalog.NewRepository(store, nil)
	e := NewEngine(r, nil)
	ctx := context.Background()

	_, err := e.Run(ctx, []string{"old"}, Options{})
	require.NoError(t, err)

	store.failOn = "missing"
	_, err = e.Run(ctx, []string{"new"}, Options{})
	require.Error(t, err)

	_, err = r.Get(ctx, "new")
	assert.NoError(t, err, "insert committed before the failing step")

	old, err := r.Get(ctx, "old")
	require.NoError(t, err)
	assert.True(t, old.Found, "failed step left no trace")

	// Re-running after the fault clears finishes the job.
	store.failOn = ""
	rep, err := e.Run(ctx, []string{"new"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Inserted)
	assert.Equal(t, 1, rep.MarkedMissing)
}

func TestEngine_InvalidCodes(t *testing.T) {
	r := catalog.NewRepository(nil, nil)
	e := NewEngine(r, nil)

	_, err := e.Run(context.Background(), []string{"ok", "  "}, Options{})
	assert.ErrorIs(t, err, catalog.ErrInvalidArgument)
	assert.Equal(t, 0, r.Len(), "nothing is written for a rejected scan")
}

func TestEngine_RunScanner(t *testing.T) {
	r := catalog.NewRepository(nil, nil)
	e := NewEngine(r, nil)
	ctx := context.Background()

	rep, err := e.RunScanner(ctx, NewStaticScanner("a", "b"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Inserted)

	errScan := errors.New("templates unreadable")
	_, err = e.RunScanner(ctx, ScannerFunc(func(context.Context) ([]string, error) {
		return nil, errScan
	}), Options{})

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepScan, stepErr.Step)
	assert.ErrorIs(t, err, errScan)
	assert.Equal(t, 2, r.Len())
}
