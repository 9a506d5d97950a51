// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog implements the message repository: the authoritative,
// code-keyed set of messages and their per-locale translations.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegiv/ocms-catalog/internal/model"
)

// Repository holds every message in memory, indexed by code, and writes
// through to a Store.
//
// Locking has two levels. The phase lock is shared by reads and per-code
// mutations and held exclusively by bulk operations (truncate, purge,
// reconciliation). Within the shared phase, per-code mutations serialize on
// a lock scoped to their code and swap the new value into the index under
// idxMu.
type Repository struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	phase    sync.RWMutex
	idxMu    sync.RWMutex
	messages map[string]model.Message
	locks    *codeLocks

	// version increases on every committed write, while the index is locked.
	version atomic.Uint64

	hooksMu sync.RWMutex
	hooks   []func()
}

// NewRepository creates an empty repository backed by store.
// A nil store keeps the repository purely in memory.
func NewRepository(store Store, logger *slog.Logger) *Repository {
	if store == nil {
		store = nopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:    store,
		logger:   logger,
		now:      time.Now,
		messages: make(map[string]model.Message),
		locks:    newCodeLocks(),
	}
}

// Load replaces the in-memory index with the contents of the store.
func (r *Repository) Load(ctx context.Context) error {
	msgs, err := r.store.LoadMessages(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading messages: %w", ErrStorageFailure, err)
	}

	r.phase.Lock()
	r.messages = make(map[string]model.Message, len(msgs))
	for _, m := range msgs {
		if m.Text == nil {
			m.Text = map[string]string{}
		}
		r.messages[m.Code] = m
	}
	r.version.Add(1)
	r.phase.Unlock()

	r.notify()
	r.logger.Info("message catalog loaded", "messages", len(msgs))
	return nil
}

// OnChange registers fn to be called after every committed write.
// Hooks run without repository locks held.
func (r *Repository) OnChange(fn func()) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Version returns a stamp that changes whenever a write commits.
func (r *Repository) Version() uint64 {
	return r.version.Load()
}

// Len returns the number of stored messages.
func (r *Repository) Len() int {
	r.phase.RLock()
	defer r.phase.RUnlock()
	r.idxMu.RLock()
	defer r.idxMu.RUnlock()
	return len(r.messages)
}

// Get returns a copy of the message with the given code.
func (r *Repository) Get(ctx context.Context, code string) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}

	r.phase.RLock()
	defer r.phase.RUnlock()
	r.idxMu.RLock()
	defer r.idxMu.RUnlock()

	m, ok := r.messages[code]
	if !ok {
		return model.Message{}, fmt.Errorf("%w: %q", ErrNotFound, code)
	}
	return m.Clone(), nil
}

// UpsertText sets or clears the text of one locale of an existing message.
// The current record is re-read under the code's lock, so a concurrent update
// of another locale of the same code is never lost.
func (r *Repository) UpsertText(ctx context.Context, t model.LocaleText) error {
	if err := validateCode(t.Code); err != nil {
		return err
	}
	if !model.ValidLocale(t.Locale) {
		return fmt.Errorf("%w: locale %q", ErrInvalidArgument, t.Locale)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	changed, err := r.upsertText(ctx, t)
	if err != nil {
		return err
	}
	if changed {
		r.notify()
	}
	return nil
}

func (r *Repository) upsertText(ctx context.Context, t model.LocaleText) (bool, error) {
	r.phase.RLock()
	defer r.phase.RUnlock()
	unlock := r.locks.lock(t.Code)
	defer unlock()

	r.idxMu.RLock()
	current, ok := r.messages[t.Code]
	r.idxMu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNotFound, t.Code)
	}

	old, had := current.ForLocale(t.Locale)
	text, has := t.Text()
	if had == has && old == text {
		return false, nil
	}

	next := current.WithText(t, r.now())
	if err := r.store.SaveMessage(ctx, next); err != nil {
		return false, fmt.Errorf("%w: saving message %q: %w", ErrStorageFailure, t.Code, err)
	}

	r.idxMu.Lock()
	r.messages[t.Code] = next
	r.version.Add(1)
	r.idxMu.Unlock()
	return true, nil
}

// Delete removes a message entirely.
func (r *Repository) Delete(ctx context.Context, code string) error {
	if err := validateCode(code); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.delete(ctx, code); err != nil {
		return err
	}
	r.notify()
	return nil
}

func (r *Repository) delete(ctx context.Context, code string) error {
	r.phase.RLock()
	defer r.phase.RUnlock()
	unlock := r.locks.lock(code)
	defer unlock()

	r.idxMu.RLock()
	_, ok := r.messages[code]
	r.idxMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, code)
	}

	if err := r.store.DeleteMessage(ctx, code); err != nil {
		return fmt.Errorf("%w: deleting message %q: %w", ErrStorageFailure, code, err)
	}

	r.idxMu.Lock()
	delete(r.messages, code)
	r.version.Add(1)
	r.idxMu.Unlock()
	return nil
}

// DeleteOrphans removes every message not seen by the last reconciliation.
func (r *Repository) DeleteOrphans(ctx context.Context) (int, error) {
	var n int
	err := r.Exclusive(ctx, func(b *Batch) error {
		var err error
		n, err = b.DeleteOrphans()
		return err
	})
	return n, err
}

// TruncateAll removes every message.
func (r *Repository) TruncateAll(ctx context.Context) error {
	return r.Exclusive(ctx, func(b *Batch) error {
		return b.Truncate()
	})
}

// Scan calls fn for every message while holding a consistent read view and
// returns the version of that view. fn must not retain or modify the message's
// Text map.
func (r *Repository) Scan(ctx context.Context, fn func(m model.Message)) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.phase.RLock()
	defer r.phase.RUnlock()
	r.idxMu.RLock()
	defer r.idxMu.RUnlock()

	for _, m := range r.messages {
		fn(m)
	}
	return r.version.Load(), nil
}

// notify runs the change hooks.
func (r *Repository) notify() {
	r.hooksMu.RLock()
	hooks := r.hooks
	r.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

// validateCode rejects blank codes.
func validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidArgument)
	}
	return nil
}
