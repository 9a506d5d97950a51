// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/olegiv/ocms-catalog/internal/model"
)

// Batch performs whole-repository operations inside an exclusive phase.
// Each call commits on its own: a failing call leaves earlier calls applied.
type Batch struct {
	r       *Repository
	ctx     context.Context
	changed bool
}

// Exclusive runs fn with exclusive access to the whole repository. No read or
// per-code mutation can observe the repository until fn returns. Change hooks
// run once afterwards if any call in fn committed a write.
func (r *Repository) Exclusive(ctx context.Context, fn func(b *Batch) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := &Batch{r: r, ctx: ctx}
	defer func() {
		if b.changed {
			r.notify()
		}
	}()

	r.phase.Lock()
	defer r.phase.Unlock()
	return fn(b)
}

// Codes returns the stored codes in ascending order.
func (b *Batch) Codes() []string {
	codes := make([]string, 0, len(b.r.messages))
	for code := range b.r.messages {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Has reports whether code is stored.
func (b *Batch) Has(code string) bool {
	_, ok := b.r.messages[code]
	return ok
}

// Truncate removes every message. A successful truncate always counts as a
// write, even on an empty repository.
func (b *Batch) Truncate() error {
	if err := b.r.store.Truncate(b.ctx); err != nil {
		return fmt.Errorf("%w: truncating messages: %w", ErrStorageFailure, err)
	}
	b.r.messages = make(map[string]model.Message)
	b.commit()
	return nil
}

// InsertMissing stores a new found message with no translations for every
// code that is not stored yet, and returns how many were inserted.
func (b *Batch) InsertMissing(codes []string) (int, error) {
	now := b.r.now()
	seen := make(map[string]struct{}, len(codes))
	var fresh []model.Message
	for _, code := range codes {
		if err := validateCode(code); err != nil {
			return 0, fmt.Errorf("code %q: %w", code, err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		if b.Has(code) {
			continue
		}
		fresh = append(fresh, model.NewMessage(code, now))
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := b.r.store.InsertMessages(b.ctx, fresh); err != nil {
		return 0, fmt.Errorf("%w: inserting messages: %w", ErrStorageFailure, err)
	}
	for _, m := range fresh {
		b.r.messages[m.Code] = m
	}
	b.commit()
	return len(fresh), nil
}

// SetFound sets the found flag on the stored codes that match, leaving text
// untouched. Only codes whose flag actually changes are written.
// It returns the number of messages updated.
func (b *Batch) SetFound(match func(code string) bool, found bool) (int, error) {
	var codes []string
	for code, m := range b.r.messages {
		if m.Found != found && match(code) {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return 0, nil
	}
	slices.Sort(codes)

	if err := b.r.store.SetFound(b.ctx, codes, found); err != nil {
		return 0, fmt.Errorf("%w: updating found flags: %w", ErrStorageFailure, err)
	}
	now := b.r.now()
	for _, code := range codes {
		m := b.r.messages[code]
		m.Found = found
		m.UpdatedAt = now
		b.r.messages[code] = m
	}
	b.commit()
	return len(codes), nil
}

// DeleteOrphans removes every message with found=false.
func (b *Batch) DeleteOrphans() (int, error) {
	orphans := 0
	for _, m := range b.r.messages {
		if !m.Found {
			orphans++
		}
	}

	if _, err := b.r.store.DeleteOrphans(b.ctx); err != nil {
		return 0, fmt.Errorf("%w: deleting orphans: %w", ErrStorageFailure, err)
	}
	if orphans == 0 {
		return 0, nil
	}
	for code, m := range b.r.messages {
		if !m.Found {
			delete(b.r.messages, code)
		}
	}
	b.commit()
	return orphans, nil
}

func (b *Batch) commit() {
	b.r.version.Add(1)
	b.changed = true
}
