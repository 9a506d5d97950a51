// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/olegiv/ocms-catalog/internal/model"
)

// Filter selects messages for listing and counting.
type Filter struct {
	// Search is a case-insensitive substring. Empty matches everything.
	Search string
	// SearchLocale restricts Search to one locale's text.
	// Empty searches the code and the text of every locale.
	SearchLocale string
	// HideTranslated excludes messages that have text (even empty) for this locale.
	HideTranslated string
}

// Order defines the listing order.
type Order struct {
	// Reference is the locale whose text orders the listing. Messages without
	// text in it sort as the empty string, i.e. first. Ties are ordered by code.
	Reference string
}

// match reports whether m passes the filter. needle is the lowered search text.
func (f Filter) match(m model.Message, needle string) bool {
	if f.HideTranslated != "" && m.HasLocale(f.HideTranslated) {
		return false
	}
	if needle == "" {
		return true
	}
	if f.SearchLocale != "" {
		text, ok := m.ForLocale(f.SearchLocale)
		return ok && containsFold(text, needle)
	}
	if containsFold(m.Code, needle) {
		return true
	}
	for _, text := range m.Text {
		if containsFold(text, needle) {
			return true
		}
	}
	return false
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

// Page is one page of a listing. Total counts every match and is taken in
// the same pass as Messages.
type Page struct {
	Messages []model.Message
	Total    int
	HasMore  bool
}

// List returns one page of messages matching f in the order o, and whether
// more matching messages follow the page. A limit of 0 or less returns every
// message from offset on. Pages are stable as long as no write touches them.
func (r *Repository) List(ctx context.Context, f Filter, o Order, offset, limit int) ([]model.Message, bool, error) {
	p, err := r.ListPage(ctx, f, o, offset, limit)
	if err != nil {
		return nil, false, err
	}
	return p.Messages, p.HasMore, nil
}

// ListPage is List plus the total number of matches, both taken from one
// consistent view of the repository.
func (r *Repository) ListPage(ctx context.Context, f Filter, o Order, offset, limit int) (Page, error) {
	if offset < 0 {
		return Page{}, fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, offset)
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	matched := r.collect(f)

	slices.SortFunc(matched, func(a, b model.Message) int {
		at := a.Text[o.Reference]
		bt := b.Text[o.Reference]
		if c := strings.Compare(at, bt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})

	if offset >= len(matched) {
		return Page{Messages: []model.Message{}, Total: len(matched)}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	msgs := make([]model.Message, 0, end-offset)
	for _, m := range matched[offset:end] {
		msgs = append(msgs, m.Clone())
	}
	return Page{Messages: msgs, Total: len(matched), HasMore: end < len(matched)}, nil
}

// Count returns the number of messages matching f.
func (r *Repository) Count(ctx context.Context, f Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	needle := strings.ToLower(f.Search)

	r.phase.RLock()
	defer r.phase.RUnlock()
	r.idxMu.RLock()
	defer r.idxMu.RUnlock()

	n := 0
	for _, m := range r.messages {
		if f.match(m, needle) {
			n++
		}
	}
	return n, nil
}

// collect returns the stored values matching f. The values share their Text
// maps with the index and must be cloned before leaving the package.
func (r *Repository) collect(f Filter) []model.Message {
	needle := strings.ToLower(f.Search)

	r.phase.RLock()
	defer r.phase.RUnlock()
	r.idxMu.RLock()
	defer r.idxMu.RUnlock()

	matched := make([]model.Message, 0, len(r.messages))
	for _, m := range r.messages {
		if f.match(m, needle) {
			matched = append(matched, m)
		}
	}
	return matched
}

// LocaleQuery configures LocaleMessages.
type LocaleQuery struct {
	// Search is a case-insensitive substring matched against the code and the locale's text.
	Search string
	Offset int
	// Count limits the result; 0 returns everything from Offset on.
	Count int
	// WithEmpty lists every code that has text in Reference, with the
	// requested locale's text or absence.
	WithEmpty bool
	// Reference is the locale that defines the complete key set, usually the default locale.
	Reference string
}

// LocaleMessages lists one locale's view of the catalog ordered by code.
// Without WithEmpty only codes translated in locale are returned. With it, the
// result is the fallback diff against the reference locale: every code known
// there, with absent entries marking what is still untranslated.
func (r *Repository) LocaleMessages(ctx context.Context, locale string, q LocaleQuery) ([]model.LocaleText, error) {
	if !model.ValidLocale(locale) {
		return nil, fmt.Errorf("%w: locale %q", ErrInvalidArgument, locale)
	}
	if q.WithEmpty && !model.ValidLocale(q.Reference) {
		return nil, fmt.Errorf("%w: reference locale %q", ErrInvalidArgument, q.Reference)
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, q.Offset)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(q.Search)
	var out []model.LocaleText

	r.phase.RLock()
	r.idxMu.RLock()
	for code, m := range r.messages {
		text, ok := m.ForLocale(locale)
		switch {
		case q.WithEmpty && !m.HasLocale(q.Reference):
			continue
		case !q.WithEmpty && !ok:
			continue
		}
		if needle != "" && !containsFold(code, needle) && !(ok && containsFold(text, needle)) {
			continue
		}
		if ok {
			out = append(out, model.Text(code, locale, text))
		} else {
			out = append(out, model.NoText(code, locale))
		}
	}
	r.idxMu.RUnlock()
	r.phase.RUnlock()

	slices.SortFunc(out, func(a, b model.LocaleText) int {
		return cmp.Compare(a.Code, b.Code)
	})

	if q.Offset >= len(out) {
		return []model.LocaleText{}, nil
	}
	out = out[q.Offset:]
	if q.Count > 0 && q.Count < len(out) {
		out = out[:q.Count]
	}
	return out, nil
}
