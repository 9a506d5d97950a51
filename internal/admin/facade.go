// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package admin shapes catalog data for the translation grid.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/model"
)

// LocaleProvider supplies the configured locales.
type LocaleProvider interface {
	DefaultLocale() string
	Locales() []string
}

// StaticLocales is a fixed LocaleProvider.
type StaticLocales struct {
	Default string
	List    []string
}

// DefaultLocale returns the default locale.
func (s StaticLocales) DefaultLocale() string { return s.Default }

// Locales returns the configured locales.
func (s StaticLocales) Locales() []string { return slices.Clone(s.List) }

// Request selects one page of the grid.
type Request struct {
	FromLocale string
	// ToLocale nil means the default locale.
	ToLocale       *string
	HideTranslated bool
	Search         string
	Offset         int
	Count          int
}

// Row is one grid line. Absent text is rendered as "".
type Row struct {
	Code     string `json:"code"`
	FromText string `json:"from"`
	ToText   string `json:"to"`
	Found    bool   `json:"found"`
}

// Response is one page of the grid.
type Response struct {
	Rows          []Row    `json:"rows"`
	TotalCount    int      `json:"total_count"`
	HasMore       bool     `json:"has_more"`
	FromLocale    string   `json:"from_locale"`
	ToLocale      string   `json:"to_locale"`
	FromReadOnly  bool     `json:"from_read_only"`
	ToReadOnly    bool     `json:"to_read_only"`
	DefaultLocale string   `json:"default_locale"`
	Locales       []string `json:"locales"`
}

// RowUpdate carries the edited cells of one row. A nil text clears the locale.
type RowUpdate struct {
	Code       string
	FromLocale string
	ToLocale   string
	From       *string
	To         *string
}

// Facade composes the repository and the locale provider for the grid.
type Facade struct {
	repo    *catalog.Repository
	locales LocaleProvider
	logger  *slog.Logger
}

// NewFacade creates a facade.
func NewFacade(repo *catalog.Repository, locales LocaleProvider, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{repo: repo, locales: locales, logger: logger}
}

// Rows returns one page of grid rows ordered by the default locale's text.
func (f *Facade) Rows(ctx context.Context, req Request) (Response, error) {
	if req.Offset < 0 || req.Count < 0 {
		return Response{}, fmt.Errorf("%w: negative offset or count", catalog.ErrInvalidArgument)
	}

	def := f.locales.DefaultLocale()
	to := def
	if req.ToLocale != nil {
		to = *req.ToLocale
	}

	resp := Response{
		Rows:          []Row{},
		FromLocale:    req.FromLocale,
		ToLocale:      to,
		FromReadOnly:  !f.known(req.FromLocale),
		ToReadOnly:    !f.known(to),
		DefaultLocale: def,
		Locales:       f.locales.Locales(),
	}

	filter := catalog.Filter{Search: req.Search}
	if req.HideTranslated && !resp.ToReadOnly {
		filter.HideTranslated = to
	}

	page, err := f.repo.ListPage(ctx, filter, catalog.Order{Reference: def}, req.Offset, req.Count)
	if err != nil {
		return Response{}, err
	}

	for _, m := range page.Messages {
		row := Row{Code: m.Code, Found: m.Found}
		if !resp.FromReadOnly {
			row.FromText, _ = m.ForLocale(req.FromLocale)
		}
		if !resp.ToReadOnly {
			row.ToText, _ = m.ForLocale(to)
		}
		resp.Rows = append(resp.Rows, row)
	}
	resp.TotalCount = page.Total
	resp.HasMore = page.HasMore
	return resp, nil
}

// Update sets (or with a nil text, clears) one cell.
func (f *Facade) Update(ctx context.Context, code, locale string, text *string) error {
	if !f.known(locale) {
		return fmt.Errorf("%w: locale %q is not configured", catalog.ErrInvalidArgument, locale)
	}
	if err := f.repo.UpsertText(ctx, model.TextOrAbsent(code, locale, text)); err != nil {
		return err
	}

	f.logger.Info("message updated", "code", code, "locale", locale, "category", model.EventCategoryMessage)
	return nil
}

// UpdateRow writes the editable cells of a row. Cells of read-only columns
// are ignored and cells equal to the stored text are not written.
func (f *Facade) UpdateRow(ctx context.Context, u RowUpdate) error {
	current, err := f.repo.Get(ctx, u.Code)
	if err != nil {
		return err
	}

	cells := []struct {
		locale string
		text   *string
	}{
		{u.FromLocale, u.From},
		{u.ToLocale, u.To},
	}
	for _, cell := range cells {
		if !f.known(cell.locale) || unchanged(current, cell.locale, cell.text) {
			continue
		}
		if err := f.Update(ctx, u.Code, cell.locale, cell.text); err != nil {
			return err
		}
	}
	return nil
}

// Message returns the stored message for code.
func (f *Facade) Message(ctx context.Context, code string) (model.Message, error) {
	return f.repo.Get(ctx, code)
}

// Delete removes a message.
func (f *Facade) Delete(ctx context.Context, code string) error {
	if err := f.repo.Delete(ctx, code); err != nil {
		return err
	}
	f.logger.Info("message deleted", "code", code, "category", model.EventCategoryMessage)
	return nil
}

// PurgeOrphans removes messages the last scan did not see.
func (f *Facade) PurgeOrphans(ctx context.Context) (int, error) {
	n, err := f.repo.DeleteOrphans(ctx)
	if err != nil {
		return 0, err
	}
	f.logger.Info("orphan messages purged", "count", n, "category", model.EventCategoryMessage)
	return n, nil
}

// LocaleMessages returns the texts of one locale. With withEmpty, every code
// with default-locale text is listed and untranslated ones are absent.
func (f *Facade) LocaleMessages(ctx context.Context, locale string, withEmpty bool) ([]model.LocaleText, error) {
	return f.repo.LocaleMessages(ctx, locale, catalog.LocaleQuery{
		WithEmpty: withEmpty,
		Reference: f.locales.DefaultLocale(),
	})
}

// known reports whether locale is one of the configured locales.
func (f *Facade) known(locale string) bool {
	return locale != "" && slices.Contains(f.locales.Locales(), locale)
}

func unchanged(m model.Message, locale string, text *string) bool {
	old, ok := m.ForLocale(locale)
	if text == nil {
		return !ok
	}
	return ok && old == *text
}
