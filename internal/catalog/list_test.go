// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-catalog/internal/model"
)

func codesOf(msgs []model.Message) []string {
	codes := make([]string, 0, len(msgs))
	for _, m := range msgs {
		codes = append(codes, m.Code)
	}
	return codes
}

func TestList_OrderByReferenceLocale(t *testing.T) {
	r := newTestRepo(t, "greet", "farewell", "apple", "Zebra")
	setText(t, r, "greet", "en", "Hello")
	setText(t, r, "apple", "en", "apple")
	setText(t, r, "Zebra", "en", "Zebra")

	page, more, err := r.List(context.Background(), Filter{}, Order{Reference: "en"}, 0, 10)
	require.NoError(t, err)
	assert.False(t, more)
	// Missing reference text sorts first; byte order puts upper case before lower case.
	assert.Equal(t, []string{"farewell", "greet", "Zebra", "apple"}, codesOf(page))
}

func TestList_TiesOrderedByCode(t *testing.T) {
	r := newTestRepo(t, "c", "a", "b")

	page, _, err := r.List(context.Background(), Filter{}, Order{Reference: "en"}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, codesOf(page))
}

func TestList_Pagination(t *testing.T) {
	r := newTestRepo(t, "a", "b", "c", "d", "e")
	ctx := context.Background()

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
		more   bool
	}{
		{"first page", 0, 2, []string{"a", "b"}, true},
		{"middle page", 2, 2, []string{"c", "d"}, true},
		{"last page", 4, 2, []string{"e"}, false},
		{"past the end", 10, 2, []string{}, false},
		{"no limit", 1, 0, []string{"b", "c", "d", "e"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, more, err := r.List(ctx, Filter{}, Order{Reference: "en"}, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, codesOf(page))
			assert.Equal(t, tt.more, more)
		})
	}

	_, _, err := r.List(ctx, Filter{}, Order{}, -1, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestList_Deterministic(t *testing.T) {
	r := newTestRepo(t, "a", "b", "c", "d", "e", "f", "g")
	setText(t, r, "c", "en", "same")
	setText(t, r, "a", "en", "same")
	setText(t, r, "f", "en", "other")
	ctx := context.Background()

	first, _, err := r.List(ctx, Filter{}, Order{Reference: "en"}, 2, 3)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, _, err := r.List(ctx, Filter{}, Order{Reference: "en"}, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestList_HideTranslated(t *testing.T) {
	r := newTestRepo(t, "A", "B")
	setText(t, r, "A", "fr", "x")

	f := Filter{HideTranslated: "fr"}
	page, _, err := r.List(context.Background(), f, Order{Reference: "en"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, codesOf(page))

	n, err := r.Count(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestList_Search(t *testing.T) {
	r := newTestRepo(t, "nav.home", "nav.about", "footer.copy")
	setText(t, r, "nav.home", "en", "Home")
	setText(t, r, "nav.about", "fr", "À propos")
	setText(t, r, "footer.copy", "en", "All rights reserved")
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"code match", Filter{Search: "NAV."}, []string{"nav.about", "nav.home"}},
		{"text match any locale", Filter{Search: "propos"}, []string{"nav.about"}},
		{"locale restricted", Filter{Search: "home", SearchLocale: "fr"}, []string{}},
		{"locale restricted hit", Filter{Search: "RIGHTS", SearchLocale: "en"}, []string{"footer.copy"}},
		{"search then hide", Filter{Search: "nav", HideTranslated: "en"}, []string{"nav.about"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, _, err := r.List(ctx, tt.filter, Order{Reference: "en"}, 0, 0)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, codesOf(page))

			n, err := r.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}
}

func TestLocaleMessages(t *testing.T) {
	r := newTestRepo(t, "a", "b", "c", "d")
	setText(t, r, "a", "en", "A")
	setText(t, r, "b", "en", "B")
	setText(t, r, "c", "en", "C")
	setText(t, r, "a", "fr", "Aa")
	setText(t, r, "d", "fr", "Dd")
	ctx := context.Background()

	t.Run("translated only", func(t *testing.T) {
		got, err := r.LocaleMessages(ctx, "fr", LocaleQuery{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Code)
		assert.Equal(t, "d", got[1].Code)
	})

	t.Run("with empty", func(t *testing.T) {
		got, err := r.LocaleMessages(ctx, "fr", LocaleQuery{WithEmpty: true, Reference: "en"})
		require.NoError(t, err)
		require.Len(t, got, 3)

		text, ok := got[0].Text()
		assert.Equal(t, "a", got[0].Code)
		assert.True(t, ok)
		assert.Equal(t, "Aa", text)

		assert.Equal(t, "b", got[1].Code)
		assert.True(t, got[1].IsAbsent())
		assert.Equal(t, "c", got[2].Code)
		assert.True(t, got[2].IsAbsent())
	})

	t.Run("paged", func(t *testing.T) {
		got, err := r.LocaleMessages(ctx, "fr", LocaleQuery{WithEmpty: true, Reference: "en", Offset: 1, Count: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].Code)
	})

	t.Run("search", func(t *testing.T) {
		got, err := r.LocaleMessages(ctx, "fr", LocaleQuery{Search: "dd"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "d", got[0].Code)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := r.LocaleMessages(ctx, "", LocaleQuery{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = r.LocaleMessages(ctx, "fr", LocaleQuery{WithEmpty: true})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestListPage_TotalMatchesPage(t *testing.T) {
	r := newTestRepo(t, "a", "b", "c")
	ctx := context.Background()

	p, err := r.ListPage(ctx, Filter{}, Order{}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, codesOf(p.Messages))
	assert.Equal(t, 3, p.Total)
	assert.True(t, p.HasMore)

	p, err = r.ListPage(ctx, Filter{}, Order{}, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, p.Messages)
	assert.Equal(t, 3, p.Total)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_ = r.Exclusive(ctx, func(b *Batch) error {
				_, err := b.InsertMissing([]string{fmt.Sprintf("code-%d", i)})
				return err
			})
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()

	for range 200 {
		p, err := r.ListPage(ctx, Filter{}, Order{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, p.Messages, p.Total)
	}
}
