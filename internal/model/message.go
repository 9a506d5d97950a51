// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the catalog's data types.
package model

import (
	"maps"
	"time"
)

// Message is a translatable string identified by its code.
// Text is sparse: a missing locale key means "not translated yet",
// which is distinct from an explicit empty string.
type Message struct {
	Code      string            `json:"code"`
	Found     bool              `json:"found"`
	Text      map[string]string `json:"text"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewMessage returns a freshly observed message with no translations.
func NewMessage(code string, now time.Time) Message {
	return Message{
		Code:      code,
		Found:     true,
		Text:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ForLocale returns the text for locale and whether it is present.
func (m Message) ForLocale(locale string) (string, bool) {
	text, ok := m.Text[locale]
	return text, ok
}

// HasLocale reports whether the message has a translation for locale.
func (m Message) HasLocale(locale string) bool {
	_, ok := m.Text[locale]
	return ok
}

// Clone returns a deep copy so callers can never mutate stored state.
func (m Message) Clone() Message {
	c := m
	c.Text = make(map[string]string, len(m.Text))
	maps.Copy(c.Text, m.Text)
	return c
}

// WithText returns a copy of m with t applied: present text is set,
// absent text removes the locale key.
func (m Message) WithText(t LocaleText, now time.Time) Message {
	c := m.Clone()
	if text, ok := t.Text(); ok {
		c.Text[t.Locale] = text
	} else {
		delete(c.Text, t.Locale)
	}
	c.UpdatedAt = now
	return c
}
