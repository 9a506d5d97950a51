// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	now := time.Now()
	m := NewMessage("greet", now)

	if m.Code != "greet" {
		t.Errorf("Code = %q, want %q", m.Code, "greet")
	}
	if !m.Found {
		t.Error("new message should be found")
	}
	if m.Text == nil || len(m.Text) != 0 {
		t.Errorf("Text = %v, want empty non-nil map", m.Text)
	}
}

func TestMessage_WithText(t *testing.T) {
	m := NewMessage("greet", time.Now())

	set := m.WithText(Text("greet", "en", "Hello"), time.Now())
	if got, ok := set.ForLocale("en"); !ok || got != "Hello" {
		t.Errorf("ForLocale(en) = %q, %v; want Hello, true", got, ok)
	}
	if m.HasLocale("en") {
		t.Error("WithText must not mutate the receiver")
	}

	empty := set.WithText(Text("greet", "fr", ""), time.Now())
	if got, ok := empty.ForLocale("fr"); !ok || got != "" {
		t.Errorf("explicit empty text should be present, got %q, %v", got, ok)
	}

	cleared := empty.WithText(NoText("greet", "en"), time.Now())
	if cleared.HasLocale("en") {
		t.Error("absent text should remove the locale key")
	}
	if !cleared.HasLocale("fr") {
		t.Error("clearing en must keep fr")
	}
}

func TestMessage_Clone(t *testing.T) {
	m := NewMessage("greet", time.Now())
	m.Text["en"] = "Hello"

	c := m.Clone()
	c.Text["en"] = "Changed"

	if m.Text["en"] != "Hello" {
		t.Errorf("clone shares text map with original")
	}
}

func TestLocaleText(t *testing.T) {
	present := Text("c", "en", "x")
	if present.IsAbsent() {
		t.Error("Text() should be present")
	}
	if got, ok := present.Text(); !ok || got != "x" {
		t.Errorf("Text() = %q, %v", got, ok)
	}

	absent := NoText("c", "en")
	if !absent.IsAbsent() {
		t.Error("NoText() should be absent")
	}

	s := "y"
	if got, ok := TextOrAbsent("c", "en", &s).Text(); !ok || got != "y" {
		t.Errorf("TextOrAbsent(&y) = %q, %v", got, ok)
	}
	if !TextOrAbsent("c", "en", nil).IsAbsent() {
		t.Error("TextOrAbsent(nil) should be absent")
	}
}

func TestValidLocale(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"en", true},
		{"fr-CA", true},
		{"zh-Hant-TW", true},
		{"", false},
		{"not a locale", false},
		{"en_US!", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ValidLocale(tt.code); got != tt.want {
				t.Errorf("ValidLocale(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
