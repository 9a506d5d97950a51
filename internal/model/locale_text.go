// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "golang.org/x/text/language"

// LocaleText says that a code has a given text in one locale, or that it is absent.
// The zero value is an absent text for an empty code and locale.
type LocaleText struct {
	Code   string
	Locale string

	text    string
	present bool
}

// Text builds a present LocaleText.
func Text(code, locale, text string) LocaleText {
	return LocaleText{Code: code, Locale: locale, text: text, present: true}
}

// NoText builds an absent LocaleText.
func NoText(code, locale string) LocaleText {
	return LocaleText{Code: code, Locale: locale}
}

// TextOrAbsent builds a LocaleText from a nullable value, as decoded from JSON.
func TextOrAbsent(code, locale string, text *string) LocaleText {
	if text == nil {
		return NoText(code, locale)
	}
	return Text(code, locale, *text)
}

// Text returns the text and whether it is present.
func (t LocaleText) Text() (string, bool) {
	return t.text, t.present
}

// IsAbsent reports whether the value represents a missing translation.
func (t LocaleText) IsAbsent() bool {
	return !t.present
}

// ValidLocale reports whether code is a well-formed BCP 47 tag such as "en" or "fr-CA".
func ValidLocale(code string) bool {
	if code == "" {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}
