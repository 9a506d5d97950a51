// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

// Error represents an error kind for catalog operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNotFound indicates the operation referenced an unknown code.
	ErrNotFound Error = "message not found"

	// ErrInvalidArgument indicates a malformed code or locale.
	ErrInvalidArgument Error = "invalid argument"

	// ErrConcurrencyConflict indicates an optimistic operation exhausted its retries.
	// Repository mutations use locks and never return it.
	ErrConcurrencyConflict Error = "concurrency conflict"

	// ErrStorageFailure wraps an I/O error from the durable store.
	ErrStorageFailure Error = "storage failure"
)
