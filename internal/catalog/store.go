// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"

	"github.com/olegiv/ocms-catalog/internal/model"
)

// Store is the durable backing for a Repository. Each message is one record keyed by code.
// The Repository never overlaps calls for the same code and never overlaps bulk
// calls with anything else, but calls for different codes may run concurrently.
type Store interface {
	// LoadMessages returns every stored message.
	LoadMessages(ctx context.Context) ([]model.Message, error)

	// SaveMessage inserts or replaces one message.
	SaveMessage(ctx context.Context, m model.Message) error

	// InsertMessages inserts new messages in one batch.
	InsertMessages(ctx context.Context, msgs []model.Message) error

	// SetFound updates the found flag of the given codes.
	SetFound(ctx context.Context, codes []string, found bool) error

	// DeleteMessage removes one message.
	DeleteMessage(ctx context.Context, code string) error

	// DeleteOrphans removes all messages with found=false.
	DeleteOrphans(ctx context.Context) (int64, error)

	// Truncate removes all messages.
	Truncate(ctx context.Context) error
}

// nopStore keeps nothing; a Repository built on it is purely in-memory.
type nopStore struct{}

func (nopStore) LoadMessages(context.Context) ([]model.Message, error) { return nil, nil }
func (nopStore) SaveMessage(context.Context, model.Message) error      { return nil }
func (nopStore) InsertMessages(context.Context, []model.Message) error { return nil }
func (nopStore) SetFound(context.Context, []string, bool) error        { return nil }
func (nopStore) DeleteMessage(context.Context, string) error           { return nil }
func (nopStore) DeleteOrphans(context.Context) (int64, error)          { return 0, nil }
func (nopStore) Truncate(context.Context) error                        { return nil }
