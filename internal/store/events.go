// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/olegiv/ocms-catalog/internal/model"
)

// EventStore persists the event log.
type EventStore struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

// NewEventStore creates an event store on db.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db, sq: sq.StatementBuilder}
}

// CreateEvent appends an event and returns it with its id.
func (s *EventStore) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if e.Metadata == "" {
		e.Metadata = "{}"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	query, args, err := s.sq.Insert("events").
		Columns("level", "category", "message", "metadata", "created_at").
		Values(e.Level, e.Category, e.Message, e.Metadata, e.CreatedAt).
		ToSql()
	if err != nil {
		return model.Event{}, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Event{}, fmt.Errorf("creating event: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// ListEvents returns the most recent events, newest first.
func (s *EventStore) ListEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := s.sq.Select("id", "level", "category", "message", "metadata", "created_at").
		From("events").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEventsBefore removes events older than the cutoff and returns how many were removed.
func (s *EventStore) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := s.sq.Delete("events").Where(sq.Lt{"created_at": cutoff.UTC()}).ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	return res.RowsAffected()
}
