// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/model"
)

// maxBatchParams keeps IN lists below SQLite's bound parameter limit.
const maxBatchParams = 500

// MessageStore persists messages, one row per code, with the locale texts
// stored as a JSON object. Timestamps are written in UTC.
type MessageStore struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

// NewMessageStore creates a message store on db.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db, sq: sq.StatementBuilder}
}

// LoadMessages returns every stored message ordered by code.
func (s *MessageStore) LoadMessages(ctx context.Context) ([]model.Message, error) {
	query, args, err := s.sq.Select("code", "found", "data", "created_at", "updated_at").
		From("messages").
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.Message
	for rows.Next() {
		var (
			m    model.Message
			data string
		)
		if err := rows.Scan(&m.Code, &m.Found, &data, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if m.Text, err = decodeText(data); err != nil {
			return nil, fmt.Errorf("decoding message %q: %w", m.Code, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SaveMessage inserts or replaces one message.
func (s *MessageStore) SaveMessage(ctx context.Context, m model.Message) error {
	data, err := encodeText(m.Text)
	if err != nil {
		return err
	}

	query, args, err := s.sq.Insert("messages").
		Columns("code", "found", "data", "created_at", "updated_at").
		Values(m.Code, m.Found, data, m.CreatedAt.UTC(), m.UpdatedAt.UTC()).
		Suffix("ON CONFLICT(code) DO UPDATE SET found=excluded.found, data=excluded.data, updated_at=excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving message %q: %w", m.Code, err)
	}
	return nil
}

// InsertMessages inserts new messages in one transaction. Codes that already
// exist are left unchanged.
func (s *MessageStore) InsertMessages(ctx context.Context, msgs []model.Message) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, m := range msgs {
			data, err := encodeText(m.Text)
			if err != nil {
				return err
			}

			query, args, err := s.sq.Insert("messages").
				Columns("code", "found", "data", "created_at", "updated_at").
				Values(m.Code, m.Found, data, m.CreatedAt.UTC(), m.UpdatedAt.UTC()).
				Suffix("ON CONFLICT(code) DO NOTHING").
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("inserting message %q: %w", m.Code, err)
			}
		}
		return nil
	})
}

// SetFound sets the found flag of the given codes.
func (s *MessageStore) SetFound(ctx context.Context, codes []string, found bool) error {
	now := time.Now().UTC()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(codes); start += maxBatchParams {
			chunk := codes[start:min(start+maxBatchParams, len(codes))]

			query, args, err := s.sq.Update("messages").
				Set("found", found).
				Set("updated_at", now).
				Where(sq.Eq{"code": chunk}).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("updating found flags: %w", err)
			}
		}
		return nil
	})
}

// DeleteMessage removes one message.
func (s *MessageStore) DeleteMessage(ctx context.Context, code string) error {
	query, args, err := s.sq.Delete("messages").Where(sq.Eq{"code": code}).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting message %q: %w", code, err)
	}
	return nil
}

// DeleteOrphans removes every message with found=false.
func (s *MessageStore) DeleteOrphans(ctx context.Context) (int64, error) {
	query, args, err := s.sq.Delete("messages").Where(sq.Eq{"found": false}).ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting orphans: %w", err)
	}
	return res.RowsAffected()
}

// Truncate removes every message.
func (s *MessageStore) Truncate(ctx context.Context) error {
	query, args, err := s.sq.Delete("messages").ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("truncating messages: %w", err)
	}
	return nil
}

// CountMessages returns the number of stored messages.
func (s *MessageStore) CountMessages(ctx context.Context) (int64, error) {
	query, args, err := s.sq.Select("COUNT(*)").From("messages").ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

func (s *MessageStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func encodeText(text map[string]string) (string, error) {
	if text == nil {
		return "{}", nil
	}
	b, err := json.Marshal(text)
	if err != nil {
		return "", fmt.Errorf("encoding text: %w", err)
	}
	return string(b), nil
}

func decodeText(data string) (map[string]string, error) {
	text := map[string]string{}
	if data == "" {
		return text, nil
	}
	if err := json.Unmarshal([]byte(data), &text); err != nil {
		return nil, err
	}
	return text, nil
}

var _ catalog.Store = (*MessageStore)(nil)
