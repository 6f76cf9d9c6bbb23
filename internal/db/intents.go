package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RecordIntent logs a pending storage action before it is issued. q may be
// the pool or an open transaction.
func RecordIntent(ctx context.Context, q execer, userID uuid.UUID, key, action string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx, `
		INSERT INTO storage_intents (user_id, object_key, action)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, key, action).Scan(&id)
	return id, err
}

// RecordIntent logs a pending storage action outside any transaction.
func (d *DB) RecordIntent(ctx context.Context, userID uuid.UUID, key, action string) (uuid.UUID, error) {
	return RecordIntent(ctx, d.Pool, userID, key, action)
}

// ResolveIntent moves a pending intent to state (done or swept).
func ResolveIntent(ctx context.Context, q execer, id uuid.UUID, state string) error {
	var resolved uuid.UUID
	err := q.QueryRow(ctx, `
		UPDATE storage_intents SET state = $2, done_at = NOW()
		WHERE id = $1 AND state = 'pending'
		RETURNING id
	`, id, state).Scan(&resolved)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrIntentNotFound
	}
	return err
}

// ResolveIntent moves a pending intent to state outside any transaction.
func (d *DB) ResolveIntent(ctx context.Context, id uuid.UUID, state string) error {
	return ResolveIntent(ctx, d.Pool, id, state)
}

// ListStaleIntents returns pending intents older than maxAge, oldest first.
func (d *DB) ListStaleIntents(ctx context.Context, maxAge time.Duration, limit int) ([]models.StorageIntent, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, user_id, object_key, action, state, created_at, done_at
		FROM storage_intents
		WHERE state = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, time.Now().Add(-maxAge), limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.StorageIntent])
}

// CountPendingIntents returns the number of unresolved intents.
func (d *DB) CountPendingIntents(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM storage_intents WHERE state = 'pending'`).Scan(&n)
	return n, err
}
