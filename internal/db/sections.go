package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

const sectionColumns = `id, user_id, kind, position, is_active, content_url, created_at, updated_at`

func scanSection(row pgx.Row) (*models.Section, error) {
	var s models.Section
	var kind string
	err := row.Scan(&s.ID, &s.UserID, &kind, &s.Position, &s.IsActive, &s.ContentURL, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSectionNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.Kind, err = models.ParseSectionKind(kind); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSections(rows pgx.Rows) ([]models.Section, error) {
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *s)
	}
	return sections, rows.Err()
}

// GetSection returns a section owned by userID.
func (d *DB) GetSection(ctx context.Context, id, userID uuid.UUID) (*models.Section, error) {
	return scanSection(d.Pool.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1 AND user_id = $2`, id, userID))
}

// ListSections returns all of a user's sections in position order.
func (d *DB) ListSections(ctx context.Context, userID uuid.UUID) ([]models.Section, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE user_id = $1 ORDER BY position ASC`, userID)
	if err != nil {
		return nil, err
	}
	return scanSections(rows)
}

// ListActiveSections returns the sections shown on the public page.
func (d *DB) ListActiveSections(ctx context.Context, userID uuid.UUID) ([]models.Section, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE user_id = $1 AND is_active ORDER BY position ASC`, userID)
	if err != nil {
		return nil, err
	}
	return scanSections(rows)
}

// ListSectionIDs returns the ids of a user's sections in position order.
func (d *DB) ListSectionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return sectionOrder.listIDs(ctx, d.Pool, userID)
}

// CreateSection appends a section after the user's last one. The user's
// row is locked so concurrent creates cannot pick the same position.
func (d *DB) CreateSection(ctx context.Context, s *models.Section) error {
	if !s.Kind.Valid() {
		return fmt.Errorf("invalid section kind %d", int(s.Kind))
	}

	return d.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, s.UserID); err != nil {
			return err
		}

		pos, err := sectionOrder.nextPosition(ctx, tx, s.UserID)
		if err != nil {
			return err
		}
		s.Position = pos

		return tx.QueryRow(ctx, `
			INSERT INTO sections (user_id, kind, position, is_active, content_url)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`, s.UserID, s.Kind.String(), s.Position, s.IsActive, s.ContentURL).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	})
}

func lockUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

// SetSectionActive shows or hides a section.
func (d *DB) SetSectionActive(ctx context.Context, id, userID uuid.UUID, active bool) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE sections SET is_active = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, active)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// SetSectionContentURL sets the external URL of a video or map section.
func (d *DB) SetSectionContentURL(ctx context.Context, id, userID uuid.UUID, url *string) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE sections SET content_url = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, url)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// DeleteSection removes a section and, by cascade, its memberships.
func (d *DB) DeleteSection(ctx context.Context, id, userID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM sections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// CommitSectionOrder renumbers a user's sections to their index in order,
// in one transaction.
func (d *DB) CommitSectionOrder(ctx context.Context, userID uuid.UUID, order []uuid.UUID) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		return sectionOrder.renumber(ctx, tx, userID, order)
	})
}
