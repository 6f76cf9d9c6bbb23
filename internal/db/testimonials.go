package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

// CreateTestimonial inserts a testimonial.
func (d *DB) CreateTestimonial(ctx context.Context, t *models.Testimonial) error {
	return d.Pool.QueryRow(ctx, `
		INSERT INTO testimonials (user_id, author, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, t.UserID, t.Author, t.Content).Scan(&t.ID, &t.CreatedAt)
}

// ListTestimonials returns a user's testimonials, newest first.
func (d *DB) ListTestimonials(ctx context.Context, userID uuid.UUID) ([]models.Testimonial, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, user_id, author, content, created_at
		FROM testimonials
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Testimonial])
}

// UpdateTestimonial writes the author and content of a testimonial.
func (d *DB) UpdateTestimonial(ctx context.Context, t *models.Testimonial) error {
	err := d.Pool.QueryRow(ctx, `
		UPDATE testimonials SET author = $3, content = $4
		WHERE id = $1 AND user_id = $2
		RETURNING created_at
	`, t.ID, t.UserID, t.Author, t.Content).Scan(&t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTestimonialNotFound
	}
	return err
}

// DeleteTestimonial deletes a testimonial.
func (d *DB) DeleteTestimonial(ctx context.Context, id, userID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM testimonials WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTestimonialNotFound
	}
	return nil
}
