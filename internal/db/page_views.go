package db

import (
	"context"

	"github.com/google/uuid"
)

// PageViewCount is the number of public page views of one handle.
type PageViewCount struct {
	Handle string
	Count  int64
}

// IncrementPageView upserts the public page view count of a user.
func (d *DB) IncrementPageView(ctx context.Context, userID uuid.UUID) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO page_views (user_id, count, last_seen_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET count = page_views.count + 1, last_seen_at = NOW()
	`, userID)
	return err
}

// GetAllPageViews returns page view counts for metrics export.
func (d *DB) GetAllPageViews(ctx context.Context) ([]PageViewCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT pr.handle, v.count
		FROM page_views v
		JOIN profiles pr ON pr.user_id = v.user_id
		WHERE pr.handle IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []PageViewCount
	for rows.Next() {
		var c PageViewCount
		if err := rows.Scan(&c.Handle, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// SectionKindCount is the number of sections of one kind across all users.
type SectionKindCount struct {
	Kind   string
	Active bool
	Count  int64
}

// CountSectionsByKind groups sections by kind and active flag.
func (d *DB) CountSectionsByKind(ctx context.Context) ([]SectionKindCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT kind, is_active, COUNT(*) FROM sections GROUP BY kind, is_active
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []SectionKindCount
	for rows.Next() {
		var c SectionKindCount
		if err := rows.Scan(&c.Kind, &c.Active, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
