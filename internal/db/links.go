package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

// linkColumns is the standard column list for link queries.
const linkColumns = `l.id, l.user_id, l.title, l.url, l.is_active, l.text_color, l.background_color,
	l.created_at, l.updated_at`

func linkFields(l *models.Link) []any {
	return []any{
		&l.ID,
		&l.UserID,
		&l.Title,
		&l.URL,
		&l.IsActive,
		&l.TextColor,
		&l.BackgroundColor,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}

// scanLink scans a row into a Link struct.
func scanLink(row pgx.Row) (*models.Link, error) {
	var link models.Link
	err := row.Scan(linkFields(&link)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// scanLinks scans multiple rows into a slice of Links.
func scanLinks(rows pgx.Rows) ([]models.Link, error) {
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(linkFields(&link)...); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// CreateLink inserts a link and appends it to each of sectionIDs.
func (d *DB) CreateLink(ctx context.Context, link *models.Link, sectionIDs []uuid.UUID) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO links (user_id, title, url, is_active, text_color, background_color)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`,
			link.UserID,
			link.Title,
			link.URL,
			link.IsActive,
			link.TextColor,
			link.BackgroundColor,
		).Scan(&link.ID, &link.CreatedAt, &link.UpdatedAt)
		if err != nil {
			return err
		}
		return addToSections(ctx, tx, link.UserID, link.ID, sectionIDs, models.MemberLink)
	})
}

// GetLink retrieves a link owned by userID.
func (d *DB) GetLink(ctx context.Context, id, userID uuid.UUID) (*models.Link, error) {
	return scanLink(d.Pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links l WHERE l.id = $1 AND l.user_id = $2`, id, userID))
}

// ListLinks returns all of a user's links, newest first.
func (d *DB) ListLinks(ctx context.Context, userID uuid.UUID) ([]models.Link, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+linkColumns+` FROM links l WHERE l.user_id = $1 ORDER BY l.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanLinks(rows)
}

// UpdateLink writes the editable fields of a link.
func (d *DB) UpdateLink(ctx context.Context, link *models.Link) error {
	err := d.Pool.QueryRow(ctx, `
		UPDATE links SET
			title = $3,
			url = $4,
			is_active = $5,
			text_color = $6,
			background_color = $7,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`,
		link.ID,
		link.UserID,
		link.Title,
		link.URL,
		link.IsActive,
		link.TextColor,
		link.BackgroundColor,
	).Scan(&link.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLinkNotFound
	}
	return err
}

// DeleteLink removes a link from every section and deletes it.
func (d *DB) DeleteLink(ctx context.Context, id, userID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// ListLinkSectionIDs returns the sections a link is assigned to.
func (d *DB) ListLinkSectionIDs(ctx context.Context, linkID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT section_id FROM section_links WHERE member_id = $1`, linkID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// SetLinkSections makes sectionIDs the exact set of sections showing a
// link. Newly assigned sections get the link at the end.
func (d *DB) SetLinkSections(ctx context.Context, linkID, userID uuid.UUID, sectionIDs []uuid.UUID) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		var owner uuid.UUID
		err := tx.QueryRow(ctx, `SELECT user_id FROM links WHERE id = $1 AND user_id = $2`, linkID, userID).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLinkNotFound
		}
		if err != nil {
			return err
		}

		if sectionIDs == nil {
			sectionIDs = []uuid.UUID{}
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM section_links
			WHERE member_id = $1 AND NOT (section_id = ANY($2::uuid[]))
		`, linkID, sectionIDs); err != nil {
			return err
		}
		return addToSections(ctx, tx, userID, linkID, sectionIDs, models.MemberLink)
	})
}

// ListSectionLinks returns every link in a section, active or not, in
// position order.
func (d *DB) ListSectionLinks(ctx context.Context, sectionID uuid.UUID) ([]models.SectionLink, error) {
	return d.sectionLinks(ctx, []uuid.UUID{sectionID}, false)
}

// ListActiveLinksForSections returns the active links of the given
// sections, grouped by section and ordered by position.
func (d *DB) ListActiveLinksForSections(ctx context.Context, sectionIDs []uuid.UUID) (map[uuid.UUID][]models.Link, error) {
	rows, err := d.sectionLinks(ctx, sectionIDs, true)
	if err != nil {
		return nil, err
	}
	grouped := make(map[uuid.UUID][]models.Link, len(sectionIDs))
	for _, sl := range rows {
		grouped[sl.SectionID] = append(grouped[sl.SectionID], sl.Link)
	}
	return grouped, nil
}

func (d *DB) sectionLinks(ctx context.Context, sectionIDs []uuid.UUID, activeOnly bool) ([]models.SectionLink, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT `+linkColumns+`, sl.section_id, sl.position
		FROM section_links sl
		JOIN links l ON l.id = sl.member_id
		WHERE sl.section_id = ANY($1::uuid[]) AND (l.is_active OR NOT $2)
		ORDER BY sl.section_id, sl.position ASC
	`, sectionIDs, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.SectionLink
	for rows.Next() {
		var sl models.SectionLink
		dest := append(linkFields(&sl.Link), &sl.SectionID, &sl.Position)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		links = append(links, sl)
	}
	return links, rows.Err()
}
