package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

const photoColumns = `p.id, p.user_id, p.url, p.caption, p.storage_key, p.created_at`

func photoFields(p *models.Photo) []any {
	return []any{&p.ID, &p.UserID, &p.URL, &p.Caption, &p.StorageKey, &p.CreatedAt}
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(photoFields(&p)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPhoto records a photo inside tx. Upload workflows call this in the
// same transaction that resolves their storage intent.
func InsertPhoto(ctx context.Context, tx pgx.Tx, p *models.Photo) error {
	return tx.QueryRow(ctx, `
		INSERT INTO photos (user_id, url, caption, storage_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.UserID, p.URL, p.Caption, p.StorageKey).Scan(&p.ID, &p.CreatedAt)
}

// CreatePhoto records a photo that references an external URL.
func (d *DB) CreatePhoto(ctx context.Context, p *models.Photo) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		return InsertPhoto(ctx, tx, p)
	})
}

// GetPhoto retrieves a photo owned by userID.
func (d *DB) GetPhoto(ctx context.Context, id, userID uuid.UUID) (*models.Photo, error) {
	return scanPhoto(d.Pool.QueryRow(ctx,
		`SELECT `+photoColumns+` FROM photos p WHERE p.id = $1 AND p.user_id = $2`, id, userID))
}

// ListPhotos returns all of a user's photos, newest first.
func (d *DB) ListPhotos(ctx context.Context, userID uuid.UUID) ([]models.Photo, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+photoColumns+` FROM photos p WHERE p.user_id = $1 ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(photoFields(&p)...); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// UpdatePhotoCaption changes the caption of a photo.
func (d *DB) UpdatePhotoCaption(ctx context.Context, id, userID uuid.UUID, caption string) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE photos SET caption = $3 WHERE id = $1 AND user_id = $2
	`, id, userID, caption)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// DeletePhotoTx deletes a photo inside tx and returns the deleted row.
func DeletePhotoTx(ctx context.Context, tx pgx.Tx, id, userID uuid.UUID) (*models.Photo, error) {
	return scanPhoto(tx.QueryRow(ctx, `
		DELETE FROM photos p WHERE p.id = $1 AND p.user_id = $2
		RETURNING `+photoColumns, id, userID))
}

// ListSectionPhotos returns the photos of a section in position order.
func (d *DB) ListSectionPhotos(ctx context.Context, sectionID uuid.UUID) ([]models.SectionPhoto, error) {
	return d.sectionPhotos(ctx, []uuid.UUID{sectionID})
}

// ListPhotosForSections returns the photos of the given sections, grouped
// by section and ordered by position.
func (d *DB) ListPhotosForSections(ctx context.Context, sectionIDs []uuid.UUID) (map[uuid.UUID][]models.Photo, error) {
	rows, err := d.sectionPhotos(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}
	grouped := make(map[uuid.UUID][]models.Photo, len(sectionIDs))
	for _, sp := range rows {
		grouped[sp.SectionID] = append(grouped[sp.SectionID], sp.Photo)
	}
	return grouped, nil
}

func (d *DB) sectionPhotos(ctx context.Context, sectionIDs []uuid.UUID) ([]models.SectionPhoto, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT `+photoColumns+`, sp.section_id, sp.position
		FROM section_photos sp
		JOIN photos p ON p.id = sp.member_id
		WHERE sp.section_id = ANY($1::uuid[])
		ORDER BY sp.section_id, sp.position ASC
	`, sectionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.SectionPhoto
	for rows.Next() {
		var sp models.SectionPhoto
		dest := append(photoFields(&sp.Photo), &sp.SectionID, &sp.Position)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		photos = append(photos, sp)
	}
	return photos, rows.Err()
}

// IsObjectReferenced reports whether a storage key is still used by a
// photo or as an avatar.
func (d *DB) IsObjectReferenced(ctx context.Context, key, publicURL string) (bool, error) {
	var referenced bool
	err := d.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM photos WHERE storage_key = $1)
			OR EXISTS (SELECT 1 FROM profiles WHERE avatar_url = $2)
	`, key, publicURL).Scan(&referenced)
	return referenced, err
}
