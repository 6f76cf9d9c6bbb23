package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

const profileColumns = `user_id, handle, first_name, last_name, bio, avatar_url,
	store_hours, address, sales_pitch, visible_in_directory, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.UserID,
		&p.Handle,
		&p.FirstName,
		&p.LastName,
		&p.Bio,
		&p.AvatarURL,
		&p.StoreHours,
		&p.Address,
		&p.SalesPitch,
		&p.VisibleInDirectory,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the profile of a user.
func (d *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return scanProfile(d.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
}

// GetProfileByHandle looks a profile up by public handle, ignoring case.
func (d *DB) GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	return scanProfile(d.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE LOWER(handle) = LOWER($1)`, handle))
}

// UpdateProfile writes every editable profile field. The avatar is managed
// separately by SetAvatarURL.
func (d *DB) UpdateProfile(ctx context.Context, p *models.Profile) error {
	var handle any
	if p.Handle != nil && *p.Handle != "" {
		handle = strings.ToLower(*p.Handle)
	}

	err := d.Pool.QueryRow(ctx, `
		UPDATE profiles SET
			handle = $2,
			first_name = $3,
			last_name = $4,
			bio = $5,
			store_hours = $6,
			address = $7,
			sales_pitch = $8,
			visible_in_directory = $9,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`,
		p.UserID,
		handle,
		p.FirstName,
		p.LastName,
		p.Bio,
		p.StoreHours,
		p.Address,
		p.SalesPitch,
		p.VisibleInDirectory,
	).Scan(&p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProfileNotFound
	}
	if isUniqueViolation(err) {
		return ErrHandleTaken
	}
	return err
}

// IsHandleAvailable reports whether no profile other than userID's has
// claimed handle.
func (d *DB) IsHandleAvailable(ctx context.Context, handle string, userID uuid.UUID) (bool, error) {
	var taken bool
	err := d.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM profiles WHERE LOWER(handle) = LOWER($1) AND user_id <> $2
		)
	`, handle, userID).Scan(&taken)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// SetAvatarURL replaces the avatar URL inside tx and returns the previous
// one, which is nil when none was set.
func SetAvatarURL(ctx context.Context, tx pgx.Tx, userID uuid.UUID, url *string) (*string, error) {
	var previous *string
	err := tx.QueryRow(ctx, `
		SELECT avatar_url FROM profiles WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE profiles SET avatar_url = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, url); err != nil {
		return nil, err
	}
	return previous, nil
}

// ListDirectory returns profiles that opted into the public directory and
// have a handle. A non-empty query filters on name, handle, bio and address.
func (d *DB) ListDirectory(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 50
	}

	sql := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE visible_in_directory AND handle IS NOT NULL`
	args := []any{limit}
	if q := strings.TrimSpace(query); q != "" {
		sql += ` AND (
			first_name ILIKE $2 OR last_name ILIKE $2 OR handle ILIKE $2
			OR bio ILIKE $2 OR address ILIKE $2
		)`
		args = append(args, "%"+escapeLike(q)+"%")
	}
	sql += ` ORDER BY first_name, last_name, handle LIMIT $1`

	rows, err := d.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
