package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

// UpsertUser creates or updates a user based on their OIDC subject. A new
// user also gets an empty profile, so every user has exactly one.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (sub, email, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (sub) DO UPDATE SET
				email = EXCLUDED.email,
				name = EXCLUDED.name,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`, user.Sub, user.Email, user.Name).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO profiles (user_id, first_name)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, user.ID, firstName(user.Name))
		return err
	})
}

func firstName(name string) string {
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}

// GetUserBySub retrieves a user by their OIDC subject identifier.
func (d *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `
		SELECT id, sub, email, name, created_at, updated_at
		FROM users WHERE sub = $1
	`, sub))
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Sub, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
