package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level database error sentinels.
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrHandleTaken     = errors.New("handle is already taken")

	// Section errors
	ErrSectionNotFound    = errors.New("section not found")
	ErrNotMemberContainer = errors.New("section kind does not hold members")

	// Content errors
	ErrLinkNotFound        = errors.New("link not found")
	ErrPhotoNotFound       = errors.New("photo not found")
	ErrTestimonialNotFound = errors.New("testimonial not found")
	ErrMemberNotOwned      = errors.New("member does not belong to the section owner")

	// Storage intent errors
	ErrIntentNotFound = errors.New("storage intent not found")
)

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
