package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is an image owned by a user, either uploaded (StorageKey set) or
// referenced by external URL.
type Photo struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	URL        string    `json:"url"`
	Caption    string    `json:"caption"`
	StorageKey *string   `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
