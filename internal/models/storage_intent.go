package models

import (
	"time"

	"github.com/google/uuid"
)

// Storage intent actions.
const (
	IntentPut    = "put"
	IntentDelete = "delete"
)

// Storage intent states.
const (
	IntentPending = "pending"
	IntentDone    = "done"
	IntentSwept   = "swept"
)

// StorageIntent is a row in the log of object-storage writes. It is
// recorded before the write is issued so an interrupted workflow can be
// found and finished later.
type StorageIntent struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ObjectKey string     `json:"object_key"`
	Action    string     `json:"action"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	DoneAt    *time.Time `json:"done_at"`
}

// IsPending returns true if the intent has not been resolved.
func (i *StorageIntent) IsPending() bool {
	return i.State == IntentPending
}
