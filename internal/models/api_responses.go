package models

import "github.com/google/uuid"

// HandleCheckResponse indicates whether a public handle can be claimed.
type HandleCheckResponse struct {
	Handle    string `json:"handle"`
	Valid     bool   `json:"valid"`
	Available bool   `json:"available"`
}

// DraftResponse is the editor view of a container's unsaved order.
type DraftResponse struct {
	Scope       string      `json:"scope"`
	ContainerID uuid.UUID   `json:"container_id"`
	Committed   []uuid.UUID `json:"committed"`
	Current     []uuid.UUID `json:"current"`
	Dirty       bool        `json:"dirty"`
}

// CommitResponse reports the outcome of saving a draft.
type CommitResponse struct {
	DraftResponse
	Removed int  `json:"removed"`
	Added   int  `json:"added"`
	Written bool `json:"written"`
}
