package models

import (
	"time"

	"github.com/google/uuid"
)

// Link is a button on the public page. It exists independently of the
// sections that show it.
type Link struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	IsActive        bool      `json:"is_active"`
	TextColor       string    `json:"text_color"`
	BackgroundColor string    `json:"background_color"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
