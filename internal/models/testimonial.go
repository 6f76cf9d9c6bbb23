package models

import (
	"time"

	"github.com/google/uuid"
)

// Testimonial is a quote shown by every active testimonials section of its
// owner. Testimonials are not members of a specific section.
type Testimonial struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
