package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile carries the public-facing attributes of a user. There is exactly
// one per user, keyed by the user's ID.
type Profile struct {
	UserID             uuid.UUID `json:"user_id"`
	Handle             *string   `json:"handle"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Bio                string    `json:"bio"`
	AvatarURL          *string   `json:"avatar_url"`
	StoreHours         string    `json:"store_hours"`
	Address            string    `json:"address"`
	SalesPitch         string    `json:"sales_pitch"`
	VisibleInDirectory bool      `json:"visible_in_directory"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FullName joins the non-empty name parts.
func (p *Profile) FullName() string {
	return strings.TrimSpace(strings.Join([]string{p.FirstName, p.LastName}, " "))
}

// HasInfoCard reports whether any info-card field is set.
func (p *Profile) HasInfoCard() bool {
	return p.StoreHours != "" || p.Address != "" || p.SalesPitch != ""
}

// HandleOrEmpty returns the public handle, or "" when none is claimed.
func (p *Profile) HandleOrEmpty() string {
	if p.Handle == nil {
		return ""
	}
	return *p.Handle
}
