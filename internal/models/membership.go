package models

import "github.com/google/uuid"

// Membership binds a member (link or photo) to a section at a position.
type Membership struct {
	SectionID uuid.UUID `json:"section_id"`
	MemberID  uuid.UUID `json:"member_id"`
	Position  int       `json:"position"`
}

// SectionLink is a link as it appears inside one section.
type SectionLink struct {
	Link
	SectionID uuid.UUID `json:"section_id"`
	Position  int       `json:"position"`
}

// SectionPhoto is a photo as it appears inside one section.
type SectionPhoto struct {
	Photo
	SectionID uuid.UUID `json:"section_id"`
	Position  int       `json:"position"`
}
