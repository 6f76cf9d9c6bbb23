package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SectionKind selects how a section is edited and rendered.
type SectionKind int

const (
	KindLinks SectionKind = iota
	KindPhotoSlider
	KindPhotoGrid
	KindTestimonials
	KindVideo
	KindMap
	KindInfoCard

	// SectionKindCount must stay last.
	SectionKindCount
)

var sectionKindNames = [SectionKindCount]string{
	KindLinks:        "links",
	KindPhotoSlider:  "photo_slider",
	KindPhotoGrid:    "photo_grid",
	KindTestimonials: "testimonials",
	KindVideo:        "video",
	KindMap:          "map",
	KindInfoCard:     "info_card",
}

// SectionKinds lists every kind in declaration order.
func SectionKinds() []SectionKind {
	kinds := make([]SectionKind, 0, SectionKindCount)
	for k := SectionKind(0); k < SectionKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k SectionKind) String() string {
	if k < 0 || k >= SectionKindCount {
		return fmt.Sprintf("SectionKind(%d)", int(k))
	}
	return sectionKindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k SectionKind) Valid() bool {
	return k >= 0 && k < SectionKindCount
}

// ParseSectionKind maps the stored name of a kind back to its value.
func ParseSectionKind(s string) (SectionKind, error) {
	for k, name := range sectionKindNames {
		if name == s {
			return SectionKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown section kind %q", s)
}

func (k SectionKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid section kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *SectionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSectionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MemberKind is the type of content a section holds by membership.
type MemberKind string

const (
	MemberNone  MemberKind = ""
	MemberLink  MemberKind = "link"
	MemberPhoto MemberKind = "photo"
)

// MemberKind reports which membership table backs sections of this kind.
// Testimonials, embeds and the info card have no per-section members.
func (k SectionKind) MemberKind() MemberKind {
	switch k {
	case KindLinks:
		return MemberLink
	case KindPhotoSlider, KindPhotoGrid:
		return MemberPhoto
	case KindTestimonials, KindVideo, KindMap, KindInfoCard:
		return MemberNone
	}
	return MemberNone
}

// UsesContentURL reports whether the section renders a single external URL.
func (k SectionKind) UsesContentURL() bool {
	return k == KindVideo || k == KindMap
}

// Section is an ordered, typed block on a user's public page.
type Section struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	Kind       SectionKind `json:"kind"`
	Position   int         `json:"position"`
	IsActive   bool        `json:"is_active"`
	ContentURL *string     `json:"content_url"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
