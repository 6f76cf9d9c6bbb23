// Package render builds the public view of a profile: its active sections
// in order, each resolved to the content it displays.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"linkpage/internal/db"
	"linkpage/internal/models"
)

// ErrProfileNotFound is returned when no profile has the requested handle.
var ErrProfileNotFound = errors.New("profile not found")

const (
	// SliderInterval is how long each slide is shown.
	SliderInterval = 3 * time.Second
	// GridLimit is the most photos a grid shows.
	GridLimit = 6
)

// Source is the read side of the store used to build a page.
type Source interface {
	GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error)
	ListActiveSections(ctx context.Context, userID uuid.UUID) ([]models.Section, error)
	ListActiveLinksForSections(ctx context.Context, sectionIDs []uuid.UUID) (map[uuid.UUID][]models.Link, error)
	ListPhotosForSections(ctx context.Context, sectionIDs []uuid.UUID) (map[uuid.UUID][]models.Photo, error)
	ListTestimonials(ctx context.Context, userID uuid.UUID) ([]models.Testimonial, error)
}

// Header identifies the section a block was built from.
type Header struct {
	SectionID uuid.UUID          `json:"section_id"`
	Kind      models.SectionKind `json:"kind"`
}

func (h Header) Section() Header { return h }

// Block is the rendered content of one section.
type Block interface {
	Section() Header
}

type LinkList struct {
	Header
	Links []models.Link `json:"links"`
}

type PhotoSlider struct {
	Header
	Photos     []models.Photo `json:"photos"`
	Interval   time.Duration  `json:"-"`
	IntervalMS int64          `json:"interval_ms"`
	Loop       bool           `json:"loop"`
}

type PhotoGrid struct {
	Header
	Photos []models.Photo `json:"photos"`
}

// Testimonials shows every testimonial of the owner. Testimonials are not
// tied to a section, so two testimonial sections show the same list.
type Testimonials struct {
	Header
	Items []models.Testimonial `json:"items"`
}

type Video struct {
	Header
	EmbedURL string `json:"embed_url"`
}

type Map struct {
	Header
	EmbedURL string `json:"embed_url"`
}

type InfoCard struct {
	Header
	StoreHours string `json:"store_hours,omitempty"`
	Address    string `json:"address,omitempty"`
	SalesPitch string `json:"sales_pitch,omitempty"`
}

// Profile is the public subset of a profile.
type Profile struct {
	Handle    string  `json:"handle"`
	FullName  string  `json:"full_name"`
	Bio       string  `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Page is everything shown at a public handle.
type Page struct {
	UserID  uuid.UUID `json:"-"`
	Profile Profile   `json:"profile"`
	Blocks  []Block   `json:"blocks"`
}

// content is the member data fetched for a page.
type content struct {
	links        map[uuid.UUID][]models.Link
	photos       map[uuid.UUID][]models.Photo
	testimonials []models.Testimonial
}

// Build resolves handle to its public page. Links and photos of all
// sections and the owner's testimonials are fetched concurrently, once per
// page.
func Build(ctx context.Context, src Source, handle string) (*Page, error) {
	profile, err := src.GetProfileByHandle(ctx, handle)
	if errors.Is(err, db.ErrProfileNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	sections, err := src.ListActiveSections(ctx, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}

	var linkSections, photoSections []uuid.UUID
	wantTestimonials := false
	for _, s := range sections {
		switch s.Kind.MemberKind() {
		case models.MemberLink:
			linkSections = append(linkSections, s.ID)
		case models.MemberPhoto:
			photoSections = append(photoSections, s.ID)
		case models.MemberNone:
			if s.Kind == models.KindTestimonials {
				wantTestimonials = true
			}
		}
	}

	var c content
	g, gctx := errgroup.WithContext(ctx)
	if len(linkSections) > 0 {
		g.Go(func() error {
			links, err := src.ListActiveLinksForSections(gctx, linkSections)
			if err != nil {
				return fmt.Errorf("load links: %w", err)
			}
			c.links = links
			return nil
		})
	}
	if len(photoSections) > 0 {
		g.Go(func() error {
			photos, err := src.ListPhotosForSections(gctx, photoSections)
			if err != nil {
				return fmt.Errorf("load photos: %w", err)
			}
			c.photos = photos
			return nil
		})
	}
	if wantTestimonials {
		g.Go(func() error {
			testimonials, err := src.ListTestimonials(gctx, profile.UserID)
			if err != nil {
				return fmt.Errorf("load testimonials: %w", err)
			}
			c.testimonials = testimonials
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &Page{
		UserID: profile.UserID,
		Profile: Profile{
			Handle:    profile.HandleOrEmpty(),
			FullName:  profile.FullName(),
			Bio:       profile.Bio,
			AvatarURL: profile.AvatarURL,
		},
		Blocks: make([]Block, 0, len(sections)),
	}
	for _, s := range sections {
		if b := buildBlock(s, profile, &c); b != nil {
			page.Blocks = append(page.Blocks, b)
		}
	}
	return page, nil
}

// Adding a section kind must update buildBlock.
var _ = [1]struct{}{}[models.SectionKindCount-7]

// buildBlock returns nil for sections that have nothing to show.
func buildBlock(s models.Section, p *models.Profile, c *content) Block {
	h := Header{SectionID: s.ID, Kind: s.Kind}

	switch s.Kind {
	case models.KindLinks:
		links := c.links[s.ID]
		if len(links) == 0 {
			return nil
		}
		return &LinkList{Header: h, Links: links}
	case models.KindPhotoSlider:
		photos := c.photos[s.ID]
		if len(photos) == 0 {
			return nil
		}
		return &PhotoSlider{
			Header:     h,
			Photos:     photos,
			Interval:   SliderInterval,
			IntervalMS: SliderInterval.Milliseconds(),
			Loop:       true,
		}
	case models.KindPhotoGrid:
		photos := c.photos[s.ID]
		if len(photos) == 0 {
			return nil
		}
		if len(photos) > GridLimit {
			photos = photos[:GridLimit]
		}
		return &PhotoGrid{Header: h, Photos: photos}
	case models.KindTestimonials:
		if len(c.testimonials) == 0 {
			return nil
		}
		return &Testimonials{Header: h, Items: c.testimonials}
	case models.KindVideo:
		if s.ContentURL == nil || *s.ContentURL == "" {
			return nil
		}
		return &Video{Header: h, EmbedURL: VideoEmbedURL(*s.ContentURL)}
	case models.KindMap:
		if s.ContentURL == nil || *s.ContentURL == "" {
			return nil
		}
		return &Map{Header: h, EmbedURL: MapEmbedURL(*s.ContentURL)}
	case models.KindInfoCard:
		if !p.HasInfoCard() {
			return nil
		}
		return &InfoCard{
			Header:     h,
			StoreHours: p.StoreHours,
			Address:    p.Address,
			SalesPitch: p.SalesPitch,
		}
	}
	return nil
}
