package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkpage/internal/config"
	"linkpage/internal/editor"
	"linkpage/internal/models"
	"linkpage/internal/validation"
)

// SectionStore is the section side of the database.
type SectionStore interface {
	GetSection(ctx context.Context, id, userID uuid.UUID) (*models.Section, error)
	ListSections(ctx context.Context, userID uuid.UUID) ([]models.Section, error)
	CreateSection(ctx context.Context, s *models.Section) error
	SetSectionActive(ctx context.Context, id, userID uuid.UUID, active bool) error
	SetSectionContentURL(ctx context.Context, id, userID uuid.UUID, url *string) error
	DeleteSection(ctx context.Context, id, userID uuid.UUID) error
	ListSectionLinks(ctx context.Context, sectionID uuid.UUID) ([]models.SectionLink, error)
	ListSectionPhotos(ctx context.Context, sectionID uuid.UUID) ([]models.SectionPhoto, error)
}

// DraftDiscarder drops open drafts that a structural change made stale.
type DraftDiscarder interface {
	Discard(ctx context.Context, owner uuid.UUID, ref editor.ContainerRef) error
}

// SectionHandler handles creating, configuring and deleting sections.
type SectionHandler struct {
	store  SectionStore
	drafts DraftDiscarder
	site   *config.YAMLConfig
	log    *zap.Logger
}

// NewSectionHandler creates a new API section handler.
func NewSectionHandler(store SectionStore, drafts DraftDiscarder, site *config.YAMLConfig, log *zap.Logger) *SectionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SectionHandler{store: store, drafts: drafts, site: site, log: log}
}

// Catalog lists the section kinds users may add.
func (h *SectionHandler) Catalog(c fiber.Ctx) error {
	return jsonSuccess(c, h.site.Catalog())
}

// List returns the current user's sections in page order.
func (h *SectionHandler) List(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	sections, err := h.store.ListSections(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch sections")
	}
	if sections == nil {
		sections = []models.Section{}
	}
	return jsonSuccess(c, sections)
}

type createSectionRequest struct {
	Kind       string  `json:"kind" validate:"required"`
	IsActive   *bool   `json:"is_active"`
	ContentURL *string `json:"content_url" validate:"omitempty,weburl"`
}

// Create appends a section to the end of the page.
func (h *SectionHandler) Create(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var body createSectionRequest
	if msg := bind(c, &body); msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	kind, err := models.ParseSectionKind(body.Kind)
	if err != nil || !h.site.IsKindEnabled(kind) {
		return jsonError(c, fiber.StatusBadRequest, "unknown section kind")
	}
	if body.ContentURL != nil && !kind.UsesContentURL() {
		return jsonError(c, fiber.StatusBadRequest, "content_url is only allowed for video and map sections")
	}

	section := &models.Section{
		UserID:     user.ID,
		Kind:       kind,
		IsActive:   body.IsActive == nil || *body.IsActive,
		ContentURL: body.ContentURL,
	}
	if err := h.store.CreateSection(c.Context(), section); err != nil {
		return jsonFailure(c, err, "failed to create section")
	}

	h.discard(c, user.ID, editor.SectionOrder(user.ID))
	return jsonCreated(c, section)
}

type updateSectionRequest struct {
	IsActive   *bool   `json:"is_active"`
	ContentURL *string `json:"content_url"`
}

// Update shows or hides a section and sets its content URL. An empty
// content_url clears it.
func (h *SectionHandler) Update(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid section id")
	}

	var body updateSectionRequest
	if err := decodeJSON(c, &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	section, err := h.store.GetSection(c.Context(), id, user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch section")
	}

	if body.ContentURL != nil {
		if !section.Kind.UsesContentURL() {
			return jsonError(c, fiber.StatusBadRequest, "content_url is only allowed for video and map sections")
		}
		url := strings.TrimSpace(*body.ContentURL)
		var next *string
		if url != "" {
			if valid, msg := validation.ValidateURL(url); !valid {
				return jsonError(c, fiber.StatusBadRequest, msg)
			}
			next = &url
		}
		if err := h.store.SetSectionContentURL(c.Context(), id, user.ID, next); err != nil {
			return jsonFailure(c, err, "failed to update section")
		}
		section.ContentURL = next
	}

	if body.IsActive != nil {
		if err := h.store.SetSectionActive(c.Context(), id, user.ID, *body.IsActive); err != nil {
			return jsonFailure(c, err, "failed to update section")
		}
		section.IsActive = *body.IsActive
	}

	return jsonSuccess(c, section)
}

// Delete removes a section and its memberships. Links and photos stay in
// the user's library.
func (h *SectionHandler) Delete(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid section id")
	}

	section, err := h.store.GetSection(c.Context(), id, user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch section")
	}
	if err := h.store.DeleteSection(c.Context(), id, user.ID); err != nil {
		return jsonFailure(c, err, "failed to delete section")
	}

	h.discard(c, user.ID, editor.SectionOrder(user.ID))
	if ref, err := editor.MemberRef(section); err == nil {
		h.discard(c, user.ID, ref)
	}
	return jsonSuccess(c, fiber.Map{"deleted": id})
}

// Members returns the committed members of a links or photo section in
// position order.
func (h *SectionHandler) Members(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid section id")
	}

	section, err := h.store.GetSection(c.Context(), id, user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch section")
	}

	switch section.Kind.MemberKind() {
	case models.MemberLink:
		links, err := h.store.ListSectionLinks(c.Context(), id)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "failed to fetch members")
		}
		if links == nil {
			links = []models.SectionLink{}
		}
		return jsonSuccess(c, links)
	case models.MemberPhoto:
		photos, err := h.store.ListSectionPhotos(c.Context(), id)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "failed to fetch members")
		}
		if photos == nil {
			photos = []models.SectionPhoto{}
		}
		return jsonSuccess(c, photos)
	}
	return jsonFailure(c, editor.ErrNoMembers, "")
}

// discard drops a draft that no longer matches the stored containers. A
// failure only means the user sees a stale draft until they discard it.
func (h *SectionHandler) discard(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) {
	if err := h.drafts.Discard(c.Context(), owner, ref); err != nil && !errors.Is(err, editor.ErrNoDraft) {
		h.log.Warn("failed to discard draft", zap.String("scope", string(ref.Scope)), zap.Error(err))
	}
}
