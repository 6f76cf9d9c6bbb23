package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/config"
	"linkpage/internal/models"
)

// LinkStore is the link side of the database.
type LinkStore interface {
	CreateLink(ctx context.Context, link *models.Link, sectionIDs []uuid.UUID) error
	GetLink(ctx context.Context, id, userID uuid.UUID) (*models.Link, error)
	ListLinks(ctx context.Context, userID uuid.UUID) ([]models.Link, error)
	UpdateLink(ctx context.Context, link *models.Link) error
	DeleteLink(ctx context.Context, id, userID uuid.UUID) error
	ListLinkSectionIDs(ctx context.Context, linkID uuid.UUID) ([]uuid.UUID, error)
	SetLinkSections(ctx context.Context, linkID, userID uuid.UUID, sectionIDs []uuid.UUID) error
}

// LinkHandler handles link CRUD operations via JSON API.
type LinkHandler struct {
	store LinkStore
	site  *config.YAMLConfig
}

// NewLinkHandler creates a new API link handler.
func NewLinkHandler(store LinkStore, site *config.YAMLConfig) *LinkHandler {
	return &LinkHandler{store: store, site: site}
}

// linkWithSections is a link plus the sections showing it.
type linkWithSections struct {
	*models.Link
	SectionIDs []uuid.UUID `json:"section_ids"`
}

// List returns the user's link library.
func (h *LinkHandler) List(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	links, err := h.store.ListLinks(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch links")
	}
	if links == nil {
		links = []models.Link{}
	}
	return jsonSuccess(c, links)
}

// Get returns a single link with its section assignments.
func (h *LinkHandler) Get(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid link id")
	}

	link, err := h.store.GetLink(c.Context(), id, user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch link")
	}
	sectionIDs, err := h.store.ListLinkSectionIDs(c.Context(), id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch link sections")
	}
	return jsonSuccess(c, linkWithSections{Link: link, SectionIDs: nonNil(sectionIDs)})
}

type linkRequest struct {
	Title           string      `json:"title" validate:"required,max=100"`
	URL             string      `json:"url" validate:"required,weburl"`
	IsActive        *bool       `json:"is_active"`
	TextColor       string      `json:"text_color" validate:"omitempty,color"`
	BackgroundColor string      `json:"background_color" validate:"omitempty,color"`
	SectionIDs      []uuid.UUID `json:"section_ids"`
}

func (h *LinkHandler) applyDefaults(body *linkRequest) {
	if body.TextColor == "" {
		body.TextColor = h.site.Defaults.LinkTextColor
	}
	if body.BackgroundColor == "" {
		body.BackgroundColor = h.site.Defaults.LinkBackgroundColor
	}
}

// Create adds a link to the library and appends it to the given sections.
func (h *LinkHandler) Create(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var body linkRequest
	if msg := bind(c, &body); msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}
	h.applyDefaults(&body)

	link := &models.Link{
		UserID:          user.ID,
		Title:           body.Title,
		URL:             body.URL,
		IsActive:        body.IsActive == nil || *body.IsActive,
		TextColor:       body.TextColor,
		BackgroundColor: body.BackgroundColor,
	}
	if err := h.store.CreateLink(c.Context(), link, body.SectionIDs); err != nil {
		return jsonFailure(c, err, "failed to create link")
	}
	return jsonCreated(c, linkWithSections{Link: link, SectionIDs: nonNil(body.SectionIDs)})
}

// Update replaces the editable fields of a link. Section assignments are
// changed only when section_ids is present.
func (h *LinkHandler) Update(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid link id")
	}

	var body linkRequest
	if msg := bind(c, &body); msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}
	h.applyDefaults(&body)

	link, err := h.store.GetLink(c.Context(), id, user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch link")
	}
	link.Title = body.Title
	link.URL = body.URL
	if body.IsActive != nil {
		link.IsActive = *body.IsActive
	}
	link.TextColor = body.TextColor
	link.BackgroundColor = body.BackgroundColor

	if err := h.store.UpdateLink(c.Context(), link); err != nil {
		return jsonFailure(c, err, "failed to update link")
	}
	if body.SectionIDs != nil {
		if err := h.store.SetLinkSections(c.Context(), id, user.ID, body.SectionIDs); err != nil {
			return jsonFailure(c, err, "failed to update link sections")
		}
	}
	return jsonSuccess(c, link)
}

type linkSectionsRequest struct {
	SectionIDs []uuid.UUID `json:"section_ids"`
}

// SetSections makes section_ids the exact set of sections showing the link.
func (h *LinkHandler) SetSections(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid link id")
	}

	var body linkSectionsRequest
	if err := decodeJSON(c, &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.store.SetLinkSections(c.Context(), id, user.ID, body.SectionIDs); err != nil {
		return jsonFailure(c, err, "failed to update link sections")
	}
	return jsonSuccess(c, fiber.Map{"id": id, "section_ids": nonNil(body.SectionIDs)})
}

// Delete removes a link from the library and from every section.
func (h *LinkHandler) Delete(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid link id")
	}

	if err := h.store.DeleteLink(c.Context(), id, user.ID); err != nil {
		return jsonFailure(c, err, "failed to delete link")
	}
	return jsonSuccess(c, fiber.Map{"deleted": id})
}
