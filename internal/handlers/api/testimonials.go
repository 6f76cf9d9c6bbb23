package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/models"
)

// TestimonialStore is the testimonial side of the database.
type TestimonialStore interface {
	CreateTestimonial(ctx context.Context, t *models.Testimonial) error
	ListTestimonials(ctx context.Context, userID uuid.UUID) ([]models.Testimonial, error)
	UpdateTestimonial(ctx context.Context, t *models.Testimonial) error
	DeleteTestimonial(ctx context.Context, id, userID uuid.UUID) error
}

// TestimonialHandler handles the user's testimonials. They are shown by
// every testimonials section of the page.
type TestimonialHandler struct {
	store TestimonialStore
}

// NewTestimonialHandler creates a new API testimonial handler.
func NewTestimonialHandler(store TestimonialStore) *TestimonialHandler {
	return &TestimonialHandler{store: store}
}

type testimonialRequest struct {
	Author  string `json:"author" validate:"required,max=100"`
	Content string `json:"content" validate:"required,max=500"`
}

// List returns the user's testimonials, newest first.
func (h *TestimonialHandler) List(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.store.ListTestimonials(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch testimonials")
	}
	if items == nil {
		items = []models.Testimonial{}
	}
	return jsonSuccess(c, items)
}

// Create adds a testimonial.
func (h *TestimonialHandler) Create(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var body testimonialRequest
	if msg := bind(c, &body); msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	t := &models.Testimonial{UserID: user.ID, Author: body.Author, Content: body.Content}
	if err := h.store.CreateTestimonial(c.Context(), t); err != nil {
		return jsonFailure(c, err, "failed to create testimonial")
	}
	return jsonCreated(c, t)
}

// Update rewrites a testimonial.
func (h *TestimonialHandler) Update(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid testimonial id")
	}

	var body testimonialRequest
	if msg := bind(c, &body); msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	t := &models.Testimonial{ID: id, UserID: user.ID, Author: body.Author, Content: body.Content}
	if err := h.store.UpdateTestimonial(c.Context(), t); err != nil {
		return jsonFailure(c, err, "failed to update testimonial")
	}
	return jsonSuccess(c, t)
}

// Delete removes a testimonial.
func (h *TestimonialHandler) Delete(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid testimonial id")
	}

	if err := h.store.DeleteTestimonial(c.Context(), id, user.ID); err != nil {
		return jsonFailure(c, err, "failed to delete testimonial")
	}
	return jsonSuccess(c, fiber.Map{"deleted": id})
}
