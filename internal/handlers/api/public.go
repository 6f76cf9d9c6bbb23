package api

import (
	"github.com/gofiber/fiber/v3"

	"linkpage/internal/metrics"
	"linkpage/internal/render"
	"linkpage/internal/validation"
)

// PublicHandler serves public pages as JSON. No authentication.
type PublicHandler struct {
	src render.Source
}

// NewPublicHandler creates a new API public page handler.
func NewPublicHandler(src render.Source) *PublicHandler {
	return &PublicHandler{src: src}
}

// Get returns the rendered page for :handle.
func (h *PublicHandler) Get(c fiber.Ctx) error {
	handle := validation.NormalizeHandle(c.Params("handle"))
	if !validation.ValidateHandle(handle) {
		return jsonError(c, fiber.StatusNotFound, render.ErrProfileNotFound.Error())
	}

	page, err := render.Build(c.Context(), h.src, handle)
	if err != nil {
		return jsonFailure(c, err, "failed to load page")
	}

	metrics.RecordPageView(page.UserID)
	return jsonSuccess(c, page)
}
