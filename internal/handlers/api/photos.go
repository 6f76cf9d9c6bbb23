package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/media"
	"linkpage/internal/models"
)

// PhotoStore is the photo side of the database.
type PhotoStore interface {
	CreatePhoto(ctx context.Context, p *models.Photo) error
	GetPhoto(ctx context.Context, id, userID uuid.UUID) (*models.Photo, error)
	ListPhotos(ctx context.Context, userID uuid.UUID) ([]models.Photo, error)
	UpdatePhotoCaption(ctx context.Context, id, userID uuid.UUID, caption string) error
}

// PhotoHandler handles the user's photo library.
type PhotoHandler struct {
	store PhotoStore
	media *media.Service
}

// NewPhotoHandler creates a new API photo handler.
func NewPhotoHandler(store PhotoStore, mediaService *media.Service) *PhotoHandler {
	return &PhotoHandler{store: store, media: mediaService}
}

// List returns the user's photos, newest first.
func (h *PhotoHandler) List(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	photos, err := h.store.ListPhotos(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch photos")
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return jsonSuccess(c, photos)
}

// Upload stores the multipart file "photo" with an optional "caption".
func (h *PhotoHandler) Upload(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	caption := c.FormValue("caption")
	if len(caption) > 100 {
		return jsonError(c, fiber.StatusBadRequest, "caption must be at most 100 characters")
	}

	upload, closeFn, err := formUpload(c, "photo")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	defer closeFn()

	photo, err := h.media.UploadPhoto(c.Context(), user.ID, upload, caption)
	if err != nil {
		return jsonFailure(c, err, "failed to upload photo")
	}
	return jsonCreated(c, photo)
}

type createPhotoRequest struct {
	URL     string `json:"url" validate:"required,weburl"`
	Caption string `json:"caption" validate:"max=100"`
}

// Create adds a photo hosted elsewhere by URL.
func (h *PhotoHandler) Create(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var body createPhotoRequest
	if msg := bind(c, &body); msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	photo := &models.Photo{UserID: user.ID, URL: body.URL, Caption: body.Caption}
	if err := h.store.CreatePhoto(c.Context(), photo); err != nil {
		return jsonFailure(c, err, "failed to create photo")
	}
	return jsonCreated(c, photo)
}

type captionRequest struct {
	Caption string `json:"caption" validate:"max=100"`
}

// UpdateCaption changes a photo's caption.
func (h *PhotoHandler) UpdateCaption(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid photo id")
	}

	var body captionRequest
	if msg := bind(c, &body); msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}
	if err := h.store.UpdatePhotoCaption(c.Context(), id, user.ID, body.Caption); err != nil {
		return jsonFailure(c, err, "failed to update photo")
	}

	photo, err := h.store.GetPhoto(c.Context(), id, user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch photo")
	}
	return jsonSuccess(c, photo)
}

// Delete removes a photo from the library, from every section and from
// storage.
func (h *PhotoHandler) Delete(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid photo id")
	}

	if err := h.media.DeletePhoto(c.Context(), id, user.ID); err != nil {
		return jsonFailure(c, err, "failed to delete photo")
	}
	return jsonSuccess(c, fiber.Map{"deleted": id})
}
