package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/config"
	"linkpage/internal/media"
	"linkpage/internal/models"
	"linkpage/internal/validation"
)

// ProfileStore is the profile side of the database.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
	IsHandleAvailable(ctx context.Context, handle string, userID uuid.UUID) (bool, error)
}

// ProfileHandler handles the signed-in user's profile.
type ProfileHandler struct {
	store ProfileStore
	media *media.Service
	site  *config.YAMLConfig
}

// NewProfileHandler creates a new API profile handler.
func NewProfileHandler(store ProfileStore, mediaService *media.Service, site *config.YAMLConfig) *ProfileHandler {
	return &ProfileHandler{store: store, media: mediaService, site: site}
}

// Get returns the current user's profile.
func (h *ProfileHandler) Get(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := h.store.GetProfile(c.Context(), user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch profile")
	}
	return jsonSuccess(c, profile)
}

type updateProfileRequest struct {
	Handle             *string `json:"handle" validate:"omitempty,handle"`
	FirstName          string  `json:"first_name" validate:"max=100"`
	LastName           string  `json:"last_name" validate:"max=100"`
	Bio                string  `json:"bio" validate:"max=160"`
	StoreHours         string  `json:"store_hours" validate:"max=255"`
	Address            string  `json:"address" validate:"max=255"`
	SalesPitch         string  `json:"sales_pitch" validate:"max=500"`
	VisibleInDirectory bool    `json:"visible_in_directory"`
}

// Update replaces the editable profile fields. An empty handle releases
// the current one.
func (h *ProfileHandler) Update(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var body updateProfileRequest
	if err := decodeJSON(c, &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Handle != nil {
		normalized := validation.NormalizeHandle(*body.Handle)
		if normalized == "" {
			body.Handle = nil
		} else {
			body.Handle = &normalized
		}
	}
	if err := validation.Struct(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if body.Handle != nil && h.site.IsReservedHandle(*body.Handle) {
		return jsonError(c, fiber.StatusConflict, "handle is reserved")
	}

	profile, err := h.store.GetProfile(c.Context(), user.ID)
	if err != nil {
		return jsonFailure(c, err, "failed to fetch profile")
	}
	profile.Handle = body.Handle
	profile.FirstName = body.FirstName
	profile.LastName = body.LastName
	profile.Bio = body.Bio
	profile.StoreHours = body.StoreHours
	profile.Address = body.Address
	profile.SalesPitch = body.SalesPitch
	profile.VisibleInDirectory = body.VisibleInDirectory

	if err := h.store.UpdateProfile(c.Context(), profile); err != nil {
		return jsonFailure(c, err, "failed to update profile")
	}
	return jsonSuccess(c, profile)
}

// CheckHandle reports whether a handle is well formed and free for the
// current user to claim.
func (h *ProfileHandler) CheckHandle(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handle := validation.NormalizeHandle(c.Query("handle"))
	resp := models.HandleCheckResponse{Handle: handle}
	if !validation.ValidateHandle(handle) || h.site.IsReservedHandle(handle) {
		return jsonSuccess(c, resp)
	}
	resp.Valid = true

	available, err := h.store.IsHandleAvailable(c.Context(), handle, user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to check handle")
	}
	resp.Available = available
	return jsonSuccess(c, resp)
}

// UploadAvatar replaces the avatar with the multipart file "avatar".
func (h *ProfileHandler) UploadAvatar(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	upload, closeFn, err := formUpload(c, "avatar")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	defer closeFn()

	url, err := h.media.ReplaceAvatar(c.Context(), user.ID, upload)
	if err != nil {
		return jsonFailure(c, err, "failed to upload avatar")
	}
	return jsonSuccess(c, fiber.Map{"avatar_url": url})
}

// DeleteAvatar removes the avatar.
func (h *ProfileHandler) DeleteAvatar(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.media.RemoveAvatar(c.Context(), user.ID); err != nil {
		return jsonFailure(c, err, "failed to remove avatar")
	}
	return jsonSuccess(c, fiber.Map{"avatar_url": nil})
}
