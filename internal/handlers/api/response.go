package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/db"
	"linkpage/internal/editor"
	"linkpage/internal/media"
	"linkpage/internal/models"
	"linkpage/internal/ordering"
	"linkpage/internal/render"
	"linkpage/internal/storage"
	"linkpage/internal/validation"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated returns a 201 response with data wrapped in the standard envelope.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// jsonFailure maps a domain error to a status code. Unknown errors are
// reported as 500 with fallback as the message.
func jsonFailure(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, db.ErrProfileNotFound),
		errors.Is(err, db.ErrSectionNotFound),
		errors.Is(err, db.ErrLinkNotFound),
		errors.Is(err, db.ErrPhotoNotFound),
		errors.Is(err, db.ErrTestimonialNotFound),
		errors.Is(err, render.ErrProfileNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, db.ErrHandleTaken):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, editor.ErrForeignOwner):
		return jsonError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, db.ErrMemberNotOwned),
		errors.Is(err, db.ErrNotMemberContainer),
		errors.Is(err, editor.ErrNoMembers),
		errors.Is(err, editor.ErrFixedMembers),
		errors.Is(err, editor.ErrScopeMismatch),
		errors.Is(err, editor.ErrInvalidScope),
		errors.Is(err, ordering.ErrNotPermutation),
		errors.Is(err, ordering.ErrIndexOutOfRange):
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		return jsonError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, storage.ErrUnsupported):
		return jsonError(c, fiber.StatusUnsupportedMediaType, err.Error())
	}
	return jsonError(c, fiber.StatusInternalServerError, fallback)
}

// decodeJSON unmarshals the request body into v.
func decodeJSON(c fiber.Ctx, v any) error {
	return json.Unmarshal(c.Body(), v)
}

// bind decodes and validates the request body. It returns a user-facing
// message when the body is unusable.
func bind(c fiber.Ctx, v any) string {
	if err := decodeJSON(c, v); err != nil {
		return "invalid request body"
	}
	if err := validation.Struct(v); err != nil {
		return err.Error()
	}
	return ""
}

// formUpload opens the multipart file field. The returned func closes it.
func formUpload(c fiber.Ctx, field string) (media.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return media.Upload{}, nil, fmt.Errorf("%s file is required", field)
	}
	f, err := fh.Open()
	if err != nil {
		return media.Upload{}, nil, fmt.Errorf("failed to read %s file", field)
	}
	upload := media.Upload{
		Body:        f,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
	}
	return upload, func() { f.Close() }, nil
}

// paramID parses a UUID route parameter.
func paramID(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func currentUser(c fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals("user").(*models.User)
	return user, ok && user != nil
}
