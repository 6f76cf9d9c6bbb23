package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/editor"
	"linkpage/internal/models"
	"linkpage/internal/ordering"
)

// DraftHandler exposes the draft editor for the section order and for
// the members of each section. Every route comes in two flavours that
// differ only in how the container is resolved.
type DraftHandler struct {
	editor *editor.Service
}

// NewDraftHandler creates a new API draft handler.
func NewDraftHandler(svc *editor.Service) *DraftHandler {
	return &DraftHandler{editor: svc}
}

// resolver picks the container a request edits.
type resolver func(c fiber.Ctx, user *models.User) (editor.ContainerRef, error)

// SectionOrder resolves to the user's own section list.
func (h *DraftHandler) SectionOrder(_ fiber.Ctx, user *models.User) (editor.ContainerRef, error) {
	return editor.SectionOrder(user.ID), nil
}

// SectionMembers resolves to the member list of the section in :id.
func (h *DraftHandler) SectionMembers(c fiber.Ctx, user *models.User) (editor.ContainerRef, error) {
	id, ok := paramID(c, "id")
	if !ok {
		return editor.ContainerRef{}, fiber.NewError(fiber.StatusBadRequest, "invalid section id")
	}
	return h.editor.RefForSection(c.Context(), user.ID, id)
}

// handle runs fn against the resolved container and reports failures in
// the API envelope.
func (h *DraftHandler) handle(resolve resolver, fn func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		user, ok := currentUser(c)
		if !ok {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
		}
		ref, err := resolve(c, user)
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return jsonError(c, fe.Code, fe.Message)
			}
			return jsonFailure(c, err, "failed to resolve draft")
		}
		return fn(c, user.ID, ref)
	}
}

func draftResponse(ref editor.ContainerRef, d *ordering.Draft) models.DraftResponse {
	return models.DraftResponse{
		Scope:       string(ref.Scope),
		ContainerID: ref.ID,
		Committed:   nonNil(d.Committed),
		Current:     nonNil(d.Current),
		Dirty:       d.Dirty,
	}
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func (h *DraftHandler) respond(c fiber.Ctx, ref editor.ContainerRef, d *ordering.Draft, err error) error {
	if err != nil {
		return jsonFailure(c, err, "failed to update draft")
	}
	return jsonSuccess(c, draftResponse(ref, d))
}

// Get returns the open draft, opening one from the stored order if needed.
func (h *DraftHandler) Get(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		d, err := h.editor.Get(c.Context(), owner, ref)
		return h.respond(c, ref, d, err)
	})
}

// Open restarts the draft from the stored order.
func (h *DraftHandler) Open(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		d, err := h.editor.Open(c.Context(), owner, ref)
		return h.respond(c, ref, d, err)
	})
}

type reorderRequest struct {
	Order []uuid.UUID `json:"order" validate:"required"`
}

// Reorder replaces the draft order with a permutation of its members.
func (h *DraftHandler) Reorder(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		var body reorderRequest
		if msg := bind(c, &body); msg != "" {
			return jsonError(c, fiber.StatusBadRequest, msg)
		}
		d, err := h.editor.Reorder(c.Context(), owner, ref, body.Order)
		return h.respond(c, ref, d, err)
	})
}

type moveRequest struct {
	From *int `json:"from" validate:"required"`
	To   *int `json:"to" validate:"required"`
}

// Move drags one member to a new index.
func (h *DraftHandler) Move(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		var body moveRequest
		if msg := bind(c, &body); msg != "" {
			return jsonError(c, fiber.StatusBadRequest, msg)
		}
		d, err := h.editor.Move(c.Context(), owner, ref, *body.From, *body.To)
		return h.respond(c, ref, d, err)
	})
}

type membersRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// Add appends members to the draft.
func (h *DraftHandler) Add(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		var body membersRequest
		if msg := bind(c, &body); msg != "" {
			return jsonError(c, fiber.StatusBadRequest, msg)
		}
		d, err := h.editor.Add(c.Context(), owner, ref, body.IDs)
		return h.respond(c, ref, d, err)
	})
}

// Remove drops members from the draft.
func (h *DraftHandler) Remove(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		var body membersRequest
		if msg := bind(c, &body); msg != "" {
			return jsonError(c, fiber.StatusBadRequest, msg)
		}
		d, err := h.editor.Remove(c.Context(), owner, ref, body.IDs)
		return h.respond(c, ref, d, err)
	})
}

// Commit saves the draft.
func (h *DraftHandler) Commit(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		result, err := h.editor.Commit(c.Context(), owner, ref)
		if err != nil {
			return jsonFailure(c, err, "failed to save changes")
		}
		return jsonSuccess(c, commitResponse(ref, result))
	})
}

// Discard drops the draft.
func (h *DraftHandler) Discard(resolve resolver) fiber.Handler {
	return h.handle(resolve, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		if err := h.editor.Discard(c.Context(), owner, ref); err != nil {
			return jsonFailure(c, err, "failed to discard draft")
		}
		return jsonSuccess(c, fiber.Map{"discarded": true})
	})
}

type replaceMembersRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// ReplaceMembers sets the exact members of a section in one request,
// bypassing the draft. An empty list empties the section.
func (h *DraftHandler) ReplaceMembers(c fiber.Ctx) error {
	return h.handle(h.SectionMembers, func(c fiber.Ctx, owner uuid.UUID, ref editor.ContainerRef) error {
		var body replaceMembersRequest
		if err := decodeJSON(c, &body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
		result, err := h.editor.Replace(c.Context(), owner, ref, body.IDs)
		if err != nil {
			return jsonFailure(c, err, "failed to save members")
		}
		return jsonSuccess(c, commitResponse(ref, result))
	})(c)
}

func commitResponse(ref editor.ContainerRef, result *editor.CommitResult) models.CommitResponse {
	return models.CommitResponse{
		DraftResponse: draftResponse(ref, result.Draft),
		Removed:       result.Removed,
		Added:         result.Added,
		Written:       result.Written,
	}
}
