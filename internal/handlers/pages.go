package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/config"
	"linkpage/internal/metrics"
	"linkpage/internal/models"
	"linkpage/internal/render"
	"linkpage/internal/validation"
)

// PageSource is what the HTML pages read.
type PageSource interface {
	render.Source
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListDirectory(ctx context.Context, query string, limit int) ([]models.Profile, error)
}

// PageHandler renders the landing page, the directory and public pages.
type PageHandler struct {
	src  PageSource
	cfg  *config.Config
	site *config.YAMLConfig
}

// NewPageHandler creates a new page handler.
func NewPageHandler(src PageSource, cfg *config.Config, site *config.YAMLConfig) *PageHandler {
	return &PageHandler{src: src, cfg: cfg, site: site}
}

// Index renders the landing page. Signed-in users see a link to their
// own page.
func (h *PageHandler) Index(c fiber.Ctx) error {
	data := fiber.Map{"Title": h.cfg.SiteTitle}
	if user, ok := c.Locals("user").(*models.User); ok {
		if profile, err := h.src.GetProfile(c.Context(), user.ID); err == nil {
			data["Profile"] = profile
		}
	}
	return renderPage(c, h.cfg, "index", data)
}

// Login renders the sign-in page.
func (h *PageHandler) Login(c fiber.Ctx) error {
	if _, ok := c.Locals("user").(*models.User); ok {
		return c.Redirect().To("/")
	}
	return renderPage(c, h.cfg, "login", fiber.Map{"Title": "Sign in"})
}

// Directory lists profiles that opted in, filtered by ?q=.
func (h *PageHandler) Directory(c fiber.Ctx) error {
	query := c.Query("q")
	profiles, err := h.src.ListDirectory(c.Context(), query, h.site.Defaults.DirectoryPageSize)
	if err != nil {
		return err
	}
	return renderPage(c, h.cfg, "directory", fiber.Map{
		"Title":    "Directory",
		"Query":    query,
		"Profiles": profiles,
	})
}

// Public renders the page at /p/:handle.
func (h *PageHandler) Public(c fiber.Ctx) error {
	handle := validation.NormalizeHandle(c.Params("handle"))
	if !validation.ValidateHandle(handle) {
		return fiber.NewError(fiber.StatusNotFound, "Page not found")
	}

	page, err := render.Build(c.Context(), h.src, handle)
	if errors.Is(err, render.ErrProfileNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Page not found")
	}
	if err != nil {
		return err
	}

	metrics.RecordPageView(page.UserID)
	return renderPage(c, h.cfg, "public", fiber.Map{
		"Title": page.Profile.FullName,
		"Page":  page,
	})
}
