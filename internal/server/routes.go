package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkpage/internal/config"
	"linkpage/internal/db"
	"linkpage/internal/editor"
	"linkpage/internal/handlers"
	"linkpage/internal/handlers/api"
	"linkpage/internal/media"
	"linkpage/internal/middleware"
)

// Deps are the services the routes are served from.
type Deps struct {
	DB     *db.DB
	Site   *config.YAMLConfig
	Editor *editor.Service
	Media  *media.Service
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	// OIDC is the only way to sign in.
	if s.Cfg.OIDCIssuer == "" {
		return errors.New("OIDC_ISSUER is required")
	}

	authMiddleware := middleware.NewAuthMiddleware(deps.DB)

	authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, deps.DB, s.log)
	if err != nil {
		return err
	}
	pageHandler := handlers.NewPageHandler(deps.DB, s.Cfg, deps.Site)
	probeHandler := handlers.NewProbeHandler(s.readinessChecks(deps.DB))

	profileHandler := api.NewProfileHandler(deps.DB, deps.Media, deps.Site)
	sectionHandler := api.NewSectionHandler(deps.DB, deps.Editor, deps.Site, s.log)
	draftHandler := api.NewDraftHandler(deps.Editor)
	linkHandler := api.NewLinkHandler(deps.DB, deps.Site)
	photoHandler := api.NewPhotoHandler(deps.DB, deps.Media)
	testimonialHandler := api.NewTestimonialHandler(deps.DB)
	publicHandler := api.NewPublicHandler(deps.DB)

	// Probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	s.App.Get("/auth/login", authHandler.Login)
	s.App.Get("/auth/callback", authHandler.Callback)
	s.App.Get("/auth/logout", authHandler.Logout)

	// Pages
	s.App.Get("/", authMiddleware.OptionalAuth, pageHandler.Index)
	s.App.Get("/login", authMiddleware.OptionalAuth, pageHandler.Login)
	s.App.Get("/directory", authMiddleware.OptionalAuth, pageHandler.Directory)
	s.App.Get("/p/:handle", authMiddleware.OptionalAuth, pageHandler.Public)

	// Public JSON view of a page
	s.App.Get("/api/public/:handle", publicHandler.Get)

	a := s.App.Group("/api", authMiddleware.RequireAuth)

	// Profile
	a.Get("/profile", profileHandler.Get)
	a.Put("/profile", profileHandler.Update)
	a.Get("/profile/handle-check", profileHandler.CheckHandle)
	a.Post("/profile/avatar", profileHandler.UploadAvatar)
	a.Delete("/profile/avatar", profileHandler.DeleteAvatar)

	// Sections
	a.Get("/sections/catalog", sectionHandler.Catalog)
	a.Get("/sections", sectionHandler.List)
	a.Post("/sections", sectionHandler.Create)
	a.Patch("/sections/:id", sectionHandler.Update)
	a.Delete("/sections/:id", sectionHandler.Delete)
	a.Get("/sections/:id/members", sectionHandler.Members)
	a.Put("/sections/:id/members", draftHandler.ReplaceMembers)

	// Section order draft
	order := draftHandler.SectionOrder
	a.Get("/section-order/draft", draftHandler.Get(order))
	a.Post("/section-order/draft", draftHandler.Open(order))
	a.Put("/section-order/draft", draftHandler.Reorder(order))
	a.Post("/section-order/draft/move", draftHandler.Move(order))
	a.Post("/section-order/draft/commit", draftHandler.Commit(order))
	a.Delete("/section-order/draft", draftHandler.Discard(order))

	// Section member drafts
	members := draftHandler.SectionMembers
	a.Get("/sections/:id/draft", draftHandler.Get(members))
	a.Post("/sections/:id/draft", draftHandler.Open(members))
	a.Put("/sections/:id/draft", draftHandler.Reorder(members))
	a.Post("/sections/:id/draft/move", draftHandler.Move(members))
	a.Post("/sections/:id/draft/add", draftHandler.Add(members))
	a.Post("/sections/:id/draft/remove", draftHandler.Remove(members))
	a.Post("/sections/:id/draft/commit", draftHandler.Commit(members))
	a.Delete("/sections/:id/draft", draftHandler.Discard(members))

	// Links
	a.Get("/links", linkHandler.List)
	a.Post("/links", linkHandler.Create)
	a.Get("/links/:id", linkHandler.Get)
	a.Put("/links/:id", linkHandler.Update)
	a.Put("/links/:id/sections", linkHandler.SetSections)
	a.Delete("/links/:id", linkHandler.Delete)

	// Photos
	a.Get("/photos", photoHandler.List)
	a.Post("/photos", photoHandler.Create)
	a.Post("/photos/upload", photoHandler.Upload)
	a.Put("/photos/:id", photoHandler.UpdateCaption)
	a.Delete("/photos/:id", photoHandler.Delete)

	// Testimonials
	a.Get("/testimonials", testimonialHandler.List)
	a.Post("/testimonials", testimonialHandler.Create)
	a.Put("/testimonials/:id", testimonialHandler.Update)
	a.Delete("/testimonials/:id", testimonialHandler.Delete)

	return nil
}

// readinessChecks lists the dependencies /readyz waits on.
func (s *Server) readinessChecks(database *db.DB) map[string]handlers.Check {
	checks := map[string]handlers.Check{
		"database": database.Ping,
	}
	if s.Cfg.RedisURL != "" {
		store := s.Storage
		checks["redis"] = func(context.Context) error {
			_, err := store.Get("readyz")
			return err
		}
	}
	return checks
}
