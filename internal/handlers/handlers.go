// Package handlers serves the HTML pages: the landing page, the public
// directory, public profile pages and the sign-in flow.
package handlers

import (
	"github.com/gofiber/fiber/v3"

	"linkpage/internal/config"
	"linkpage/internal/models"
)

// renderPage renders a template with branding and the signed-in user
// added to data.
func renderPage(c fiber.Ctx, cfg *config.Config, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if user, ok := c.Locals("user").(*models.User); ok {
		data["User"] = user
	}
	return c.Render(name, MergeBranding(data, cfg))
}
