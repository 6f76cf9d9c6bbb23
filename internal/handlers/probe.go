package handlers

import (
	"context"
	"slices"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/sync/errgroup"
)

// Check reports whether one dependency can serve traffic.
type Check func(ctx context.Context) error

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	checks map[string]Check
}

// NewProbeHandler creates a probe handler that runs checks on readiness.
func NewProbeHandler(checks map[string]Check) *ProbeHandler {
	return &ProbeHandler{checks: checks}
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness handles /readyz. Every check runs concurrently; the response
// names the ones that failed.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	slices.Sort(names)
	failed := make([]bool, len(names))

	var g errgroup.Group
	for i, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			failed[i] = check(c.Context()) != nil
			return nil
		})
	}
	_ = g.Wait()

	var down []string
	for i, name := range names {
		if failed[i] {
			down = append(down, name)
		}
	}
	if len(down) > 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":      "error",
			"error":       "dependencies unavailable",
			"unavailable": down,
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
