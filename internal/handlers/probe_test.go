package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantDown   []string
	}{
		{"all healthy", map[string]Check{"database": ok, "storage": ok}, fiber.StatusOK, nil},
		{"database down", map[string]Check{"database": down, "storage": ok}, fiber.StatusServiceUnavailable, []string{"database"}},
		{"both down", map[string]Check{"storage": down, "database": down}, fiber.StatusServiceUnavailable, []string{"database", "storage"}},
		{"no checks", nil, fiber.StatusOK, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/readyz", NewProbeHandler(tt.checks).Readiness)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/readyz", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body struct {
				Unavailable []string `json:"unavailable"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantDown, body.Unavailable)
		})
	}
}
