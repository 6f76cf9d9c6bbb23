package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpage/internal/models"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserBySub(_ context.Context, sub string) (*models.User, error) {
	if u, ok := f[sub]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func newTestApp(users fakeUsers) *fiber.App {
	app := fiber.New()
	sessionMiddleware, _ := session.NewWithStore()
	app.Use(sessionMiddleware)

	auth := NewAuthMiddleware(users)

	app.Post("/login-as/:sub", func(c fiber.Ctx) error {
		session.FromContext(c).Set(SessionUserSub, c.Params("sub"))
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/dashboard", auth.RequireAuth, func(c fiber.Ctx) error {
		return c.SendString(CurrentUser(c).Email)
	})
	app.Get("/api/me", auth.RequireAuth, func(c fiber.Ctx) error {
		return c.JSON(CurrentUser(c))
	})
	app.Get("/maybe", auth.OptionalAuth, func(c fiber.Ctx) error {
		if u := CurrentUser(c); u != nil {
			return c.SendString(u.Email)
		}
		return c.SendString("anonymous")
	})
	return app
}

func loginAs(t *testing.T, app *fiber.App, sub string) []*http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login-as/"+sub, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	return resp.Cookies()
}

func get(t *testing.T, app *fiber.App, path string, cookies []*http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestRequireAuth(t *testing.T) {
	users := fakeUsers{"sub-1": {ID: uuid.New(), Sub: "sub-1", Email: "owner@example.com"}}
	app := newTestApp(users)

	t.Run("anonymous page redirects to login", func(t *testing.T) {
		resp, _ := get(t, app, "/dashboard", nil)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("anonymous api gets 401 envelope", func(t *testing.T) {
		resp, body := get(t, app, "/api/me", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		var env map[string]string
		require.NoError(t, json.Unmarshal([]byte(body), &env))
		assert.Equal(t, "error", env["status"])
		assert.Equal(t, "unauthorized", env["error"])
	})

	t.Run("signed in", func(t *testing.T) {
		cookies := loginAs(t, app, "sub-1")
		resp, body := get(t, app, "/dashboard", cookies)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "owner@example.com", body)
	})

	t.Run("unknown subject is treated as anonymous", func(t *testing.T) {
		cookies := loginAs(t, app, "deleted")
		resp, _ := get(t, app, "/api/me", cookies)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestOptionalAuth(t *testing.T) {
	users := fakeUsers{"sub-1": {ID: uuid.New(), Sub: "sub-1", Email: "owner@example.com"}}
	app := newTestApp(users)

	_, body := get(t, app, "/maybe", nil)
	assert.Equal(t, "anonymous", body)

	_, body = get(t, app, "/maybe", loginAs(t, app, "sub-1"))
	assert.Equal(t, "owner@example.com", body)
}
