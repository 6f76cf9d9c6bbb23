package api

import (
	"context"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpage/internal/config"
	"linkpage/internal/db"
	"linkpage/internal/models"
)

type fakeLinks struct {
	mu       sync.Mutex
	links    map[uuid.UUID]*models.Link
	sections map[uuid.UUID][]uuid.UUID
	owned    map[uuid.UUID]bool
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{
		links:    map[uuid.UUID]*models.Link{},
		sections: map[uuid.UUID][]uuid.UUID{},
		owned:    map[uuid.UUID]bool{},
	}
}

func (f *fakeLinks) checkSections(ids []uuid.UUID) error {
	for _, id := range ids {
		if !f.owned[id] {
			return db.ErrSectionNotFound
		}
	}
	return nil
}

func (f *fakeLinks) CreateLink(_ context.Context, l *models.Link, sectionIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkSections(sectionIDs); err != nil {
		return err
	}
	l.ID = uuid.New()
	copied := *l
	f.links[l.ID] = &copied
	f.sections[l.ID] = sectionIDs
	return nil
}

func (f *fakeLinks) GetLink(_ context.Context, id, userID uuid.UUID) (*models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok || l.UserID != userID {
		return nil, db.ErrLinkNotFound
	}
	copied := *l
	return &copied, nil
}

func (f *fakeLinks) ListLinks(_ context.Context, userID uuid.UUID) ([]models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Link
	for _, l := range f.links {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLinks) UpdateLink(_ context.Context, l *models.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *l
	f.links[l.ID] = &copied
	return nil
}

func (f *fakeLinks) DeleteLink(_ context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok || l.UserID != userID {
		return db.ErrLinkNotFound
	}
	delete(f.links, id)
	delete(f.sections, id)
	return nil
}

func (f *fakeLinks) ListLinkSectionIDs(_ context.Context, linkID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sections[linkID], nil
}

func (f *fakeLinks) SetLinkSections(_ context.Context, linkID, userID uuid.UUID, sectionIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.links[linkID]; !ok || l.UserID != userID {
		return db.ErrLinkNotFound
	}
	if err := f.checkSections(sectionIDs); err != nil {
		return err
	}
	f.sections[linkID] = sectionIDs
	return nil
}

func newLinksApp(t *testing.T) (*testApp, *fakeLinks) {
	t.Helper()

	store := newFakeLinks()
	user := &models.User{ID: uuid.New(), Sub: "sub-links"}
	h := NewLinkHandler(store, config.Defaults())

	app := fiber.New()
	a := app.Group("/api", func(c fiber.Ctx) error {
		c.Locals("user", user)
		return c.Next()
	})
	a.Get("/links", h.List)
	a.Post("/links", h.Create)
	a.Get("/links/:id", h.Get)
	a.Put("/links/:id", h.Update)
	a.Put("/links/:id/sections", h.SetSections)
	a.Delete("/links/:id", h.Delete)

	return &testApp{app: app, user: user}, store
}

func TestLinks_CreateAppliesDefaultColours(t *testing.T) {
	ta, store := newLinksApp(t)
	section := uuid.New()
	store.owned[section] = true

	status, env := ta.do(t, fiber.MethodPost, "/api/links", map[string]any{
		"title":       "Menu",
		"url":         "https://example.com/menu",
		"section_ids": []uuid.UUID{section},
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	created := decodeData[struct {
		models.Link
		SectionIDs []uuid.UUID `json:"section_ids"`
	}](t, env)
	assert.True(t, created.IsActive)
	assert.Equal(t, "#ffffff", created.TextColor)
	assert.Equal(t, "#111827", created.BackgroundColor)
	assert.Equal(t, []uuid.UUID{section}, created.SectionIDs)

	status, env = ta.do(t, fiber.MethodGet, "/api/links/"+created.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, status)
	got := decodeData[struct {
		Title      string      `json:"title"`
		SectionIDs []uuid.UUID `json:"section_ids"`
	}](t, env)
	assert.Equal(t, "Menu", got.Title)
	assert.Equal(t, []uuid.UUID{section}, got.SectionIDs)
}

func TestLinks_CreateRejects(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing title", map[string]any{"url": "https://example.com"}, fiber.StatusBadRequest},
		{"unsafe url", map[string]any{"title": "x", "url": "javascript:alert(1)"}, fiber.StatusBadRequest},
		{"bad colour", map[string]any{"title": "x", "url": "https://example.com", "text_color": "red"}, fiber.StatusBadRequest},
		{"unknown section", map[string]any{"title": "x", "url": "https://example.com", "section_ids": []uuid.UUID{uuid.New()}}, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta, _ := newLinksApp(t)
			status, env := ta.do(t, fiber.MethodPost, "/api/links", tt.body)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestLinks_UpdateKeepsSectionsUnlessGiven(t *testing.T) {
	ta, store := newLinksApp(t)
	section := uuid.New()
	store.owned[section] = true

	link := &models.Link{UserID: ta.user.ID, Title: "Old", URL: "https://example.com", IsActive: true}
	require.NoError(t, store.CreateLink(context.Background(), link, []uuid.UUID{section}))

	status, _ := ta.do(t, fiber.MethodPut, "/api/links/"+link.ID.String(), map[string]any{
		"title":     "New",
		"url":       "https://example.com/new",
		"is_active": false,
	})
	require.Equal(t, fiber.StatusOK, status)

	stored := store.links[link.ID]
	assert.Equal(t, "New", stored.Title)
	assert.False(t, stored.IsActive)
	assert.Equal(t, []uuid.UUID{section}, store.sections[link.ID])

	status, _ = ta.do(t, fiber.MethodPut, "/api/links/"+link.ID.String()+"/sections", map[string]any{
		"section_ids": []uuid.UUID{},
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, store.sections[link.ID])
}

func TestLinks_ForeignLinkIsNotFound(t *testing.T) {
	ta, store := newLinksApp(t)

	other := &models.Link{UserID: uuid.New(), Title: "Theirs", URL: "https://example.com"}
	require.NoError(t, store.CreateLink(context.Background(), other, nil))

	status, _ := ta.do(t, fiber.MethodGet, "/api/links/"+other.ID.String(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = ta.do(t, fiber.MethodDelete, "/api/links/"+other.ID.String(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, store.links, other.ID)

	status, _ = ta.do(t, fiber.MethodGet, "/api/links/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
