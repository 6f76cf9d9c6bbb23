package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"linkpage/internal/ordering"
)

// ErrNoDraft is returned by DraftStore.Load when nothing is saved for a key.
var ErrNoDraft = errors.New("no draft open")

// DefaultDraftTTL bounds how long an abandoned draft is kept.
const DefaultDraftTTL = 24 * time.Hour

// DraftStore persists open drafts between requests.
type DraftStore interface {
	Load(ctx context.Context, owner uuid.UUID, ref ContainerRef) (*ordering.Draft, error)
	Save(ctx context.Context, owner uuid.UUID, ref ContainerRef, d *ordering.Draft) error
	Delete(ctx context.Context, owner uuid.UUID, ref ContainerRef) error
}

func draftKey(owner uuid.UUID, ref ContainerRef) string {
	return fmt.Sprintf("draft:%s:%s:%s", owner, ref.Scope, ref.ID)
}

// StorageDrafts keeps drafts as JSON in a Fiber storage backend. With
// Redis they survive restarts and are shared between instances; the
// in-memory backend expires them the same way but is per process.
type StorageDrafts struct {
	storage fiber.Storage
	ttl     time.Duration
}

// NewStorageDrafts wraps storage. A zero ttl uses DefaultDraftTTL.
func NewStorageDrafts(storage fiber.Storage, ttl time.Duration) *StorageDrafts {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &StorageDrafts{storage: storage, ttl: ttl}
}

func (s *StorageDrafts) Load(_ context.Context, owner uuid.UUID, ref ContainerRef) (*ordering.Draft, error) {
	raw, err := s.storage.Get(draftKey(owner, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoDraft
	}

	var d ordering.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &d, nil
}

func (s *StorageDrafts) Save(_ context.Context, owner uuid.UUID, ref ContainerRef, d *ordering.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.storage.Set(draftKey(owner, ref), raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *StorageDrafts) Delete(_ context.Context, owner uuid.UUID, ref ContainerRef) error {
	return s.storage.Delete(draftKey(owner, ref))
}
