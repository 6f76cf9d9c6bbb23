// Package editor manages the unsaved order of sections and of the links
// and photos inside them. Each owner has at most one open draft per
// container; a commit reconciles the draft with the database in a single
// transaction.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkpage/internal/metrics"
	"linkpage/internal/models"
	"linkpage/internal/ordering"
)

// Scope names the kind of container a draft orders.
type Scope string

const (
	// ScopeSectionOrder orders an owner's sections; the container ID is
	// the owner's user ID.
	ScopeSectionOrder  Scope = "section-order"
	ScopeSectionLinks  Scope = "section-links"
	ScopeSectionPhotos Scope = "section-photos"
)

var (
	ErrNoMembers     = errors.New("section kind has no members to order")
	ErrFixedMembers  = errors.New("sections are added and removed directly, not through a draft")
	ErrScopeMismatch = errors.New("draft scope does not match the section kind")
	ErrInvalidScope  = errors.New("invalid draft scope")
	ErrForeignOwner  = errors.New("section order belongs to another user")
)

// ContainerRef identifies one ordered container.
type ContainerRef struct {
	Scope Scope     `json:"scope"`
	ID    uuid.UUID `json:"id"`
}

// SectionOrder is the ref of an owner's section list.
func SectionOrder(owner uuid.UUID) ContainerRef {
	return ContainerRef{Scope: ScopeSectionOrder, ID: owner}
}

// Adding a section kind must update scopeForKind.
var _ = [1]struct{}{}[models.SectionKindCount-7]

// scopeForKind selects the draft scope for a section's members.
func scopeForKind(kind models.SectionKind) (Scope, error) {
	switch kind {
	case models.KindLinks:
		return ScopeSectionLinks, nil
	case models.KindPhotoSlider, models.KindPhotoGrid:
		return ScopeSectionPhotos, nil
	case models.KindTestimonials, models.KindVideo, models.KindMap, models.KindInfoCard:
		return "", ErrNoMembers
	}
	return "", fmt.Errorf("unknown section kind %v", kind)
}

// Store is the persisted side of a draft.
type Store interface {
	GetSection(ctx context.Context, id, userID uuid.UUID) (*models.Section, error)
	ListSectionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListMembers(ctx context.Context, sectionID uuid.UUID) ([]uuid.UUID, error)
	CommitSectionOrder(ctx context.Context, userID uuid.UUID, order []uuid.UUID) error
	CommitMembership(ctx context.Context, sectionID, userID uuid.UUID, plan ordering.Plan) error
}

// CommitResult describes what a commit wrote.
type CommitResult struct {
	Draft   *ordering.Draft
	Removed int
	Added   int
	// Written is false when the draft had no changes and nothing was sent
	// to the store.
	Written bool
}

// Service opens, edits and commits drafts.
type Service struct {
	store  Store
	drafts DraftStore
	log    *zap.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock is held by every in-flight operation on one draft key. The
// entry is dropped when the last holder releases it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a draft service. A nil logger disables logging.
func NewService(store Store, drafts DraftStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		drafts: drafts,
		log:    log.Named("editor"),
		locks:  make(map[string]*keyLock),
	}
}

// lock serialises operations on one draft within this process. Instances
// sharing a Redis draft store are not serialised against each other.
func (s *Service) lock(owner uuid.UUID, ref ContainerRef) func() {
	key := draftKey(owner, ref)

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// RefForSection returns the member draft ref of a section owned by owner.
func (s *Service) RefForSection(ctx context.Context, owner, sectionID uuid.UUID) (ContainerRef, error) {
	section, err := s.store.GetSection(ctx, sectionID, owner)
	if err != nil {
		return ContainerRef{}, err
	}
	return MemberRef(section)
}

// MemberRef is the ref of a section's member list. It fails with
// ErrNoMembers for kinds without members.
func MemberRef(section *models.Section) (ContainerRef, error) {
	scope, err := scopeForKind(section.Kind)
	if err != nil {
		return ContainerRef{}, err
	}
	return ContainerRef{Scope: scope, ID: section.ID}, nil
}

// committed loads the stored order of a container, checking that owner
// may edit it.
func (s *Service) committed(ctx context.Context, owner uuid.UUID, ref ContainerRef) ([]uuid.UUID, error) {
	switch ref.Scope {
	case ScopeSectionOrder:
		if ref.ID != owner {
			return nil, ErrForeignOwner
		}
		return s.store.ListSectionIDs(ctx, owner)
	case ScopeSectionLinks, ScopeSectionPhotos:
		actual, err := s.RefForSection(ctx, owner, ref.ID)
		if err != nil {
			return nil, err
		}
		if actual.Scope != ref.Scope {
			return nil, ErrScopeMismatch
		}
		return s.store.ListMembers(ctx, ref.ID)
	}
	return nil, ErrInvalidScope
}

// Open starts a fresh draft from the stored order, replacing any draft
// already open for ref.
func (s *Service) Open(ctx context.Context, owner uuid.UUID, ref ContainerRef) (*ordering.Draft, error) {
	defer s.lock(owner, ref)()
	return s.open(ctx, owner, ref)
}

func (s *Service) open(ctx context.Context, owner uuid.UUID, ref ContainerRef) (*ordering.Draft, error) {
	ids, err := s.committed(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	d := ordering.NewDraft(ids)
	if err := s.drafts.Save(ctx, owner, ref, d); err != nil {
		return nil, err
	}
	return d, nil
}

// load returns the open draft, opening one if none exists.
func (s *Service) load(ctx context.Context, owner uuid.UUID, ref ContainerRef) (*ordering.Draft, error) {
	d, err := s.drafts.Load(ctx, owner, ref)
	if errors.Is(err, ErrNoDraft) {
		return s.open(ctx, owner, ref)
	}
	return d, err
}

// Get returns the open draft for ref.
func (s *Service) Get(ctx context.Context, owner uuid.UUID, ref ContainerRef) (*ordering.Draft, error) {
	defer s.lock(owner, ref)()
	return s.load(ctx, owner, ref)
}

// mutate applies fn to the open draft and saves the result.
func (s *Service) mutate(ctx context.Context, owner uuid.UUID, ref ContainerRef, fn func(*ordering.Draft) error) (*ordering.Draft, error) {
	defer s.lock(owner, ref)()

	d, err := s.load(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, owner, ref, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Reorder sets the draft order. ids must be a permutation of the draft's
// members.
func (s *Service) Reorder(ctx context.Context, owner uuid.UUID, ref ContainerRef, ids []uuid.UUID) (*ordering.Draft, error) {
	return s.mutate(ctx, owner, ref, func(d *ordering.Draft) error {
		return d.Reorder(ids)
	})
}

// Move drags one member from index from to index to.
func (s *Service) Move(ctx context.Context, owner uuid.UUID, ref ContainerRef, from, to int) (*ordering.Draft, error) {
	return s.mutate(ctx, owner, ref, func(d *ordering.Draft) error {
		return d.Move(from, to)
	})
}

// Add appends members to the draft. Members already present are ignored.
func (s *Service) Add(ctx context.Context, owner uuid.UUID, ref ContainerRef, ids []uuid.UUID) (*ordering.Draft, error) {
	if ref.Scope == ScopeSectionOrder {
		return nil, ErrFixedMembers
	}
	return s.mutate(ctx, owner, ref, func(d *ordering.Draft) error {
		d.Add(ids...)
		return nil
	})
}

// Remove drops members from the draft. Absent members are ignored.
func (s *Service) Remove(ctx context.Context, owner uuid.UUID, ref ContainerRef, ids []uuid.UUID) (*ordering.Draft, error) {
	if ref.Scope == ScopeSectionOrder {
		return nil, ErrFixedMembers
	}
	return s.mutate(ctx, owner, ref, func(d *ordering.Draft) error {
		d.Remove(ids...)
		return nil
	})
}

// Commit writes the draft to the store. A clean draft is not written.
// When the store fails the draft is left dirty and unchanged so the
// caller can retry.
func (s *Service) Commit(ctx context.Context, owner uuid.UUID, ref ContainerRef) (*CommitResult, error) {
	defer s.lock(owner, ref)()

	d, err := s.load(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, owner, ref, d)
}

func (s *Service) commit(ctx context.Context, owner uuid.UUID, ref ContainerRef, d *ordering.Draft) (*CommitResult, error) {
	if !d.Dirty {
		metrics.ObserveCommit(string(ref.Scope), metrics.OutcomeNoop, 0)
		return &CommitResult{Draft: d}, nil
	}

	plan := d.Plan()
	start := time.Now()

	var err error
	switch ref.Scope {
	case ScopeSectionOrder:
		if plan.MembershipChanged() {
			err = ErrFixedMembers
			break
		}
		err = s.store.CommitSectionOrder(ctx, owner, plan.Order)
	case ScopeSectionLinks, ScopeSectionPhotos:
		err = s.store.CommitMembership(ctx, ref.ID, owner, plan)
	default:
		err = ErrInvalidScope
	}

	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveCommit(string(ref.Scope), metrics.OutcomeFailed, elapsed)
		s.log.Warn("commit failed",
			zap.String("owner", owner.String()),
			zap.String("scope", string(ref.Scope)),
			zap.String("container", ref.ID.String()),
			zap.Int("remove", len(plan.ToRemove)),
			zap.Int("add", len(plan.ToAdd)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("commit %s %s: %w", ref.Scope, ref.ID, err)
	}
	metrics.ObserveCommit(string(ref.Scope), metrics.OutcomeCommitted, elapsed)

	// Restart from what was stored. Members deleted while the draft was
	// open drop out, and rows added outside the draft show up.
	if stored, err := s.committed(ctx, owner, ref); err == nil {
		d = ordering.NewDraft(stored)
	} else {
		s.log.Warn("failed to reload committed order", zap.Error(err))
		d.MarkCommitted()
	}
	if err := s.drafts.Save(ctx, owner, ref, d); err != nil {
		// The store already holds the new order; a stale draft would only
		// repeat the same writes on the next commit.
		s.log.Error("failed to save committed draft", zap.Error(err))
	}

	s.log.Debug("draft committed",
		zap.String("scope", string(ref.Scope)),
		zap.String("container", ref.ID.String()),
		zap.Int("removed", len(plan.ToRemove)),
		zap.Int("added", len(plan.ToAdd)),
		zap.Int("members", len(plan.Order)),
		zap.Duration("elapsed", elapsed),
	)

	return &CommitResult{
		Draft:   d,
		Removed: len(plan.ToRemove),
		Added:   len(plan.ToAdd),
		Written: true,
	}, nil
}

// Replace makes ids the exact membership and order of ref and commits it
// at once, diffing against the freshly loaded stored state. Any open
// draft for ref is replaced.
func (s *Service) Replace(ctx context.Context, owner uuid.UUID, ref ContainerRef, ids []uuid.UUID) (*CommitResult, error) {
	if ref.Scope == ScopeSectionOrder {
		return nil, ErrFixedMembers
	}
	defer s.lock(owner, ref)()

	d, err := s.open(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	d.Set(ids)
	if err := s.drafts.Save(ctx, owner, ref, d); err != nil {
		return nil, err
	}
	return s.commit(ctx, owner, ref, d)
}

// Discard drops the open draft. The next access reopens from the store.
func (s *Service) Discard(ctx context.Context, owner uuid.UUID, ref ContainerRef) error {
	defer s.lock(owner, ref)()
	return s.drafts.Delete(ctx, owner, ref)
}
