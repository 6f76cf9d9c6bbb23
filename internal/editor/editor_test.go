package editor

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/gofiber/storage/memory/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpage/internal/db"
	"linkpage/internal/models"
	"linkpage/internal/ordering"
)

// fakeStore keeps sections and memberships in memory and applies plans
// the way the database does.
type fakeStore struct {
	mu       sync.Mutex
	sections map[uuid.UUID]*models.Section
	members  map[uuid.UUID][]uuid.UUID
	order    map[uuid.UUID][]uuid.UUID
	writes   int
	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sections: make(map[uuid.UUID]*models.Section),
		members:  make(map[uuid.UUID][]uuid.UUID),
		order:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeStore) addSection(owner uuid.UUID, kind models.SectionKind) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.sections[id] = &models.Section{ID: id, UserID: owner, Kind: kind, IsActive: true}
	f.order[owner] = append(f.order[owner], id)
	return id
}

func (f *fakeStore) GetSection(_ context.Context, id, userID uuid.UUID) (*models.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sections[id]
	if !ok || s.UserID != userID {
		return nil, db.ErrSectionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) ListSectionIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.order[userID]), nil
}

func (f *fakeStore) ListMembers(_ context.Context, sectionID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.members[sectionID]), nil
}

func (f *fakeStore) CommitSectionOrder(_ context.Context, userID uuid.UUID, order []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	f.writes++
	f.order[userID] = slices.Clone(order)
	return nil
}

func (f *fakeStore) CommitMembership(_ context.Context, sectionID, _ uuid.UUID, plan ordering.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	f.writes++

	current := slices.DeleteFunc(slices.Clone(f.members[sectionID]), func(id uuid.UUID) bool {
		return slices.Contains(plan.ToRemove, id)
	})
	for _, id := range plan.ToAdd {
		if !slices.Contains(current, id) {
			current = append(current, id)
		}
	}
	// Renumber to the draft order.
	next := make([]uuid.UUID, 0, len(current))
	for _, id := range plan.Order {
		if slices.Contains(current, id) {
			next = append(next, id)
		}
	}
	f.members[sectionID] = next
	return nil
}

// dropMember removes a member row the way deleting the link or photo
// does, without touching any draft.
func (f *fakeStore) dropMember(sectionID, id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[sectionID] = slices.DeleteFunc(f.members[sectionID], func(m uuid.UUID) bool { return m == id })
}

func newTestService(t *testing.T) (*Service, *fakeStore, uuid.UUID) {
	t.Helper()
	store := newFakeStore()
	return NewService(store, NewStorageDrafts(memory.New(), 0), nil), store, uuid.New()
}

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestService_ReorderThenCommitListsPermutation(t *testing.T) {
	ctx := context.Background()
	links := ids(3)

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, perm := range permutations {
		svc, store, owner := newTestService(t)
		section := store.addSection(owner, models.KindLinks)
		store.members[section] = slices.Clone(links)

		ref, err := svc.RefForSection(ctx, owner, section)
		require.NoError(t, err)

		want := make([]uuid.UUID, len(perm))
		for i, p := range perm {
			want[i] = links[p]
		}

		_, err = svc.Reorder(ctx, owner, ref, want)
		require.NoError(t, err)
		_, err = svc.Commit(ctx, owner, ref)
		require.NoError(t, err)

		got, _ := store.ListMembers(ctx, section)
		assert.Equal(t, want, got, "permutation %v", perm)
	}
}

func TestService_AddRemoveCommit(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	section := store.addSection(owner, models.KindPhotoGrid)

	existing := ids(3)
	store.members[section] = slices.Clone(existing)
	added := ids(2)

	ref, err := svc.RefForSection(ctx, owner, section)
	require.NoError(t, err)
	assert.Equal(t, ScopeSectionPhotos, ref.Scope)

	_, err = svc.Add(ctx, owner, ref, added)
	require.NoError(t, err)
	_, err = svc.Remove(ctx, owner, ref, existing[1:2])
	require.NoError(t, err)

	res, err := svc.Commit(ctx, owner, ref)
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 2, res.Added)
	assert.False(t, res.Draft.Dirty)

	got, _ := store.ListMembers(ctx, section)
	want := []uuid.UUID{existing[0], existing[2], added[0], added[1]}
	assert.Equal(t, want, got)
}

func TestService_SecondCommitIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	section := store.addSection(owner, models.KindLinks)
	ref := ContainerRef{Scope: ScopeSectionLinks, ID: section}

	_, err := svc.Add(ctx, owner, ref, ids(2))
	require.NoError(t, err)

	_, err = svc.Commit(ctx, owner, ref)
	require.NoError(t, err)
	first, _ := store.ListMembers(ctx, section)

	res, err := svc.Commit(ctx, owner, ref)
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, 1, store.writes)

	second, _ := store.ListMembers(ctx, section)
	assert.Equal(t, first, second)
}

func TestService_FailedCommitKeepsDraftDirty(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	section := store.addSection(owner, models.KindLinks)
	ref := ContainerRef{Scope: ScopeSectionLinks, ID: section}
	members := ids(2)

	_, err := svc.Add(ctx, owner, ref, members)
	require.NoError(t, err)

	boom := errors.New("connection reset")
	store.failNext = boom
	_, err = svc.Commit(ctx, owner, ref)
	require.ErrorIs(t, err, boom)

	d, err := svc.Get(ctx, owner, ref)
	require.NoError(t, err)
	assert.True(t, d.Dirty)
	assert.Equal(t, members, d.Current)
	assert.Empty(t, d.Committed)

	// A manual retry succeeds.
	res, err := svc.Commit(ctx, owner, ref)
	require.NoError(t, err)
	assert.True(t, res.Written)
	got, _ := store.ListMembers(ctx, section)
	assert.Equal(t, members, got)
}

func TestService_ScenarioAddReorderRemove(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	section := store.addSection(owner, models.KindLinks)
	ref, err := svc.RefForSection(ctx, owner, section)
	require.NoError(t, err)

	l := ids(2)
	l1, l2 := l[0], l[1]

	d, err := svc.Add(ctx, owner, ref, []uuid.UUID{l1, l2})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{l1, l2}, d.Current)

	_, err = svc.Reorder(ctx, owner, ref, []uuid.UUID{l2, l1})
	require.NoError(t, err)
	_, err = svc.Commit(ctx, owner, ref)
	require.NoError(t, err)

	got, _ := store.ListMembers(ctx, section)
	assert.Equal(t, []uuid.UUID{l2, l1}, got)

	_, err = svc.Remove(ctx, owner, ref, []uuid.UUID{l1})
	require.NoError(t, err)
	_, err = svc.Commit(ctx, owner, ref)
	require.NoError(t, err)

	got, _ = store.ListMembers(ctx, section)
	assert.Equal(t, []uuid.UUID{l2}, got)
}

func TestService_SectionOrder(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	a := store.addSection(owner, models.KindLinks)
	b := store.addSection(owner, models.KindVideo)
	c := store.addSection(owner, models.KindInfoCard)
	ref := SectionOrder(owner)

	d, err := svc.Move(ctx, owner, ref, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c, a, b}, d.Current)

	_, err = svc.Add(ctx, owner, ref, ids(1))
	assert.ErrorIs(t, err, ErrFixedMembers)

	_, err = svc.Commit(ctx, owner, ref)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c, a, b}, store.order[owner])

	_, err = svc.Get(ctx, uuid.New(), ref)
	assert.ErrorIs(t, err, ErrForeignOwner)
}

func TestService_ReplaceDiffsAgainstStore(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	section := store.addSection(owner, models.KindPhotoSlider)
	photos := ids(4)
	store.members[section] = slices.Clone(photos[:2])
	ref := ContainerRef{Scope: ScopeSectionPhotos, ID: section}

	res, err := svc.Replace(ctx, owner, ref, []uuid.UUID{photos[1], photos[2], photos[3]})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 2, res.Added)

	got, _ := store.ListMembers(ctx, section)
	assert.Equal(t, []uuid.UUID{photos[1], photos[2], photos[3]}, got)
}

func TestService_DiscardReopensFromStore(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	section := store.addSection(owner, models.KindLinks)
	ref := ContainerRef{Scope: ScopeSectionLinks, ID: section}

	_, err := svc.Add(ctx, owner, ref, ids(1))
	require.NoError(t, err)
	require.NoError(t, svc.Discard(ctx, owner, ref))

	d, err := svc.Get(ctx, owner, ref)
	require.NoError(t, err)
	assert.False(t, d.Dirty)
	assert.Empty(t, d.Current)
}

func TestService_RejectsMismatchedScopes(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	links := store.addSection(owner, models.KindLinks)
	video := store.addSection(owner, models.KindVideo)

	_, err := svc.Get(ctx, owner, ContainerRef{Scope: ScopeSectionPhotos, ID: links})
	assert.ErrorIs(t, err, ErrScopeMismatch)

	_, err = svc.RefForSection(ctx, owner, video)
	assert.ErrorIs(t, err, ErrNoMembers)

	_, err = svc.RefForSection(ctx, uuid.New(), links)
	assert.ErrorIs(t, err, db.ErrSectionNotFound)

	_, err = svc.Get(ctx, owner, ContainerRef{Scope: "bogus", ID: links})
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestScopeForKind_CoversEveryKind(t *testing.T) {
	for _, kind := range models.SectionKinds() {
		scope, err := scopeForKind(kind)
		switch kind.MemberKind() {
		case models.MemberLink:
			assert.Equal(t, ScopeSectionLinks, scope)
		case models.MemberPhoto:
			assert.Equal(t, ScopeSectionPhotos, scope)
		default:
			assert.ErrorIs(t, err, ErrNoMembers, "kind %v", kind)
		}
	}
}

func TestService_CommitDropsMembersDeletedWhileOpen(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)
	section := store.addSection(owner, models.KindLinks)
	links := ids(3)
	a, b, c := links[0], links[1], links[2]
	store.members[section] = slices.Clone(links)
	ref := ContainerRef{Scope: ScopeSectionLinks, ID: section}

	_, err := svc.Open(ctx, owner, ref)
	require.NoError(t, err)

	store.dropMember(section, b)

	_, err = svc.Reorder(ctx, owner, ref, []uuid.UUID{c, b, a})
	require.NoError(t, err)
	res, err := svc.Commit(ctx, owner, ref)
	require.NoError(t, err)

	got, _ := store.ListMembers(ctx, section)
	assert.Equal(t, []uuid.UUID{c, a}, got)
	assert.Equal(t, []uuid.UUID{c, a}, res.Draft.Current)
	assert.Equal(t, []uuid.UUID{c, a}, res.Draft.Committed)
	assert.False(t, res.Draft.Dirty)

	d, err := svc.Get(ctx, owner, ref)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c, a}, d.Current)
}

func TestService_ReleasesLocks(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newTestService(t)

	var wg sync.WaitGroup
	for range 20 {
		section := store.addSection(owner, models.KindLinks)
		ref := ContainerRef{Scope: ScopeSectionLinks, ID: section}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Add(ctx, owner, ref, ids(1))
			_, _ = svc.Commit(ctx, owner, ref)
			_ = svc.Discard(ctx, owner, ref)
		}()
	}
	wg.Wait()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}
