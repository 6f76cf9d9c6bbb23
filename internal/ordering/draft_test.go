package ordering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

// permutations returns every ordering of in.
func permutations(in []uuid.UUID) [][]uuid.UUID {
	if len(in) <= 1 {
		return [][]uuid.UUID{append([]uuid.UUID(nil), in...)}
	}
	var out [][]uuid.UUID
	for i := range in {
		rest := make([]uuid.UUID, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]uuid.UUID{in[i]}, p...))
		}
	}
	return out
}

func TestNewDraft_IsClean(t *testing.T) {
	m := ids(3)
	d := NewDraft(m)

	assert.False(t, d.Dirty)
	assert.Equal(t, m, d.Members())

	m[0] = uuid.New()
	assert.NotEqual(t, m[0], d.Current[0], "draft must not alias the input slice")
}

func TestReorder_EveryPermutation(t *testing.T) {
	m := ids(4)
	for _, p := range permutations(m) {
		d := NewDraft(m)
		require.NoError(t, d.Reorder(p))

		plan := d.Plan()
		assert.Equal(t, p, plan.Order)
		assert.Empty(t, plan.ToAdd)
		assert.Empty(t, plan.ToRemove)
		assert.False(t, plan.MembershipChanged())
	}
}

func TestReorder_RejectsNonPermutation(t *testing.T) {
	m := ids(3)

	tests := []struct {
		name  string
		order []uuid.UUID
	}{
		{"too short", m[:2]},
		{"too long", append(append([]uuid.UUID{}, m...), uuid.New())},
		{"foreign id", []uuid.UUID{m[0], m[1], uuid.New()}},
		{"duplicate", []uuid.UUID{m[0], m[0], m[1]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft(m)
			err := d.Reorder(tt.order)
			assert.ErrorIs(t, err, ErrNotPermutation)
			assert.False(t, d.Dirty)
			assert.Equal(t, m, d.Current)
		})
	}
}

func TestReorder_SameOrderStaysClean(t *testing.T) {
	m := ids(3)
	d := NewDraft(m)
	require.NoError(t, d.Reorder(m))
	assert.False(t, d.Dirty)
}

func TestMove(t *testing.T) {
	m := ids(4)

	tests := []struct {
		name     string
		from, to int
		want     []uuid.UUID
	}{
		{"first to last", 0, 3, []uuid.UUID{m[1], m[2], m[3], m[0]}},
		{"last to first", 3, 0, []uuid.UUID{m[3], m[0], m[1], m[2]}},
		{"middle down", 1, 2, []uuid.UUID{m[0], m[2], m[1], m[3]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft(m)
			require.NoError(t, d.Move(tt.from, tt.to))
			assert.Equal(t, tt.want, d.Current)
			assert.True(t, d.Dirty)
			assert.Equal(t, m, d.Committed)
		})
	}

	d := NewDraft(m)
	assert.ErrorIs(t, d.Move(-1, 0), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.Move(0, 4), ErrIndexOutOfRange)
	require.NoError(t, d.Move(2, 2))
	assert.False(t, d.Dirty)
}

func TestAddRemove_DisjointSets(t *testing.T) {
	existing := ids(4)
	add := ids(2)
	remove := []uuid.UUID{existing[1], existing[3]}

	d := NewDraft(existing)
	assert.Equal(t, 2, d.Add(add...))
	assert.Equal(t, 2, d.Remove(remove...))

	plan := d.Plan()
	assert.Equal(t, remove, plan.ToRemove)
	assert.Equal(t, add, plan.ToAdd)
	assert.Equal(t, []uuid.UUID{existing[0], existing[2], add[0], add[1]}, plan.Order)
	assert.True(t, plan.MembershipChanged())
}

func TestAdd_IgnoresExistingAndDuplicates(t *testing.T) {
	m := ids(2)
	extra := uuid.New()
	d := NewDraft(m)

	assert.Equal(t, 1, d.Add(m[0], extra, extra))
	assert.Equal(t, []uuid.UUID{m[0], m[1], extra}, d.Current)
}

func TestRemove_UnknownIsNoop(t *testing.T) {
	m := ids(2)
	d := NewDraft(m)
	assert.Equal(t, 0, d.Remove(uuid.New()))
	assert.False(t, d.Dirty)
}

func TestAddThenRemoveSameMember(t *testing.T) {
	m := ids(1)
	extra := uuid.New()
	d := NewDraft(m)
	d.Add(extra)
	d.Remove(extra)

	plan := d.Plan()
	assert.Empty(t, plan.ToAdd)
	assert.Empty(t, plan.ToRemove)
	assert.True(t, d.Dirty, "a round trip still counts as an edit")
}

func TestSet(t *testing.T) {
	m := ids(3)
	extra := uuid.New()
	d := NewDraft(m)

	d.Set([]uuid.UUID{extra, m[2], extra})
	plan := d.Plan()
	assert.Equal(t, []uuid.UUID{extra, m[2]}, plan.Order)
	assert.Equal(t, []uuid.UUID{extra}, plan.ToAdd)
	assert.Equal(t, []uuid.UUID{m[0], m[1]}, plan.ToRemove)
}

func TestMarkCommitted(t *testing.T) {
	d := NewDraft(nil)
	first := uuid.New()
	d.Add(first)
	d.MarkCommitted()

	assert.False(t, d.Dirty)
	assert.Equal(t, []uuid.UUID{first}, d.Committed)

	plan := d.Plan()
	assert.Empty(t, plan.ToAdd)
	assert.Empty(t, plan.ToRemove)
}

func TestNextPosition(t *testing.T) {
	assert.Equal(t, 0, NextPosition(nil))
	assert.Equal(t, 1, NextPosition([]int{0}))
	assert.Equal(t, 8, NextPosition([]int{3, 7, 1}))
}
