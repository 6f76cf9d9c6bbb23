// Package ordering holds the local, not-yet-saved copy of an ordered
// collection and computes the writes needed to make storage match it.
//
// A Draft never talks to storage. Callers load the committed member list,
// mutate the draft, ask it for a Plan and apply that plan remotely.
package ordering

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrNotPermutation  = errors.New("order must contain exactly the current members")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Draft is the editable order of one container next to the order last
// known to be stored.
type Draft struct {
	Committed []uuid.UUID `json:"committed"`
	Current   []uuid.UUID `json:"current"`
	Dirty     bool        `json:"dirty"`
}

// Plan is the set of writes that turns Committed into Current.
// Order lists every surviving member; its index is the new position.
type Plan struct {
	ToRemove []uuid.UUID `json:"to_remove"`
	ToAdd    []uuid.UUID `json:"to_add"`
	Order    []uuid.UUID `json:"order"`
}

// NewDraft starts a clean draft from the stored order.
func NewDraft(committed []uuid.UUID) *Draft {
	return &Draft{
		Committed: slices.Clone(committed),
		Current:   slices.Clone(committed),
	}
}

// Members returns a copy of the draft order.
func (d *Draft) Members() []uuid.UUID {
	return slices.Clone(d.Current)
}

// Reorder replaces the draft order. ids must be a permutation of the
// current members.
func (d *Draft) Reorder(ids []uuid.UUID) error {
	if len(ids) != len(d.Current) {
		return ErrNotPermutation
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	current := toSet(d.Current)
	for _, id := range ids {
		if _, ok := current[id]; !ok {
			return ErrNotPermutation
		}
		if _, dup := seen[id]; dup {
			return ErrNotPermutation
		}
		seen[id] = struct{}{}
	}

	if !slices.Equal(d.Current, ids) {
		d.Current = slices.Clone(ids)
		d.Dirty = true
	}
	return nil
}

// Move drags the member at index from to index to, shifting the members
// in between.
func (d *Draft) Move(from, to int) error {
	n := len(d.Current)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}

	id := d.Current[from]
	next := slices.Delete(slices.Clone(d.Current), from, from+1)
	next = slices.Insert(next, to, id)
	d.Current = next
	d.Dirty = true
	return nil
}

// Add appends members that are not already in the draft, keeping the
// argument order. It reports how many were added.
func (d *Draft) Add(ids ...uuid.UUID) int {
	present := toSet(d.Current)
	added := 0
	for _, id := range ids {
		if _, ok := present[id]; ok {
			continue
		}
		present[id] = struct{}{}
		d.Current = append(d.Current, id)
		added++
	}
	if added > 0 {
		d.Dirty = true
	}
	return added
}

// Remove drops members from the draft. Unknown ids are ignored.
func (d *Draft) Remove(ids ...uuid.UUID) int {
	drop := toSet(ids)
	before := len(d.Current)
	d.Current = slices.DeleteFunc(slices.Clone(d.Current), func(id uuid.UUID) bool {
		_, ok := drop[id]
		return ok
	})
	removed := before - len(d.Current)
	if removed > 0 {
		d.Dirty = true
	}
	return removed
}

// Set makes the draft hold exactly ids, in that order.
func (d *Draft) Set(ids []uuid.UUID) {
	next := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, id)
	}
	if !slices.Equal(d.Current, next) {
		d.Current = next
		d.Dirty = true
	}
}

// Plan diffs the draft against the committed order.
func (d *Draft) Plan() Plan {
	current := toSet(d.Current)
	committed := toSet(d.Committed)

	p := Plan{Order: slices.Clone(d.Current)}
	for _, id := range d.Committed {
		if _, ok := current[id]; !ok {
			p.ToRemove = append(p.ToRemove, id)
		}
	}
	for _, id := range d.Current {
		if _, ok := committed[id]; !ok {
			p.ToAdd = append(p.ToAdd, id)
		}
	}
	return p
}

// MembershipChanged reports whether the plan adds or removes members, as
// opposed to only reordering them.
func (p Plan) MembershipChanged() bool {
	return len(p.ToRemove) > 0 || len(p.ToAdd) > 0
}

// MarkCommitted records that storage now matches the draft.
func (d *Draft) MarkCommitted() {
	d.Committed = slices.Clone(d.Current)
	d.Dirty = false
}

// NextPosition returns the position for a member appended after the given
// positions: one past the maximum, or 0 when there are none.
func NextPosition(positions []int) int {
	if len(positions) == 0 {
		return 0
	}
	return slices.Max(positions) + 1
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
