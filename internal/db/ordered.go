package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/ordering"
)

// orderedTable describes a table whose rows carry a position that is
// unique within a container column.
type orderedTable struct {
	name      string
	container string
	member    string
}

var (
	sectionOrder = orderedTable{name: "sections", container: "user_id", member: "id"}
	linkMembers  = orderedTable{name: "section_links", container: "section_id", member: "member_id"}
	photoMembers = orderedTable{name: "section_photos", container: "section_id", member: "member_id"}
)

// nextPosition returns the position for a row appended to the container.
// Callers must hold a lock on the container.
func (t orderedTable) nextPosition(ctx context.Context, tx pgx.Tx, containerID uuid.UUID) (int, error) {
	rows, err := tx.Query(ctx,
		fmt.Sprintf(`SELECT position FROM %s WHERE %s = $1`, t.name, t.container), containerID)
	if err != nil {
		return 0, err
	}
	positions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return 0, err
	}
	return ordering.NextPosition(positions), nil
}

// listIDs returns member ids of a container ascending by position.
func (t orderedTable) listIDs(ctx context.Context, q querier, containerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY position ASC`, t.member, t.name, t.container),
		containerID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

// renumber gives the rows listed in order dense positions from 0, in
// list order. Ids without a row in the container are skipped. Rows of the
// container missing from order keep their relative order after the listed
// ones. Unique position constraints are deferred, so intermediate
// collisions inside the transaction are allowed.
func (t orderedTable) renumber(ctx context.Context, tx pgx.Tx, containerID uuid.UUID, order []uuid.UUID) error {
	if order == nil {
		order = []uuid.UUID{}
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE %[1]s AS t SET position = s.rn - 1
		FROM (
			SELECT r.%[3]s AS id, row_number() OVER (ORDER BY o.ord) AS rn
			FROM unnest($2::uuid[]) WITH ORDINALITY AS o(id, ord)
			JOIN %[1]s AS r ON r.%[2]s = $1 AND r.%[3]s = o.id
		) s
		WHERE t.%[2]s = $1 AND t.%[3]s = s.id
	`, t.name, t.container, t.member), containerID, order)
	if err != nil {
		return fmt.Errorf("failed to renumber %s: %w", t.name, err)
	}
	listed := tag.RowsAffected()

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE %[1]s AS t SET position = $3 + s.rn - 1
		FROM (
			SELECT %[3]s AS id, row_number() OVER (ORDER BY position) AS rn
			FROM %[1]s
			WHERE %[2]s = $1 AND NOT (%[3]s = ANY($2::uuid[]))
		) s
		WHERE t.%[2]s = $1 AND t.%[3]s = s.id
	`, t.name, t.container, t.member), containerID, order, listed)
	if err != nil {
		return fmt.Errorf("failed to renumber unlisted %s: %w", t.name, err)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}
