package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
	"linkpage/internal/ordering"
)

// memberTableFor maps a section kind to its membership table and the table
// holding the members themselves.
func memberTableFor(kind models.SectionKind) (orderedTable, string, error) {
	switch kind.MemberKind() {
	case models.MemberLink:
		return linkMembers, "links", nil
	case models.MemberPhoto:
		return photoMembers, "photos", nil
	}
	return orderedTable{}, "", ErrNotMemberContainer
}

// ListMembers returns the member ids of a section ascending by position.
// A section that does not exist has no members.
func (d *DB) ListMembers(ctx context.Context, sectionID uuid.UUID) ([]uuid.UUID, error) {
	table, err := d.sectionTable(ctx, sectionID)
	if errors.Is(err, ErrSectionNotFound) {
		return []uuid.UUID{}, nil
	}
	if err != nil {
		return nil, err
	}
	return table.listIDs(ctx, d.Pool, sectionID)
}

func (d *DB) sectionTable(ctx context.Context, sectionID uuid.UUID) (orderedTable, error) {
	var kind string
	err := d.Pool.QueryRow(ctx, `SELECT kind FROM sections WHERE id = $1`, sectionID).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return orderedTable{}, ErrSectionNotFound
	}
	if err != nil {
		return orderedTable{}, err
	}
	k, err := models.ParseSectionKind(kind)
	if err != nil {
		return orderedTable{}, err
	}
	table, _, err := memberTableFor(k)
	return table, err
}

// lockSection locks a section owned by userID for the rest of tx and
// returns its kind.
func lockSection(ctx context.Context, tx pgx.Tx, sectionID, userID uuid.UUID) (models.SectionKind, error) {
	var kind string
	err := tx.QueryRow(ctx, `
		SELECT kind FROM sections WHERE id = $1 AND user_id = $2 FOR UPDATE
	`, sectionID, userID).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrSectionNotFound
	}
	if err != nil {
		return 0, err
	}
	return models.ParseSectionKind(kind)
}

// CommitMembership applies a draft plan to a section in one transaction:
// removed members are deleted, added members are appended after the
// current maximum position, then the members still present are renumbered
// densely in plan.Order. Ids in plan.Order whose row is gone, such as a
// link deleted while the draft was open, are skipped. Either all of it is
// applied or none of it is.
func (d *DB) CommitMembership(ctx context.Context, sectionID, userID uuid.UUID, plan ordering.Plan) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		kind, err := lockSection(ctx, tx, sectionID, userID)
		if err != nil {
			return err
		}
		table, memberTable, err := memberTableFor(kind)
		if err != nil {
			return err
		}

		if len(plan.ToAdd) > 0 {
			var owned int
			err := tx.QueryRow(ctx, fmt.Sprintf(
				`SELECT COUNT(*) FROM %s WHERE user_id = $1 AND id = ANY($2::uuid[])`, memberTable),
				userID, plan.ToAdd).Scan(&owned)
			if err != nil {
				return err
			}
			if owned != len(plan.ToAdd) {
				return ErrMemberNotOwned
			}
		}

		if len(plan.ToRemove) > 0 {
			_, err := tx.Exec(ctx, fmt.Sprintf(
				`DELETE FROM %s WHERE section_id = $1 AND member_id = ANY($2::uuid[])`, table.name),
				sectionID, plan.ToRemove)
			if err != nil {
				return fmt.Errorf("failed to remove members: %w", err)
			}
		}

		if len(plan.ToAdd) > 0 {
			next, err := table.nextPosition(ctx, tx, sectionID)
			if err != nil {
				return err
			}

			insert := fmt.Sprintf(`
				INSERT INTO %s (section_id, member_id, position)
				VALUES ($1, $2, $3)
				ON CONFLICT (section_id, member_id) DO NOTHING
			`, table.name)
			batch := &pgx.Batch{}
			for i, id := range plan.ToAdd {
				batch.Queue(insert, sectionID, id, next+i)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("failed to add members: %w", err)
			}
		}

		return table.renumber(ctx, tx, sectionID, plan.Order)
	})
}

// addToSections appends a member to the end of each listed section inside
// tx. Sections already holding the member are left alone.
func addToSections(ctx context.Context, tx pgx.Tx, userID, memberID uuid.UUID, sectionIDs []uuid.UUID, want models.MemberKind) error {
	for _, sectionID := range sectionIDs {
		kind, err := lockSection(ctx, tx, sectionID, userID)
		if err != nil {
			return err
		}
		if kind.MemberKind() != want {
			return ErrNotMemberContainer
		}
		table, _, err := memberTableFor(kind)
		if err != nil {
			return err
		}

		next, err := table.nextPosition(ctx, tx, sectionID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (section_id, member_id, position)
			VALUES ($1, $2, $3)
			ON CONFLICT (section_id, member_id) DO NOTHING
		`, table.name), sectionID, memberID, next); err != nil {
			return err
		}
	}
	return nil
}
