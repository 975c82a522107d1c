package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/votecast/backoffice/internal/domain"
)

// ─── Catalog Operations ─────────────────────────────────────────────────────
// Events, categories and nominees are owned by the host's CRUD layer; these
// upserts let it (and tests) keep the attribution rows in sync.

// UpsertEvent inserts or updates an event. Revenue is attributed through
// the event's organizer, so an event with completed payments cannot move to
// another organizer.
func (db *DB) UpsertEvent(ctx context.Context, e domain.Event) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT organizer_id FROM events WHERE id = ?`, e.ID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	case current != e.OrganizerID:
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM payments WHERE event_id = ? AND status = 'completed'`, e.ID,
		).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return domain.Invalid("organizer_id",
				fmt.Sprintf("event %s has completed payments and stays with organizer %s", e.ID, current))
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (id, organizer_id, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			organizer_id = excluded.organizer_id,
			name         = excluded.name
	`, e.ID, e.OrganizerID, e.Name); err != nil {
		return err
	}
	return tx.Commit()
}

// GetEvent retrieves an event by ID.
func (db *DB) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	var e domain.Event
	err := db.db.QueryRowContext(ctx,
		`SELECT id, organizer_id, name FROM events WHERE id = ?`, id,
	).Scan(&e.ID, &e.OrganizerID, &e.Name)
	if err != nil {
		return domain.Event{}, notFound(err, "event", id)
	}
	return e, nil
}

// ListOrganizerEvents returns the IDs of an organizer's events.
func (db *DB) ListOrganizerEvents(ctx context.Context, organizerID string) ([]string, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT id FROM events WHERE organizer_id = ? ORDER BY id`, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertCategory inserts or updates a category.
func (db *DB) UpsertCategory(ctx context.Context, c domain.Category) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO categories (id, event_id, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_id = excluded.event_id,
			name     = excluded.name
	`, c.ID, c.EventID, c.Name)
	return err
}

// UpsertNominee inserts or updates a nominee.
func (db *DB) UpsertNominee(ctx context.Context, n domain.Nominee) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO nominees (id, category_id, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			name        = excluded.name
	`, n.ID, n.CategoryID, n.Name)
	return err
}

// UpsertPackage inserts or updates a bulk package.
func (db *DB) UpsertPackage(ctx context.Context, p domain.BulkPackage) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO bulk_packages (id, event_id, category_id, nominee_id, name, vote_count, price, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_id    = excluded.event_id,
			category_id = excluded.category_id,
			nominee_id  = excluded.nominee_id,
			name        = excluded.name,
			vote_count  = excluded.vote_count,
			price       = excluded.price,
			active      = excluded.active
	`, p.ID, p.EventID, p.CategoryID, p.NomineeID, p.Name, p.VoteCount, p.Price, boolInt(p.Active))
	return err
}

// GetPackage retrieves a bulk package by ID.
func (db *DB) GetPackage(ctx context.Context, id string) (domain.BulkPackage, error) {
	var (
		p      domain.BulkPackage
		active int
	)
	err := db.db.QueryRowContext(ctx, `
		SELECT id, event_id, category_id, nominee_id, name, vote_count, price, active
		FROM bulk_packages WHERE id = ?
	`, id).Scan(&p.ID, &p.EventID, &p.CategoryID, &p.NomineeID, &p.Name, &p.VoteCount, &p.Price, &active)
	if err != nil {
		return domain.BulkPackage{}, notFound(err, "package", id)
	}
	p.Active = active == 1
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
