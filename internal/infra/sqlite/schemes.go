package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/votecast/backoffice/internal/domain"
)

// ─── Scheme Operations ──────────────────────────────────────────────────────

const schemeColumns = `id, event_id, vote_price, admin_percentage, bulk_discount_percentage,
	min_bulk_quantity, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheme(row rowScanner) (domain.Scheme, error) {
	var (
		s                domain.Scheme
		eventID          sql.NullString
		created, updated string
	)
	err := row.Scan(&s.ID, &eventID, &s.VotePrice, &s.AdminPercentage, &s.BulkDiscountPercentage,
		&s.MinBulkQuantity, &s.Status, &created, &updated)
	if err != nil {
		return domain.Scheme{}, err
	}
	s.EventID = eventID.String
	s.CreatedAt = parseTime(created)
	s.UpdatedAt = parseTime(updated)
	return s, nil
}

// InsertScheme adds a scheme. A second live scheme for the same scope fails
// with ErrSchemeExists.
func (db *DB) InsertScheme(ctx context.Context, s domain.Scheme) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO schemes (`+schemeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, nullString(s.EventID), s.VotePrice, s.AdminPercentage, s.BulkDiscountPercentage,
		s.MinBulkQuantity, s.Status, formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("insert scheme %s: %w", s.ID, domain.ErrSchemeExists)
	case isForeignKeyViolation(err):
		return domain.Invalid("event_id", "unknown event "+s.EventID)
	}
	return err
}

// UpdateScheme overwrites the mutable fields of a scheme.
func (db *DB) UpdateScheme(ctx context.Context, s domain.Scheme) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE schemes SET
			vote_price               = ?,
			admin_percentage         = ?,
			bulk_discount_percentage = ?,
			min_bulk_quantity        = ?,
			status                   = ?,
			updated_at               = ?
		WHERE id = ?
	`, s.VotePrice, s.AdminPercentage, s.BulkDiscountPercentage, s.MinBulkQuantity,
		s.Status, formatTime(s.UpdatedAt), s.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("update scheme %s: %w", s.ID, domain.ErrSchemeExists)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scheme %s: %w", s.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteScheme physically removes a scheme. Callers must check
// SchemeReferenced first.
func (db *DB) DeleteScheme(ctx context.Context, id string) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM schemes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scheme %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetScheme retrieves a scheme by ID.
func (db *DB) GetScheme(ctx context.Context, id string) (domain.Scheme, error) {
	s, err := scanScheme(db.db.QueryRowContext(ctx,
		`SELECT `+schemeColumns+` FROM schemes WHERE id = ?`, id))
	if err != nil {
		return domain.Scheme{}, notFound(err, "scheme", id)
	}
	return s, nil
}

// GetEventScheme returns the live scheme of an event.
func (db *DB) GetEventScheme(ctx context.Context, eventID string) (domain.Scheme, error) {
	s, err := scanScheme(db.db.QueryRowContext(ctx, `
		SELECT `+schemeColumns+` FROM schemes
		WHERE event_id = ? AND status != 'ended'
	`, eventID))
	if err != nil {
		return domain.Scheme{}, notFound(err, "scheme for event", eventID)
	}
	return s, nil
}

// GetDefaultScheme returns the live platform-wide scheme.
func (db *DB) GetDefaultScheme(ctx context.Context) (domain.Scheme, error) {
	s, err := scanScheme(db.db.QueryRowContext(ctx, `
		SELECT `+schemeColumns+` FROM schemes
		WHERE event_id IS NULL AND status != 'ended'
	`))
	if err != nil {
		return domain.Scheme{}, notFound(err, "default scheme", "")
	}
	return s, nil
}

// ListSchemes returns all schemes, defaults first.
func (db *DB) ListSchemes(ctx context.Context) ([]domain.Scheme, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT `+schemeColumns+` FROM schemes
		ORDER BY event_id IS NOT NULL, event_id, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Scheme
	for rows.Next() {
		s, err := scanScheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SchemeReferenced reports whether payments exist that the scheme prices.
func (db *DB) SchemeReferenced(ctx context.Context, s domain.Scheme) (bool, error) {
	var (
		n   int
		err error
	)
	if s.IsDefault() {
		err = db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&n)
	} else {
		err = db.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM payments WHERE event_id = ?`, s.EventID).Scan(&n)
	}
	return n > 0, err
}
