package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/votecast/backoffice/internal/domain"
)

// ─── Payment Operations ─────────────────────────────────────────────────────
// Organizer attribution is never stored on the payment; it is joined from
// the event so that a record cannot disagree with its event's owner.

const paymentSelect = `
	SELECT p.id, p.event_id, p.category_id, p.nominee_id, e.organizer_id, p.kind,
	       p.package_id, p.amount, p.vote_count, p.method, p.reference, p.status, p.paid_at
	FROM payments p JOIN events e ON e.id = p.event_id`

func scanPayment(row rowScanner) (domain.PaymentRecord, error) {
	var (
		p                    domain.PaymentRecord
		packageID, reference sql.NullString
		paidAt               string
	)
	err := row.Scan(&p.ID, &p.EventID, &p.CategoryID, &p.NomineeID, &p.OrganizerID, &p.Kind,
		&packageID, &p.Amount, &p.VoteCount, &p.Method, &reference, &p.Status, &paidAt)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	p.PackageID = packageID.String
	p.Reference = reference.String
	p.PaidAt = parseTime(paidAt)
	return p, nil
}

// InsertPayment records a payment fact. A duplicate processor reference is
// rejected so the same payment cannot be counted twice.
func (db *DB) InsertPayment(ctx context.Context, p domain.PaymentRecord) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO payments (id, event_id, category_id, nominee_id, kind, package_id,
			amount, vote_count, method, reference, status, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.EventID, p.CategoryID, p.NomineeID, p.Kind, nullString(p.PackageID),
		p.Amount, p.VoteCount, p.Method, nullString(p.Reference), p.Status, formatTime(p.PaidAt))
	switch {
	case isUniqueViolation(err):
		return domain.Invalid("reference", "payment "+p.ID+" ("+p.Reference+") already recorded")
	case isForeignKeyViolation(err):
		return domain.Invalid("event_id", "unknown event, category or nominee")
	}
	return err
}

// GetPayment retrieves a payment by ID.
func (db *DB) GetPayment(ctx context.Context, id string) (domain.PaymentRecord, error) {
	p, err := scanPayment(db.db.QueryRowContext(ctx, paymentSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return domain.PaymentRecord{}, notFound(err, "payment", id)
	}
	return p, nil
}

// UpdatePaymentStatus moves a pending payment to its settled state.
// Completed records are immutable.
func (db *DB) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE id = ? AND status != 'completed'`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := db.GetPayment(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("payment %s: %w", id, domain.ErrPaymentImmutable)
}

// ListCompletedPayments returns completed payments matching f, oldest first.
func (db *DB) ListCompletedPayments(ctx context.Context, f domain.PaymentFilter) ([]domain.PaymentRecord, error) {
	where := []string{"p.status = 'completed'"}
	var args []any
	if f.EventID != "" {
		where = append(where, "p.event_id = ?")
		args = append(args, f.EventID)
	}
	if f.OrganizerID != "" {
		where = append(where, "e.organizer_id = ?")
		args = append(args, f.OrganizerID)
	}
	if !f.From.IsZero() {
		where = append(where, "p.paid_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "p.paid_at < ?")
		args = append(args, formatTime(f.To))
	}

	rows, err := db.db.QueryContext(ctx,
		paymentSelect+` WHERE `+strings.Join(where, " AND ")+` ORDER BY p.paid_at, p.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
