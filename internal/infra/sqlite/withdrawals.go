package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/domain"
)

// ─── Withdrawal Operations ──────────────────────────────────────────────────

const withdrawalColumns = `id, organizer_id, amount, method, account_name, account_number, provider,
	status, processed_by, rejection_reason, fee, net_amount, payout_reference,
	created_at, updated_at, approved_at, rejected_at, completed_at`

func scanWithdrawal(row rowScanner) (domain.WithdrawalRequest, error) {
	var (
		w                                   domain.WithdrawalRequest
		processedBy, reason, payoutRef      sql.NullString
		created, updated                    string
		approvedAt, rejectedAt, completedAt sql.NullString
	)
	err := row.Scan(&w.ID, &w.OrganizerID, &w.Amount, &w.Method,
		&w.Destination.AccountName, &w.Destination.AccountNumber, &w.Destination.Provider,
		&w.Status, &processedBy, &reason, &w.Fee, &w.NetAmount, &payoutRef,
		&created, &updated, &approvedAt, &rejectedAt, &completedAt)
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}
	w.ProcessedBy = processedBy.String
	w.RejectionReason = reason.String
	w.PayoutReference = payoutRef.String
	w.CreatedAt = parseTime(created)
	w.UpdatedAt = parseTime(updated)
	w.ApprovedAt = parseNullTime(approvedAt)
	w.RejectedAt = parseNullTime(rejectedAt)
	w.CompletedAt = parseNullTime(completedAt)
	return w, nil
}

// InsertWithdrawal adds a new request.
func (db *DB) InsertWithdrawal(ctx context.Context, w domain.WithdrawalRequest) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (`+withdrawalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.OrganizerID, w.Amount, w.Method,
		w.Destination.AccountName, w.Destination.AccountNumber, w.Destination.Provider,
		w.Status, nullString(w.ProcessedBy), nullString(w.RejectionReason), w.Fee, w.NetAmount,
		nullString(w.PayoutReference), formatTime(w.CreatedAt), formatTime(w.UpdatedAt),
		formatNullTime(w.ApprovedAt), formatNullTime(w.RejectedAt), formatNullTime(w.CompletedAt))
	return err
}

// GetWithdrawal retrieves a request by ID.
func (db *DB) GetWithdrawal(ctx context.Context, id string) (domain.WithdrawalRequest, error) {
	w, err := scanWithdrawal(db.db.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = ?`, id))
	if err != nil {
		return domain.WithdrawalRequest{}, notFound(err, "withdrawal", id)
	}
	return w, nil
}

// ListWithdrawals returns requests matching f, newest first.
func (db *DB) ListWithdrawals(ctx context.Context, f domain.WithdrawalFilter) ([]domain.WithdrawalRequest, error) {
	var (
		where []string
		args  []any
	)
	if f.OrganizerID != "" {
		where = append(where, "organizer_id = ?")
		args = append(args, f.OrganizerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	q := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// WithdrawalTotals sums an organizer's non-rejected request amounts by status.
func (db *DB) WithdrawalTotals(ctx context.Context, organizerID string) (domain.WithdrawalTotals, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT status, amount FROM withdrawal_requests
		WHERE organizer_id = ? AND status != 'rejected'
	`, organizerID)
	if err != nil {
		return domain.WithdrawalTotals{}, err
	}
	defer rows.Close()

	var totals domain.WithdrawalTotals
	for rows.Next() {
		var (
			status domain.WithdrawalStatus
			amount decimal.Decimal
		)
		if err := rows.Scan(&status, &amount); err != nil {
			return domain.WithdrawalTotals{}, err
		}
		switch status {
		case domain.WithdrawalPending:
			totals.Pending = totals.Pending.Add(amount)
		case domain.WithdrawalProcessing:
			totals.Processing = totals.Processing.Add(amount)
		case domain.WithdrawalCompleted:
			totals.Completed = totals.Completed.Add(amount)
		}
	}
	return totals, rows.Err()
}

// TransitionWithdrawal writes w only if the stored status is still from.
// The guard makes every transition all-or-nothing: a concurrent move wins
// and this call reports ErrInvalidState without touching the row.
func (db *DB) TransitionWithdrawal(ctx context.Context, from domain.WithdrawalStatus, w domain.WithdrawalRequest) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE withdrawal_requests SET
			status           = ?,
			processed_by     = ?,
			rejection_reason = ?,
			fee              = ?,
			net_amount       = ?,
			payout_reference = ?,
			updated_at       = ?,
			approved_at      = ?,
			rejected_at      = ?,
			completed_at     = ?
		WHERE id = ? AND status = ?
	`, w.Status, nullString(w.ProcessedBy), nullString(w.RejectionReason), w.Fee, w.NetAmount,
		nullString(w.PayoutReference), formatTime(w.UpdatedAt),
		formatNullTime(w.ApprovedAt), formatNullTime(w.RejectedAt), formatNullTime(w.CompletedAt),
		w.ID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	current, err := db.GetWithdrawal(ctx, w.ID)
	if err != nil {
		return err
	}
	return fmt.Errorf("transition withdrawal: %w",
		&domain.InvalidStateError{RequestID: w.ID, From: current.Status, To: w.Status})
}

// RecordPayoutReference writes the payout reference of a processing request
// before it completes. A request that already carries one is left alone.
func (db *DB) RecordPayoutReference(ctx context.Context, id, reference string, at time.Time) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE withdrawal_requests SET payout_reference = ?, updated_at = ?
		WHERE id = ? AND status = 'processing' AND payout_reference IS NULL
	`, reference, formatTime(at), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	current, err := db.GetWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("record payout reference: %w",
		&domain.InvalidStateError{RequestID: id, From: current.Status, To: domain.WithdrawalCompleted})
}
