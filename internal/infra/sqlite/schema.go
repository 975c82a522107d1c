package sqlite

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements, run in order on every Open.
// Each string is a single SQL statement (SQLite executes one at a time).
// Money columns are decimal TEXT; never REAL.
func Migrations() []string {
	return []string{
		// Catalog: categories belong to one event, nominees to one category.
		`CREATE TABLE IF NOT EXISTS events (
			id           TEXT PRIMARY KEY,
			organizer_id TEXT NOT NULL,
			name         TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_organizer ON events(organizer_id)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id       TEXT PRIMARY KEY,
			event_id TEXT NOT NULL REFERENCES events(id),
			name     TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS nominees (
			id          TEXT PRIMARY KEY,
			category_id TEXT NOT NULL REFERENCES categories(id),
			name        TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS bulk_packages (
			id          TEXT PRIMARY KEY,
			event_id    TEXT NOT NULL REFERENCES events(id),
			category_id TEXT NOT NULL REFERENCES categories(id),
			nominee_id  TEXT NOT NULL REFERENCES nominees(id),
			name        TEXT NOT NULL DEFAULT '',
			vote_count  INTEGER NOT NULL CHECK(vote_count > 0),
			price       TEXT NOT NULL,
			active      INTEGER NOT NULL DEFAULT 1
		)`,

		// Schemes: NULL event_id is the platform default. At most one live
		// (non-ended) scheme per scope.
		`CREATE TABLE IF NOT EXISTS schemes (
			id                       TEXT PRIMARY KEY,
			event_id                 TEXT REFERENCES events(id),
			vote_price               TEXT NOT NULL DEFAULT '0',
			admin_percentage         TEXT NOT NULL DEFAULT '0',
			bulk_discount_percentage TEXT NOT NULL DEFAULT '0',
			min_bulk_quantity        INTEGER NOT NULL DEFAULT 0,
			status                   TEXT NOT NULL DEFAULT 'draft',
			created_at               TEXT NOT NULL,
			updated_at               TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_schemes_live
			ON schemes(COALESCE(event_id, '')) WHERE status != 'ended'`,

		// Payment facts from the payment processor.
		`CREATE TABLE IF NOT EXISTS payments (
			id          TEXT PRIMARY KEY,
			event_id    TEXT NOT NULL REFERENCES events(id),
			category_id TEXT NOT NULL,
			nominee_id  TEXT NOT NULL,
			kind        TEXT NOT NULL DEFAULT 'vote',
			package_id  TEXT,
			amount      TEXT NOT NULL,
			vote_count  INTEGER NOT NULL,
			method      TEXT NOT NULL,
			reference   TEXT,
			status      TEXT NOT NULL,
			paid_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_event ON payments(event_id, status, paid_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_reference ON payments(reference) WHERE reference IS NOT NULL`,

		// Withdrawal requests; state owned by the withdrawal state machine.
		`CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id               TEXT PRIMARY KEY,
			organizer_id     TEXT NOT NULL,
			amount           TEXT NOT NULL,
			method           TEXT NOT NULL,
			account_name     TEXT NOT NULL DEFAULT '',
			account_number   TEXT NOT NULL DEFAULT '',
			provider         TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL,
			processed_by     TEXT,
			rejection_reason TEXT,
			fee              TEXT NOT NULL DEFAULT '0',
			net_amount       TEXT NOT NULL DEFAULT '0',
			payout_reference TEXT,
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL,
			approved_at      TEXT,
			rejected_at      TEXT,
			completed_at     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_organizer ON withdrawal_requests(organizer_id, status)`,
	}
}
