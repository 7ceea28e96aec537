// Package ledger stores the chronological transaction log and replays it
// into a dated series of cash, holdings and total value.
package ledger

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// Repository persists transaction records in the ledger database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a repository over the ledger database.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "ledger_repository").Logger(),
	}
}

// Record appends one transaction to the ledger. Records are immutable
// once written.
func (r *Repository) Record(rec domain.TransactionRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO transactions (date, side, symbol, quantity, price)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Date, string(rec.Side), rec.Symbol, rec.Quantity, rec.Price)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// All returns the full ledger ordered by date ascending, insertion order
// within a date. This is the replay input ordering.
func (r *Repository) All() ([]domain.TransactionRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, date, side, symbol, quantity, price
		FROM transactions
		ORDER BY date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var rec domain.TransactionRecord
		var side string
		if err := rows.Scan(&rec.ID, &rec.Date, &side, &rec.Symbol, &rec.Quantity, &rec.Price); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		parsed, ok := domain.ParseTradeSide(side)
		if !ok {
			return nil, fmt.Errorf("ledger row %d has invalid side %q", rec.ID, side)
		}
		rec.Side = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return records, nil
}

// Count returns the number of ledger entries.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}
