// Package universe provides instrument price history and the securities
// that risk analytics are computed over.
package universe

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// PriceRepository reads and writes daily price history.
type PriceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceRepository creates a price repository over the history database.
func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("component", "price_repository").Logger(),
	}
}

// DailyPrice is one instrument price observation.
type DailyPrice struct {
	Symbol        string   `json:"symbol"`
	Date          string   `json:"date"`
	Close         float64  `json:"close"`
	AdjustedClose *float64 `json:"adjusted_close,omitempty"`
}

// UpsertDailyPrices stores a batch of price observations, replacing
// existing rows for the same symbol and date.
func (r *PriceRepository) UpsertDailyPrices(prices []DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin price upsert: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close, adjusted_close)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			close = excluded.close,
			adjusted_close = excluded.adjusted_close
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		var adj interface{}
		if p.AdjustedClose != nil {
			adj = *p.AdjustedClose
		}
		if _, err := stmt.Exec(p.Symbol, p.Date, p.Close, adj); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to upsert price for %s on %s: %w", p.Symbol, p.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}
	return nil
}

// CloseSeries returns the ascending close price series for a symbol.
// An unknown symbol yields an empty series, not an error.
func (r *PriceRepository) CloseSeries(symbol string) (domain.Series, error) {
	return r.querySeries(`
		SELECT date, close
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date ASC
	`, symbol)
}

// AdjustedCloseSeries returns the ascending adjusted close series for a
// symbol, falling back to the raw close where no adjustment is stored.
func (r *PriceRepository) AdjustedCloseSeries(symbol string) (domain.Series, error) {
	return r.querySeries(`
		SELECT date, COALESCE(adjusted_close, close)
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date ASC
	`, symbol)
}

// CloseOn returns the close for a symbol on an exact date, or nil when no
// observation exists for that date.
func (r *PriceRepository) CloseOn(symbol, date string) (*float64, error) {
	var close float64
	err := r.db.QueryRow(`
		SELECT close FROM daily_prices WHERE symbol = ? AND date = ?
	`, symbol, date).Scan(&close)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query close for %s on %s: %w", symbol, date, err)
	}
	return &close, nil
}

// LastCloseAt returns the most recent close for a symbol on or before the
// given date, or nil when the symbol has no history up to that date.
func (r *PriceRepository) LastCloseAt(symbol, date string) (*float64, error) {
	var close float64
	err := r.db.QueryRow(`
		SELECT close FROM daily_prices
		WHERE symbol = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol, date).Scan(&close)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last close for %s at %s: %w", symbol, date, err)
	}
	return &close, nil
}

// Symbols lists the distinct symbols with stored history.
func (r *PriceRepository) Symbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}

// UpsertMarketPrices stores benchmark index closes.
func (r *PriceRepository) UpsertMarketPrices(symbol string, series domain.Series) error {
	if series.IsEmpty() {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin market price upsert: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO market_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare market price upsert: %w", err)
	}
	defer stmt.Close()

	for i, date := range series.Dates {
		if _, err := stmt.Exec(symbol, date, series.Values[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to upsert market price for %s on %s: %w", symbol, date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit market price upsert: %w", err)
	}
	return nil
}

// MarketCloseSeries returns the ascending benchmark close series.
func (r *PriceRepository) MarketCloseSeries(symbol string) (domain.Series, error) {
	return r.querySeries(`
		SELECT date, close
		FROM market_prices
		WHERE symbol = ?
		ORDER BY date ASC
	`, symbol)
}

func (r *PriceRepository) querySeries(query, symbol string) (domain.Series, error) {
	rows, err := r.db.Query(query, symbol)
	if err != nil {
		return domain.Series{}, fmt.Errorf("failed to query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out domain.Series
	for rows.Next() {
		var date string
		var value float64
		if err := rows.Scan(&date, &value); err != nil {
			return domain.Series{}, fmt.Errorf("failed to scan price row for %s: %w", symbol, err)
		}
		out.Dates = append(out.Dates, date)
		out.Values = append(out.Values, value)
	}
	if err := rows.Err(); err != nil {
		return domain.Series{}, fmt.Errorf("error iterating prices for %s: %w", symbol, err)
	}
	return out, nil
}
