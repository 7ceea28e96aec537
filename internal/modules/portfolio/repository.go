package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Position is the persisted form of a holding.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Invested float64 `json:"invested"`
	Value    float64 `json:"value"`
}

// Account is the single-row account state: free cash, the annual
// risk-free rate used for excess returns, and the benchmark symbol.
type Account struct {
	CashBalance  float64 `json:"cash_balance"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	MarketSymbol string  `json:"market_symbol"`
}

// Repository persists portfolio positions and account state.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a repository over the portfolio database.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "portfolio_repository").Logger(),
	}
}

// Positions loads all persisted positions.
func (r *Repository) Positions() ([]Position, error) {
	rows, err := r.db.Query(`
		SELECT symbol, quantity, invested, value FROM positions ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Symbol, &p.Quantity, &p.Invested, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// UpsertPosition stores or replaces a position.
func (r *Repository) UpsertPosition(p Position) error {
	_, err := r.db.Exec(`
		INSERT INTO positions (symbol, quantity, invested, value, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(symbol) DO UPDATE SET
			quantity = excluded.quantity,
			invested = excluded.invested,
			value = excluded.value,
			updated_at = excluded.updated_at
	`, p.Symbol, p.Quantity, p.Invested, p.Value)
	if err != nil {
		return fmt.Errorf("failed to upsert position %s: %w", p.Symbol, err)
	}
	return nil
}

// DeletePosition removes a closed position.
func (r *Repository) DeletePosition(symbol string) error {
	if _, err := r.db.Exec(`DELETE FROM positions WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("failed to delete position %s: %w", symbol, err)
	}
	return nil
}

// Account loads the single-row account state.
func (r *Repository) Account() (Account, error) {
	var a Account
	err := r.db.QueryRow(`
		SELECT cash_balance, risk_free_rate, market_symbol FROM account WHERE id = 1
	`).Scan(&a.CashBalance, &a.RiskFreeRate, &a.MarketSymbol)
	if err != nil {
		return Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return a, nil
}

// SaveAccount persists the account state.
func (r *Repository) SaveAccount(a Account) error {
	_, err := r.db.Exec(`
		UPDATE account
		SET cash_balance = ?, risk_free_rate = ?, market_symbol = ?, updated_at = datetime('now')
		WHERE id = 1
	`, a.CashBalance, a.RiskFreeRate, a.MarketSymbol)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}
