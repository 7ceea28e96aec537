// Package domain holds the pure domain types shared across riskfolio
// modules: date-indexed series, transaction records, collaborator
// interfaces and the mutation error taxonomy. It has no infrastructure
// dependencies.
package domain

import "strings"

// TradeSide is the direction of a transaction.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// ParseTradeSide normalizes a raw side string. Unknown values return false.
func ParseTradeSide(raw string) (TradeSide, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return SideBuy, true
	case "sell":
		return SideSell, true
	}
	return "", false
}

// TransactionRecord is one immutable ledger entry. Records are ordered by
// date ascending; records sharing a date keep their ledger order.
type TransactionRecord struct {
	ID       int64     `json:"id,omitempty"`
	Date     string    `json:"date"` // YYYY-MM-DD
	Side     TradeSide `json:"side"`
	Symbol   string    `json:"symbol"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
}

// Value is the cash amount the transaction moves.
func (t TransactionRecord) Value() float64 { return t.Quantity * t.Price }

// Instrument is the per-holding collaborator the analytics core consumes.
// Implementations own price retrieval and per-instrument series; the core
// never touches raw storage.
type Instrument interface {
	Symbol() string
	// CloseSeries returns the instrument's adjusted close prices, oldest
	// first. An empty series means no data could be retrieved.
	CloseSeries() Series
	// AdjustedReturnSeries returns the instrument's daily adjusted returns,
	// a richer series than the naive close-to-close percentage change.
	AdjustedReturnSeries() Series
}

// MarketData supplies index-level prices for beta calculations. A failed
// fetch yields an empty series, never an error - downstream metrics degrade
// to not-available.
type MarketData interface {
	MarketCloseSeries(symbol string) Series
}
