package ledger

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// Row is one emitted replay state: the cash and valuation picture at the
// close of one price date, after that date's transactions were applied.
type Row struct {
	Date       string             `json:"date"`
	Cash       float64            `json:"cash"`
	Holdings   map[string]float64 `json:"holdings,omitempty"` // per-symbol value
	TotalValue float64            `json:"total_value"`
}

// SkippedTransaction records a transaction the replay refused to apply.
// Replay never aborts on a bad transaction; it drops it and carries on.
type SkippedTransaction struct {
	Record domain.TransactionRecord `json:"record"`
	Reason string                   `json:"reason"`
}

// Result is the full replay output.
type Result struct {
	Rows    []Row                `json:"rows"`
	Skipped []SkippedTransaction `json:"skipped,omitempty"`
}

// Engine reconstructs portfolio state from the transaction log.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a replay engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "replay").Logger()}
}

// Replay walks the price matrix dates in ascending order, applying each
// date's transactions in ledger order and then marking held symbols to
// market at that date's price. Symbols or dates with no price are skipped
// for valuation, not failed. An empty ledger yields an empty table.
//
// The engine maintains its own cash and quantity state seeded from the
// caller; it never mutates the live portfolio.
func (e *Engine) Replay(
	prices domain.Frame,
	ledger []domain.TransactionRecord,
	initialCash float64,
	initialQuantities map[string]float64,
	includeHoldings bool,
) Result {
	if len(ledger) == 0 {
		return Result{}
	}

	byDate := make(map[string][]domain.TransactionRecord, len(ledger))
	for _, rec := range ledger {
		byDate[rec.Date] = append(byDate[rec.Date], rec)
	}

	cash := initialCash
	quantities := make(map[string]float64, len(initialQuantities))
	for sym, q := range initialQuantities {
		quantities[sym] = q
	}

	result := Result{Rows: make([]Row, 0, len(prices.Dates))}
	for i, date := range prices.Dates {
		for _, rec := range byDate[date] {
			if reason := e.apply(rec, &cash, quantities); reason != "" {
				e.log.Warn().
					Str("date", rec.Date).
					Str("symbol", rec.Symbol).
					Str("side", string(rec.Side)).
					Str("reason", reason).
					Msg("Skipping transaction during replay")
				result.Skipped = append(result.Skipped, SkippedTransaction{Record: rec, Reason: reason})
			}
		}

		row := Row{Date: date, Cash: cash, TotalValue: cash}
		if includeHoldings {
			row.Holdings = make(map[string]float64, len(quantities))
		}
		for sym, qty := range quantities {
			col, ok := prices.Data[sym]
			if !ok || math.IsNaN(col[i]) {
				continue
			}
			value := qty * col[i]
			row.TotalValue += value
			if includeHoldings {
				row.Holdings[sym] = value
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

// apply mutates the replay state for one transaction and returns a
// non-empty reason when the transaction must be dropped.
func (e *Engine) apply(rec domain.TransactionRecord, cash *float64, quantities map[string]float64) string {
	cost := rec.Value()
	switch rec.Side {
	case domain.SideBuy:
		if cost > *cash {
			return "insufficient cash"
		}
		*cash -= cost
		quantities[rec.Symbol] += rec.Quantity
	case domain.SideSell:
		held := quantities[rec.Symbol]
		if rec.Quantity > held {
			return "insufficient shares"
		}
		*cash += cost
		remaining := held - rec.Quantity
		if remaining <= 0 {
			delete(quantities, rec.Symbol)
		} else {
			quantities[rec.Symbol] = remaining
		}
	default:
		return "unknown side"
	}
	return ""
}
