// Package portfolio implements the analytics core: the holding store and
// weight ledger, the return engine with epoch-guarded memoization, the
// risk metric suite and the leave-one-out analyzer.
package portfolio

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// Portfolio owns the symbol -> Holding mapping, the shared risk-free rate,
// a cash balance, the derived weight mapping and the lazily computed
// return-series caches.
//
// Weights are never stale relative to holdings: every mutation recomputes
// them before returning. Caches are guarded by a value epoch that is
// incremented on every mutation; a cache computed at an older epoch is
// recomputed on next access.
//
// The portfolio is a single-writer structure. Concurrent buy/sell calls
// require external serialization because weight recomputation reads the
// full holding set.
type Portfolio struct {
	holdings     map[string]*Holding
	riskFreeRate float64
	cashBalance  float64
	weights      map[string]float64

	epoch         uint64
	cachedReturns *epochSeries
	cachedExcess  *epochSeries

	market       domain.MarketData
	marketSymbol string
	marketClose  *domain.Series // fetched once, empty on failure

	log zerolog.Logger
}

type epochSeries struct {
	epoch  uint64
	series domain.Series
}

// New creates a portfolio over an initial holding set. Weights are derived
// immediately; a non-empty holding set with zero total value returns
// domain.ErrZeroValuePortfolio.
func New(holdings map[string]*Holding, riskFreeRate, cashBalance float64, market domain.MarketData, marketSymbol string, log zerolog.Logger) (*Portfolio, error) {
	if holdings == nil {
		holdings = make(map[string]*Holding)
	}
	p := &Portfolio{
		holdings:     holdings,
		riskFreeRate: riskFreeRate,
		cashBalance:  cashBalance,
		market:       market,
		marketSymbol: marketSymbol,
		log:          log.With().Str("component", "portfolio").Logger(),
	}
	if err := p.recomputeWeights(); err != nil {
		return nil, err
	}
	return p, nil
}

// Symbols returns the held symbols in ascending order.
func (p *Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(p.holdings))
	for sym := range p.holdings {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// Holding returns the holding for a symbol, or nil when not held.
func (p *Portfolio) Holding(symbol string) *Holding { return p.holdings[symbol] }

// Size returns the number of holdings.
func (p *Portfolio) Size() int { return len(p.holdings) }

// RiskFreeRate returns the shared annualized risk-free rate.
func (p *Portfolio) RiskFreeRate() float64 { return p.riskFreeRate }

// CashBalance returns the cash balance. It is independent of holdings and
// mutated only by transaction replay seeding, never by UpdateStock.
func (p *Portfolio) CashBalance() float64 { return p.cashBalance }

// TotalValue returns the sum of all holding values, cash excluded.
func (p *Portfolio) TotalValue() float64 {
	total := 0.0
	for _, h := range p.holdings {
		total += h.Amount()
	}
	return total
}

// Epoch returns the current value epoch. It increments on every mutation.
func (p *Portfolio) Epoch() uint64 { return p.epoch }

// Weights returns the fractional allocation per held symbol, summing to 1.
// The map is empty for an empty portfolio and the error is
// domain.ErrZeroValuePortfolio when holdings exist but their total value
// is exactly zero.
func (p *Portfolio) Weights() (map[string]float64, error) {
	if len(p.holdings) > 0 && p.weights == nil {
		return nil, domain.ErrZeroValuePortfolio
	}
	out := make(map[string]float64, len(p.weights))
	for sym, w := range p.weights {
		out[sym] = w
	}
	return out, nil
}

// recomputeWeights re-derives the weight mapping from current holdings.
func (p *Portfolio) recomputeWeights() error {
	if len(p.holdings) == 0 {
		p.weights = map[string]float64{}
		return nil
	}
	total := 0.0
	for _, h := range p.holdings {
		total += h.Amount()
	}
	if total == 0 {
		p.weights = nil
		p.log.Error().Msg("Total portfolio value is zero")
		return domain.ErrZeroValuePortfolio
	}
	weights := make(map[string]float64, len(p.holdings))
	for sym, h := range p.holdings {
		weights[sym] = h.Amount() / total
	}
	p.weights = weights
	return nil
}

// UpdateStock applies a buy or sell to a holding's monetary position.
//
// Buy: the holding's value and investment both increase by quantity*price;
// an unknown symbol is created with zero initial investment and value
// first. Sell: the value decreases by quantity*price, failing with
// domain.ErrUnknownPosition when the symbol is not held and
// domain.ErrInsufficientPosition when the sale exceeds the held value
// (holding state untouched on failure); a holding reaching exactly zero is
// removed. Weights are recomputed and the value epoch bumped before
// returning, which invalidates the memoized return series.
func (p *Portfolio) UpdateStock(symbol string, quantity, price float64, buy bool) error {
	h, held := p.holdings[symbol]
	if !held {
		if !buy {
			return domain.NewPositionError(symbol, domain.ErrUnknownPosition)
		}
		h = NewHolding(symbol, 0, 0, 0, nil)
		p.holdings[symbol] = h
	}

	delta := quantity * price
	if buy {
		h.Value += delta
		h.Invested += delta
		h.Quantity += quantity
	} else {
		if h.Value < delta {
			return domain.NewPositionError(symbol, domain.ErrInsufficientPosition)
		}
		h.Value -= delta
		h.Quantity -= quantity
		if h.Value == 0 {
			delete(p.holdings, symbol)
		}
	}

	p.epoch++
	err := p.recomputeWeights()

	p.log.Info().
		Str("symbol", symbol).
		Float64("quantity", quantity).
		Float64("price", price).
		Bool("buy", buy).
		Uint64("epoch", p.epoch).
		Msg("Position updated")

	return err
}

// HasStock reports whether the portfolio holds enough value in symbol to
// sell the given quantity at the last known close price.
func (p *Portfolio) HasStock(symbol string, quantity float64) bool {
	h, held := p.holdings[symbol]
	if !held {
		return false
	}
	lastPrice, ok := h.LastClose()
	if !ok {
		lastPrice = 0
	}
	return h.Amount() >= quantity*lastPrice
}

// QuantitySnapshot returns each holding's share quantity, used to seed the
// transaction replay state.
func (p *Portfolio) QuantitySnapshot() map[string]float64 {
	out := make(map[string]float64, len(p.holdings))
	for sym, h := range p.holdings {
		out[sym] = h.Quantity
	}
	return out
}

// without builds the transient sub-portfolio excluding one symbol, sharing
// the risk-free rate, cash balance and market source. Used by the
// leave-one-out analyzer; it re-runs the full return pipeline on the
// reduced holding set.
func (p *Portfolio) without(symbol string) (*Portfolio, error) {
	rest := make(map[string]*Holding, len(p.holdings)-1)
	for sym, h := range p.holdings {
		if sym != symbol {
			rest[sym] = h
		}
	}
	return New(rest, p.riskFreeRate, p.cashBalance, p.market, p.marketSymbol, p.log)
}
