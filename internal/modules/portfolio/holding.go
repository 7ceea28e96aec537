package portfolio

import "github.com/mkarlis/riskfolio/internal/domain"

// Holding is one instrument's position within the portfolio: its symbol,
// the monetary value currently allocated, the cumulative amount invested
// and the share quantity. Value is never negative; a holding whose value
// reaches exactly zero on a sell is removed from the portfolio.
type Holding struct {
	Symbol     string
	Invested   float64
	Value      float64
	Quantity   float64
	Instrument domain.Instrument
}

// NewHolding creates a holding for a symbol. The instrument collaborator
// may be nil for holdings created by a first buy before price data exists.
func NewHolding(symbol string, invested, value, quantity float64, instrument domain.Instrument) *Holding {
	return &Holding{
		Symbol:     symbol,
		Invested:   invested,
		Value:      value,
		Quantity:   quantity,
		Instrument: instrument,
	}
}

// Amount returns the holding's current monetary value.
func (h *Holding) Amount() float64 { return h.Value }

// CloseSeries returns the holding's adjusted close prices, or an empty
// series when no instrument is attached.
func (h *Holding) CloseSeries() domain.Series {
	if h.Instrument == nil {
		return domain.Series{}
	}
	return h.Instrument.CloseSeries()
}

// AdjustedReturnSeries returns the holding's daily adjusted returns, or an
// empty series when no instrument is attached.
func (h *Holding) AdjustedReturnSeries() domain.Series {
	if h.Instrument == nil {
		return domain.Series{}
	}
	return h.Instrument.AdjustedReturnSeries()
}

// LastClose returns the most recent close price, or false when unknown.
func (h *Holding) LastClose() (float64, bool) {
	return h.CloseSeries().Last()
}

// TotalReturn is the holding's return on invested capital, nil when
// nothing has been invested.
func (h *Holding) TotalReturn() *float64 {
	if h.Invested == 0 {
		return nil
	}
	r := (h.Value - h.Invested) / h.Invested
	return &r
}
