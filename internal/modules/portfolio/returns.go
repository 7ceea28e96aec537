package portfolio

import (
	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/pkg/formulas"
)

// PortfolioColumn is the name of the appended portfolio column in Returns.
const PortfolioColumn = "Portfolio"

// AdjClosePrices builds the aligned price matrix: one column per holding,
// dates the ascending union of all holdings' dates, missing cells left
// undefined. A holding with no retrievable close series is logged and
// omitted, never an error.
func (p *Portfolio) AdjClosePrices() domain.Frame {
	series := make(map[string]domain.Series, len(p.holdings))
	for _, sym := range p.Symbols() {
		s := p.holdings[sym].CloseSeries()
		if s.IsEmpty() {
			p.log.Warn().Str("symbol", sym).Msg("No closing prices for holding")
			continue
		}
		series[sym] = s
	}
	return domain.NewFrame(p.Symbols(), series)
}

// PortfolioAdjustedClose is the row-wise weighted sum of the price matrix
// under current weights, a buy-and-hold synthetic index. Empty when the
// matrix is empty.
func (p *Portfolio) PortfolioAdjustedClose() domain.Series {
	prices := p.AdjClosePrices()
	if prices.IsEmpty() {
		p.log.Warn().Msg("No closing prices to compose the portfolio")
		return domain.Series{}
	}
	return prices.WeightedSum(p.weights)
}

// Returns is the per-holding daily percentage change of the price matrix
// with an appended Portfolio column carrying the portfolio return series.
func (p *Portfolio) Returns() domain.Frame {
	prices := p.AdjClosePrices()
	if prices.IsEmpty() {
		p.log.Warn().Msg("No price data to calculate returns")
		return domain.Frame{}
	}

	columns := make([]string, 0, len(prices.Columns)+1)
	series := make(map[string]domain.Series, len(prices.Columns)+1)
	for _, col := range prices.Columns {
		s, _ := prices.Column(col)
		columns = append(columns, col)
		series[col] = s.PctChange()
	}
	if pr := p.PortfolioReturns(); !pr.IsEmpty() {
		columns = append(columns, PortfolioColumn)
		series[PortfolioColumn] = pr
	}
	return domain.NewFrame(columns, series)
}

// AdjustedReturns joins each holding's own adjusted-return series into one
// table and projects it onto the current weight vector. Empty when no
// holding contributes a series.
func (p *Portfolio) AdjustedReturns() domain.Series {
	series := make(map[string]domain.Series, len(p.holdings))
	for _, sym := range p.Symbols() {
		s := p.holdings[sym].AdjustedReturnSeries()
		if s.IsEmpty() {
			continue
		}
		series[sym] = s
	}
	frame := domain.NewFrame(p.Symbols(), series)
	if frame.IsEmpty() {
		p.log.Warn().Msg("No adjusted returns for the portfolio")
		return domain.Series{}
	}
	return frame.Dot(p.weights)
}

// PortfolioReturns is the memoized result of AdjustedReturns, recomputed
// when the value epoch has advanced since it was cached.
func (p *Portfolio) PortfolioReturns() domain.Series {
	if p.cachedReturns != nil && p.cachedReturns.epoch == p.epoch {
		return p.cachedReturns.series
	}
	r := p.AdjustedReturns()
	p.cachedReturns = &epochSeries{epoch: p.epoch, series: r}
	return r
}

// PortfolioExcessReturns subtracts the compounded daily risk-free rate
// from each defined portfolio return observation. Memoized per epoch.
func (p *Portfolio) PortfolioExcessReturns() domain.Series {
	if p.cachedExcess != nil && p.cachedExcess.epoch == p.epoch {
		return p.cachedExcess.series
	}

	pr := p.PortfolioReturns().Clean()
	var excess domain.Series
	if !pr.IsEmpty() {
		dailyRF := formulas.DailyRiskFreeRate(p.riskFreeRate)
		excess = domain.Series{
			Dates:  pr.Dates,
			Values: make([]float64, len(pr.Values)),
		}
		for i, v := range pr.Values {
			excess.Values[i] = v - dailyRF
		}
	}
	p.cachedExcess = &epochSeries{epoch: p.epoch, series: excess}
	return excess
}

// MarketReturns is the daily percentage change of the market index close
// series. The fetch happens once; a failed fetch leaves an empty series so
// beta and Treynor degrade to not-available.
func (p *Portfolio) MarketReturns() domain.Series {
	if p.marketClose == nil {
		var close domain.Series
		if p.market != nil {
			close = p.market.MarketCloseSeries(p.marketSymbol)
		}
		if close.IsEmpty() {
			p.log.Warn().Str("symbol", p.marketSymbol).Msg("No market index data available")
		}
		p.marketClose = &close
	}
	if p.marketClose.IsEmpty() {
		return domain.Series{}
	}
	return p.marketClose.PctChange()
}
