package portfolio

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/pkg/formulas"
)

// RiskMatrix is a symmetric symbol-by-symbol matrix (covariance or
// correlation) with its row/column ordering carried alongside.
type RiskMatrix struct {
	Symbols []string    `json:"symbols"`
	Values  [][]float64 `json:"values"`
}

// AnnualizedStdDev is the sample standard deviation of portfolio daily
// returns scaled by sqrt(252). Nil with fewer than two observations.
func (p *Portfolio) AnnualizedStdDev() *float64 {
	returns := p.PortfolioReturns().Clean()
	return formulas.AnnualizedVolatility(returns.Values)
}

// SharpeRatio annualizes the ratio of mean to standard deviation of the
// portfolio's excess returns. Nil when the excess series is degenerate.
func (p *Portfolio) SharpeRatio() *float64 {
	excess := p.PortfolioExcessReturns().Clean()
	return formulas.SharpeRatio(excess.Values)
}

// SortinoRatio is the Sharpe variant whose denominator is the dispersion
// of the negative excess observations only.
func (p *Portfolio) SortinoRatio() *float64 {
	excess := p.PortfolioExcessReturns().Clean()
	return formulas.SortinoRatio(excess.Values)
}

// MaxDrawdown is the largest peak-to-trough decline of the compounded
// portfolio return path, reported as a non-positive fraction.
func (p *Portfolio) MaxDrawdown() *float64 {
	returns := p.PortfolioReturns().Clean()
	return formulas.MaxDrawdown(returns.Values)
}

// ValueAtRisk is the historical daily VaR of portfolio returns at the
// given confidence level (0.05 means the 5th percentile).
func (p *Portfolio) ValueAtRisk(confidenceLevel float64) *float64 {
	returns := p.PortfolioReturns().Clean()
	return formulas.ValueAtRisk(returns.Values, confidenceLevel)
}

// ConditionalValueAtRisk is the mean of the portfolio returns at or below
// the VaR threshold. Nil when the tail is empty.
func (p *Portfolio) ConditionalValueAtRisk(confidenceLevel float64) *float64 {
	returns := p.PortfolioReturns().Clean()
	return formulas.ConditionalValueAtRisk(returns.Values, confidenceLevel)
}

// holdingReturnFrame joins the per-holding adjusted return series and keeps
// only rows where every holding has an observation.
func (p *Portfolio) holdingReturnFrame() domain.Frame {
	series := make(map[string]domain.Series, len(p.holdings))
	for _, sym := range p.Symbols() {
		s := p.holdings[sym].AdjustedReturnSeries()
		if s.IsEmpty() {
			continue
		}
		series[sym] = s
	}
	return domain.NewFrame(p.Symbols(), series).CompleteCases()
}

// covariance builds the sample covariance matrix of holding returns over
// complete rows. Second return is false when the data is too short.
func (p *Portfolio) covariance() (*mat.SymDense, []string, bool) {
	frame := p.holdingReturnFrame()
	if frame.IsEmpty() || len(frame.Dates) < 2 {
		return nil, nil, false
	}
	rows, cols := len(frame.Dates), len(frame.Columns)
	obs := mat.NewDense(rows, cols, nil)
	for j, sym := range frame.Columns {
		for i, v := range frame.Data[sym] {
			obs.Set(i, j, v)
		}
	}
	cov := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(cov, obs, nil)
	return cov, frame.Columns, true
}

// CovarianceMatrix is the sample covariance of daily holding returns over
// their common dates. Nil when fewer than two complete rows exist.
func (p *Portfolio) CovarianceMatrix() *RiskMatrix {
	cov, symbols, ok := p.covariance()
	if !ok {
		return nil
	}
	return symMatrix(cov, symbols)
}

// CorrelationMatrix is the Pearson correlation of daily holding returns
// over their common dates.
func (p *Portfolio) CorrelationMatrix() *RiskMatrix {
	frame := p.holdingReturnFrame()
	if frame.IsEmpty() || len(frame.Dates) < 2 {
		return nil
	}
	rows, cols := len(frame.Dates), len(frame.Columns)
	obs := mat.NewDense(rows, cols, nil)
	for j, sym := range frame.Columns {
		for i, v := range frame.Data[sym] {
			obs.Set(i, j, v)
		}
	}
	corr := mat.NewSymDense(cols, nil)
	stat.CorrelationMatrix(corr, obs, nil)
	return symMatrix(corr, frame.Columns)
}

func symMatrix(m *mat.SymDense, symbols []string) *RiskMatrix {
	n := len(symbols)
	values := make([][]float64, n)
	for i := 0; i < n; i++ {
		values[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			values[i][j] = m.At(i, j)
		}
	}
	return &RiskMatrix{Symbols: symbols, Values: values}
}

// MarginalContributions computes each holding's marginal contribution to
// total risk: (cov . w) / dailyVol, where dailyVol is the portfolio's
// annualized volatility de-scaled back to daily terms. Nil when the
// covariance matrix or the volatility is unavailable.
func (p *Portfolio) MarginalContributions() (map[string]float64, error) {
	cov, symbols, ok := p.covariance()
	if !ok {
		return nil, nil
	}
	annVol := p.AnnualizedStdDev()
	if annVol == nil || *annVol == 0 {
		return nil, nil
	}
	dailyVol := *annVol / math.Sqrt(formulas.TradingDaysPerYear)

	weights, err := p.Weights()
	if err != nil {
		return nil, err
	}
	w := mat.NewVecDense(len(symbols), nil)
	for i, sym := range symbols {
		w.SetVec(i, weights[sym])
	}
	var covw mat.VecDense
	covw.MulVec(cov, w)

	out := make(map[string]float64, len(symbols))
	for i, sym := range symbols {
		out[sym] = covw.AtVec(i) / dailyVol
	}
	return out, nil
}

// RiskContributions scales each marginal contribution by its holding's
// weight. The contributions sum to the portfolio's daily volatility.
func (p *Portfolio) RiskContributions() (map[string]float64, error) {
	mctr, err := p.MarginalContributions()
	if err != nil || mctr == nil {
		return nil, err
	}
	weights, err := p.Weights()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(mctr))
	for sym, m := range mctr {
		out[sym] = weights[sym] * m
	}
	return out, nil
}

// Beta regresses portfolio returns against market index returns over their
// common dates. Nil when either series is unavailable or the market
// variance is zero.
func (p *Portfolio) Beta() *float64 {
	pr := p.PortfolioReturns()
	mr := p.MarketReturns()
	if pr.IsEmpty() || mr.IsEmpty() {
		return nil
	}
	x, market, _ := domain.Align(pr, mr)
	return formulas.Beta(x, market)
}

// TreynorRatio is the portfolio's annualized excess return per unit of
// market beta.
func (p *Portfolio) TreynorRatio() *float64 {
	beta := p.Beta()
	if beta == nil {
		return nil
	}
	returns := p.PortfolioReturns().Clean()
	return formulas.Treynor(returns.Values, p.riskFreeRate, beta)
}

// VolatilityWithout is the annualized volatility of a transient portfolio
// with one holding removed, weights renormalized over the rest. Nil when
// the symbol is not held, the rest of the portfolio has zero value, or the
// remaining return history is too short.
func (p *Portfolio) VolatilityWithout(symbol string) *float64 {
	if _, held := p.holdings[symbol]; !held {
		return nil
	}
	sub, err := p.without(symbol)
	if err != nil {
		p.log.Debug().Str("symbol", symbol).Err(err).Msg("Cannot renormalize portfolio without holding")
		return nil
	}
	return sub.AnnualizedStdDev()
}

// VolatilityImpact is how much of the current annualized volatility the
// holding accounts for (with minus without). A positive value means the
// holding is adding risk.
func (p *Portfolio) VolatilityImpact(symbol string) *float64 {
	with := p.AnnualizedStdDev()
	without := p.VolatilityWithout(symbol)
	if with == nil || without == nil {
		return nil
	}
	impact := *with - *without
	return &impact
}
