package portfolio

import "github.com/mkarlis/riskfolio/pkg/formulas"

// Summary is the portfolio overview returned by the summary endpoint.
type Summary struct {
	TotalValue   float64            `json:"total_value"`
	CashBalance  float64            `json:"cash_balance"`
	RiskFreeRate float64            `json:"risk_free_rate"`
	Positions    int                `json:"positions"`
	Weights      map[string]float64 `json:"weights"`
	Epoch        uint64             `json:"epoch"`
}

// HoldingDetail is the per-position row of the holdings report.
type HoldingDetail struct {
	Symbol           string                   `json:"symbol"`
	Quantity         float64                  `json:"quantity"`
	Value            float64                  `json:"value"`
	Invested         float64                  `json:"invested"`
	Weight           float64                  `json:"weight"`
	LastClose        *float64                 `json:"last_close,omitempty"`
	TotalReturn      *float64                 `json:"total_return,omitempty"`
	Volatility       *float64                 `json:"volatility,omitempty"`
	High52Week       *float64                 `json:"high_52week,omitempty"`
	Low52Week        *float64                 `json:"low_52week,omitempty"`
	RSI              *float64                 `json:"rsi,omitempty"`
	EMA20            *float64                 `json:"ema_20,omitempty"`
	Bollinger        *formulas.BollingerBands `json:"bollinger,omitempty"`
	VolatilityImpact *float64                 `json:"volatility_impact,omitempty"`
}

// RiskReport bundles the portfolio-level risk metrics. Absent metrics
// (not enough history, no benchmark) are omitted rather than zeroed.
type RiskReport struct {
	Volatility      *float64 `json:"volatility,omitempty"`
	SharpeRatio     *float64 `json:"sharpe_ratio,omitempty"`
	SortinoRatio    *float64 `json:"sortino_ratio,omitempty"`
	MaxDrawdown     *float64 `json:"max_drawdown,omitempty"`
	ValueAtRisk     *float64 `json:"value_at_risk,omitempty"`
	ConditionalVaR  *float64 `json:"conditional_var,omitempty"`
	Beta            *float64 `json:"beta,omitempty"`
	TreynorRatio    *float64 `json:"treynor_ratio,omitempty"`
	ConfidenceLevel float64  `json:"confidence_level"`
	Flags           []string `json:"danger_flags,omitempty"`
}

// Danger thresholds for flagging a risk profile that needs attention.
const (
	betaDangerLevel     = 1.5
	sharpeDangerLevel   = 1.0
	sortinoDangerLevel  = 1.0
	drawdownDangerLevel = -0.20
	tailDangerLevel     = -0.05
)

// DangerFlags names the metrics that crossed their alert thresholds.
func (r *RiskReport) DangerFlags() []string {
	var flags []string
	if r.Beta != nil && (*r.Beta > betaDangerLevel || *r.Beta < -betaDangerLevel) {
		flags = append(flags, "beta")
	}
	if r.SharpeRatio != nil && *r.SharpeRatio < sharpeDangerLevel {
		flags = append(flags, "sharpe_ratio")
	}
	if r.SortinoRatio != nil && *r.SortinoRatio < sortinoDangerLevel {
		flags = append(flags, "sortino_ratio")
	}
	if r.MaxDrawdown != nil && *r.MaxDrawdown < drawdownDangerLevel {
		flags = append(flags, "max_drawdown")
	}
	if r.ValueAtRisk != nil && *r.ValueAtRisk < tailDangerLevel {
		flags = append(flags, "value_at_risk")
	}
	if r.ConditionalVaR != nil && *r.ConditionalVaR < tailDangerLevel {
		flags = append(flags, "conditional_var")
	}
	return flags
}

// ImpactReport is the leave-one-out volatility analysis for one holding.
type ImpactReport struct {
	Symbol            string   `json:"symbol"`
	Volatility        *float64 `json:"volatility,omitempty"`
	VolatilityWithout *float64 `json:"volatility_without,omitempty"`
	Impact            *float64 `json:"impact,omitempty"`
}

// ContributionReport pairs marginal and weighted risk contributions.
type ContributionReport struct {
	Marginal map[string]float64 `json:"marginal"`
	Weighted map[string]float64 `json:"weighted"`
}
