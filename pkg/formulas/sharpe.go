package formulas

import "math"

// SharpeRatio calculates the annualized Sharpe ratio from daily excess
// returns: mean(excess) / stdev(excess) * sqrt(252).
// Nil when there are fewer than two observations or the stdev is zero.
func SharpeRatio(excessReturns []float64) *float64 {
	if len(excessReturns) < 2 {
		return nil
	}
	sd := StdDev(excessReturns)
	if sd == 0 {
		return nil
	}
	sharpe := Mean(excessReturns) / sd * math.Sqrt(TradingDaysPerYear)
	return &sharpe
}

// SortinoRatio calculates the annualized Sortino ratio from daily excess
// returns: mean(excess) / stdev(negative excess) * sqrt(252).
// The denominator is the sample stdev restricted to negative observations;
// nil when fewer than two are negative or their stdev is zero.
func SortinoRatio(excessReturns []float64) *float64 {
	if len(excessReturns) == 0 {
		return nil
	}
	var negative []float64
	for _, r := range excessReturns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) < 2 {
		return nil
	}
	sd := StdDev(negative)
	if sd == 0 {
		return nil
	}
	sortino := Mean(excessReturns) / sd * math.Sqrt(TradingDaysPerYear)
	return &sortino
}
