package formulas

import (
	"math"
	"sort"
)

// Percentile computes the p-th percentile (p in [0,1]) of data with linear
// interpolation between order statistics. Nil when data is empty.
func Percentile(data []float64, p float64) *float64 {
	if len(data) == 0 {
		return nil
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return &sorted[0]
	}
	if p >= 1 {
		return &sorted[len(sorted)-1]
	}

	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return &sorted[lo]
	}
	frac := rank - float64(lo)
	v := sorted[lo] + frac*(sorted[hi]-sorted[lo])
	return &v
}

// ValueAtRisk calculates historical VaR at confidence level cl (e.g. 0.05
// for the 5th percentile). The result is a return quantile, typically
// negative. Nil when the return series is empty.
func ValueAtRisk(returns []float64, cl float64) *float64 {
	return Percentile(returns, cl)
}

// ConditionalValueAtRisk calculates the mean of all returns at or below the
// VaR threshold (expected shortfall). Nil when VaR is unavailable or no
// return falls in the tail.
func ConditionalValueAtRisk(returns []float64, cl float64) *float64 {
	threshold := ValueAtRisk(returns, cl)
	if threshold == nil {
		return nil
	}
	sum := 0.0
	count := 0
	for _, r := range returns {
		if r <= *threshold {
			sum += r
			count++
		}
	}
	if count == 0 {
		return nil
	}
	cvar := sum / float64(count)
	return &cvar
}
