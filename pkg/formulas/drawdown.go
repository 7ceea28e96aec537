package formulas

// MaxDrawdown calculates the maximum drawdown from a daily return series.
//
// The cumulative wealth curve is the running product of (1+return); the
// drawdown at each step is cumulative/peak - 1 against the expanding
// maximum seen so far (never looking ahead). The result is the minimum
// drawdown, always <= 0, and exactly 0 for a monotonically non-decreasing
// curve. Nil when the series is empty.
func MaxDrawdown(returns []float64) *float64 {
	if len(returns) == 0 {
		return nil
	}

	cumulative := 1.0
	peak := 0.0
	minDrawdown := 0.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			dd := cumulative/peak - 1
			if dd < minDrawdown {
				minDrawdown = dd
			}
		}
	}

	return &minDrawdown
}

// MaxDrawdownFromValues calculates the maximum drawdown of a value path by
// first converting it to percentage changes. Nil when fewer than two values.
func MaxDrawdownFromValues(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	return MaxDrawdown(CalculateReturns(values))
}

// Highest returns the maximum of a price series, nil when empty.
func Highest(prices []float64) *float64 {
	if len(prices) == 0 {
		return nil
	}
	high := prices[0]
	for _, p := range prices {
		if p > high {
			high = p
		}
	}
	return &high
}

// Lowest returns the minimum of a price series, nil when empty.
func Lowest(prices []float64) *float64 {
	if len(prices) == 0 {
		return nil
	}
	low := prices[0]
	for _, p := range prices {
		if p < low {
			low = p
		}
	}
	return &low
}
