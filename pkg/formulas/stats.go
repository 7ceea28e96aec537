// Package formulas provides the pure numerical building blocks for
// portfolio analytics. Functions returning *float64 use nil to mean
// "not available" so NaN never leaks into results.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily observations.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two equal-length datasets.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation between two equal-length datasets.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// CalculateReturns converts prices to percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns:
// sample stdev scaled by sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) *float64 {
	if len(dailyReturns) < 2 {
		return nil
	}
	vol := StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
	return &vol
}

// AnnualizedMeanReturn scales the mean daily return to a yearly figure.
func AnnualizedMeanReturn(dailyReturns []float64) *float64 {
	if len(dailyReturns) == 0 {
		return nil
	}
	ann := Mean(dailyReturns) * TradingDaysPerYear
	return &ann
}

// DailyRiskFreeRate converts an annual risk-free rate to its compounded
// daily equivalent: (1+RF)^(1/252) - 1.
func DailyRiskFreeRate(annualRate float64) float64 {
	return math.Pow(1+annualRate, 1.0/TradingDaysPerYear) - 1
}

// Beta calculates cov(x, market) / var(market) over index-aligned samples.
// Nil when the market variance is zero or the samples are too short.
func Beta(x, market []float64) *float64 {
	if len(x) < 2 || len(x) != len(market) {
		return nil
	}
	mv := Variance(market)
	if mv == 0 {
		return nil
	}
	b := Covariance(x, market) / mv
	return &b
}

// Treynor calculates (annualized mean return - riskFreeRate) / beta.
// Nil when beta is nil or zero.
func Treynor(dailyReturns []float64, riskFreeRate float64, beta *float64) *float64 {
	if beta == nil || *beta == 0 {
		return nil
	}
	ann := AnnualizedMeanReturn(dailyReturns)
	if ann == nil {
		return nil
	}
	t := (*ann - riskFreeRate) / *beta
	return &t
}
