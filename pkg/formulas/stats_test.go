package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.InDelta(t, 0.015, Mean([]float64{0.01, 0.02}), 1e-12)
}

func TestStdDev(t *testing.T) {
	// Fewer than two observations has no sample deviation.
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{5}))

	// Sample stdev of {2,4,4,4,5,5,7,9} with n-1 denominator.
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.13809, got, 1e-4)
}

func TestCalculateReturns(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))

	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestCalculateReturnsZeroPrice(t *testing.T) {
	// A zero price cannot produce a percentage change; the slot stays zero.
	returns := CalculateReturns([]float64{0, 50, 100})
	require.Len(t, returns, 2)
	assert.Equal(t, 0.0, returns[0])
	assert.InDelta(t, 1.0, returns[1], 1e-12)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Nil(t, AnnualizedVolatility([]float64{0.01}))

	daily := []float64{0.01, -0.02, 0.005, 0.015}
	got := AnnualizedVolatility(daily)
	require.NotNil(t, got)
	assert.InDelta(t, StdDev(daily)*math.Sqrt(252), *got, 1e-12)
}

func TestDailyRiskFreeRate(t *testing.T) {
	assert.Equal(t, 0.0, DailyRiskFreeRate(0))

	// Compounding the daily rate back over 252 days recovers the annual rate.
	daily := DailyRiskFreeRate(0.05)
	assert.InDelta(t, 0.05, math.Pow(1+daily, 252)-1, 1e-12)
}

func TestBeta(t *testing.T) {
	t.Run("perfectly correlated doubles", func(t *testing.T) {
		market := []float64{0.01, -0.02, 0.03, 0.005}
		asset := make([]float64, len(market))
		for i, m := range market {
			asset[i] = 2 * m
		}
		beta := Beta(asset, market)
		require.NotNil(t, beta)
		assert.InDelta(t, 2.0, *beta, 1e-12)
	})

	t.Run("flat market has no beta", func(t *testing.T) {
		assert.Nil(t, Beta([]float64{0.01, 0.02}, []float64{0.01, 0.01}))
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		assert.Nil(t, Beta([]float64{0.01, 0.02, 0.03}, []float64{0.01, 0.02}))
	})
}

func TestTreynor(t *testing.T) {
	beta := 1.5
	daily := []float64{0.001, 0.002, -0.001, 0.0015}

	got := Treynor(daily, 0.02, &beta)
	require.NotNil(t, got)
	expected := (Mean(daily)*252 - 0.02) / 1.5
	assert.InDelta(t, expected, *got, 1e-12)

	zero := 0.0
	assert.Nil(t, Treynor(daily, 0.02, &zero))
	assert.Nil(t, Treynor(daily, 0.02, nil))
}
