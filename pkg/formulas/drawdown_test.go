package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDrawdown(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		assert.Nil(t, MaxDrawdown(nil))
	})

	t.Run("monotonic gains have zero drawdown", func(t *testing.T) {
		got := MaxDrawdown([]float64{0.01, 0.02, 0.005})
		require.NotNil(t, got)
		assert.Equal(t, 0.0, *got)
	})

	t.Run("single drop", func(t *testing.T) {
		// Wealth: 1.10, then 0.88 (a 20% fall from the peak).
		got := MaxDrawdown([]float64{0.10, -0.20})
		require.NotNil(t, got)
		assert.InDelta(t, -0.20, *got, 1e-12)
	})

	t.Run("recovery does not erase the trough", func(t *testing.T) {
		got := MaxDrawdown([]float64{0.10, -0.30, 0.50})
		require.NotNil(t, got)
		assert.InDelta(t, -0.30, *got, 1e-12)
	})

	t.Run("always non-positive", func(t *testing.T) {
		got := MaxDrawdown([]float64{0.05, -0.01, 0.02, -0.03, 0.01})
		require.NotNil(t, got)
		assert.LessOrEqual(t, *got, 0.0)
	})
}

func TestMaxDrawdownFromValues(t *testing.T) {
	assert.Nil(t, MaxDrawdownFromValues([]float64{100}))

	got := MaxDrawdownFromValues([]float64{100, 120, 90, 110})
	require.NotNil(t, got)
	assert.InDelta(t, -0.25, *got, 1e-12)
}

func TestHighestLowest(t *testing.T) {
	assert.Nil(t, Highest(nil))
	assert.Nil(t, Lowest(nil))

	prices := []float64{101.5, 99.2, 104.8, 100.0}

	high := Highest(prices)
	require.NotNil(t, high)
	assert.Equal(t, 104.8, *high)

	low := Lowest(prices)
	require.NotNil(t, low)
	assert.Equal(t, 99.2, *low)
}
