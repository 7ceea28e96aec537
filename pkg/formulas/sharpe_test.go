package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharpeRatio(t *testing.T) {
	t.Run("too few observations", func(t *testing.T) {
		assert.Nil(t, SharpeRatio(nil))
		assert.Nil(t, SharpeRatio([]float64{0.01}))
	})

	t.Run("constant excess has zero deviation", func(t *testing.T) {
		assert.Nil(t, SharpeRatio([]float64{0.01, 0.01, 0.01}))
	})

	t.Run("annualized ratio", func(t *testing.T) {
		excess := []float64{0.01, -0.005, 0.02, 0.003}
		got := SharpeRatio(excess)
		require.NotNil(t, got)
		expected := Mean(excess) / StdDev(excess) * math.Sqrt(252)
		assert.InDelta(t, expected, *got, 1e-12)
	})
}

func TestSortinoRatio(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		assert.Nil(t, SortinoRatio(nil))
	})

	t.Run("needs at least two negative observations", func(t *testing.T) {
		assert.Nil(t, SortinoRatio([]float64{0.01, 0.02, -0.01}))
	})

	t.Run("downside deviation in the denominator", func(t *testing.T) {
		excess := []float64{0.01, -0.005, 0.02, -0.015, 0.003}
		got := SortinoRatio(excess)
		require.NotNil(t, got)

		downside := []float64{-0.005, -0.015}
		expected := Mean(excess) / StdDev(downside) * math.Sqrt(252)
		assert.InDelta(t, expected, *got, 1e-12)
	})

	t.Run("exceeds sharpe when upside dominates dispersion", func(t *testing.T) {
		excess := []float64{0.03, -0.001, 0.04, -0.002, 0.05}
		sortino := SortinoRatio(excess)
		sharpe := SharpeRatio(excess)
		require.NotNil(t, sortino)
		require.NotNil(t, sharpe)
		assert.Greater(t, *sortino, *sharpe)
	})
}
