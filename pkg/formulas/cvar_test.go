package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		p        float64
		expected float64
	}{
		{
			name:     "median of odd length",
			data:     []float64{3, 1, 2},
			p:        0.5,
			expected: 2,
		},
		{
			name:     "median interpolates between order statistics",
			data:     []float64{1, 2, 3, 4},
			p:        0.5,
			expected: 2.5,
		},
		{
			name:     "p at zero returns minimum",
			data:     []float64{5, 1, 3},
			p:        0,
			expected: 1,
		},
		{
			name:     "p at one returns maximum",
			data:     []float64{5, 1, 3},
			p:        1,
			expected: 5,
		},
		{
			name:     "fifth percentile of 1..21",
			data:     []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21},
			p:        0.05,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.data, tt.p)
			require.NotNil(t, got)
			assert.InDelta(t, tt.expected, *got, 1e-12)
		})
	}

	t.Run("empty data", func(t *testing.T) {
		assert.Nil(t, Percentile(nil, 0.5))
	})
}

func TestValueAtRisk(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.01, 0.02, 0.03}

	got := ValueAtRisk(returns, 0.05)
	require.NotNil(t, got)
	// rank 0.05*4 = 0.2, between -0.05 and -0.02
	assert.InDelta(t, -0.044, *got, 1e-12)

	assert.Nil(t, ValueAtRisk(nil, 0.05))
}

func TestConditionalValueAtRisk(t *testing.T) {
	returns := []float64{-0.06, -0.04, -0.01, 0.01, 0.02, 0.03}

	varLevel := ValueAtRisk(returns, 0.05)
	cvar := ConditionalValueAtRisk(returns, 0.05)
	require.NotNil(t, varLevel)
	require.NotNil(t, cvar)

	// Expected shortfall is never better than the VaR threshold.
	assert.LessOrEqual(t, *cvar, *varLevel)

	assert.Nil(t, ConditionalValueAtRisk(nil, 0.05))
}

func TestConditionalValueAtRiskSingleTailObservation(t *testing.T) {
	// The interpolated VaR sits between the single loss and the best of
	// the rest, so the tail mean is exactly that loss.
	returns := []float64{-0.10, 0.01, 0.02, 0.03, 0.04}

	cvar := ConditionalValueAtRisk(returns, 0.05)
	require.NotNil(t, cvar)
	assert.InDelta(t, -0.10, *cvar, 1e-9)
}
