package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlis/riskfolio/pkg/formulas"
)

func TestGenerateIsDeterministic(t *testing.T) {
	sim := NewSimulator()
	calendar := businessCalendar(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 20)

	first, err := sim.Generate(context.Background(), 50, 20, 10000, 0.0005, 0.012, calendar)
	require.NoError(t, err)
	second, err := sim.Generate(context.Background(), 50, 20, 10000, 0.0005, 0.012, calendar)
	require.NoError(t, err)

	// Each path is seeded by its index, so two runs with identical inputs
	// are identical regardless of worker scheduling.
	require.Len(t, first, 50)
	require.Len(t, second, 50)
	for i := range first {
		assert.Equal(t, first[i].Index, second[i].Index)
		assert.Equal(t, first[i].Values, second[i].Values)
	}
}

func TestGeneratePathShape(t *testing.T) {
	sim := NewSimulator()
	calendar := businessCalendar(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 10)

	paths, err := sim.Generate(context.Background(), 3, 10, 10000, 0.0005, 0.012, calendar)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for i, p := range paths {
		assert.Equal(t, i, p.Index)
		assert.Len(t, p.Values, 10)
		assert.Equal(t, calendar, p.Dates)
		for _, v := range p.Values {
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestGenerateDistinctPaths(t *testing.T) {
	sim := NewSimulator()
	calendar := businessCalendar(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 10)

	paths, err := sim.Generate(context.Background(), 2, 10, 10000, 0.0005, 0.012, calendar)
	require.NoError(t, err)
	assert.NotEqual(t, paths[0].Values, paths[1].Values)
}

func TestGenerateZeroVolatility(t *testing.T) {
	sim := NewSimulator()
	calendar := businessCalendar(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 5)

	paths, err := sim.Generate(context.Background(), 2, 5, 10000, 0.001, 0, calendar)
	require.NoError(t, err)

	// With zero volatility every path collapses to the pure drift curve.
	assert.Equal(t, paths[0].Values, paths[1].Values)
	for i := 1; i < len(paths[0].Values); i++ {
		assert.Greater(t, paths[0].Values[i], paths[0].Values[i-1])
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	sim := NewSimulator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calendar := businessCalendar(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 252)
	paths, err := sim.Generate(ctx, 10000, 252, 10000, 0.0005, 0.012, calendar)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, paths)
}

func TestBusinessCalendar(t *testing.T) {
	// Friday 2024-01-05: the next five business days skip the weekend.
	got := businessCalendar(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 5)
	assert.Equal(t, []string{
		"2024-01-08", "2024-01-09", "2024-01-10", "2024-01-11", "2024-01-12",
	}, got)
}

func TestBusinessCalendarStartsStrictlyAfter(t *testing.T) {
	// A Wednesday start is excluded from its own calendar.
	got := businessCalendar(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 2)
	assert.Equal(t, []string{"2024-01-04", "2024-01-05"}, got)
}

func TestMeasurePath(t *testing.T) {
	p := Path{Index: 7, Values: []float64{10100, 9900, 10200, 9800, 10300}}
	m := measurePath(p)

	assert.Equal(t, 7, m.Index)
	assert.Equal(t, 10300.0, m.FinalValue)
	require.NotNil(t, m.MaxDrawdown)
	assert.LessOrEqual(t, *m.MaxDrawdown, 0.0)
	require.NotNil(t, m.ValueAtRisk)
	require.NotNil(t, m.CVaR)
	assert.LessOrEqual(t, *m.CVaR, *m.ValueAtRisk)

	// The metrics see only the four changes within the path; the step
	// from the starting value into the path is not an observation.
	intra := []float64{
		(9900.0 - 10100.0) / 10100.0,
		(10200.0 - 9900.0) / 9900.0,
		(9800.0 - 10200.0) / 10200.0,
		(10300.0 - 9800.0) / 9800.0,
	}
	assert.InDelta(t, *formulas.ValueAtRisk(intra, 0.05), *m.ValueAtRisk, 1e-12)
	assert.InDelta(t, *formulas.SharpeRatio(intra), *m.Sharpe, 1e-12)
}

func TestMeasurePathEmpty(t *testing.T) {
	m := measurePath(Path{Index: 3})
	assert.Equal(t, 3, m.Index)
	assert.Zero(t, m.FinalValue)
	assert.Nil(t, m.Sharpe)
	assert.Nil(t, m.MaxDrawdown)
}

func TestMeasurePathSingleStep(t *testing.T) {
	m := measurePath(Path{Index: 1, Values: []float64{10100}})
	assert.Equal(t, 10100.0, m.FinalValue)
	// One value yields no changes, so every metric is unavailable.
	assert.Nil(t, m.Sharpe)
	assert.Nil(t, m.ValueAtRisk)
}
