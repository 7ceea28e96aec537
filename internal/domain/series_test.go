package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesClean(t *testing.T) {
	s := Series{
		Dates:  []string{"2024-01-02", "2024-01-03", "2024-01-04"},
		Values: []float64{1.0, math.NaN(), 3.0},
	}

	clean := s.Clean()
	assert.Equal(t, []string{"2024-01-02", "2024-01-04"}, clean.Dates)
	assert.Equal(t, []float64{1.0, 3.0}, clean.Values)

	// Original is untouched.
	assert.Equal(t, 3, s.Len())
}

func TestSeriesLast(t *testing.T) {
	t.Run("skips trailing missing", func(t *testing.T) {
		s := Series{
			Dates:  []string{"2024-01-02", "2024-01-03"},
			Values: []float64{2.5, math.NaN()},
		}
		v, ok := s.Last()
		assert.True(t, ok)
		assert.Equal(t, 2.5, v)
	})

	t.Run("all missing", func(t *testing.T) {
		s := Series{Dates: []string{"2024-01-02"}, Values: []float64{math.NaN()}}
		_, ok := s.Last()
		assert.False(t, ok)
	})
}

func TestSeriesPctChange(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		assert.True(t, Series{Dates: []string{"2024-01-02"}, Values: []float64{1}}.PctChange().IsEmpty())
	})

	t.Run("indexed from second date", func(t *testing.T) {
		s := Series{
			Dates:  []string{"2024-01-02", "2024-01-03", "2024-01-04"},
			Values: []float64{100, 110, 99},
		}
		ch := s.PctChange()
		require.Equal(t, []string{"2024-01-03", "2024-01-04"}, ch.Dates)
		assert.InDelta(t, 0.10, ch.Values[0], 1e-12)
		assert.InDelta(t, -0.10, ch.Values[1], 1e-12)
	})

	t.Run("missing base propagates missing", func(t *testing.T) {
		s := Series{
			Dates:  []string{"2024-01-02", "2024-01-03", "2024-01-04"},
			Values: []float64{math.NaN(), 110, 121},
		}
		ch := s.PctChange()
		assert.True(t, math.IsNaN(ch.Values[0]))
		assert.InDelta(t, 0.10, ch.Values[1], 1e-12)
	})
}

func TestAlign(t *testing.T) {
	a := Series{
		Dates:  []string{"2024-01-02", "2024-01-03", "2024-01-04"},
		Values: []float64{0.01, 0.02, math.NaN()},
	}
	b := Series{
		Dates:  []string{"2024-01-03", "2024-01-04", "2024-01-05"},
		Values: []float64{0.005, 0.01, 0.02},
	}

	x, y, dates := Align(a, b)
	assert.Equal(t, []string{"2024-01-03"}, dates)
	assert.Equal(t, []float64{0.02}, x)
	assert.Equal(t, []float64{0.005}, y)
}

func TestNewFrame(t *testing.T) {
	frame := NewFrame([]string{"AAPL", "MSFT", "EMPTY"}, map[string]Series{
		"AAPL": {
			Dates:  []string{"2024-01-02", "2024-01-03"},
			Values: []float64{185, 184},
		},
		"MSFT": {
			Dates:  []string{"2024-01-03", "2024-01-04"},
			Values: []float64{370, 371},
		},
		"EMPTY": {},
	})

	// Empty columns are dropped, dates are the sorted union.
	assert.Equal(t, []string{"AAPL", "MSFT"}, frame.Columns)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, frame.Dates)

	aapl, ok := frame.Column("AAPL")
	require.True(t, ok)
	assert.Equal(t, 185.0, aapl.Values[0])
	assert.True(t, math.IsNaN(aapl.Values[2]))

	msft, ok := frame.Column("MSFT")
	require.True(t, ok)
	assert.True(t, math.IsNaN(msft.Values[0]))
	assert.Equal(t, 371.0, msft.Values[2])
}

func TestFrameWeightedSum(t *testing.T) {
	frame := NewFrame([]string{"A", "B"}, map[string]Series{
		"A": {Dates: []string{"2024-01-02", "2024-01-03"}, Values: []float64{10, 20}},
		"B": {Dates: []string{"2024-01-02"}, Values: []float64{100}},
	})

	sum := frame.WeightedSum(map[string]float64{"A": 0.5, "B": 0.25})
	require.Equal(t, 2, sum.Len())
	assert.InDelta(t, 30.0, sum.Values[0], 1e-12)
	// B is missing on the second date; the present cell still contributes.
	assert.InDelta(t, 10.0, sum.Values[1], 1e-12)
}

func TestFrameDot(t *testing.T) {
	frame := NewFrame([]string{"A", "B"}, map[string]Series{
		"A": {Dates: []string{"2024-01-02", "2024-01-03"}, Values: []float64{10, 20}},
		"B": {Dates: []string{"2024-01-02"}, Values: []float64{100}},
	})

	dot := frame.Dot(map[string]float64{"A": 0.5, "B": 0.25})
	require.Equal(t, 2, dot.Len())
	assert.InDelta(t, 30.0, dot.Values[0], 1e-12)
	// Any missing cell makes the projected row missing.
	assert.True(t, math.IsNaN(dot.Values[1]))
}

func TestFrameCompleteCases(t *testing.T) {
	frame := NewFrame([]string{"A", "B"}, map[string]Series{
		"A": {Dates: []string{"2024-01-02", "2024-01-03", "2024-01-04"}, Values: []float64{1, 2, 3}},
		"B": {Dates: []string{"2024-01-02", "2024-01-04"}, Values: []float64{10, 30}},
	})

	complete := frame.CompleteCases()
	assert.Equal(t, []string{"2024-01-02", "2024-01-04"}, complete.Dates)
	assert.Equal(t, []float64{1, 3}, complete.Data["A"])
	assert.Equal(t, []float64{10, 30}, complete.Data["B"])

	t.Run("no complete rows yields empty frame", func(t *testing.T) {
		f := NewFrame([]string{"A", "B"}, map[string]Series{
			"A": {Dates: []string{"2024-01-02"}, Values: []float64{1}},
			"B": {Dates: []string{"2024-01-03"}, Values: []float64{2}},
		})
		assert.True(t, f.CompleteCases().IsEmpty())
	})
}
