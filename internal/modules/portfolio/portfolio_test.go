package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// fakeInstrument serves canned price series for core tests.
type fakeInstrument struct {
	symbol string
	closes domain.Series
}

func (f *fakeInstrument) Symbol() string             { return f.symbol }
func (f *fakeInstrument) CloseSeries() domain.Series { return f.closes }
func (f *fakeInstrument) AdjustedReturnSeries() domain.Series {
	return f.closes.PctChange()
}

// fakeMarket serves a canned index series.
type fakeMarket struct {
	closes domain.Series
}

func (f *fakeMarket) MarketCloseSeries(symbol string) domain.Series { return f.closes }

func testInstrument(symbol string, dates []string, closes []float64) *fakeInstrument {
	return &fakeInstrument{symbol: symbol, closes: domain.Series{Dates: dates, Values: closes}}
}

func testPortfolio(t *testing.T, holdings map[string]*Holding) *Portfolio {
	t.Helper()
	p, err := New(holdings, 0.02, 1000, &fakeMarket{}, "^GSPC", zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestNewDerivesWeights(t *testing.T) {
	p := testPortfolio(t, map[string]*Holding{
		"AAPL": NewHolding("AAPL", 5000, 6000, 10, nil),
		"MSFT": NewHolding("MSFT", 3500, 4000, 4, nil),
	})

	weights, err := p.Weights()
	require.NoError(t, err)
	assert.InDelta(t, 0.6, weights["AAPL"], 1e-12)
	assert.InDelta(t, 0.4, weights["MSFT"], 1e-12)

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestNewZeroValuePortfolio(t *testing.T) {
	_, err := New(map[string]*Holding{
		"AAPL": NewHolding("AAPL", 100, 0, 0, nil),
	}, 0.02, 0, &fakeMarket{}, "^GSPC", zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrZeroValuePortfolio)
}

func TestEmptyPortfolio(t *testing.T) {
	p := testPortfolio(t, nil)

	weights, err := p.Weights()
	require.NoError(t, err)
	assert.Empty(t, weights)
	assert.Equal(t, 0.0, p.TotalValue())
	assert.Empty(t, p.Symbols())
}

func TestUpdateStockBuy(t *testing.T) {
	p := testPortfolio(t, map[string]*Holding{
		"AAPL": NewHolding("AAPL", 400, 500, 5, nil),
	})

	require.NoError(t, p.UpdateStock("AAPL", 10, 50, true))

	h := p.Holding("AAPL")
	require.NotNil(t, h)
	assert.Equal(t, 1000.0, h.Value)
	assert.Equal(t, 900.0, h.Invested)
	assert.Equal(t, 15.0, h.Quantity)
}

func TestUpdateStockBuyCreatesHolding(t *testing.T) {
	p := testPortfolio(t, nil)

	require.NoError(t, p.UpdateStock("MSFT", 2, 300, true))

	h := p.Holding("MSFT")
	require.NotNil(t, h)
	assert.Equal(t, 600.0, h.Value)
	assert.Equal(t, 600.0, h.Invested)

	weights, err := p.Weights()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, weights["MSFT"], 1e-12)
}

func TestUpdateStockBuySellRoundTrip(t *testing.T) {
	p := testPortfolio(t, nil)

	require.NoError(t, p.UpdateStock("AAPL", 10, 100, true))
	require.NoError(t, p.UpdateStock("AAPL", 4, 100, false))

	h := p.Holding("AAPL")
	require.NotNil(t, h)
	assert.Equal(t, 600.0, h.Value)
	assert.Equal(t, 6.0, h.Quantity)
	// Invested capital is not returned by a sale.
	assert.Equal(t, 1000.0, h.Invested)
}

func TestUpdateStockSellUnknownSymbol(t *testing.T) {
	p := testPortfolio(t, nil)

	err := p.UpdateStock("NFLX", 1, 100, false)
	assert.ErrorIs(t, err, domain.ErrUnknownPosition)
}

func TestUpdateStockSellInsufficient(t *testing.T) {
	p := testPortfolio(t, map[string]*Holding{
		"AAPL": NewHolding("AAPL", 400, 500, 5, nil),
	})
	epochBefore := p.Epoch()

	err := p.UpdateStock("AAPL", 10, 100, false)
	assert.ErrorIs(t, err, domain.ErrInsufficientPosition)

	// Failed sells leave the holding and epoch untouched.
	h := p.Holding("AAPL")
	require.NotNil(t, h)
	assert.Equal(t, 500.0, h.Value)
	assert.Equal(t, 5.0, h.Quantity)
	assert.Equal(t, epochBefore, p.Epoch())
}

func TestUpdateStockSellToZeroRemovesHolding(t *testing.T) {
	p := testPortfolio(t, map[string]*Holding{
		"AAPL": NewHolding("AAPL", 400, 500, 5, nil),
		"MSFT": NewHolding("MSFT", 400, 500, 2, nil),
	})

	require.NoError(t, p.UpdateStock("AAPL", 5, 100, false))

	assert.Nil(t, p.Holding("AAPL"))
	assert.Equal(t, []string{"MSFT"}, p.Symbols())

	weights, err := p.Weights()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, weights["MSFT"], 1e-12)
}

func TestUpdateStockBumpsEpoch(t *testing.T) {
	p := testPortfolio(t, nil)
	before := p.Epoch()

	require.NoError(t, p.UpdateStock("AAPL", 1, 100, true))
	assert.Equal(t, before+1, p.Epoch())

	require.NoError(t, p.UpdateStock("AAPL", 1, 100, true))
	assert.Equal(t, before+2, p.Epoch())
}

func TestHasStock(t *testing.T) {
	inst := testInstrument("AAPL",
		[]string{"2024-01-02", "2024-01-03"},
		[]float64{100, 110},
	)
	p := testPortfolio(t, map[string]*Holding{
		"AAPL": NewHolding("AAPL", 400, 550, 5, inst),
	})

	// 550 held at a 110 close covers 5 shares but not 6.
	assert.True(t, p.HasStock("AAPL", 5))
	assert.False(t, p.HasStock("AAPL", 6))
	assert.False(t, p.HasStock("NFLX", 1))
}

func TestQuantitySnapshot(t *testing.T) {
	p := testPortfolio(t, map[string]*Holding{
		"AAPL": NewHolding("AAPL", 400, 500, 5, nil),
		"MSFT": NewHolding("MSFT", 400, 500, 2, nil),
	})

	snap := p.QuantitySnapshot()
	assert.Equal(t, map[string]float64{"AAPL": 5, "MSFT": 2}, snap)

	// Snapshot is a copy.
	snap["AAPL"] = 99
	assert.Equal(t, 5.0, p.Holding("AAPL").Quantity)
}

func TestHoldingTotalReturn(t *testing.T) {
	h := NewHolding("AAPL", 400, 500, 5, nil)
	r := h.TotalReturn()
	require.NotNil(t, r)
	assert.InDelta(t, 0.25, *r, 1e-12)

	assert.Nil(t, NewHolding("X", 0, 100, 1, nil).TotalReturn())
}
