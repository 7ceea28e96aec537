package ledger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlis/riskfolio/internal/domain"
)

var replayDates = []string{"2024-01-02", "2024-01-03", "2024-01-04"}

func replayPrices() domain.Frame {
	return domain.NewFrame([]string{"AAPL", "MSFT"}, map[string]domain.Series{
		"AAPL": {Dates: replayDates, Values: []float64{100, 110, 105}},
		"MSFT": {Dates: replayDates, Values: []float64{200, 205, 210}},
	})
}

func newTestEngine() *Engine {
	return NewEngine(zerolog.Nop())
}

func TestReplayEmptyLedger(t *testing.T) {
	result := newTestEngine().Replay(replayPrices(), nil, 1000, nil, false)
	assert.Empty(t, result.Rows)
	assert.Empty(t, result.Skipped)
}

func TestReplayBuyAndMarkToMarket(t *testing.T) {
	ledger := []domain.TransactionRecord{
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "AAPL", Quantity: 5, Price: 100},
	}

	result := newTestEngine().Replay(replayPrices(), ledger, 1000, nil, true)
	require.Len(t, result.Rows, 3)
	assert.Empty(t, result.Skipped)

	// Day one: 500 cash spent, 5 shares at the 100 close.
	assert.Equal(t, "2024-01-02", result.Rows[0].Date)
	assert.Equal(t, 500.0, result.Rows[0].Cash)
	assert.Equal(t, 1000.0, result.Rows[0].TotalValue)
	assert.Equal(t, map[string]float64{"AAPL": 500}, result.Rows[0].Holdings)

	// Day two marks the position at 110.
	assert.Equal(t, 500.0, result.Rows[1].Cash)
	assert.Equal(t, 1050.0, result.Rows[1].TotalValue)
}

func TestReplayBuySellSequence(t *testing.T) {
	ledger := []domain.TransactionRecord{
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "AAPL", Quantity: 5, Price: 100},
		{Date: "2024-01-03", Side: domain.SideSell, Symbol: "AAPL", Quantity: 5, Price: 110},
	}

	result := newTestEngine().Replay(replayPrices(), ledger, 1000, nil, true)
	require.Len(t, result.Rows, 3)
	assert.Empty(t, result.Skipped)

	// After the full sell the position is gone and only cash remains.
	assert.Equal(t, 1050.0, result.Rows[1].Cash)
	assert.Equal(t, 1050.0, result.Rows[1].TotalValue)
	assert.Empty(t, result.Rows[1].Holdings)
	assert.Equal(t, 1050.0, result.Rows[2].TotalValue)
}

func TestReplayInsufficientCash(t *testing.T) {
	ledger := []domain.TransactionRecord{
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "AAPL", Quantity: 50, Price: 100},
	}

	result := newTestEngine().Replay(replayPrices(), ledger, 1000, nil, false)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "insufficient cash", result.Skipped[0].Reason)

	// State is untouched by the skipped buy.
	require.Len(t, result.Rows, 3)
	assert.Equal(t, 1000.0, result.Rows[0].Cash)
	assert.Equal(t, 1000.0, result.Rows[0].TotalValue)
}

func TestReplayInsufficientShares(t *testing.T) {
	ledger := []domain.TransactionRecord{
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "AAPL", Quantity: 2, Price: 100},
		{Date: "2024-01-03", Side: domain.SideSell, Symbol: "AAPL", Quantity: 5, Price: 110},
	}

	result := newTestEngine().Replay(replayPrices(), ledger, 1000, nil, false)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "insufficient shares", result.Skipped[0].Reason)

	// The held quantity carries forward unchanged.
	assert.Equal(t, 800.0, result.Rows[1].Cash)
	assert.Equal(t, 800.0+2*110, result.Rows[1].TotalValue)
}

func TestReplaySeededQuantities(t *testing.T) {
	ledger := []domain.TransactionRecord{
		{Date: "2024-01-03", Side: domain.SideSell, Symbol: "MSFT", Quantity: 1, Price: 205},
	}
	seed := map[string]float64{"MSFT": 3}

	result := newTestEngine().Replay(replayPrices(), ledger, 100, seed, false)
	require.Len(t, result.Rows, 3)
	assert.Empty(t, result.Skipped)

	// Day one values the seeded shares at the 200 close.
	assert.Equal(t, 100.0+3*200, result.Rows[0].TotalValue)
	// Day two sells one share at 205.
	assert.Equal(t, 305.0, result.Rows[1].Cash)
	assert.Equal(t, 305.0+2*205, result.Rows[1].TotalValue)

	// The caller's seed map is never mutated.
	assert.Equal(t, 3.0, seed["MSFT"])
}

func TestReplaySkipsMissingPrices(t *testing.T) {
	prices := domain.NewFrame([]string{"AAPL"}, map[string]domain.Series{
		"AAPL": {Dates: []string{"2024-01-02", "2024-01-04"}, Values: []float64{100, 105}},
	})
	ledger := []domain.TransactionRecord{
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "AAPL", Quantity: 2, Price: 100},
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "NFLX", Quantity: 1, Price: 500},
	}

	result := newTestEngine().Replay(prices, ledger, 1000, nil, true)
	require.Len(t, result.Rows, 2)
	assert.Empty(t, result.Skipped)

	// NFLX has no price column so it contributes no value, only the cash
	// spent on it leaves the balance.
	assert.Equal(t, 300.0, result.Rows[0].Cash)
	assert.Equal(t, 300.0+2*100, result.Rows[0].TotalValue)
	assert.NotContains(t, result.Rows[0].Holdings, "NFLX")
}

func TestReplayUnknownSide(t *testing.T) {
	ledger := []domain.TransactionRecord{
		{Date: "2024-01-02", Side: domain.TradeSide("short"), Symbol: "AAPL", Quantity: 1, Price: 100},
	}

	result := newTestEngine().Replay(replayPrices(), ledger, 1000, nil, false)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "unknown side", result.Skipped[0].Reason)
}

func TestReplayTransactionsOffPriceDatesAreIgnored(t *testing.T) {
	// A transaction dated outside the price matrix never executes; the
	// replay iterates matrix dates only.
	ledger := []domain.TransactionRecord{
		{Date: "2024-02-15", Side: domain.SideBuy, Symbol: "AAPL", Quantity: 1, Price: 100},
	}

	result := newTestEngine().Replay(replayPrices(), ledger, 1000, nil, false)
	require.Len(t, result.Rows, 3)
	for _, row := range result.Rows {
		assert.Equal(t, 1000.0, row.Cash)
	}
}
