package universe_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/internal/modules/universe"
	riskfoliotesting "github.com/mkarlis/riskfolio/internal/testing"
)

func newTestPriceRepository(t *testing.T) *universe.PriceRepository {
	t.Helper()
	db, cleanup := riskfoliotesting.NewTestDB(t, "history")
	t.Cleanup(cleanup)
	return universe.NewPriceRepository(db.Conn(), zerolog.Nop())
}

func seededPriceRepository(t *testing.T) *universe.PriceRepository {
	t.Helper()
	repo := newTestPriceRepository(t)
	require.NoError(t, repo.UpsertDailyPrices(riskfoliotesting.NewDailyPriceFixtures()))
	return repo
}

func TestPriceRepositoryCloseSeries(t *testing.T) {
	repo := seededPriceRepository(t)

	series, err := repo.CloseSeries("AAPL")
	require.NoError(t, err)
	require.Equal(t, 5, series.Len())
	assert.Equal(t, "2024-01-02", series.Dates[0])
	assert.Equal(t, 185.0, series.Values[0])
	// Ascending date order.
	assert.Equal(t, "2024-01-08", series.Dates[4])
}

func TestPriceRepositoryCloseSeriesUnknownSymbol(t *testing.T) {
	repo := seededPriceRepository(t)

	series, err := repo.CloseSeries("NFLX")
	require.NoError(t, err)
	assert.True(t, series.IsEmpty())
}

func TestPriceRepositoryUpsertReplacesExisting(t *testing.T) {
	repo := seededPriceRepository(t)

	adjusted := 190.5
	require.NoError(t, repo.UpsertDailyPrices([]universe.DailyPrice{
		{Symbol: "AAPL", Date: "2024-01-08", Close: 190.0, AdjustedClose: &adjusted},
	}))

	series, err := repo.CloseSeries("AAPL")
	require.NoError(t, err)
	require.Equal(t, 5, series.Len())
	assert.Equal(t, 190.0, series.Values[4])
}

func TestPriceRepositoryAdjustedCloseFallsBackToClose(t *testing.T) {
	repo := newTestPriceRepository(t)
	require.NoError(t, repo.UpsertDailyPrices([]universe.DailyPrice{
		{Symbol: "AAPL", Date: "2024-01-02", Close: 185.0},
	}))

	series, err := repo.AdjustedCloseSeries("AAPL")
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, 185.0, series.Values[0])
}

func TestPriceRepositoryCloseOn(t *testing.T) {
	repo := seededPriceRepository(t)

	price, err := repo.CloseOn("AAPL", "2024-01-03")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 184.25, *price)

	missing, err := repo.CloseOn("AAPL", "2024-02-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPriceRepositoryLastCloseAt(t *testing.T) {
	repo := seededPriceRepository(t)

	// 2024-01-06 is a Saturday; the latest close at or before it is Friday's.
	price, err := repo.LastCloseAt("AAPL", "2024-01-06")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 181.18, *price)

	before, err := repo.LastCloseAt("AAPL", "2023-12-29")
	require.NoError(t, err)
	assert.Nil(t, before)
}

func TestPriceRepositorySymbols(t *testing.T) {
	repo := seededPriceRepository(t)

	symbols, err := repo.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestPriceRepositoryMarketPrices(t *testing.T) {
	repo := newTestPriceRepository(t)

	series := domain.Series{
		Dates:  []string{"2024-01-02", "2024-01-03"},
		Values: []float64{4742.83, 4704.81},
	}
	require.NoError(t, repo.UpsertMarketPrices("^GSPC", series))

	got, err := repo.MarketCloseSeries("^GSPC")
	require.NoError(t, err)
	assert.Equal(t, series.Dates, got.Dates)
	assert.Equal(t, series.Values, got.Values)
}

func TestSecurityCloseSeriesUsesAdjustedClose(t *testing.T) {
	repo := newTestPriceRepository(t)
	adjusted := []float64{90.0, 91.0}
	require.NoError(t, repo.UpsertDailyPrices([]universe.DailyPrice{
		{Symbol: "AAPL", Date: "2024-01-02", Close: 100.0, AdjustedClose: &adjusted[0]},
		{Symbol: "AAPL", Date: "2024-01-03", Close: 101.0, AdjustedClose: &adjusted[1]},
	}))
	security := universe.NewSecurity("AAPL", repo, zerolog.Nop())

	series := security.CloseSeries()
	require.Equal(t, 2, series.Len())
	assert.Equal(t, adjusted, series.Values)
}

func TestSecurityAdjustedReturnSeries(t *testing.T) {
	repo := seededPriceRepository(t)
	security := universe.NewSecurity("AAPL", repo, zerolog.Nop())

	assert.Equal(t, "AAPL", security.Symbol())

	returns := security.AdjustedReturnSeries()
	require.Equal(t, 4, returns.Len())
	assert.InDelta(t, (184.25-185.0)/185.0, returns.Values[0], 1e-12)
}
