package testing

import (
	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
	"github.com/mkarlis/riskfolio/internal/modules/universe"
)

// NewDailyPriceFixtures returns a small two-symbol price history with
// adjusted closes, five consecutive trading days.
func NewDailyPriceFixtures() []universe.DailyPrice {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"}
	aapl := []float64{185.0, 184.25, 181.91, 181.18, 185.56}
	msft := []float64{370.87, 370.60, 367.94, 367.75, 374.69}

	prices := make([]universe.DailyPrice, 0, 2*len(dates))
	for i, date := range dates {
		prices = append(prices, universe.DailyPrice{
			Symbol:        "AAPL",
			Date:          date,
			Close:         aapl[i],
			AdjustedClose: floatPtr(aapl[i]),
		})
		prices = append(prices, universe.DailyPrice{
			Symbol:        "MSFT",
			Date:          date,
			Close:         msft[i],
			AdjustedClose: floatPtr(msft[i]),
		})
	}
	return prices
}

// NewPositionFixtures returns positions matching the price fixtures.
func NewPositionFixtures() []portfolio.Position {
	return []portfolio.Position{
		{Symbol: "AAPL", Quantity: 10, Invested: 1700, Value: 1855.6},
		{Symbol: "MSFT", Quantity: 4, Invested: 1400, Value: 1498.76},
	}
}

// NewTransactionFixtures returns a short ledger with one buy per symbol
// followed by a partial sell.
func NewTransactionFixtures() []domain.TransactionRecord {
	return []domain.TransactionRecord{
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "AAPL", Quantity: 10, Price: 185.0},
		{Date: "2024-01-02", Side: domain.SideBuy, Symbol: "MSFT", Quantity: 4, Price: 370.87},
		{Date: "2024-01-05", Side: domain.SideSell, Symbol: "AAPL", Quantity: 2, Price: 181.18},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
