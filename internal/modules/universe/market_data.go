package universe

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// IndexFetcher pulls benchmark index closes from an external source.
type IndexFetcher interface {
	FetchIndexCloses(ctx context.Context, symbol string, from, to time.Time) (domain.Series, error)
}

// MarketDataSource serves benchmark index history, preferring the local
// store and falling back to a remote fetch that is persisted for next
// time. It satisfies domain.MarketData.
type MarketDataSource struct {
	repo    *PriceRepository
	fetcher IndexFetcher
	log     zerolog.Logger
}

// NewMarketDataSource creates a market data source. fetcher may be nil,
// in which case only stored history is served.
func NewMarketDataSource(repo *PriceRepository, fetcher IndexFetcher, log zerolog.Logger) *MarketDataSource {
	return &MarketDataSource{
		repo:    repo,
		fetcher: fetcher,
		log:     log.With().Str("component", "market_data").Logger(),
	}
}

// MarketCloseSeries returns the benchmark's close history. A fetch or
// store failure degrades to whatever is locally available; beta simply
// becomes unavailable downstream.
func (m *MarketDataSource) MarketCloseSeries(symbol string) domain.Series {
	series, err := m.repo.MarketCloseSeries(symbol)
	if err != nil {
		m.log.Error().Str("symbol", symbol).Err(err).Msg("Failed to load market index history")
		return domain.Series{}
	}
	if !series.IsEmpty() || m.fetcher == nil {
		return series
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	to := time.Now()
	from := to.AddDate(-1, 0, 0)
	fetched, err := m.fetcher.FetchIndexCloses(ctx, symbol, from, to)
	if err != nil {
		m.log.Warn().Str("symbol", symbol).Err(err).Msg("Market index fetch failed")
		return domain.Series{}
	}
	if fetched.IsEmpty() {
		return domain.Series{}
	}
	if err := m.repo.UpsertMarketPrices(symbol, fetched); err != nil {
		m.log.Warn().Str("symbol", symbol).Err(err).Msg("Failed to persist market index history")
	}
	return fetched
}

// Sync refreshes the stored benchmark history for a symbol over the last
// year. Used by the scheduled price sync job.
func (m *MarketDataSource) Sync(ctx context.Context, symbol string) error {
	if m.fetcher == nil {
		return nil
	}
	to := time.Now()
	from := to.AddDate(-1, 0, 0)
	fetched, err := m.fetcher.FetchIndexCloses(ctx, symbol, from, to)
	if err != nil {
		return err
	}
	if fetched.IsEmpty() {
		return nil
	}
	return m.repo.UpsertMarketPrices(symbol, fetched)
}
