package universe

import (
	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// Security is a tradeable instrument backed by the price repository. It
// satisfies domain.Instrument; repository errors degrade to an empty
// series so a bad symbol never takes down a whole-portfolio calculation.
type Security struct {
	symbol string
	repo   *PriceRepository
	log    zerolog.Logger
}

// NewSecurity creates a security for a symbol.
func NewSecurity(symbol string, repo *PriceRepository, log zerolog.Logger) *Security {
	return &Security{
		symbol: symbol,
		repo:   repo,
		log:    log.With().Str("component", "security").Str("symbol", symbol).Logger(),
	}
}

// Symbol returns the instrument's ticker symbol.
func (s *Security) Symbol() string { return s.symbol }

// CloseSeries returns the instrument's adjusted close price history, so
// valuation and the price matrix are not skewed by splits or dividends.
// The stored raw close stands in where no adjustment exists.
func (s *Security) CloseSeries() domain.Series {
	series, err := s.repo.AdjustedCloseSeries(s.symbol)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load adjusted close prices")
		return domain.Series{}
	}
	return series
}

// AdjustedReturnSeries returns daily returns derived from the adjusted
// close history, so splits and dividends do not appear as price moves.
func (s *Security) AdjustedReturnSeries() domain.Series {
	series, err := s.repo.AdjustedCloseSeries(s.symbol)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load adjusted close prices")
		return domain.Series{}
	}
	return series.PctChange()
}
