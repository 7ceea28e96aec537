package portfolio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/internal/modules/calculations"
	"github.com/mkarlis/riskfolio/internal/modules/universe"
	"github.com/mkarlis/riskfolio/pkg/formulas"
)

// DefaultConfidenceLevel is the tail probability used for VaR and CVaR
// when a request does not specify one.
const DefaultConfidenceLevel = 0.05

// TradeRecorder appends executed trades to the transaction ledger.
type TradeRecorder interface {
	Record(rec domain.TransactionRecord) error
}

// Service owns the in-memory portfolio, keeps it in sync with the
// position store and the ledger, and serves the risk reports.
type Service struct {
	repo     *Repository
	prices   *universe.PriceRepository
	market   domain.MarketData
	cache    *calculations.Cache
	recorder TradeRecorder
	log      zerolog.Logger

	mu        sync.Mutex
	portfolio *Portfolio
	account   Account
}

// NewService creates the portfolio service. cache and recorder may be nil
// in tests; the service then skips caching and ledger writes.
func NewService(
	repo *Repository,
	prices *universe.PriceRepository,
	market domain.MarketData,
	cache *calculations.Cache,
	recorder TradeRecorder,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		prices:   prices,
		market:   market,
		cache:    cache,
		recorder: recorder,
		log:      log.With().Str("service", "portfolio").Logger(),
	}
}

// Hydrate loads account state and positions from the store and rebuilds
// the in-memory portfolio. Must be called before any report method.
func (s *Service) Hydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.repo.Account()
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	positions, err := s.repo.Positions()
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}

	holdings := make(map[string]*Holding, len(positions))
	for _, pos := range positions {
		instrument := universe.NewSecurity(pos.Symbol, s.prices, s.log)
		holdings[pos.Symbol] = NewHolding(pos.Symbol, pos.Invested, pos.Value, pos.Quantity, instrument)
	}

	p, err := New(holdings, account.RiskFreeRate, account.CashBalance, s.market, account.MarketSymbol, s.log)
	if err != nil {
		return fmt.Errorf("failed to build portfolio: %w", err)
	}

	s.portfolio = p
	s.account = account
	s.log.Info().Int("positions", len(positions)).Float64("cash", account.CashBalance).Msg("Portfolio hydrated")
	return nil
}

// Portfolio exposes the live portfolio for callers that manage their own
// locking, such as the simulation service.
func (s *Service) Portfolio() (*Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	return s.portfolio, nil
}

// Summary reports the portfolio totals and current weights.
func (s *Service) Summary() (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	weights, err := s.portfolio.Weights()
	if err != nil {
		return nil, err
	}
	return &Summary{
		TotalValue:   s.portfolio.TotalValue(),
		CashBalance:  s.portfolio.CashBalance(),
		RiskFreeRate: s.portfolio.RiskFreeRate(),
		Positions:    s.portfolio.Size(),
		Weights:      weights,
		Epoch:        s.portfolio.Epoch(),
	}, nil
}

// HoldingDetails builds the per-position report: valuation, technical
// indicators over the close history and the holding's volatility impact.
func (s *Service) HoldingDetails() ([]HoldingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	weights, err := s.portfolio.Weights()
	if err != nil {
		return nil, err
	}

	details := make([]HoldingDetail, 0, s.portfolio.Size())
	for _, sym := range s.portfolio.Symbols() {
		h := s.portfolio.Holding(sym)
		d := HoldingDetail{
			Symbol:      sym,
			Quantity:    h.Quantity,
			Value:       h.Value,
			Invested:    h.Invested,
			Weight:      weights[sym],
			TotalReturn: h.TotalReturn(),
		}
		if last, ok := h.LastClose(); ok {
			d.LastClose = &last
		}

		closes := h.CloseSeries().Clean()
		if n := closes.Len(); n > 0 {
			window := closes.Values
			if n > formulas.TradingDaysPerYear {
				window = window[n-formulas.TradingDaysPerYear:]
			}
			d.High52Week = formulas.Highest(window)
			d.Low52Week = formulas.Lowest(window)
			d.RSI = formulas.RSI(window, 14)
			d.EMA20 = formulas.EMA(window, 20)
			d.Bollinger = formulas.Bollinger(window, 20)
		}

		returns := h.AdjustedReturnSeries().Clean()
		d.Volatility = formulas.AnnualizedVolatility(returns.Values)
		d.VolatilityImpact = s.portfolio.VolatilityImpact(sym)

		details = append(details, d)
	}
	return details, nil
}

// Risk assembles the portfolio risk report at the given confidence level.
// Results are cached per portfolio epoch.
func (s *Service) Risk(confidenceLevel float64) (*RiskReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = DefaultConfidenceLevel
	}

	cacheKey := fmt.Sprintf("risk:%g", confidenceLevel)
	epoch := s.portfolio.Epoch()
	if s.cache != nil {
		var cached RiskReport
		if hit, err := s.cache.Get(cacheKey, epoch, &cached); err != nil {
			s.log.Warn().Err(err).Msg("Risk cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	report := &RiskReport{
		Volatility:      s.portfolio.AnnualizedStdDev(),
		SharpeRatio:     s.portfolio.SharpeRatio(),
		SortinoRatio:    s.portfolio.SortinoRatio(),
		MaxDrawdown:     s.portfolio.MaxDrawdown(),
		ValueAtRisk:     s.portfolio.ValueAtRisk(confidenceLevel),
		ConditionalVaR:  s.portfolio.ConditionalValueAtRisk(confidenceLevel),
		Beta:            s.portfolio.Beta(),
		TreynorRatio:    s.portfolio.TreynorRatio(),
		ConfidenceLevel: confidenceLevel,
	}
	report.Flags = report.DangerFlags()

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, epoch, report); err != nil {
			s.log.Warn().Err(err).Msg("Risk cache write failed")
		}
	}
	return report, nil
}

// Covariance returns the holdings' covariance matrix.
func (s *Service) Covariance() (*RiskMatrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	return s.portfolio.CovarianceMatrix(), nil
}

// Correlation returns the holdings' correlation matrix.
func (s *Service) Correlation() (*RiskMatrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	return s.portfolio.CorrelationMatrix(), nil
}

// Contributions returns the marginal and weighted risk contributions.
func (s *Service) Contributions() (*ContributionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	marginal, err := s.portfolio.MarginalContributions()
	if err != nil {
		return nil, err
	}
	weighted, err := s.portfolio.RiskContributions()
	if err != nil {
		return nil, err
	}
	return &ContributionReport{Marginal: marginal, Weighted: weighted}, nil
}

// Impact reports how removing one holding would change the portfolio's
// annualized volatility.
func (s *Service) Impact(symbol string) (*ImpactReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return nil, fmt.Errorf("portfolio not hydrated")
	}
	if s.portfolio.Holding(symbol) == nil {
		return nil, domain.NewPositionError(symbol, domain.ErrUnknownPosition)
	}
	return &ImpactReport{
		Symbol:            symbol,
		Volatility:        s.portfolio.AnnualizedStdDev(),
		VolatilityWithout: s.portfolio.VolatilityWithout(symbol),
		Impact:            s.portfolio.VolatilityImpact(symbol),
	}, nil
}

// ExecuteTrade applies a buy or sell to the portfolio, persists the
// affected position and appends the trade to the ledger. The ledger write
// happens only after the portfolio accepted the trade, so a rejected sell
// leaves no trace.
func (s *Service) ExecuteTrade(date string, side domain.TradeSide, symbol string, quantity, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return fmt.Errorf("portfolio not hydrated")
	}
	if quantity <= 0 {
		return fmt.Errorf("trade quantity must be positive, got %v", quantity)
	}
	if price < 0 {
		return fmt.Errorf("trade price must not be negative, got %v", price)
	}

	if err := s.portfolio.UpdateStock(symbol, quantity, price, side == domain.SideBuy); err != nil {
		return err
	}

	if h := s.portfolio.Holding(symbol); h != nil {
		if h.Instrument == nil {
			h.Instrument = universe.NewSecurity(symbol, s.prices, s.log)
		}
		if err := s.repo.UpsertPosition(Position{
			Symbol:   symbol,
			Quantity: h.Quantity,
			Invested: h.Invested,
			Value:    h.Value,
		}); err != nil {
			return err
		}
	} else if err := s.repo.DeletePosition(symbol); err != nil {
		return err
	}

	if s.recorder != nil {
		rec := domain.TransactionRecord{
			Date:     date,
			Side:     side,
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
		}
		if err := s.recorder.Record(rec); err != nil {
			return fmt.Errorf("trade applied but ledger write failed: %w", err)
		}
	}
	return nil
}

// HasStock reports whether the portfolio can cover a sell of the given
// quantity at the holding's last known price.
func (s *Service) HasStock(symbol string, quantity float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio == nil {
		return false, fmt.Errorf("portfolio not hydrated")
	}
	return s.portfolio.HasStock(symbol, quantity), nil
}
