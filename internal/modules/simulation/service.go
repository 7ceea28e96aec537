package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
	"github.com/mkarlis/riskfolio/internal/utils"
	"github.com/mkarlis/riskfolio/pkg/formulas"
)

// Service runs simulations against the live portfolio and retains the
// most recent run for the accessor endpoints.
type Service struct {
	portfolio *portfolio.Service
	simulator *Simulator
	log       zerolog.Logger

	mu      sync.RWMutex
	lastRun *Run
}

// NewService creates the simulation service.
func NewService(portfolioSvc *portfolio.Service, log zerolog.Logger) *Service {
	return &Service{
		portfolio: portfolioSvc,
		simulator: NewSimulator(),
		log:       log.With().Str("service", "simulation").Logger(),
	}
}

// Run generates numPaths GBM paths over horizon trading days and stores
// the result. Non-positive arguments fall back to the defaults. An empty
// portfolio return series yields an empty run rather than an error.
func (s *Service) Run(ctx context.Context, numPaths, horizon int) (*Run, error) {
	if numPaths <= 0 {
		numPaths = DefaultPaths
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	p, err := s.portfolio.Portfolio()
	if err != nil {
		return nil, err
	}
	returns := p.PortfolioReturns().Clean()

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		NumPaths:  numPaths,
		Horizon:   horizon,
	}

	if returns.IsEmpty() {
		s.log.Warn().Msg("No portfolio returns available, simulation result is empty")
		s.store(run)
		return run, nil
	}

	run.InitialValue = p.TotalValue()
	run.Volatility = formulas.StdDev(returns.Values)
	run.Drift = formulas.Mean(returns.Values) - 0.5*run.Volatility*run.Volatility

	start, _ := lastDate(returns.Dates)
	calendar := businessCalendar(start, horizon)

	defer utils.OperationTimer("simulation_run", s.log)()
	paths, err := s.simulator.Generate(ctx, numPaths, horizon, run.InitialValue, formulas.Mean(returns.Values), run.Volatility, calendar)
	if err != nil {
		return nil, fmt.Errorf("simulation aborted: %w", err)
	}

	run.Paths = paths
	run.Metrics = make([]PathMetrics, len(paths))
	for i, path := range paths {
		run.Metrics[i] = measurePath(path)
	}
	run.Duration = time.Since(run.StartedAt)

	s.log.Info().
		Str("run_id", run.ID).
		Int("paths", numPaths).
		Int("horizon", horizon).
		Dur("took", run.Duration).
		Msg("Simulation completed")

	s.store(run)
	return run, nil
}

func (s *Service) store(run *Run) {
	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
}

// LastRun returns the most recent run, or nil when none has completed.
func (s *Service) LastRun() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Paths returns the most recent run's path table, empty before any run.
func (s *Service) Paths() []Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return []Path{}
	}
	return s.lastRun.Paths
}

// Metrics returns the most recent run's per-path metrics table, empty
// before any run.
func (s *Service) Metrics() []PathMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return []PathMetrics{}
	}
	return s.lastRun.Metrics
}
