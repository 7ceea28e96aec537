package ledger

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
	"github.com/mkarlis/riskfolio/internal/utils"
)

// Service wires the transaction log to the replay engine, seeding replay
// state from the live portfolio.
type Service struct {
	repo      *Repository
	portfolio *portfolio.Service
	engine    *Engine
	log       zerolog.Logger
}

// NewService creates the ledger service.
func NewService(repo *Repository, portfolioSvc *portfolio.Service, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		portfolio: portfolioSvc,
		engine:    NewEngine(log),
		log:       log.With().Str("service", "ledger").Logger(),
	}
}

// Transactions returns the full ledger in replay order.
func (s *Service) Transactions() ([]domain.TransactionRecord, error) {
	return s.repo.All()
}

// Append validates and stores one transaction without touching the live
// portfolio; it becomes visible to the next replay.
func (s *Service) Append(rec domain.TransactionRecord) error {
	if rec.Symbol == "" {
		return fmt.Errorf("transaction symbol is required")
	}
	if rec.Quantity <= 0 {
		return fmt.Errorf("transaction quantity must be positive, got %v", rec.Quantity)
	}
	if rec.Price < 0 {
		return fmt.Errorf("transaction price must not be negative, got %v", rec.Price)
	}
	return s.repo.Record(rec)
}

// Replay reconstructs the dated cash/holdings/value series from the full
// ledger, seeded with the live portfolio's cash and quantities.
func (s *Service) Replay(includeHoldings bool) (*Result, error) {
	timer := utils.NewTimer("ledger_replay", s.log)
	defer timer.Stop()

	records, err := s.repo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	p, err := s.portfolio.Portfolio()
	if err != nil {
		return nil, err
	}
	prices := p.AdjClosePrices()
	result := s.engine.Replay(prices, records, p.CashBalance(), p.QuantitySnapshot(), includeHoldings)
	s.log.Debug().
		Int("transactions", len(records)).
		Int("rows", len(result.Rows)).
		Int("skipped", len(result.Skipped)).
		Msg("Ledger replay completed")
	return &result, nil
}
