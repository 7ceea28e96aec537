package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for portfolio mutations. Callers branch on these with
// errors.Is; services wrap them with symbol context.
var (
	// ErrZeroValuePortfolio is returned when weights are requested for a
	// portfolio whose total value is exactly zero.
	ErrZeroValuePortfolio = errors.New("total portfolio value is zero")

	// ErrUnknownPosition is returned when selling a symbol that is not held.
	ErrUnknownPosition = errors.New("position not held")

	// ErrInsufficientPosition is returned when a sell exceeds the held value
	// or quantity.
	ErrInsufficientPosition = errors.New("insufficient position")
)

// PositionError annotates a sentinel error with the symbol it concerns.
type PositionError struct {
	Symbol string
	Err    error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Symbol, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }

// NewPositionError wraps a sentinel error with symbol context.
func NewPositionError(symbol string, err error) *PositionError {
	return &PositionError{Symbol: symbol, Err: err}
}
