// Package simulation projects future portfolio value with Monte Carlo
// geometric Brownian motion paths.
package simulation

import "time"

// Defaults for a simulation request.
const (
	DefaultPaths   = 1000
	DefaultHorizon = 252
)

// Path is one simulated value trajectory over the horizon calendar.
type Path struct {
	Index  int       `json:"index"`
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// PathMetrics are the risk metrics of one path's own return series.
type PathMetrics struct {
	Index        int      `json:"index"`
	FinalValue   float64  `json:"final_value"`
	Sharpe       *float64 `json:"sharpe,omitempty"`
	Sortino      *float64 `json:"sortino,omitempty"`
	MaxDrawdown  *float64 `json:"max_drawdown,omitempty"`
	ValueAtRisk  *float64 `json:"value_at_risk,omitempty"`
	CVaR         *float64 `json:"cvar,omitempty"`
}

// Run is one completed simulation with its inputs pinned for
// reproducibility.
type Run struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	NumPaths     int           `json:"num_paths"`
	Horizon      int           `json:"horizon"`
	InitialValue float64       `json:"initial_value"`
	Drift        float64       `json:"drift"`
	Volatility   float64       `json:"volatility"`
	Paths        []Path        `json:"paths"`
	Metrics      []PathMetrics `json:"metrics"`
}
