package simulation

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mkarlis/riskfolio/pkg/formulas"
)

// dt is the GBM time step, one trading day as a fraction of a year.
const dt = 1.0 / formulas.TradingDaysPerYear

// Simulator generates geometric Brownian motion value paths. Each path is
// driven by its own random source seeded with the path index, so a run is
// reproducible bit for bit regardless of worker scheduling.
type Simulator struct {
	workers int
}

// NewSimulator creates a simulator fanning path generation out over up to
// runtime.NumCPU() workers.
func NewSimulator() *Simulator {
	return &Simulator{workers: runtime.NumCPU()}
}

// Generate produces numPaths paths of horizon steps starting at
// initialValue. meanReturn and volatility are the daily portfolio return
// statistics; drift is derived as mean - variance/2. Generation aborts
// between paths when ctx is cancelled, discarding all partial results.
func (s *Simulator) Generate(
	ctx context.Context,
	numPaths, horizon int,
	initialValue, meanReturn, volatility float64,
	calendar []string,
) ([]Path, error) {
	drift := meanReturn - 0.5*volatility*volatility

	paths := make([]Path, numPaths)
	indices := make(chan int)
	var wg sync.WaitGroup

	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	if workers > numPaths {
		workers = numPaths
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				paths[i] = generatePath(i, horizon, initialValue, drift, volatility, calendar)
			}
		}()
	}

	var err error
feed:
	for i := 0; i < numPaths; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return paths, nil
}

// generatePath builds one value trajectory. The normal source is seeded
// with the path index alone, which makes the path a pure function of
// (index, horizon, initialValue, drift, volatility).
func generatePath(index, horizon int, initialValue, drift, volatility float64, calendar []string) Path {
	shocks := distuv.Normal{
		Mu:    0,
		Sigma: volatility,
		Src:   rand.NewSource(uint64(index)),
	}

	values := make([]float64, horizon)
	value := initialValue
	for t := 0; t < horizon; t++ {
		value *= math.Exp(drift*dt + shocks.Rand())
		values[t] = value
	}
	return Path{Index: index, Dates: calendar, Values: values}
}

// measurePath computes the per-path risk metrics over the path's own
// percentage change series. Only intra-path changes count; the step from
// the starting value into the path is not an observation.
func measurePath(p Path) PathMetrics {
	m := PathMetrics{Index: p.Index}
	if len(p.Values) == 0 {
		return m
	}
	m.FinalValue = p.Values[len(p.Values)-1]

	changes := make([]float64, 0, len(p.Values)-1)
	prev := p.Values[0]
	for _, v := range p.Values[1:] {
		if prev != 0 {
			changes = append(changes, (v-prev)/prev)
		}
		prev = v
	}

	m.Sharpe = formulas.SharpeRatio(changes)
	m.Sortino = formulas.SortinoRatio(changes)
	m.MaxDrawdown = formulas.MaxDrawdown(changes)
	m.ValueAtRisk = formulas.ValueAtRisk(changes, 0.05)
	m.CVaR = formulas.ConditionalValueAtRisk(changes, 0.05)
	return m
}

// lastDate parses the final date of a return series calendar, reporting
// false when the series carries no dates.
func lastDate(dates []string) (time.Time, bool) {
	if len(dates) == 0 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", dates[len(dates)-1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
