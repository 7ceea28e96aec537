package formulas

import (
	"github.com/markcheno/go-talib"
)

// BollingerBands holds the most recent Bollinger band values for a series.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// RSI returns the latest 14-period relative strength index of a close
// series. Nil when the series is too short for the lookback.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 {
		period = 14
	}
	if len(closes) <= period {
		return nil
	}
	values := talib.Rsi(closes, period)
	last := values[len(values)-1]
	return &last
}

// EMA returns the latest exponential moving average of a close series.
// Nil when the series is shorter than the period.
func EMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	values := talib.Ema(closes, period)
	last := values[len(values)-1]
	return &last
}

// Bollinger returns the latest Bollinger bands (20-period, 2 stdev) of a
// close series. Nil when the series is shorter than the period.
func Bollinger(closes []float64, period int) *BollingerBands {
	if period <= 0 {
		period = 20
	}
	if len(closes) < period {
		return nil
	}
	upper, middle, lower := talib.BBands(closes, period, 2.0, 2.0, talib.SMA)
	return &BollingerBands{
		Upper:  upper[len(upper)-1],
		Middle: middle[len(middle)-1],
		Lower:  lower[len(lower)-1],
	}
}
