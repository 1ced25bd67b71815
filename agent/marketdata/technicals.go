package marketdata

import (
	"math"

	"github.com/markcheno/go-talib"
)

const (
	shortWindow = 20
	longWindow  = 50
)

func computeTechnicals(bars []Bar) *Technicals {
	closes := make([]float64, len(bars))
	high, low := math.Inf(-1), math.Inf(1)
	for i, b := range bars {
		closes[i] = b.Close
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}

	return &Technicals{
		SMA20:      lastValue(closes, shortWindow, talib.Sma),
		SMA50:      lastValue(closes, longWindow, talib.Sma),
		EMA20:      spanEMA(closes, shortWindow),
		EMA50:      spanEMA(closes, longWindow),
		High52Week: high,
		Low52Week:  low,
	}
}

// lastValue returns nil when the series is shorter than the window; ta-lib
// indexes past the input in that case.
func lastValue(closes []float64, period int, indicator func([]float64, int) []float64) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	out := indicator(closes, period)
	if len(out) == 0 {
		return nil
	}
	return finite(out[len(out)-1])
}

// spanEMA is the recursive EMA with alpha = 2/(span+1) seeded from the first
// close, so it is defined for any non-empty series. talib.Ema seeds from the
// SMA of the first window instead and needs a full window.
func spanEMA(closes []float64, span int) *float64 {
	if span <= 0 || len(closes) == 0 {
		return nil
	}
	alpha := 2 / (float64(span) + 1)
	ema := closes[0]
	for _, c := range closes[1:] {
		ema = alpha*c + (1-alpha)*ema
	}
	return finite(ema)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
