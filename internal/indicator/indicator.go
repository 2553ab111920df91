// Package indicator provides technical indicator calculations over bar data.
//
// All indicators are pure functions: an input series in, a derived series out,
// deterministic, no shared state. Every output series has the same length as
// its input; entries before the indicator's lookback window is satisfied are
// NaN sentinels. Callers must check Defined before acting on a value.
package indicator

import (
	"errors"
	"math"

	"stock-advisor/internal/model"
)

// ErrInsufficientData is returned when the input series is shorter than the
// minimum lookback required to produce a single defined value.
var ErrInsufficientData = errors.New("indicator: insufficient data for lookback")

// ErrInvalidPeriod is returned for non-positive or inconsistent periods.
var ErrInvalidPeriod = errors.New("indicator: period must be positive")

// Defined reports whether a series entry holds a computed value
// (as opposed to the leading-lookback NaN sentinel).
func Defined(v float64) bool { return !math.IsNaN(v) }

// Closes extracts the close price series from bars.
func Closes(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high price series from bars.
func Highs(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low price series from bars.
func Lows(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume series from bars.
func Volumes(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// undefined allocates a series of n NaN sentinels.
func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
