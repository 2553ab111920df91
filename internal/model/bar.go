// Package model defines the data shapes exchanged between the analysis core
// and its collaborators: OHLCV bars in, signals and backtest reports out.
package model

import (
	"errors"
	"time"
)

// ErrUnorderedBars is returned when a bar series is empty of order guarantees:
// timestamps must be strictly increasing with no duplicates.
var ErrUnorderedBars = errors.New("bar series timestamps must be strictly increasing")

// Bar represents one OHLCV observation for a fixed interval (daily, here).
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// ValidateBars checks the ordering invariant on a bar series.
// Boundary adapters call this once on ingest; the core assumes it holds.
func ValidateBars(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return ErrUnorderedBars
		}
	}
	return nil
}
