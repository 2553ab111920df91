package strategy

import (
	"fmt"
	"math"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// macdCross signals on MACD line / signal line crossovers. An upward cross
// is BUY, a downward cross is SELL.
type macdCross struct {
	fast, slow, signal int
}

func newMACDCross(p Params) *macdCross {
	return &macdCross{fast: p.MACDFast, slow: p.MACDSlow, signal: p.MACDSignal}
}

func (s *macdCross) Name() string { return string(NameMACD) }

func (s *macdCross) MinBars() int { return s.slow + s.signal }

func (s *macdCross) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *macdCross) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}
	closes := indicator.Closes(bars)
	line, signalLine, _, err := indicator.MACDLines(closes, s.fast, s.slow, s.signal)
	if err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(bars))
	for i := range bars {
		signals[i] = hold(s.Name(), "no macd crossover")
		if i == 0 || !indicator.Defined(signalLine[i]) || !indicator.Defined(signalLine[i-1]) {
			continue
		}
		gap := macdGapPct(line[i], signalLine[i])
		switch {
		case crossedAbove(line[i-1], signalLine[i-1], line[i], signalLine[i]):
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason:   fmt.Sprintf("MACD crossed above signal line (gap %.2f%%)", gap),
			}
		case crossedBelow(line[i-1], signalLine[i-1], line[i], signalLine[i]):
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason:   fmt.Sprintf("MACD crossed below signal line (gap %.2f%%)", gap),
			}
		}
	}
	return signals, nil
}

// macdGapPct sizes the line/signal gap relative to the larger magnitude, so
// the rationale stays readable near the zero line.
func macdGapPct(line, signal float64) float64 {
	denom := math.Max(math.Max(math.Abs(line), math.Abs(signal)), 1e-9)
	return math.Abs(line-signal) / denom * 100
}
