package strategy

import (
	"fmt"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// rsiZone signals on RSI leaving the extreme zones. Oversold and turning up
// is BUY, overbought and turning down is SELL. Requiring the turn avoids
// selling into a still-accelerating trend.
type rsiZone struct {
	period               int
	oversold, overbought float64
}

func newRSIZone(p Params) *rsiZone {
	return &rsiZone{period: p.RSIPeriod, oversold: p.RSIOversold, overbought: p.RSIOverbought}
}

func (s *rsiZone) Name() string { return string(NameRSI) }

func (s *rsiZone) MinBars() int { return s.period + 2 }

func (s *rsiZone) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *rsiZone) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}
	closes := indicator.Closes(bars)
	rsi, err := indicator.RSI(closes, s.period)
	if err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(bars))
	for i := range bars {
		signals[i] = hold(s.Name(), "rsi in neutral zone")
		if i == 0 || !indicator.Defined(rsi[i]) || !indicator.Defined(rsi[i-1]) {
			continue
		}
		switch {
		case rsi[i] < s.oversold && rsi[i] > rsi[i-1]:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason:   fmt.Sprintf("RSI %.1f oversold (<%.0f) and rising", rsi[i], s.oversold),
			}
		case rsi[i] > s.overbought && rsi[i] < rsi[i-1]:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason:   fmt.Sprintf("RSI %.1f overbought (>%.0f) and falling", rsi[i], s.overbought),
			}
		}
	}
	return signals, nil
}
