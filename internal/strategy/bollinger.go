package strategy

import (
	"fmt"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// bollingerBreakout signals on closes breaking out of the Bollinger channel.
// A close above the upper band is SELL (stretched, mean-reversion bias), a
// close below the lower band is BUY.
type bollingerBreakout struct {
	period int
	mult   float64
}

func newBollingerBreakout(p Params) *bollingerBreakout {
	return &bollingerBreakout{period: p.BollPeriod, mult: p.BollStdDev}
}

func (s *bollingerBreakout) Name() string { return string(NameBollinger) }

func (s *bollingerBreakout) MinBars() int { return s.period + 1 }

func (s *bollingerBreakout) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *bollingerBreakout) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}
	closes := indicator.Closes(bars)
	upper, _, lower, err := indicator.BollingerBands(closes, s.period, s.mult)
	if err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(bars))
	for i := range bars {
		signals[i] = hold(s.Name(), "close inside bands")
		if !indicator.Defined(upper[i]) {
			continue
		}
		switch {
		case closes[i] < lower[i]:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason:   fmt.Sprintf("close %.2f broke below lower band %.2f", closes[i], lower[i]),
			}
		case closes[i] > upper[i]:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason:   fmt.Sprintf("close %.2f broke above upper band %.2f", closes[i], upper[i]),
			}
		}
	}
	return signals, nil
}
