package strategy

import (
	"fmt"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// kdjCross signals on stochastic K/D crossovers. K crossing above D while J
// is still depressed is BUY; K crossing below D, or J pushing past the
// overbought line, is SELL.
type kdjCross struct {
	kPeriod, dPeriod, jPeriod int
	overbought                float64
}

func newKDJCross(p Params) *kdjCross {
	return &kdjCross{
		kPeriod:    p.KDJKPeriod,
		dPeriod:    p.KDJDPeriod,
		jPeriod:    p.KDJJPeriod,
		overbought: p.KDJOverbought,
	}
}

func (s *kdjCross) Name() string { return string(NameKDJ) }

func (s *kdjCross) MinBars() int { return s.kPeriod + s.dPeriod + s.jPeriod }

func (s *kdjCross) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *kdjCross) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}
	k, d, j, err := indicator.KDJLines(
		indicator.Highs(bars), indicator.Lows(bars), indicator.Closes(bars),
		s.kPeriod, s.dPeriod, s.jPeriod)
	if err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(bars))
	for i := range bars {
		signals[i] = hold(s.Name(), "no kdj crossover")
		if i == 0 || !indicator.Defined(k[i]) || !indicator.Defined(k[i-1]) {
			continue
		}
		switch {
		case crossedAbove(k[i-1], d[i-1], k[i], d[i]) && j[i] < 50:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason:   fmt.Sprintf("K %.1f crossed above D %.1f with J %.1f below 50", k[i], d[i], j[i]),
			}
		case crossedBelow(k[i-1], d[i-1], k[i], d[i]):
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason:   fmt.Sprintf("K %.1f crossed below D %.1f", k[i], d[i]),
			}
		case j[i] > s.overbought && j[i-1] <= s.overbought:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason:   fmt.Sprintf("J %.1f entered overbought zone (>%.0f)", j[i], s.overbought),
			}
		}
	}
	return signals, nil
}
