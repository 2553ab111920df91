package strategy

import (
	"fmt"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// maCross signals on short/long SMA crossovers. A golden cross (short SMA
// crossing above long SMA) is BUY, a death cross is SELL.
type maCross struct {
	short, long int
}

func newMACross(p Params) *maCross {
	return &maCross{short: p.MAShort, long: p.MALong}
}

func (s *maCross) Name() string { return string(NameMACross) }

func (s *maCross) MinBars() int { return s.long + 1 }

func (s *maCross) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *maCross) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}
	closes := indicator.Closes(bars)
	fast, err := indicator.SMA(closes, s.short)
	if err != nil {
		return nil, err
	}
	slow, err := indicator.SMA(closes, s.long)
	if err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(bars))
	for i := range bars {
		signals[i] = hold(s.Name(), "no crossover")
		if i == 0 || !indicator.Defined(slow[i]) || !indicator.Defined(slow[i-1]) {
			continue
		}
		dev := 0.0
		if slow[i] != 0 {
			dev = (fast[i] - slow[i]) / slow[i] * 100
		}
		switch {
		case crossedAbove(fast[i-1], slow[i-1], fast[i], slow[i]):
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason:   fmt.Sprintf("MA%d crossed above MA%d (deviation %+.2f%%)", s.short, s.long, dev),
			}
		case crossedBelow(fast[i-1], slow[i-1], fast[i], slow[i]):
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason:   fmt.Sprintf("MA%d crossed below MA%d (deviation %+.2f%%)", s.short, s.long, dev),
			}
		}
	}
	return signals, nil
}
