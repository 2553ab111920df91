package strategy

import (
	"fmt"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// momentum signals on rate-of-change breakouts confirmed by trend and
// volume. ROC above the threshold with price over its moving average and
// expanding volume is BUY; the mirror condition is SELL.
type momentum struct {
	period    int
	maPeriod  int
	threshold float64
}

func newMomentum(p Params) *momentum {
	return &momentum{period: p.MomentumPeriod, maPeriod: p.MomentumMAPeriod, threshold: p.MomentumThreshold}
}

func (s *momentum) Name() string { return string(NameMomentum) }

func (s *momentum) MinBars() int {
	n := s.period
	if s.maPeriod > n {
		n = s.maPeriod
	}
	return n + 1
}

func (s *momentum) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *momentum) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}
	closes := indicator.Closes(bars)
	volumes := indicator.Volumes(bars)
	roc, err := indicator.ROC(closes, s.period)
	if err != nil {
		return nil, err
	}
	ma, err := indicator.SMA(closes, s.maPeriod)
	if err != nil {
		return nil, err
	}
	volMA, err := indicator.SMA(volumes, s.maPeriod)
	if err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(bars))
	for i := range bars {
		signals[i] = hold(s.Name(), "momentum below threshold")
		if !indicator.Defined(roc[i]) || !indicator.Defined(ma[i]) || !indicator.Defined(volMA[i]) {
			continue
		}
		volRatio := 1.0
		if volMA[i] > 0 {
			volRatio = volumes[i] / volMA[i]
		}
		switch {
		case roc[i] > s.threshold && closes[i] > ma[i] && volRatio > 1.2:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason: fmt.Sprintf("ROC %+.2f%% above threshold with price over MA%d and volume %.1fx average",
					roc[i]*100, s.maPeriod, volRatio),
			}
		case roc[i] < -s.threshold && closes[i] < ma[i]:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason: fmt.Sprintf("ROC %+.2f%% below threshold with price under MA%d",
					roc[i]*100, s.maPeriod),
			}
		}
	}
	return signals, nil
}
