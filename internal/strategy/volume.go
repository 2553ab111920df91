package strategy

import (
	"fmt"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// volumeSurge signals on volume spikes that confirm a decisive price move.
// Volume at a multiple of its moving average plus a meaningful up-move (with
// OBV rising) is BUY; the same surge on a down-move with OBV falling is SELL.
type volumeSurge struct {
	maPeriod   int
	surge      float64
	priceDelta float64
}

func newVolumeSurge(p Params) *volumeSurge {
	return &volumeSurge{maPeriod: p.VolumeMAPeriod, surge: p.VolumeSurge, priceDelta: p.VolumePriceDelta}
}

func (s *volumeSurge) Name() string { return string(NameVolume) }

func (s *volumeSurge) MinBars() int { return s.maPeriod + 1 }

func (s *volumeSurge) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *volumeSurge) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}
	closes := indicator.Closes(bars)
	volumes := indicator.Volumes(bars)
	volMA, err := indicator.SMA(volumes, s.maPeriod)
	if err != nil {
		return nil, err
	}
	obv, err := indicator.OBV(closes, volumes)
	if err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(bars))
	for i := range bars {
		signals[i] = hold(s.Name(), "no volume surge")
		if i == 0 || !indicator.Defined(volMA[i]) || volMA[i] <= 0 || closes[i-1] == 0 {
			continue
		}
		ratio := volumes[i] / volMA[i]
		move := (closes[i] - closes[i-1]) / closes[i-1]
		if ratio < s.surge {
			continue
		}
		switch {
		case move > s.priceDelta && obv[i] > obv[i-1]:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason: fmt.Sprintf("volume %.1fx average on %+.1f%% move with OBV rising",
					ratio, move*100),
			}
		case move < -s.priceDelta && obv[i] < obv[i-1]:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason: fmt.Sprintf("volume %.1fx average on %+.1f%% move with OBV falling",
					ratio, move*100),
			}
		}
	}
	return signals, nil
}
