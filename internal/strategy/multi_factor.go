package strategy

import (
	"fmt"
	"strings"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// multiFactor combines trend, momentum and mean-reversion factors through
// the same majority vote the engine applies across strategies. It votes as
// one strategy but carries three independent opinions inside.
type multiFactor struct {
	factors []Evaluator
}

func newMultiFactor(p Params) *multiFactor {
	return &multiFactor{
		factors: []Evaluator{
			newMACross(p),
			newMACDCross(p),
			newRSIZone(p),
		},
	}
}

func (s *multiFactor) Name() string { return string(NameMultiFactor) }

func (s *multiFactor) MinBars() int {
	n := 0
	for _, f := range s.factors {
		if f.MinBars() > n {
			n = f.MinBars()
		}
	}
	return n
}

func (s *multiFactor) Evaluate(bars []model.Bar) (model.Signal, error) {
	return lastSignal(s, bars)
}

func (s *multiFactor) EvaluateSeries(bars []model.Bar) ([]model.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("%w: %s needs %d bars, have %d",
			indicator.ErrInsufficientData, s.Name(), s.MinBars(), len(bars))
	}

	series := make([][]model.Signal, len(s.factors))
	for fi, f := range s.factors {
		sigs, err := f.EvaluateSeries(bars)
		if err != nil {
			return nil, fmt.Errorf("factor %s: %w", f.Name(), err)
		}
		series[fi] = sigs
	}

	signals := make([]model.Signal, len(bars))
	votes := make([]model.Signal, len(s.factors))
	for i := range bars {
		for fi := range s.factors {
			votes[fi] = series[fi][i]
		}
		final, _, buys, sells := aggregate(votes)
		switch final {
		case model.SignalBuy:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalBuy,
				Reason: fmt.Sprintf("%d/%d factors voting BUY (%s)",
					len(buys), len(s.factors), strings.Join(buys, ", ")),
			}
		case model.SignalSell:
			signals[i] = model.Signal{
				Strategy: s.Name(),
				Kind:     model.SignalSell,
				Reason: fmt.Sprintf("%d/%d factors voting SELL (%s)",
					len(sells), len(s.factors), strings.Join(sells, ", ")),
			}
		default:
			signals[i] = hold(s.Name(), "factors split or inactive")
		}
	}
	return signals, nil
}
