package strategy

import (
	"fmt"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

// Engine aggregates signals from a set of evaluators into one verdict.
// Stateless across calls; safe for concurrent use on independent bar series.
type Engine struct {
	reg *Registry
}

// NewEngine creates an engine over a registry.
func NewEngine(reg *Registry) *Engine {
	return &Engine{reg: reg}
}

// Registry exposes the engine's strategy table (for list endpoints).
func (e *Engine) Registry() *Registry { return e.reg }

// Analyze evaluates the named strategies on the most recent bar and combines
// their signals. An empty names slice means all registered strategies.
//
// Fails with ErrUnknownStrategy for an unregistered name and with
// indicator.ErrInsufficientData when the series is shorter than the largest
// lookback among the requested strategies — no partial results.
func (e *Engine) Analyze(bars []model.Bar, names []string) (*model.AggregatedResult, error) {
	if len(names) == 0 {
		names = e.reg.List()
	}

	evaluators := make([]Evaluator, 0, len(names))
	for _, name := range names {
		ev, err := e.reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		evaluators = append(evaluators, ev)
	}
	for _, ev := range evaluators {
		if len(bars) < ev.MinBars() {
			return nil, fmt.Errorf("%w: strategy %s needs %d bars, have %d",
				indicator.ErrInsufficientData, ev.Name(), ev.MinBars(), len(bars))
		}
	}

	signals := make([]model.Signal, 0, len(evaluators))
	perStrategy := make(map[string]model.Signal, len(evaluators))
	for _, ev := range evaluators {
		sig, err := ev.Evaluate(bars)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", ev.Name(), err)
		}
		signals = append(signals, sig)
		perStrategy[ev.Name()] = sig
	}

	final, confidence, buys, sells := aggregate(signals)
	return &model.AggregatedResult{
		FinalSignal: final,
		Confidence:  confidence,
		BuySignals:  buys,
		SellSignals: sells,
		PerStrategy: perStrategy,
	}, nil
}

// aggregate applies the majority-vote rule to a slice of signals.
//
// More BUY votes than SELL votes yields BUY (and symmetrically SELL), with
// confidence = winning votes / total evaluated. A tie — including the
// all-HOLD case — yields HOLD at confidence 0.5: the evaluators did not
// disagree, they simply saw nothing to act on, which is more information
// than confidence 0 would suggest.
func aggregate(signals []model.Signal) (final model.SignalKind, confidence float64, buys, sells []string) {
	for _, sig := range signals {
		switch sig.Kind {
		case model.SignalBuy:
			buys = append(buys, sig.Strategy)
		case model.SignalSell:
			sells = append(sells, sig.Strategy)
		}
	}

	total := len(signals)
	switch {
	case len(buys) > len(sells):
		final = model.SignalBuy
		confidence = float64(len(buys)) / float64(total)
	case len(sells) > len(buys):
		final = model.SignalSell
		confidence = float64(len(sells)) / float64(total)
	default:
		final = model.SignalHold
		confidence = 0.5
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return final, confidence, buys, sells
}
