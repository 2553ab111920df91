package strategy

import "fmt"

// Name enumerates the registered strategies. The registry is a closed table:
// every Name maps to exactly one Evaluator constructed at startup, and the
// table never changes afterwards, which is what keeps concurrent Analyze and
// Backtest calls lock-free.
type Name string

const (
	NameMACross     Name = "ma_cross"
	NameMACD        Name = "macd"
	NameRSI         Name = "rsi"
	NameBollinger   Name = "bollinger"
	NameKDJ         Name = "kdj"
	NameMomentum    Name = "momentum"
	NameVolume      Name = "volume"
	NameMultiFactor Name = "multi_factor"
)

// Registry maps strategy names to evaluator instances. Immutable after New.
type Registry struct {
	order      []Name
	evaluators map[Name]Evaluator
}

// NewRegistry builds the static strategy table from a parameter set.
// Fails with ErrInvalidConfig if the parameters are unusable.
func NewRegistry(p Params) (*Registry, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	order := []Name{
		NameMACross,
		NameMACD,
		NameRSI,
		NameBollinger,
		NameKDJ,
		NameMomentum,
		NameVolume,
		NameMultiFactor,
	}
	evaluators := map[Name]Evaluator{
		NameMACross:     newMACross(p),
		NameMACD:        newMACDCross(p),
		NameRSI:         newRSIZone(p),
		NameBollinger:   newBollingerBreakout(p),
		NameKDJ:         newKDJCross(p),
		NameMomentum:    newMomentum(p),
		NameVolume:      newVolumeSurge(p),
		NameMultiFactor: newMultiFactor(p),
	}
	return &Registry{order: order, evaluators: evaluators}, nil
}

// Lookup resolves a strategy name to its evaluator.
func (r *Registry) Lookup(name string) (Evaluator, error) {
	ev, ok := r.evaluators[Name(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownStrategy, name, r.List())
	}
	return ev, nil
}

// List returns all registered strategy names in their fixed order.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	for i, n := range r.order {
		out[i] = string(n)
	}
	return out
}
