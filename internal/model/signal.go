package model

// SignalKind is a directional recommendation from a strategy.
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// Signal is one strategy's verdict for a single bar.
type Signal struct {
	Strategy string     `json:"strategy"`
	Kind     SignalKind `json:"kind"`
	Reason   string     `json:"reason"`
}

// AggregatedResult is the engine's combined verdict across strategies.
// Recomputed on every analysis call; never persisted by the core.
type AggregatedResult struct {
	FinalSignal SignalKind        `json:"final_signal"`
	Confidence  float64           `json:"confidence"` // [0,1]; 0.5 on tie or all-HOLD
	BuySignals  []string          `json:"buy_signals"`
	SellSignals []string          `json:"sell_signals"`
	PerStrategy map[string]Signal `json:"per_strategy"`
}
