package gateway

import (
	"time"

	"stock-advisor/internal/model"
)

// AnalyzeRequest asks the engine for a fresh verdict on a symbol.
// Strategies may be empty, which means "run everything registered".
type AnalyzeRequest struct {
	Symbol     string   `json:"symbol"`
	Strategies []string `json:"strategies,omitempty"`
}

// AnalyzeResponse carries the aggregated verdict plus provenance.
type AnalyzeResponse struct {
	Symbol   string                  `json:"symbol"`
	At       time.Time               `json:"at"`
	BarCount int                     `json:"bar_count"`
	Result   *model.AggregatedResult `json:"result"`
}

// BacktestRequest replays one strategy over a symbol's stored history.
// InitialCapital and Commission fall back to server defaults when zero.
type BacktestRequest struct {
	Symbol         string  `json:"symbol"`
	Strategy       string  `json:"strategy"`
	InitialCapital float64 `json:"initial_capital,omitempty"`
	Commission     float64 `json:"commission,omitempty"`
}

// StrategyInfo describes one registered strategy for the listing endpoint.
type StrategyInfo struct {
	Name    string `json:"name"`
	MinBars int    `json:"min_bars"`
}

type errorResponse struct {
	Error string `json:"error"`
}
