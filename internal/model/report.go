package model

import "time"

// Position is the single open position tracked during a backtest replay.
// At most one position is open at a time (no pyramiding).
type Position struct {
	Open       bool      `json:"open"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	Shares     float64   `json:"shares"`
}

// Trade is one fill recorded during a backtest.
type Trade struct {
	Side      SignalKind `json:"side"` // BUY or SELL
	Timestamp time.Time  `json:"timestamp"`
	Price     float64    `json:"price"`
	Shares    float64    `json:"shares"`
	PnL       float64    `json:"pnl,omitempty"` // realized on SELL fills only
}

// EquityPoint is one entry of the equity curve: portfolio value after a bar.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// BacktestReport is the immutable result of one backtest invocation.
//
// TradeCount counts completed entry+exit round trips; a position still open
// at the end of the series is marked to market in FinalEquity but not counted.
type BacktestReport struct {
	Strategy       string        `json:"strategy"`
	InitialCapital float64       `json:"initial_capital"`
	FinalEquity    float64       `json:"final_equity"`
	TotalReturnPct float64       `json:"total_return_pct"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"`
	TradeCount     int           `json:"trade_count"`
	WinRate        float64       `json:"win_rate"` // fraction of round trips closed at a profit
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	OpenPosition   *Position     `json:"open_position,omitempty"`
}
