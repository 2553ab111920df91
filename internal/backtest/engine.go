// Package backtest replays a strategy over historical bars and reports the
// resulting equity curve, drawdown and trade statistics.
//
// The simulation is deliberately simple: one instrument, long-only, fully
// invested on BUY, flat on SELL, fills at the close of the signal bar. A
// position still open at the end of the series is marked to market but not
// counted as a completed trade.
package backtest

import (
	"fmt"

	"stock-advisor/internal/model"
	"stock-advisor/internal/strategy"
)

// Config holds the simulation inputs.
type Config struct {
	// InitialCapital is the starting cash. Must be positive.
	InitialCapital float64 `json:"initial_capital"`
	// Commission is the fee rate charged on each fill's notional,
	// e.g. 0.001 for 10 bps. Zero disables fees.
	Commission float64 `json:"commission"`
}

// Engine runs backtests against the strategies in a registry.
type Engine struct {
	reg *strategy.Registry
}

// New creates a backtest engine over a strategy registry.
func New(reg *strategy.Registry) *Engine {
	return &Engine{reg: reg}
}

// Run simulates the named strategy over the bar series.
//
// Fails with strategy.ErrUnknownStrategy for an unregistered name,
// strategy.ErrInvalidConfig for a non-positive capital or negative
// commission, model.ErrUnorderedBars for out-of-order timestamps, and
// indicator.ErrInsufficientData when the series is shorter than the
// strategy's lookback.
func (e *Engine) Run(bars []model.Bar, strategyName string, cfg Config) (*model.BacktestReport, error) {
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital %.2f must be positive",
			strategy.ErrInvalidConfig, cfg.InitialCapital)
	}
	if cfg.Commission < 0 {
		return nil, fmt.Errorf("%w: commission %.4f must not be negative",
			strategy.ErrInvalidConfig, cfg.Commission)
	}
	ev, err := e.reg.Lookup(strategyName)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, err
	}
	signals, err := ev.EvaluateSeries(bars)
	if err != nil {
		return nil, err
	}
	report := simulate(bars, signals, cfg)
	report.Strategy = strategyName
	return report, nil
}

// simulate walks the bar series applying signals with same-bar-close fills.
func simulate(bars []model.Bar, signals []model.Signal, cfg Config) *model.BacktestReport {
	cash := cfg.InitialCapital
	var pos model.Position
	var entryCost float64

	report := &model.BacktestReport{
		InitialCapital: cfg.InitialCapital,
		Trades:         []model.Trade{},
		EquityCurve:    make([]model.EquityPoint, 0, len(bars)),
	}

	wins := 0
	peak := cfg.InitialCapital
	for i, bar := range bars {
		price := bar.Close
		switch {
		case signals[i].Kind == model.SignalBuy && !pos.Open && price > 0:
			notional := cash / (1 + cfg.Commission)
			shares := notional / price
			entryCost = cash
			cash = 0
			pos = model.Position{
				Open:       true,
				EntryPrice: price,
				EntryTime:  bar.Timestamp,
				Shares:     shares,
			}
			report.Trades = append(report.Trades, model.Trade{
				Side:      model.SignalBuy,
				Timestamp: bar.Timestamp,
				Price:     price,
				Shares:    shares,
			})
		case signals[i].Kind == model.SignalSell && pos.Open:
			gross := pos.Shares * price
			proceeds := gross - gross*cfg.Commission
			pnl := proceeds - entryCost
			cash = proceeds
			report.Trades = append(report.Trades, model.Trade{
				Side:      model.SignalSell,
				Timestamp: bar.Timestamp,
				Price:     price,
				Shares:    pos.Shares,
				PnL:       pnl,
			})
			report.TradeCount++
			if pnl > 0 {
				wins++
			}
			pos = model.Position{}
		}

		equity := cash + pos.Shares*price
		report.EquityCurve = append(report.EquityCurve, model.EquityPoint{
			Timestamp: bar.Timestamp,
			Equity:    equity,
		})
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak * 100; dd > report.MaxDrawdownPct {
				report.MaxDrawdownPct = dd
			}
		}
	}

	final := cash
	if pos.Open {
		final = cash + pos.Shares*bars[len(bars)-1].Close
		open := pos
		report.OpenPosition = &open
	}
	report.FinalEquity = final
	report.TotalReturnPct = (final - cfg.InitialCapital) / cfg.InitialCapital * 100
	if report.TradeCount > 0 {
		report.WinRate = float64(wins) / float64(report.TradeCount)
	}
	return report
}
