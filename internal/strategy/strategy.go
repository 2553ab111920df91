// Package strategy provides the trading strategy evaluators and the engine
// that aggregates their signals.
//
// An Evaluator receives an ordered bar series and emits BUY/SELL/HOLD signals
// with a rationale. Evaluators are deterministic and side-effect-free: the
// same bars always produce the same signals. The Engine runs a configurable
// set of evaluators over the latest bar and combines their verdicts by
// majority vote.
package strategy

import (
	"errors"
	"fmt"

	"stock-advisor/internal/model"
)

// ErrUnknownStrategy is returned when a requested strategy name is not
// present in the registry.
var ErrUnknownStrategy = errors.New("strategy: unknown strategy")

// ErrInvalidConfig is returned for configuration that cannot produce a
// well-defined result (non-positive periods, short window >= long window,
// non-positive backtest capital).
var ErrInvalidConfig = errors.New("strategy: invalid configuration")

// Evaluator is the interface all strategies implement.
type Evaluator interface {
	// Name returns the registry name of the strategy (e.g. "ma_cross").
	Name() string

	// MinBars returns the minimum series length needed to produce a
	// defined signal for the most recent bar.
	MinBars() int

	// Evaluate returns the signal for the most recent bar.
	// Fails with indicator.ErrInsufficientData below MinBars.
	Evaluate(bars []model.Bar) (model.Signal, error)

	// EvaluateSeries returns one signal per bar over the full history.
	// The signal at index i depends only on bars up to and including i,
	// so replaying the series is equivalent to live evaluation bar by bar.
	// Bars inside the lookback window yield HOLD.
	EvaluateSeries(bars []model.Bar) ([]model.Signal, error)
}

// Params carries every tunable strategy parameter. A Params value is built
// once (from config or defaults) and passed explicitly into the registry —
// there is no process-global configuration.
type Params struct {
	MAShort int `json:"ma_short"`
	MALong  int `json:"ma_long"`

	MACDFast   int `json:"macd_fast"`
	MACDSlow   int `json:"macd_slow"`
	MACDSignal int `json:"macd_signal"`

	RSIPeriod     int     `json:"rsi_period"`
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`

	BollPeriod int     `json:"boll_period"`
	BollStdDev float64 `json:"boll_std_dev"`

	KDJKPeriod    int     `json:"kdj_k_period"`
	KDJDPeriod    int     `json:"kdj_d_period"`
	KDJJPeriod    int     `json:"kdj_j_period"`
	KDJOverbought float64 `json:"kdj_overbought"`

	MomentumPeriod    int     `json:"momentum_period"`
	MomentumMAPeriod  int     `json:"momentum_ma_period"`
	MomentumThreshold float64 `json:"momentum_threshold"`

	VolumeMAPeriod   int     `json:"volume_ma_period"`
	VolumeSurge      float64 `json:"volume_surge"`
	VolumePriceDelta float64 `json:"volume_price_delta"`
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{
		MAShort: 5,
		MALong:  20,

		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,

		RSIPeriod:     14,
		RSIOversold:   30,
		RSIOverbought: 70,

		BollPeriod: 20,
		BollStdDev: 2.0,

		KDJKPeriod:    9,
		KDJDPeriod:    3,
		KDJJPeriod:    3,
		KDJOverbought: 80,

		MomentumPeriod:    20,
		MomentumMAPeriod:  20,
		MomentumThreshold: 0.05,

		VolumeMAPeriod:   20,
		VolumeSurge:      2.0,
		VolumePriceDelta: 0.02,
	}
}

// validate rejects parameter sets that cannot produce defined signals.
func (p Params) validate() error {
	switch {
	case p.MAShort <= 0 || p.MALong <= 0 || p.MAShort >= p.MALong:
		return fmt.Errorf("%w: ma windows (short=%d long=%d)", ErrInvalidConfig, p.MAShort, p.MALong)
	case p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0 || p.MACDFast >= p.MACDSlow:
		return fmt.Errorf("%w: macd periods (%d/%d/%d)", ErrInvalidConfig, p.MACDFast, p.MACDSlow, p.MACDSignal)
	case p.RSIPeriod <= 0 || p.RSIOversold >= p.RSIOverbought:
		return fmt.Errorf("%w: rsi period/thresholds", ErrInvalidConfig)
	case p.BollPeriod <= 1 || p.BollStdDev <= 0:
		return fmt.Errorf("%w: bollinger period/std dev", ErrInvalidConfig)
	case p.KDJKPeriod <= 0 || p.KDJDPeriod <= 0 || p.KDJJPeriod <= 0:
		return fmt.Errorf("%w: kdj periods", ErrInvalidConfig)
	case p.MomentumPeriod <= 0 || p.MomentumMAPeriod <= 0 || p.MomentumThreshold <= 0:
		return fmt.Errorf("%w: momentum periods/threshold", ErrInvalidConfig)
	case p.VolumeMAPeriod <= 0 || p.VolumeSurge <= 0 || p.VolumePriceDelta <= 0:
		return fmt.Errorf("%w: volume periods/thresholds", ErrInvalidConfig)
	}
	return nil
}

// hold builds a HOLD signal for a strategy with the given rationale.
func hold(strategy, reason string) model.Signal {
	return model.Signal{Strategy: strategy, Kind: model.SignalHold, Reason: reason}
}

// crossedAbove reports an upward cross of fast over slow between two bars.
func crossedAbove(prevFast, prevSlow, curFast, curSlow float64) bool {
	return prevFast <= prevSlow && curFast > curSlow
}

// crossedBelow reports a downward cross of fast under slow between two bars.
func crossedBelow(prevFast, prevSlow, curFast, curSlow float64) bool {
	return prevFast >= prevSlow && curFast < curSlow
}

// lastSignal evaluates the full series and returns the signal on the most
// recent bar. Evaluators delegate Evaluate here so the single-bar and series
// paths cannot drift apart.
func lastSignal(ev Evaluator, bars []model.Bar) (model.Signal, error) {
	signals, err := ev.EvaluateSeries(bars)
	if err != nil {
		return model.Signal{}, err
	}
	return signals[len(signals)-1], nil
}
