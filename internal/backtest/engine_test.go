package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
	"stock-advisor/internal/strategy"
)

func testBars(closes []float64) []model.Bar {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func testSignals(kinds []model.SignalKind) []model.Signal {
	out := make([]model.Signal, len(kinds))
	for i, k := range kinds {
		out[i] = model.Signal{Strategy: "test", Kind: k}
	}
	return out
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	reg, err := strategy.NewRegistry(strategy.DefaultParams())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return New(reg)
}

func TestSimulateRoundTrip(t *testing.T) {
	bars := testBars([]float64{100, 100, 110, 110, 120})
	signals := testSignals([]model.SignalKind{
		model.SignalHold, model.SignalBuy, model.SignalHold, model.SignalSell, model.SignalHold,
	})
	report := simulate(bars, signals, Config{InitialCapital: 10000})

	if report.TradeCount != 1 {
		t.Fatalf("TradeCount = %d, want 1", report.TradeCount)
	}
	if len(report.Trades) != 2 {
		t.Fatalf("len(Trades) = %d, want 2 (entry + exit)", len(report.Trades))
	}
	if got := report.Trades[1].PnL; math.Abs(got-1000) > 1e-9 {
		t.Fatalf("exit PnL = %v, want 1000", got)
	}
	if math.Abs(report.FinalEquity-11000) > 1e-9 {
		t.Fatalf("FinalEquity = %v, want 11000", report.FinalEquity)
	}
	if math.Abs(report.TotalReturnPct-10) > 1e-9 {
		t.Fatalf("TotalReturnPct = %v, want 10", report.TotalReturnPct)
	}
	if report.WinRate != 1 {
		t.Fatalf("WinRate = %v, want 1", report.WinRate)
	}
	if report.MaxDrawdownPct != 0 {
		t.Fatalf("MaxDrawdownPct = %v, want 0", report.MaxDrawdownPct)
	}
	if report.OpenPosition != nil {
		t.Fatalf("OpenPosition = %+v, want nil", report.OpenPosition)
	}

	wantEquity := []float64{10000, 10000, 11000, 11000, 11000}
	if len(report.EquityCurve) != len(bars) {
		t.Fatalf("equity curve has %d points for %d bars", len(report.EquityCurve), len(bars))
	}
	for i, want := range wantEquity {
		if got := report.EquityCurve[i].Equity; math.Abs(got-want) > 1e-9 {
			t.Fatalf("equity[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestSimulateCommission(t *testing.T) {
	bars := testBars([]float64{100, 110})
	signals := testSignals([]model.SignalKind{model.SignalBuy, model.SignalSell})
	report := simulate(bars, signals, Config{InitialCapital: 10000, Commission: 0.001})

	// Entry: notional 10000/1.001, shares = notional/100.
	shares := 10000 / 1.001 / 100
	gross := shares * 110
	wantFinal := gross - gross*0.001
	if math.Abs(report.FinalEquity-wantFinal) > 1e-9 {
		t.Fatalf("FinalEquity = %v, want %v", report.FinalEquity, wantFinal)
	}
	if got := report.Trades[1].PnL; math.Abs(got-(wantFinal-10000)) > 1e-9 {
		t.Fatalf("PnL = %v, want %v", got, wantFinal-10000)
	}
}

func TestSimulateOpenPositionMarkedToMarket(t *testing.T) {
	bars := testBars([]float64{100, 100, 110, 105})
	signals := testSignals([]model.SignalKind{
		model.SignalHold, model.SignalBuy, model.SignalHold, model.SignalHold,
	})
	report := simulate(bars, signals, Config{InitialCapital: 10000})

	if report.OpenPosition == nil {
		t.Fatal("OpenPosition = nil, want open position")
	}
	if report.TradeCount != 0 {
		t.Fatalf("TradeCount = %d, want 0 for an open position", report.TradeCount)
	}
	if math.Abs(report.FinalEquity-10500) > 1e-9 {
		t.Fatalf("FinalEquity = %v, want 10500", report.FinalEquity)
	}
	wantDD := 500.0 / 11000 * 100
	if math.Abs(report.MaxDrawdownPct-wantDD) > 1e-9 {
		t.Fatalf("MaxDrawdownPct = %v, want %v", report.MaxDrawdownPct, wantDD)
	}
}

func TestSimulateIgnoresSellWhileFlat(t *testing.T) {
	bars := testBars([]float64{100, 90, 80})
	signals := testSignals([]model.SignalKind{
		model.SignalSell, model.SignalSell, model.SignalHold,
	})
	report := simulate(bars, signals, Config{InitialCapital: 10000})

	if len(report.Trades) != 0 {
		t.Fatalf("Trades = %v, want none", report.Trades)
	}
	if report.FinalEquity != 10000 {
		t.Fatalf("FinalEquity = %v, want untouched capital", report.FinalEquity)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	eng := newTestEngine(t)
	bars := testBars(make([]float64, 60))

	_, err := eng.Run(bars, "ma_cross", Config{InitialCapital: 0})
	if !errors.Is(err, strategy.ErrInvalidConfig) {
		t.Fatalf("zero capital err = %v, want ErrInvalidConfig", err)
	}
	_, err = eng.Run(bars, "ma_cross", Config{InitialCapital: 10000, Commission: -0.1})
	if !errors.Is(err, strategy.ErrInvalidConfig) {
		t.Fatalf("negative commission err = %v, want ErrInvalidConfig", err)
	}
}

func TestRunUnknownStrategy(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.Run(testBars(make([]float64, 60)), "tea_leaves", Config{InitialCapital: 10000})
	if !errors.Is(err, strategy.ErrUnknownStrategy) {
		t.Fatalf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestRunInsufficientData(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.Run(testBars([]float64{100, 101}), "ma_cross", Config{InitialCapital: 10000})
	if !errors.Is(err, indicator.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
	_, err = eng.Run(nil, "ma_cross", Config{InitialCapital: 10000})
	if !errors.Is(err, indicator.ErrInsufficientData) {
		t.Fatalf("empty bars err = %v, want ErrInsufficientData", err)
	}
}

func TestRunUnorderedBars(t *testing.T) {
	eng := newTestEngine(t)
	bars := testBars(make([]float64, 60))
	bars[10].Timestamp, bars[11].Timestamp = bars[11].Timestamp, bars[10].Timestamp

	_, err := eng.Run(bars, "ma_cross", Config{InitialCapital: 10000})
	if !errors.Is(err, model.ErrUnorderedBars) {
		t.Fatalf("err = %v, want ErrUnorderedBars", err)
	}
}

func TestRunConservationAndIdempotence(t *testing.T) {
	eng := newTestEngine(t)
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/7) + 0.05*float64(i)
	}
	bars := testBars(closes)

	first, err := eng.Run(bars, "ma_cross", Config{InitialCapital: 10000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.MaxDrawdownPct < 0 || first.MaxDrawdownPct > 100 {
		t.Fatalf("MaxDrawdownPct = %v, want within [0, 100]", first.MaxDrawdownPct)
	}
	// The curve ends at the reported final equity.
	last := first.EquityCurve[len(first.EquityCurve)-1].Equity
	if math.Float64bits(last) != math.Float64bits(first.FinalEquity) {
		t.Fatalf("curve end %v != FinalEquity %v", last, first.FinalEquity)
	}

	for run := 0; run < 3; run++ {
		again, err := eng.Run(bars, "ma_cross", Config{InitialCapital: 10000})
		if err != nil {
			t.Fatalf("Run %d: %v", run, err)
		}
		if math.Float64bits(again.FinalEquity) != math.Float64bits(first.FinalEquity) ||
			again.TradeCount != first.TradeCount {
			t.Fatalf("run %d diverged: %v/%d vs %v/%d",
				run, again.FinalEquity, again.TradeCount, first.FinalEquity, first.TradeCount)
		}
	}
}
