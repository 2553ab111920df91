package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"stock-advisor/internal/indicator"
	"stock-advisor/internal/model"
)

func barsFromCloses(closes []float64) []model.Bar {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	reg, err := NewRegistry(DefaultParams())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewEngine(reg)
}

func TestAggregateMajorityBuy(t *testing.T) {
	final, conf, buys, sells := aggregate([]model.Signal{
		{Strategy: "a", Kind: model.SignalBuy},
		{Strategy: "b", Kind: model.SignalBuy},
		{Strategy: "c", Kind: model.SignalSell},
	})
	if final != model.SignalBuy {
		t.Fatalf("final = %s, want BUY", final)
	}
	if want := 2.0 / 3.0; math.Abs(conf-want) > 1e-12 {
		t.Fatalf("confidence = %v, want %v", conf, want)
	}
	if len(buys) != 2 || len(sells) != 1 {
		t.Fatalf("buys=%v sells=%v", buys, sells)
	}
}

func TestAggregateMajoritySell(t *testing.T) {
	final, conf, _, sells := aggregate([]model.Signal{
		{Strategy: "a", Kind: model.SignalSell},
		{Strategy: "b", Kind: model.SignalSell},
		{Strategy: "c", Kind: model.SignalBuy},
		{Strategy: "d", Kind: model.SignalHold},
	})
	if final != model.SignalSell {
		t.Fatalf("final = %s, want SELL", final)
	}
	if want := 0.5; conf != want {
		t.Fatalf("confidence = %v, want %v", conf, want)
	}
	if len(sells) != 2 {
		t.Fatalf("sells = %v", sells)
	}
}

func TestAggregateTieIsHold(t *testing.T) {
	final, conf, _, _ := aggregate([]model.Signal{
		{Strategy: "a", Kind: model.SignalBuy},
		{Strategy: "b", Kind: model.SignalSell},
	})
	if final != model.SignalHold {
		t.Fatalf("final = %s, want HOLD on tie", final)
	}
	if conf != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", conf)
	}
}

func TestAggregateAllHold(t *testing.T) {
	final, conf, buys, sells := aggregate([]model.Signal{
		{Strategy: "a", Kind: model.SignalHold},
		{Strategy: "b", Kind: model.SignalHold},
	})
	if final != model.SignalHold || conf != 0.5 {
		t.Fatalf("got %s/%v, want HOLD/0.5", final, conf)
	}
	if len(buys) != 0 || len(sells) != 0 {
		t.Fatalf("expected no votes, got buys=%v sells=%v", buys, sells)
	}
}

func TestAnalyzeUnknownStrategy(t *testing.T) {
	eng := newTestEngine(t)
	bars := barsFromCloses(make([]float64, 50))
	_, err := eng.Analyze(bars, []string{"ma_cross", "astrology"})
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	eng := newTestEngine(t)
	bars := barsFromCloses([]float64{10, 11, 12})
	_, err := eng.Analyze(bars, []string{"ma_cross"})
	if !errors.Is(err, indicator.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyzeEmptyNamesMeansAll(t *testing.T) {
	eng := newTestEngine(t)
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 0.1*float64(i)
	}
	res, err := eng.Analyze(barsFromCloses(closes), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got, want := len(res.PerStrategy), len(eng.Registry().List()); got != want {
		t.Fatalf("evaluated %d strategies, want %d", got, want)
	}
	for _, name := range eng.Registry().List() {
		if _, ok := res.PerStrategy[name]; !ok {
			t.Fatalf("missing per-strategy entry for %s", name)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	eng := newTestEngine(t)
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 3*math.Sin(float64(i)/4)
	}
	bars := barsFromCloses(closes)

	first, err := eng.Analyze(bars, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := eng.Analyze(bars, nil)
		if err != nil {
			t.Fatalf("Analyze run %d: %v", run, err)
		}
		if again.FinalSignal != first.FinalSignal || again.Confidence != first.Confidence {
			t.Fatalf("run %d diverged: %s/%v vs %s/%v",
				run, again.FinalSignal, again.Confidence, first.FinalSignal, first.Confidence)
		}
		for name, sig := range first.PerStrategy {
			if again.PerStrategy[name] != sig {
				t.Fatalf("run %d strategy %s diverged", run, name)
			}
		}
	}
}

func TestRegistryRejectsBadParams(t *testing.T) {
	p := DefaultParams()
	p.MAShort = 30 // short >= long
	if _, err := NewRegistry(p); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestRegistryListOrderStable(t *testing.T) {
	reg, err := NewRegistry(DefaultParams())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	first := reg.List()
	for i := 0; i < 3; i++ {
		if got := reg.List(); len(got) != len(first) {
			t.Fatalf("list length changed: %v", got)
		} else {
			for j := range got {
				if got[j] != first[j] {
					t.Fatalf("list order changed at %d: %v vs %v", j, got, first)
				}
			}
		}
	}
}
