package indicator

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func assertUndefined(t *testing.T, label string, series []float64, upto int) {
	t.Helper()
	for i := 0; i < upto; i++ {
		if Defined(series[i]) {
			t.Errorf("%s: index %d should be undefined, got %.6f", label, i, series[i])
		}
	}
}

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA(3) at index 2: (100+102+104)/3 = 102.0
	// SMA(3) at index 3: (102+104+103)/3 = 103.0
	// SMA(3) at index 4: (104+103+105)/3 = 104.0
	out, err := SMA([]float64{100, 102, 104, 103, 105}, 3)
	if err != nil {
		t.Fatalf("SMA returned error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected output length 5, got %d", len(out))
	}
	assertUndefined(t, "SMA(3)", out, 2)
	assertClose(t, "SMA(3) index 2", out[2], 102.0, 0.0001)
	assertClose(t, "SMA(3) index 3", out[3], 103.0, 0.0001)
	assertClose(t, "SMA(3) index 4", out[4], 104.0, 0.0001)
}

func TestSMA_InsufficientData(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 3)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEMA_Correctness_Period3(t *testing.T) {
	// alpha = 2/(3+1) = 0.5, seeded at the first value:
	// raw: 10, 10.5, 11.25, 12.125 — defined from index 2
	out, err := EMA([]float64{10, 11, 12, 13}, 3)
	if err != nil {
		t.Fatalf("EMA returned error: %v", err)
	}
	assertUndefined(t, "EMA(3)", out, 2)
	assertClose(t, "EMA(3) index 2", out[2], 11.25, 0.0001)
	assertClose(t, "EMA(3) index 3", out[3], 12.125, 0.0001)
}

func TestMACD_FlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100
	}
	line, signal, hist, err := MACDLines(closes, 3, 5, 3)
	if err != nil {
		t.Fatalf("MACDLines returned error: %v", err)
	}
	assertUndefined(t, "MACD line", line, 4)
	assertUndefined(t, "MACD signal", signal, 6)
	for i := 6; i < 10; i++ {
		assertClose(t, "MACD line (flat)", line[i], 0, 1e-12)
		assertClose(t, "MACD signal (flat)", signal[i], 0, 1e-12)
		assertClose(t, "MACD histogram (flat)", hist[i], 0, 1e-12)
	}
}

func TestMACD_RisingSeriesPositiveLine(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	line, _, _, err := MACDLines(closes, 12, 26, 9)
	if err != nil {
		t.Fatalf("MACDLines returned error: %v", err)
	}
	// Fast EMA tracks a rising series more closely than the slow EMA.
	if !Defined(line[39]) || line[39] <= 0 {
		t.Errorf("expected positive MACD line on rising series, got %.6f", line[39])
	}
}

func TestRSI_Correctness_Period3(t *testing.T) {
	// Closes: 10, 11, 10, 11, 12 → deltas +1, -1, +1, +1
	// Index 3 window (deltas 1..3): avgGain=2/3, avgLoss=1/3 → RS=2, RSI=66.667
	// Index 4 window (deltas 2..4): avgGain=2/3, avgLoss=1/3 → RSI=66.667
	out, err := RSI([]float64{10, 11, 10, 11, 12}, 3)
	if err != nil {
		t.Fatalf("RSI returned error: %v", err)
	}
	assertUndefined(t, "RSI(3)", out, 3)
	assertClose(t, "RSI(3) index 3", out[3], 66.6667, 0.001)
	assertClose(t, "RSI(3) index 4", out[4], 66.6667, 0.001)
}

func TestRSI_PureUptrendReads100(t *testing.T) {
	out, err := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)
	if err != nil {
		t.Fatalf("RSI returned error: %v", err)
	}
	for i := 3; i < len(out); i++ {
		assertClose(t, "RSI uptrend", out[i], 100, 1e-9)
	}
}

func TestBollinger_Correctness_Period3(t *testing.T) {
	// Closes: 10, 12, 14, 16
	// Index 2: mean=12, sample σ of {10,12,14}=2 → upper 16, lower 8
	// Index 3: mean=14, sample σ of {12,14,16}=2 → upper 18, lower 10
	upper, mid, lower, err := BollingerBands([]float64{10, 12, 14, 16}, 3, 2.0)
	if err != nil {
		t.Fatalf("BollingerBands returned error: %v", err)
	}
	assertUndefined(t, "Bollinger upper", upper, 2)
	assertClose(t, "mid index 2", mid[2], 12, 0.0001)
	assertClose(t, "upper index 2", upper[2], 16, 0.0001)
	assertClose(t, "lower index 2", lower[2], 8, 0.0001)
	assertClose(t, "upper index 3", upper[3], 18, 0.0001)
	assertClose(t, "lower index 3", lower[3], 10, 0.0001)
}

func TestKDJ_Correctness(t *testing.T) {
	// Window 3, smoothing 3/3.
	// Index 2: lo=9, hi=13, close=12 → RSV=75; K=D=J=75 (seed)
	// Index 3: window highs {12,13,12}→13, lows {10,11,10}→10, close=11
	//   RSV=(11-10)/3×100=33.333
	//   K=1/3·33.333+2/3·75=61.111, D=1/3·61.111+2/3·75=70.370
	//   J=3K−2D=42.593
	highs := []float64{11, 12, 13, 12}
	lows := []float64{9, 10, 11, 10}
	closes := []float64{10, 11, 12, 11}
	k, d, j, err := KDJLines(highs, lows, closes, 3, 3, 3)
	if err != nil {
		t.Fatalf("KDJLines returned error: %v", err)
	}
	assertUndefined(t, "K", k, 2)
	assertClose(t, "K index 2", k[2], 75, 0.001)
	assertClose(t, "D index 2", d[2], 75, 0.001)
	assertClose(t, "J index 2", j[2], 75, 0.001)
	assertClose(t, "K index 3", k[3], 61.1111, 0.001)
	assertClose(t, "D index 3", d[3], 70.3704, 0.001)
	assertClose(t, "J index 3", j[3], 42.5926, 0.001)
}

func TestROC_Correctness(t *testing.T) {
	out, err := ROC([]float64{10, 11, 12, 13}, 2)
	if err != nil {
		t.Fatalf("ROC returned error: %v", err)
	}
	assertUndefined(t, "ROC(2)", out, 2)
	assertClose(t, "ROC index 2", out[2], 0.2, 0.0001)
	assertClose(t, "ROC index 3", out[3], 13.0/11.0-1.0, 0.0001)
}

func TestOBV_Correctness(t *testing.T) {
	out, err := OBV([]float64{10, 11, 11, 10}, []float64{5, 6, 7, 8})
	if err != nil {
		t.Fatalf("OBV returned error: %v", err)
	}
	want := []float64{0, 6, 6, -2}
	for i := range want {
		assertClose(t, "OBV", out[i], want[i], 1e-12)
	}
}

func TestIndicator_Determinism(t *testing.T) {
	closes := []float64{10, 11, 10.5, 12, 11.8, 13, 12.5, 14, 13.7, 15, 14.2, 16, 15.5, 17, 16.1, 18}

	a, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("RSI returned error: %v", err)
	}
	b, _ := RSI(closes, 14)
	for i := range a {
		// Bit-identical, including NaN sentinel positions.
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Errorf("index %d: runs differ: %v vs %v", i, a[i], b[i])
		}
	}
}
