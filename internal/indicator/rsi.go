package indicator

// RSI computes the Relative Strength Index over a trailing window using
// simple rolling means of gains and losses. Output[i] is defined for
// i >= period and clamped to [0,100]; a window with zero average loss
// reads 100 (pure uptrend).
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(closes) < period+1 {
		return nil, ErrInsufficientData
	}

	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	out := undefined(n)
	var gainSum, lossSum float64
	for i := 1; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}
		avgGain := gainSum / float64(period)
		rs := avgGain / avgLoss
		v := 100.0 - (100.0 / (1.0 + rs))
		if v < 0 {
			v = 0
		} else if v > 100 {
			v = 100
		}
		out[i] = v
	}
	return out, nil
}
