package indicator

// KDJLines computes the KDJ stochastic oscillator.
//
// RSV[i] = (close − lowest low) / (highest high − lowest low) × 100 over a
// trailing kPeriod window; K smooths RSV with alpha = 1/dPeriod, D smooths K
// with alpha = 1/jPeriod, J = 3K − 2D. All three series are defined from
// index kPeriod-1. A flat window (high == low) reads a neutral RSV of 50.
// Standard parameters are 9/3/3.
func KDJLines(highs, lows, closes []float64, kPeriod, dPeriod, jPeriod int) (k, d, j []float64, err error) {
	if kPeriod <= 0 || dPeriod <= 0 || jPeriod <= 0 {
		return nil, nil, nil, ErrInvalidPeriod
	}
	if len(closes) < kPeriod {
		return nil, nil, nil, ErrInsufficientData
	}

	n := len(closes)
	start := kPeriod - 1

	rsv := make([]float64, n)
	for i := start; i < n; i++ {
		lo, hi := lows[i-start], highs[i-start]
		for m := i - start + 1; m <= i; m++ {
			if lows[m] < lo {
				lo = lows[m]
			}
			if highs[m] > hi {
				hi = highs[m]
			}
		}
		if hi == lo {
			rsv[i] = 50.0
			continue
		}
		rsv[i] = (closes[i] - lo) / (hi - lo) * 100.0
	}

	kRaw := make([]float64, n)
	dRaw := make([]float64, n)
	smoothRecurrence(kRaw, rsv, 1.0/float64(dPeriod), start)
	smoothRecurrence(dRaw, kRaw, 1.0/float64(jPeriod), start)

	k = undefined(n)
	d = undefined(n)
	j = undefined(n)
	for i := start; i < n; i++ {
		k[i] = kRaw[i]
		d[i] = dRaw[i]
		j[i] = 3.0*kRaw[i] - 2.0*dRaw[i]
	}
	return k, d, j, nil
}
