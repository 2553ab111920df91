package indicator

import "math"

// BollingerBands computes the middle band (SMA), and upper/lower bands at
// mid ± mult·σ where σ is the sample standard deviation over the same window.
// All three series are defined from index period-1. Standard parameters are
// period 20, mult 2.0.
func BollingerBands(closes []float64, period int, mult float64) (upper, mid, lower []float64, err error) {
	if period <= 1 {
		return nil, nil, nil, ErrInvalidPeriod
	}
	if len(closes) < period {
		return nil, nil, nil, ErrInsufficientData
	}

	mid, err = SMA(closes, period)
	if err != nil {
		return nil, nil, nil, err
	}
	upper = undefined(len(closes))
	lower = undefined(len(closes))

	for i := period - 1; i < len(closes); i++ {
		mean := mid[i]
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			ss += d * d
		}
		sigma := math.Sqrt(ss / float64(period-1))
		upper[i] = mean + mult*sigma
		lower[i] = mean - mult*sigma
	}
	return upper, mid, lower, nil
}
