package indicator

// OBV computes On-Balance Volume: a running total that adds the bar's volume
// on an up-close and subtracts it on a down-close. Defined from index 0
// (the first entry is the zero baseline).
func OBV(closes, volumes []float64) ([]float64, error) {
	if len(closes) == 0 {
		return nil, ErrInsufficientData
	}

	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out, nil
}
