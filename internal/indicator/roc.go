package indicator

// ROC computes the rate of change: the fractional return over the trailing
// period (0.05 = +5%). Output[i] is defined for i >= period. A zero base
// price leaves the entry undefined rather than dividing by zero.
func ROC(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < period+1 {
		return nil, ErrInsufficientData
	}

	out := undefined(len(values))
	for i := period; i < len(values); i++ {
		base := values[i-period]
		if base == 0 {
			continue
		}
		out[i] = (values[i] - base) / base
	}
	return out, nil
}
