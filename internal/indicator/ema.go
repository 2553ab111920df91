package indicator

// EMA computes the exponential moving average with span smoothing
// alpha = 2/(period+1), seeded at the first value. Output[i] is defined for
// i >= period-1; earlier recurrence steps feed the seed but stay undefined.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < period {
		return nil, ErrInsufficientData
	}

	raw := emaRecurrence(values, period)
	out := undefined(len(values))
	copy(out[period-1:], raw[period-1:])
	return out, nil
}

// emaRecurrence runs the EMA recurrence over the full series without masking.
// Split out so MACD can chain EMAs the way a rolling ewm does, where the
// signal-line smoothing consumes the unmasked MACD line.
func emaRecurrence(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// smoothRecurrence runs an EMA-style recurrence with an explicit alpha,
// starting at index start (entries before start are left untouched).
func smoothRecurrence(dst, values []float64, alpha float64, start int) {
	dst[start] = values[start]
	for i := start + 1; i < len(values); i++ {
		dst[i] = alpha*values[i] + (1-alpha)*dst[i-1]
	}
}
