package indicator

// MACDLines computes the MACD line (fast EMA minus slow EMA), its signal line
// (EMA of the MACD line over signalPeriod), and the histogram (line − signal).
//
// The line is defined from index slow-1, the signal and histogram from index
// slow+signalPeriod-2. Standard parameters are 12/26/9.
func MACDLines(closes []float64, fast, slow, signalPeriod int) (line, signal, histogram []float64, err error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 || fast >= slow {
		return nil, nil, nil, ErrInvalidPeriod
	}
	if len(closes) < slow+signalPeriod-1 {
		return nil, nil, nil, ErrInsufficientData
	}

	emaFast := emaRecurrence(closes, fast)
	emaSlow := emaRecurrence(closes, slow)

	rawLine := make([]float64, len(closes))
	for i := range closes {
		rawLine[i] = emaFast[i] - emaSlow[i]
	}
	rawSignal := emaRecurrence(rawLine, signalPeriod)

	line = undefined(len(closes))
	signal = undefined(len(closes))
	histogram = undefined(len(closes))

	lineStart := slow - 1
	signalStart := slow + signalPeriod - 2
	copy(line[lineStart:], rawLine[lineStart:])
	for i := signalStart; i < len(closes); i++ {
		signal[i] = rawSignal[i]
		histogram[i] = rawLine[i] - rawSignal[i]
	}
	return line, signal, histogram, nil
}
