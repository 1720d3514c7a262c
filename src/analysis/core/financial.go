package core

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates percentage change as a ratio.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous
}

// -----------------------------------------------------------------------------

// MeanPctChange averages the consecutive percentage changes of a series.
// Pairs whose previous value is 0 are skipped; no usable pair gives 0.
func MeanPctChange(data []float64) float64 {
	sum := 0.0
	n := 0
	for i := 1; i < len(data); i++ {
		if data[i-1] == 0 {
			continue
		}
		sum += CalculateChangePercent(data[i], data[i-1])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// -----------------------------------------------------------------------------

// FirstLastChange is last minus first, 0 for fewer than two values.
func FirstLastChange(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return data[len(data)-1] - data[0]
}

// -----------------------------------------------------------------------------

// BrassIndex is the weighted copper/zinc composite used for valve pricing.
func BrassIndex(copper, zinc, copperWeight, zincWeight float64) float64 {
	return copperWeight*copper + zincWeight*zinc
}
