package core

import "math"

// -----------------------------------------------------------------------------

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and sample standard deviation (n-1 denominator).
// Std is 0 when fewer than two values are given.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	mean := Mean(data)
	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)-1))
	return mean, std
}

// -----------------------------------------------------------------------------

// SampleStd is CalculateMeanStd without the mean.
func SampleStd(data []float64) float64 {
	_, std := CalculateMeanStd(data)
	return std
}

// -----------------------------------------------------------------------------

// EWMAdjusted returns the last value of an exponentially weighted mean with
// adjusted weights, alpha = 2/(span+1):
//
//	y_t = sum_i (1-alpha)^i x_{t-i} / sum_i (1-alpha)^i
func EWMAdjusted(data []float64, span int) float64 {
	if len(data) == 0 {
		return 0
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	num, den, weight := 0.0, 0.0, 1.0
	for i := len(data) - 1; i >= 0; i-- {
		num += weight * data[i]
		den += weight
		weight *= decay
	}
	return num / den
}

// -----------------------------------------------------------------------------

// Finite maps NaN and Inf to 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
