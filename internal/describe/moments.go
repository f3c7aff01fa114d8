package describe

import (
	"math"
)

// Skewness computes sample skewness using the adjusted Fisher-Pearson
// coefficient with bias correction.
func Skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}

	n := float64(len(data))
	mean, stdDev := meanStdDev(data)
	if stdDev == 0 {
		return 0
	}

	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// ExcessKurtosis computes bias-corrected sample excess kurtosis (0 for a
// normal distribution).
func ExcessKurtosis(data []float64) float64 {
	if len(data) < 4 {
		return 0
	}

	n := float64(len(data))
	mean, stdDev := meanStdDev(data)
	if stdDev == 0 {
		return 0
	}

	sumFourthDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	g2 := sumFourthDeviations/n - 3

	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
}

// meanStdDev computes the mean and population standard deviation in one pass.
func meanStdDev(data []float64) (float64, float64) {
	n := float64(len(data))
	if n == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / n

	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / n)
}
