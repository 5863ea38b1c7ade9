package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic numeric helpers shared by the tuner algorithms, using gonum where it applies.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// StandardDeviation calculates the sample standard deviation using gonum
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.StdDev(data, nil)
}

// Percentile calculates the p-th percentile (p between 0 and 1)
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// AmplitudeToDB converts a linear amplitude to dBFS, flooring at -120 dB.
func AmplitudeToDB(amplitude float64) float64 {
	if amplitude <= 1e-6 {
		return -120.0
	}
	return 20.0 * math.Log10(amplitude)
}

// Clamp clamps a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundHalfUp rounds to the nearest integer with ties going toward +Inf,
// so RoundHalfUp(-2.5) == -2 and RoundHalfUp(2.5) == 3.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// RoundToBasis rounds n to the nearest multiple of basis (half-up).
func RoundToBasis(n, basis float64) float64 {
	if basis == 0 {
		return n
	}
	return RoundHalfUp(n/basis) * basis
}

// NextPowerOfTwo returns the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
