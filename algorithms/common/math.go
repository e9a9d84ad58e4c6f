package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistical helpers shared by the analyzers, backed by gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopulationStdDev calculates the population standard deviation (divides by n)
func PopulationStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	_, variance := stat.PopMeanVariance(data, nil)
	return math.Sqrt(variance)
}

// CoefficientOfVariation returns stddev/mean as a percentage.
// Zero mean or fewer than two values yields 0.
func CoefficientOfVariation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	mean, variance := stat.PopMeanVariance(data, nil)
	if mean <= 0 {
		return 0.0
	}
	return math.Sqrt(variance) / mean * 100.0
}

// Sum adds up all values
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Sum(data)
}

// Max returns the largest value, 0 for empty input
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data)
}

// Min returns the smallest value, 0 for empty input
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Min(data)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// SafeDivide returns num/den, or fallback when den is zero or the result is not finite
func SafeDivide(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Round rounds to the given number of decimal places
func Round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// Downsample reduces data to at most maxPoints by averaging contiguous buckets
func Downsample(data []float64, maxPoints int) []float64 {
	if maxPoints <= 0 || len(data) <= maxPoints {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	out := make([]float64, maxPoints)
	bucket := float64(len(data)) / float64(maxPoints)
	for i := range maxPoints {
		start := int(float64(i) * bucket)
		end := int(float64(i+1) * bucket)
		if end > len(data) {
			end = len(data)
		}
		if end <= start {
			end = start + 1
		}
		out[i] = stat.Mean(data[start:end], nil)
	}

	return out
}
