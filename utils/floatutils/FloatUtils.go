// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// MaxSlice gets the maximum value and indices of the maximum values in
// a slice of float64.
func MaxSlice(values []float64) (max float64, indices []int) {
	max, indices = values[0], []int{0}

	for i := 1; i < len(values); i++ {
		if values[i] > max {
			max = values[i]
			indices = []int{i}
		} else if values[i] == max {
			indices = append(indices, i)
		}
	}
	return
}

// MinSlice gets the minimum value and indices of the minimum values in
// a slice of float64.
func MinSlice(values []float64) (min float64, indices []int) {
	min, indices = values[0], []int{0}

	for i := 1; i < len(values); i++ {
		if values[i] < min {
			min = values[i]
			indices = []int{i}
		} else if values[i] == min {
			indices = append(indices, i)
		}
	}
	return
}

// ArgMin returns the first index of the minimum value in a slice
func ArgMin(values []float64) int {
	_, indices := MinSlice(values)
	return indices[0]
}

// RoundHalfEven rounds to the nearest integer, rounding halves to the
// nearest even integer.
func RoundHalfEven(x float64) int {
	return int(math.RoundToEven(x))
}

// Arange returns evenly spaced values in the half-open interval
// [start, stop), where each value is start + k * step
func Arange(start, stop, step float64) []float64 {
	if step <= 0 || stop <= start {
		return nil
	}
	n := int(math.Ceil((stop - start) / step))
	values := make([]float64, n)
	for k := range values {
		values[k] = start + float64(k)*step
	}
	return values
}
