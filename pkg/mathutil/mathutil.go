// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/shopspring/decimal"
)

// RoundCurrency rounds a value to the nearest whole currency unit, half away
// from zero. Non-finite values collapse to 0 (NaN) or saturate (±Inf).
func RoundCurrency(val float64) int64 {
	switch {
	case math.IsNaN(val):
		return 0
	case val >= math.MaxInt64:
		return math.MaxInt64
	case val <= math.MinInt64:
		return math.MinInt64
	}
	return decimal.NewFromFloat(val).Round(0).IntPart()
}

// RoundTo rounds a value to the given number of decimal places, half away
// from zero. The decimal detour keeps 0.125 -> 0.13 instead of the binary
// 0.12 that math.Round(val*100)/100 would give.
func RoundTo(val float64, places int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	return decimal.NewFromFloat(val).Round(places).InexactFloat64()
}

// SafeDivide returns numerator/denominator, or 0 when the denominator is not
// strictly positive.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Min returns the minimum of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// CalculatePercentage calculates what percentage value is of total. A total
// at or below zero yields 0.
func CalculatePercentage(value, total float64) float64 {
	return SafeDivide(value, total) * constants.PercentageMultiplier
}

// GrowthFactor converts a percentage rate into a multiplier (7 -> 1.07).
func GrowthFactor(percent float64) float64 {
	return 1 + percent/constants.PercentageMultiplier
}
