// Package util holds the small pure helpers the committee engine is built on.
package util

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
)

// Clamp bounds x to [lo, hi]. NaN clamps to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Clamp01 bounds a probability to [0, 1].
func Clamp01(x float64) float64 {
	return Clamp(x, 0, 1)
}

// SumBy adds f(item) across items.
func SumBy[T any](items []T, f func(T) float64) float64 {
	total := 0.0
	for _, item := range items {
		total += f(item)
	}
	return total
}

// SumDecimalBy adds f(item) across items using decimal arithmetic.
func SumDecimalBy[T any](items []T, f func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(f(item))
	}
	return total
}

// MaxBy returns the largest f(item), or 0 for an empty slice.
func MaxBy[T any](items []T, f func(T) float64) float64 {
	best := 0.0
	for i, item := range items {
		v := f(item)
		if i == 0 || v > best {
			best = v
		}
	}
	return best
}

// SanitizeFloat replaces NaN and infinities with fallback and clamps the
// result to [lo, hi]. A warning is logged whenever the input was changed.
func SanitizeFloat(logger logging.Logger, field string, x, fallback, lo, hi float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		logging.OrNop(logger).Warn("malformed numeric input replaced", "field", field, "value", x, "fallback", fallback)
		return Clamp(fallback, lo, hi)
	}
	clamped := Clamp(x, lo, hi)
	if clamped != x {
		logging.OrNop(logger).Warn("numeric input clamped", "field", field, "value", x, "clamped", clamped)
	}
	return clamped
}

// NonNegative returns q, or zero with a warning when q is negative.
func NonNegative(logger logging.Logger, field string, q decimal.Decimal) decimal.Decimal {
	if q.IsNegative() {
		logging.OrNop(logger).Warn("negative quantity clamped to zero", "field", field, "value", q.String())
		return decimal.Zero
	}
	return q
}

// DecimalMax returns the larger of a and b.
func DecimalMax(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
