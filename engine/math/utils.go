package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// SnapToMultiple rounds f to the nearest multiple of spacing. Values exactly
// half-way round away from zero. A non-positive spacing returns f unchanged.
func SnapToMultiple(f, spacing float32) float32 {
	if spacing <= 0 {
		return f
	}
	return kround(f/spacing) * spacing
}
