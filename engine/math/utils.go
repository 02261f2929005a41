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

// Lerp linearly interpolates between a and b by t. The product is rounded
// to the operand type before the add so results are identical on every
// architecture, fused multiply-add or not.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + T(t*(b-a))
}

// CeilDiv returns ceil(a / b) for positive b.
func CeilDiv[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}
