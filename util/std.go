// Utility functions that would not hurt the simplicity of Go
// if they would be in the builtins/stdlib.
package util

// Returns the minimum of a and b.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Returns the maximum of a and b.
func Max(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// Clamps x into [lo, hi]
func Clamp(x, lo, hi int) int {
	return Max(lo, Min(x, hi))
}

// Like Min() but for int64
func Min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Like Max() but for int64
func Max64(a, b int64) int64 {
	if a < b {
		return b
	}
	return a
}

// Like Min() but for uint32
func UMin32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// Like Max() but for uint32
func UMax32(a, b uint32) uint32 {
	if a < b {
		return b
	}
	return a
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b.
// Both arguments must be positive.
func LCM(a, b int) int {
	return a / GCD(a, b) * b
}
