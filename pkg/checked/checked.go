// Package checked provides overflow-aware uint64 arithmetic for ledger amounts.
//
// Every checked helper reports ok=false instead of wrapping, so callers can
// surface their own registered error. The Saturating helpers clamp at the
// uint64 bounds instead.
package checked

import (
	"math"

	sdkmath "cosmossdk.io/math"
)

var maxUint64 = sdkmath.NewUint(math.MaxUint64)

func fits(v sdkmath.Uint) (uint64, bool) {
	if v.GT(maxUint64) {
		return 0, false
	}
	return v.Uint64(), true
}

// Add returns a+b.
func Add(a, b uint64) (uint64, bool) {
	return fits(sdkmath.NewUint(a).Add(sdkmath.NewUint(b)))
}

// Sub returns a-b, failing when b > a.
func Sub(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// Mul returns a*b.
func Mul(a, b uint64) (uint64, bool) {
	return fits(sdkmath.NewUint(a).Mul(sdkmath.NewUint(b)))
}

// Div returns floor(a/b), failing on a zero divisor.
func Div(a, b uint64) (uint64, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}

// MulDiv returns floor(a*num/den). The intermediate product must itself fit
// in a uint64.
func MulDiv(a, num, den uint64) (uint64, bool) {
	p, ok := Mul(a, num)
	if !ok {
		return 0, false
	}
	return Div(p, den)
}

// SaturatingSub returns a-b, or 0 when b > a.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingMul returns a*b clamped to MaxUint64.
func SaturatingMul(a, b uint64) uint64 {
	v, ok := Mul(a, b)
	if !ok {
		return math.MaxUint64
	}
	return v
}

// SaturatingMulDiv returns floor(sat(a*num)/den). A zero divisor yields 0.
func SaturatingMulDiv(a, num, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	return SaturatingMul(a, num) / den
}

// Sum adds all values, failing on the first overflow.
func Sum(values ...uint64) (uint64, bool) {
	var total uint64
	for _, v := range values {
		var ok bool
		if total, ok = Add(total, v); !ok {
			return 0, false
		}
	}
	return total, true
}
