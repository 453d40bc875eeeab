package num

import (
	sdkmath "cosmossdk.io/math"
)

// BasisPoints is the denominator for rate fields expressed in basis points.
const BasisPoints = 10_000

// MulDivFloor returns floor(a*b/d). All inputs must be non-negative and d
// must be positive; callers are responsible for guarding the denominator.
func MulDivFloor(a, b, d sdkmath.Int) sdkmath.Int {
	return a.Mul(b).Quo(d)
}

// MulDivCeil returns ceil(a*b/d).
func MulDivCeil(a, b, d sdkmath.Int) sdkmath.Int {
	return a.Mul(b).Add(d.SubRaw(1)).Quo(d)
}

// BpsOf returns floor(amount*bps/10000).
func BpsOf(amount sdkmath.Int, bps uint32) sdkmath.Int {
	return amount.MulRaw(int64(bps)).QuoRaw(BasisPoints)
}
