package common

import "math/big"

// RatePrecision is the 10^7 fixed-point scale shared by the exchange rate,
// the lending interest accumulator, and every other monetary ratio (spec
// §3: "the exchange rate and the interest accumulator use the same 10^7
// scale (RATE_PRECISION)").
const RatePrecision = 10_000_000

// BpsScale is the 10^4 scale basis points are expressed in.
const BpsScale = 10_000

// int128Max bounds every stored monetary quantity to a signed 128-bit range,
// standing in for the host's native i128 overflow trap (spec §3, §7) since
// Go's big.Int has no intrinsic width limit.
var int128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

// CheckBounds reports ErrArithmeticOverflow if v falls outside [0, 2^127-1],
// the representable range of the host's signed 128-bit money type.
func CheckBounds(v *big.Int) error {
	if v.Sign() < 0 {
		return ErrArithmeticOverflow
	}
	if v.Cmp(int128Max) > 0 {
		return ErrArithmeticOverflow
	}
	return nil
}

// MulDivFloor computes floor(a*b/c) using arbitrary-precision intermediate
// math, the rounding rule every formula in §3/§4 specifies. c must be
// non-zero; callers are expected to have already special-cased empty-pool
// bootstraps.
func MulDivFloor(a, b, c *big.Int) *big.Int {
	num := new(big.Int).Mul(a, b)
	return new(big.Int).Quo(num, c)
}

// BigToFloat renders a big.Int amount as a float64 for a Prometheus gauge,
// which only accepts float64; precision beyond 2^53 is not representable,
// an acceptable loss for an observability signal rather than settlement math.
func BigToFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

// Isqrt computes the integer square root of a non-negative big.Int via
// Newton's method, used by the AMM's first-liquidity bootstrap (spec §4.4).
func Isqrt(n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return big.NewInt(0)
	}
	two := big.NewInt(2)
	x0 := new(big.Int).Set(n)
	x1 := new(big.Int).Quo(new(big.Int).Add(x0, big.NewInt(1)), two)
	for x1.Cmp(x0) < 0 {
		x0.Set(x1)
		x1.Quo(n, x0)
		x1.Add(x1, x0)
		x1.Quo(x1, two)
	}
	return x0
}
