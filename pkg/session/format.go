package session

import (
	"math"
	"math/big"
	"strconv"
)

// roundHalfUp rounds to the nearest integer with ties toward +∞, so -2.5
// becomes -2.
func roundHalfUp(v float64) float64 {
	r := math.Floor(v + 0.5)
	if r == 0 {
		return 0
	}
	return r
}

// formatNumber prints v the way a label shows a plain number: shortest
// decimal form, exponent notation from 1e21 upward.
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatFixed prints v with exactly digits decimals. Exact ties round away
// from zero.
func formatFixed(v float64, digits int) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e21 {
		return formatNumber(v)
	}

	scale := new(big.Float).SetPrec(256).SetFloat64(math.Pow(10, float64(digits)))
	scaled := new(big.Float).SetPrec(256).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, scale)
	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) == 0 {
		// ties: step past the midpoint so FormatFloat rounds outward
		next := math.Nextafter(math.Abs(v), math.Inf(1))
		if v < 0 {
			next = -next
		}
		return strconv.FormatFloat(next, 'f', digits, 64)
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}
