package types

import "github.com/shopspring/decimal"

// FloorDiv returns floor(num/den) as an integer quantity using exact decimal
// arithmetic. den must not be zero.
func FloorDiv(num, den decimal.Decimal) int64 {
	q, r := num.QuoRem(den, 0)
	// QuoRem truncates toward zero; step down for negative non-exact results.
	if !r.IsZero() && num.Sign()*den.Sign() < 0 {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q.IntPart()
}

// NonNegative clamps a computed quantity at zero.
func NonNegative(q int64) int64 {
	if q < 0 {
		return 0
	}
	return q
}

// Abs returns the magnitude of a signed position quantity.
func Abs(q int64) int64 {
	if q < 0 {
		return -q
	}
	return q
}
