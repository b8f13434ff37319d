package utils

import "github.com/shopspring/decimal"

// RoundTo rounds v half-up to the given number of decimal places. Prices and
// PnL are reported to 4 places, RSI to 2, so float64 artifacts from the
// indicator math must not leak into stored records.
func RoundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round4 rounds to 4 decimal places.
func Round4(v float64) float64 {
	return RoundTo(v, 4)
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
