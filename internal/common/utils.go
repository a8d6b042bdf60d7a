package common

import "math"

// Round rounds x half away from zero to the given number of decimal places.
// NaN and infinities pass through unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Clip bounds x to [lo, hi].
func Clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// IsFill reports whether v is a provider fill value or not a number at all.
func IsFill(v, fill float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v == fill
}
