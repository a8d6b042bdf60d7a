// Package forecast estimates a value for a future year from the recent trend
// of a yearly series.
package forecast

import (
	"gonum.org/v1/gonum/stat"
)

// Window is the maximum number of recent valid years used for the trend.
const Window = 10

// Extrapolate fits a least-squares line through the most recent Window valid
// (year, value) pairs before targetYear and evaluates it at targetYear.
// A single pair yields its own value; no pairs yields ok == false.
// years and values are aligned; nil values are skipped.
func Extrapolate(years []int, values []*float64, targetYear int) (estimate float64, ok bool) {
	xs := make([]float64, 0, Window)
	ys := make([]float64, 0, Window)
	for i := len(values) - 1; i >= 0 && len(xs) < Window; i-- {
		if i >= len(years) || values[i] == nil || years[i] >= targetYear || years[i] == 0 {
			continue
		}
		xs = append(xs, float64(years[i]))
		ys = append(ys, *values[i])
	}

	switch len(xs) {
	case 0:
		return 0, false
	case 1:
		return ys[0], true
	}

	// Centre the years so the intercept stays well conditioned.
	origin := xs[len(xs)-1]
	for i := range xs {
		xs[i] -= origin
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return alpha + beta*(float64(targetYear)-origin), true
}
