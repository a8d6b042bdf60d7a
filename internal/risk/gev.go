package risk

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const eulerGamma = 0.5772156649015329

// gumbelTol is the |shape| below which the Gumbel limit is used.
const gumbelTol = 1e-9

var errDegenerate = errors.New("degenerate sample")

// GEV is a generalized extreme value distribution.
// Shape follows the climatology sign convention: positive shape means a heavy
// upper tail (the negative of scipy's c).
type GEV struct {
	Shape float64 `json:"shape"`
	Loc   float64 `json:"loc"`
	Scale float64 `json:"scale"`
}

// CDF returns P(X <= x).
func (g GEV) CDF(x float64) float64 {
	z := (x - g.Loc) / g.Scale
	if math.Abs(g.Shape) < gumbelTol {
		return math.Exp(-math.Exp(-z))
	}
	t := 1 + g.Shape*z
	if t <= 0 {
		// Outside the support: below the lower bound for a positive shape,
		// above the upper bound for a negative one.
		if g.Shape > 0 {
			return 0
		}
		return 1
	}
	return math.Exp(-math.Pow(t, -1/g.Shape))
}

// LogPDF returns the log density at x, or -Inf outside the support.
func (g GEV) LogPDF(x float64) float64 {
	if g.Scale <= 0 {
		return math.Inf(-1)
	}
	z := (x - g.Loc) / g.Scale
	if math.Abs(g.Shape) < gumbelTol {
		return -math.Log(g.Scale) - z - math.Exp(-z)
	}
	t := 1 + g.Shape*z
	if t <= 0 {
		return math.Inf(-1)
	}
	return -math.Log(g.Scale) - (1+1/g.Shape)*math.Log(t) - math.Pow(t, -1/g.Shape)
}

// gumbelMoments is the method-of-moments Gumbel estimate used as the MLE start.
func gumbelMoments(mean, std float64) GEV {
	scale := std * math.Sqrt(6) / math.Pi
	return GEV{Shape: 0, Loc: mean - eulerGamma*scale, Scale: scale}
}

// FitGEV estimates (shape, loc, scale) by maximum likelihood with Nelder-Mead.
// The sample is standardized first so the search does not depend on units.
// Samples with fewer than three values get the Gumbel moment estimate.
func FitGEV(x []float64) (GEV, error) {
	if len(x) == 0 {
		return GEV{}, errDegenerate
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	if std == 0 || math.IsNaN(std) {
		return GEV{}, errDegenerate
	}
	start := gumbelMoments(0, 1)
	if len(x) < 3 {
		return gumbelMoments(mean, std), nil
	}

	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = (v - mean) / std
	}

	// Parameters: shape, loc, log(scale).
	nll := func(p []float64) float64 {
		g := GEV{Shape: p[0], Loc: p[1], Scale: math.Exp(p[2])}
		var sum float64
		for _, v := range y {
			lp := g.LogPDF(v)
			if math.IsInf(lp, 0) || math.IsNaN(lp) {
				return 1e100
			}
			sum -= lp
		}
		return sum
	}

	result, err := optimize.Minimize(
		optimize.Problem{Func: nll},
		[]float64{start.Shape, start.Loc, math.Log(start.Scale)},
		&optimize.Settings{MajorIterations: 5000, FuncEvaluations: 20000},
		&optimize.NelderMead{},
	)
	if result == nil || !finite(result.X...) || result.F >= 1e100 {
		if err == nil {
			err = errors.New("gev fit did not converge")
		}
		return gumbelMoments(mean, std), err
	}

	return GEV{
		Shape: result.X[0],
		Loc:   mean + std*result.X[1],
		Scale: std * math.Exp(result.X[2]),
	}, nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
