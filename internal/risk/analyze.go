// Package risk scores a yearly series against a threshold: how likely the
// variable is to exceed it, and a normalized risk index.
package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/historical-risk-explorer/internal/common"
	"github.com/i474232898/historical-risk-explorer/internal/log"
	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

// Method selects how exceedance probability and risk index are computed.
// The two methods give materially different numbers for the same input.
type Method string

const (
	// MethodGEV fits a generalized extreme value distribution by maximum likelihood.
	MethodGEV Method = "gev"
	// MethodFrequency counts exceedances and penalizes variability.
	MethodFrequency Method = "frequency"
)

// cvEpsilon keeps the coefficient of variation finite for a zero mean.
const cvEpsilon = 1e-9

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodGEV, MethodFrequency:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown risk method %q (want %q or %q)", s, MethodGEV, MethodFrequency)
}

// Result is the outcome of scoring a series. Statistics are NaN when the
// series has no valid value.
type Result struct {
	Probability float64 `json:"probability"`
	RiskIndex   float64 `json:"riskIndex"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Method      Method  `json:"method"`
	// Fit is set when a GEV distribution was fitted.
	Fit *GEV `json:"fit,omitempty"`
}

// MarshalJSON encodes NaN statistics as null.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Probability float64  `json:"probability"`
		RiskIndex   float64  `json:"riskIndex"`
		Mean        *float64 `json:"mean"`
		Std         *float64 `json:"std"`
		Min         *float64 `json:"min"`
		Max         *float64 `json:"max"`
		Method      Method   `json:"method"`
		Fit         *GEV     `json:"fit,omitempty"`
	}{
		Probability: r.Probability,
		RiskIndex:   r.RiskIndex,
		Mean:        nullable(r.Mean),
		Std:         nullable(r.Std),
		Min:         nullable(r.Min),
		Max:         nullable(r.Max),
		Method:      r.Method,
		Fit:         r.Fit,
	})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Analyze scores the valid values of ts against threshold.
func Analyze(ts weather.TimeSeries, threshold float64, method Method) Result {
	return AnalyzeValues(ts.Valid(), threshold, method)
}

// AnalyzeValues scores a sample against threshold. NaN values are dropped.
func AnalyzeValues(values []float64, threshold float64, method Method) Result {
	if method == "" {
		method = MethodGEV
	}

	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		nan := math.NaN()
		return Result{Mean: nan, Std: nan, Min: nan, Max: nan, Method: method}
	}

	mean, std := stat.PopMeanStdDev(x, nil)
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	p5, p95 := percentile(sorted, 5), percentile(sorted, 95)

	res := Result{
		Mean:   mean,
		Std:    std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Method: method,
	}

	switch method {
	case MethodFrequency:
		res.Probability, res.RiskIndex = frequency(x, threshold, mean, std)
	default:
		res.Probability, res.RiskIndex, res.Fit = gevScore(x, threshold, p5, p95)
	}

	res.Probability = common.Round(common.Clip(res.Probability, 0, 100), 2)
	res.RiskIndex = common.Round(common.Clip(res.RiskIndex, 0, 1), 3)
	res.Mean = common.Round(res.Mean, 2)
	res.Std = common.Round(res.Std, 2)
	res.Min = common.Round(res.Min, 2)
	res.Max = common.Round(res.Max, 2)
	return res
}

// frequency counts exceedances. Its risk base is probability/100, not the
// p5/p95 location normalization, inflated by the coefficient of variation.
func frequency(x []float64, threshold, mean, std float64) (probability, riskIndex float64) {
	exceed := 0
	for _, v := range x {
		if v > threshold {
			exceed++
		}
	}
	probability = 100 * float64(exceed) / float64(len(x))

	riskIndex = probability / 100
	riskIndex *= 1 + 0.5*std/(mean+cvEpsilon)
	return probability, math.Min(riskIndex, 1)
}

func gevScore(x []float64, threshold, p5, p95 float64) (probability, riskIndex float64, fit *GEV) {
	var loc float64
	g, err := FitGEV(x)
	switch {
	case errors.Is(err, errDegenerate):
		// Constant sample: a point mass.
		loc = x[0]
		if loc > threshold {
			probability = 100
		}
	default:
		if err != nil {
			log.Warnw("gev fit fell back to gumbel moments", "n", len(x), "error", err)
		}
		fit = &g
		loc = g.Loc
		probability = 100 * (1 - g.CDF(threshold))
	}

	if p95 > p5 {
		riskIndex = (loc - p5) / (p95 - p5)
	} else {
		riskIndex = probability / 100
	}
	return probability, riskIndex, fit
}

// percentile interpolates linearly between order statistics of a sorted sample.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * p / 100
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
