package risk

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

func ptr(v float64) *float64 { return &v }

// gumbelSample returns n evenly spaced Gumbel(loc, scale) quantiles.
func gumbelSample(n int, loc, scale float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		p := (float64(i) + 0.5) / float64(n)
		x[i] = loc - scale*math.Log(-math.Log(p))
	}
	return x
}

func TestAnalyzeEmpty(t *testing.T) {
	for _, method := range []Method{MethodGEV, MethodFrequency} {
		t.Run(string(method), func(t *testing.T) {
			ts := weather.TimeSeries{
				Dates:  []string{"2023-01-01", "2024-01-01"},
				Values: []*float64{nil, nil},
			}
			res := Analyze(ts, 10, method)
			if res.Probability != 0 || res.RiskIndex != 0 {
				t.Errorf("probability = %v, risk = %v; want 0, 0", res.Probability, res.RiskIndex)
			}
			for name, v := range map[string]float64{"mean": res.Mean, "std": res.Std, "min": res.Min, "max": res.Max} {
				if !math.IsNaN(v) {
					t.Errorf("%s = %v, want NaN", name, v)
				}
			}
		})
	}
}

func TestAnalyzeConstantSeries(t *testing.T) {
	values := []float64{12, 12, 12, 12, 12, 12}
	for _, method := range []Method{MethodGEV, MethodFrequency} {
		t.Run(string(method), func(t *testing.T) {
			below := AnalyzeValues(values, 11, method)
			if below.Probability != 100 {
				t.Errorf("threshold below value: probability = %v, want 100", below.Probability)
			}
			above := AnalyzeValues(values, 13, method)
			if above.Probability != 0 {
				t.Errorf("threshold above value: probability = %v, want 0", above.Probability)
			}
			if below.Mean != 12 || below.Std != 0 || below.Min != 12 || below.Max != 12 {
				t.Errorf("unexpected stats: %+v", below)
			}
		})
	}
}

func TestAnalyzeFrequency(t *testing.T) {
	res := AnalyzeValues([]float64{10, 20, 30, 40, 50}, 25, MethodFrequency)
	if res.Probability != 60 {
		t.Errorf("probability = %v, want 60", res.Probability)
	}
	// 0.6 * (1 + 0.5 * 14.142/30) = 0.7414
	if res.RiskIndex != 0.741 {
		t.Errorf("risk index = %v, want 0.741", res.RiskIndex)
	}
	if res.Mean != 30 || res.Std != 14.14 || res.Min != 10 || res.Max != 50 {
		t.Errorf("unexpected stats: %+v", res)
	}
	if res.Fit != nil {
		t.Error("frequency method should not report a fit")
	}
}

func TestAnalyzeFrequencyRiskCapped(t *testing.T) {
	res := AnalyzeValues([]float64{1, 2, 100, 200}, 0, MethodFrequency)
	if res.Probability != 100 || res.RiskIndex != 1 {
		t.Errorf("probability = %v, risk = %v; want 100, 1", res.Probability, res.RiskIndex)
	}
}

func TestAnalyzeDropsMissing(t *testing.T) {
	ts := weather.TimeSeries{Values: []*float64{ptr(10), nil, ptr(20), nil, ptr(30), ptr(40), ptr(50)}}
	res := Analyze(ts, 25, MethodFrequency)
	if res.Probability != 60 {
		t.Errorf("probability = %v, want 60", res.Probability)
	}
}

func TestFitGEVRecoversGumbel(t *testing.T) {
	x := gumbelSample(30, 20, 3)
	g, err := FitGEV(x)
	if err != nil {
		t.Fatalf("FitGEV: %v", err)
	}
	if math.Abs(g.Loc-20) > 1 {
		t.Errorf("loc = %v, want about 20", g.Loc)
	}
	if g.Scale < 2 || g.Scale > 4 {
		t.Errorf("scale = %v, want about 3", g.Scale)
	}
	if math.Abs(g.Shape) > 0.3 {
		t.Errorf("shape = %v, want about 0", g.Shape)
	}
}

func TestAnalyzeGEV(t *testing.T) {
	x := gumbelSample(30, 20, 3)

	low := AnalyzeValues(x, -100, MethodGEV)
	if low.Probability < 99 {
		t.Errorf("far-below threshold: probability = %v, want ~100", low.Probability)
	}
	high := AnalyzeValues(x, 200, MethodGEV)
	if high.Probability > 1 {
		t.Errorf("far-above threshold: probability = %v, want ~0", high.Probability)
	}

	median := 20 - 3*math.Log(math.Ln2)
	mid := AnalyzeValues(x, median, MethodGEV)
	if mid.Probability < 35 || mid.Probability > 65 {
		t.Errorf("median threshold: probability = %v, want about 50", mid.Probability)
	}

	prev := 101.0
	for _, th := range []float64{10, 15, 20, 25, 30, 35} {
		res := AnalyzeValues(x, th, MethodGEV)
		if res.Probability > prev {
			t.Errorf("probability not monotone at threshold %v: %v > %v", th, res.Probability, prev)
		}
		prev = res.Probability
		if res.RiskIndex < 0 || res.RiskIndex > 1 {
			t.Errorf("risk index %v outside [0, 1]", res.RiskIndex)
		}
		if res.Fit == nil {
			t.Fatal("expected fitted parameters")
		}
	}
}

func TestGEVCDF(t *testing.T) {
	tests := []struct {
		name string
		g    GEV
		x    float64
		want float64
	}{
		{"gumbel at loc", GEV{Shape: 0, Loc: 0, Scale: 1}, 0, math.Exp(-1)},
		{"frechet below support", GEV{Shape: 0.5, Loc: 0, Scale: 1}, -3, 0},
		{"weibull above support", GEV{Shape: -0.5, Loc: 0, Scale: 1}, 3, 1},
		{"frechet at loc", GEV{Shape: 0.5, Loc: 0, Scale: 1}, 0, math.Exp(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.CDF(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CDF(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	if got := percentile(sorted, 5); math.Abs(got-12) > 1e-12 {
		t.Errorf("p5 = %v, want 12", got)
	}
	if got := percentile(sorted, 95); math.Abs(got-48) > 1e-12 {
		t.Errorf("p95 = %v, want 48", got)
	}
	if got := percentile([]float64{7}, 95); got != 7 {
		t.Errorf("single value p95 = %v", got)
	}
}

func TestResultJSONEncodesNaNAsNull(t *testing.T) {
	res := AnalyzeValues(nil, 1, MethodGEV)
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"mean":null`) {
		t.Errorf("expected null mean in %s", b)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod("frequency"); err != nil || m != MethodFrequency {
		t.Errorf("ParseMethod(frequency) = %v, %v", m, err)
	}
	if _, err := ParseMethod("bayes"); err == nil {
		t.Error("expected error for unknown method")
	}
}
