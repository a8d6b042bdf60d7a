package forecast

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestExtrapolate(t *testing.T) {
	tests := []struct {
		name   string
		years  []int
		values []*float64
		target int
		want   float64
		ok     bool
	}{
		{
			name:   "linear trend",
			years:  []int{2015, 2016, 2017},
			values: []*float64{ptr(10), ptr(12), ptr(14)},
			target: 2018,
			want:   16,
			ok:     true,
		},
		{
			name:   "single point",
			years:  []int{2015, 2016, 2017},
			values: []*float64{nil, ptr(7.5), nil},
			target: 2018,
			want:   7.5,
			ok:     true,
		},
		{
			name:   "no points",
			years:  []int{2015, 2016},
			values: []*float64{nil, nil},
			target: 2018,
			ok:     false,
		},
		{
			name:   "target slot is ignored",
			years:  []int{2015, 2016, 2017, 2018},
			values: []*float64{ptr(10), ptr(12), ptr(14), ptr(100)},
			target: 2018,
			want:   16,
			ok:     true,
		},
		{
			name:   "gaps are skipped",
			years:  []int{2014, 2015, 2016, 2017},
			values: []*float64{ptr(1), nil, ptr(3), nil},
			target: 2018,
			want:   5,
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extrapolate(tt.years, tt.values, tt.target)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("estimate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtrapolateUsesOnlyRecentWindow(t *testing.T) {
	// 20 years: the first ten are wildly off, the last ten are flat at 5.
	years := make([]int, 20)
	values := make([]*float64, 20)
	for i := range years {
		years[i] = 2000 + i
		if i < 10 {
			values[i] = ptr(1000)
		} else {
			values[i] = ptr(5)
		}
	}

	got, ok := Extrapolate(years, values, 2020)
	if !ok {
		t.Fatal("expected an estimate")
	}
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("estimate = %v, want 5", got)
	}
}
