package weather

import "gonum.org/v1/gonum/stat"

// Summary is the headline view of a series: its mean and the matching condition.
type Summary struct {
	Variable  string    `json:"variable"`
	Unit      string    `json:"unit"`
	Mean      *float64  `json:"mean"`
	Condition Condition `json:"condition"`
	Valid     int       `json:"valid"`
	Total     int       `json:"total"`
}

// Summarize averages the valid values of a series and labels the mean.
// A series without valid values has no mean and an unknown condition.
func Summarize(ts TimeSeries) Summary {
	valid := ts.Valid()
	summary := Summary{
		Variable:  ts.Variable,
		Unit:      ts.Unit,
		Condition: ConditionUnknown,
		Valid:     len(valid),
		Total:     len(ts.Values),
	}
	if len(valid) == 0 {
		return summary
	}

	mean := stat.Mean(valid, nil)
	summary.Mean = &mean
	summary.Condition = ConditionFor(ts.Variable, mean)
	return summary
}
