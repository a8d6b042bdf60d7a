package weather

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date layout used for every series date.
const DateLayout = "2006-01-02"

// Source tags that are not provider names.
const (
	SourceCache       = "cache"
	SourceUnavailable = "unavailable"
)

var (
	// ErrInvalidLocation is returned when coordinates fall outside the globe.
	ErrInvalidLocation = errors.New("invalid location")
)

// Location is a point on the globe. It is captured once per request and never mutated.
type Location struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidLocation, l.Lat)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidLocation, l.Lon)
	}
	return nil
}

// Key returns a canonical string key for logging.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// TimeSeries holds one value per sampled year for a single variable.
// Dates and Values always have the same length; a nil value is missing.
type TimeSeries struct {
	Dates    []string   `json:"dates"`
	Values   []*float64 `json:"values"`
	Variable string     `json:"variable"`
	Unit     string     `json:"unit"`
	Source   string     `json:"source"`
	Message  string     `json:"message,omitempty"`
}

// Valid returns the non-missing values in order.
func (ts TimeSeries) Valid() []float64 {
	out := make([]float64, 0, len(ts.Values))
	for _, v := range ts.Values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Empty reports whether the series has no valid value at all.
func (ts TimeSeries) Empty() bool {
	for _, v := range ts.Values {
		if v != nil {
			return false
		}
	}
	return true
}

// Years returns the calendar year of each date, or 0 for unparsable dates.
func (ts TimeSeries) Years() []int {
	years := make([]int, len(ts.Dates))
	for i, d := range ts.Dates {
		if t, err := time.Parse(DateLayout, d); err == nil {
			years[i] = t.Year()
		}
	}
	return years
}

// Unavailable reports whether no provider could supply the series.
func (ts TimeSeries) Unavailable() bool {
	return ts.Source == SourceUnavailable
}

// SampleTimes returns the same calendar day for each of the n years ending at
// date's year, oldest first. Feb 29 falls back to Feb 28 in non-leap years.
func SampleTimes(date time.Time, n int) []time.Time {
	times := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		year := date.Year() - i
		day := date.Day()
		if date.Month() == time.February && day == 29 && !isLeap(year) {
			day = 28
		}
		times = append(times, time.Date(year, date.Month(), day, 0, 0, 0, 0, time.UTC))
	}
	return times
}

// formatDates formats times with DateLayout.
func formatDates(times []time.Time) []string {
	dates := make([]string, len(times))
	for i, t := range times {
		dates[i] = t.Format(DateLayout)
	}
	return dates
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Condition is a human-friendly label for a value of a variable.
type Condition string

const (
	ConditionUnknown Condition = "Unknown"

	ConditionFreezing Condition = "Freezing"
	ConditionCold     Condition = "Cold"
	ConditionMild     Condition = "Mild"
	ConditionWarm     Condition = "Warm"
	ConditionHot      Condition = "Hot"
	ConditionVeryHot  Condition = "Very Hot"

	ConditionDry       Condition = "Dry"
	ConditionLightRain Condition = "Light Rain"
	ConditionModerate  Condition = "Moderate"
	ConditionHeavy     Condition = "Heavy"
	ConditionStormy    Condition = "Stormy"

	ConditionComfortable Condition = "Comfortable"
	ConditionHumid       Condition = "Humid"
	ConditionVeryHumid   Condition = "Very Humid"

	ConditionCalm       Condition = "Calm"
	ConditionBreezy     Condition = "Breezy"
	ConditionWindy      Condition = "Windy"
	ConditionVeryWindy  Condition = "Very Windy"
	ConditionStormLevel Condition = "Storm-level"
)
