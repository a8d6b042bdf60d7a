package weather

import (
	"context"
	"time"
)

// Provider abstracts a historical weather data source (e.g. Meteomatics, NASA POWER, Open-Meteo).
// FetchYear returns the value of a variable at a location on one calendar date.
// ok is false when the provider answered but has no data for that date.
type Provider interface {
	Name() string
	FetchYear(ctx context.Context, loc Location, v Variable, date time.Time) (value float64, ok bool, err error)
}

// SeriesProvider is implemented by providers that can return every sampled
// date in a single request. Values are aligned with dates; nil is missing.
type SeriesProvider interface {
	Provider
	FetchSeries(ctx context.Context, loc Location, v Variable, dates []time.Time) ([]*float64, error)
}

// Cache is the contract the flat-file cache (and the in-memory one) must satisfy.
type Cache interface {
	Load(loc Location, variable, date, source string) (TimeSeries, bool)
	Save(loc Location, variable, date string, series TimeSeries, source string) error
}
