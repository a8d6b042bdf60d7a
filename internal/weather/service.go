package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/historical-risk-explorer/internal/forecast"
	"github.com/i474232898/historical-risk-explorer/internal/log"
)

const (
	DefaultHistoryYears    = 30
	DefaultYearConcurrency = 5
)

var errNoData = errors.New("no data returned")

// Service resolves time-series through the cache and an ordered provider chain.
type Service struct {
	cache           Cache
	providers       []Provider
	historyYears    int
	yearConcurrency int
	now             func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithHistoryYears sets how many years are sampled per series.
func WithHistoryYears(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyYears = n
		}
	}
}

// WithYearConcurrency bounds the in-flight per-year requests of one series.
func WithYearConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.yearConcurrency = n
		}
	}
}

// WithClock overrides the clock used to decide whether a date lies in the future.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new Service. Providers are tried in order; cache may be nil.
func NewService(cache Cache, providers []Provider, opts ...Option) *Service {
	s := &Service{
		cache:           cache,
		providers:       providers,
		historyYears:    DefaultHistoryYears,
		yearConcurrency: DefaultYearConcurrency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Providers returns the names of the configured providers in fallback order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// Fetch returns the yearly series of variable at loc for the calendar day of date.
// It never fails: when no provider can help, the series is all-missing with
// Source "unavailable" and an explanatory Message.
func (s *Service) Fetch(ctx context.Context, loc Location, date time.Time, variable string) TimeSeries {
	times := SampleTimes(date, s.historyYears)
	dates := formatDates(times)

	v, ok := LookupVariable(variable)
	if !ok {
		log.Warnw("unknown variable requested", "variable", variable)
		return unavailable(dates, Variable{Name: variable}, fmt.Sprintf("Variable '%s' is not in the catalog.", variable))
	}
	if err := loc.Validate(); err != nil {
		return unavailable(dates, v, err.Error())
	}

	series, msg := s.resolve(ctx, loc, v, date.Format(DateLayout), dates, times)
	if series.Unavailable() {
		log.Warnw("series unavailable", "location", loc.Key(), "variable", v.Name, "date", date.Format(DateLayout), "reason", msg)
		return series
	}

	if s.isFuture(date) {
		series = s.extrapolate(series, date.Year())
	}
	return series
}

// FetchMany fetches each variable concurrently. The result is aligned with variables.
func (s *Service) FetchMany(ctx context.Context, loc Location, date time.Time, variables []string) []TimeSeries {
	out := make([]TimeSeries, len(variables))

	var g errgroup.Group
	for i, name := range variables {
		i, name := i, name
		g.Go(func() error {
			out[i] = s.Fetch(ctx, loc, date, name)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Service) resolve(ctx context.Context, loc Location, v Variable, date string, dates []string, times []time.Time) (TimeSeries, string) {
	var candidates []Provider
	for _, p := range s.providers {
		if _, ok := v.ID(p.Name()); ok {
			candidates = append(candidates, p)
			continue
		}
		log.Debugw("provider does not map variable", "provider", p.Name(), "variable", v.Name)
	}
	if len(candidates) == 0 {
		msg := fmt.Sprintf("Variable '%s' is not available from any configured provider.", v.Name)
		return unavailable(dates, v, msg), msg
	}

	if s.cache != nil {
		for _, p := range candidates {
			cached, ok := s.cache.Load(loc, v.Name, date, p.Name())
			if !ok || len(cached.Dates) != len(dates) {
				continue
			}
			log.Debugw("loaded series from cache", "provider", p.Name(), "variable", v.Name, "location", loc.Key())
			cached.Variable = v.Name
			cached.Unit = v.Unit
			cached.Source = SourceCache
			return cached, ""
		}
	}

	var failures []string
	for _, p := range candidates {
		values, err := s.fetchFrom(ctx, p, loc, v, times)
		if err == nil && (TimeSeries{Values: values}).Empty() {
			err = errNoData
		}
		if err != nil {
			log.Warnw("provider fetch failed", "provider", p.Name(), "variable", v.Name, "location", loc.Key(), "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}

		series := TimeSeries{
			Dates:    dates,
			Values:   values,
			Variable: v.Name,
			Unit:     v.Unit,
			Source:   p.Name(),
		}
		if s.cache != nil {
			if err := s.cache.Save(loc, v.Name, date, series, p.Name()); err != nil {
				log.Warnw("failed to cache series", "provider", p.Name(), "variable", v.Name, "error", err)
			}
		}
		log.Infow("fetched series", "provider", p.Name(), "variable", v.Name, "location", loc.Key(), "date", date)
		return series, ""
	}

	msg := fmt.Sprintf("No data available for '%s' (%s).", v.Name, strings.Join(failures, "; "))
	return unavailable(dates, v, msg), msg
}

// fetchFrom asks a single provider for every sampled date up to today. Later
// slots have no observations yet and stay missing. A failure for one year only
// leaves that slot missing; an error is returned when every queried year failed.
func (s *Service) fetchFrom(ctx context.Context, p Provider, loc Location, v Variable, times []time.Time) ([]*float64, error) {
	values := make([]*float64, len(times))
	past := len(times)
	for past > 0 && s.isFuture(times[past-1]) {
		past--
	}
	if past == 0 {
		return values, nil
	}

	if sp, ok := p.(SeriesProvider); ok {
		got, err := sp.FetchSeries(ctx, loc, v, times[:past])
		if err != nil {
			return nil, err
		}
		if len(got) != past {
			return nil, fmt.Errorf("%s returned %d values for %d dates", p.Name(), len(got), past)
		}
		copy(values, got)
		return values, nil
	}

	var (
		mu       sync.Mutex
		failed   int
		firstErr error
		g        errgroup.Group
	)
	g.SetLimit(s.yearConcurrency)

	for i, t := range times[:past] {
		i, t := i, t
		g.Go(func() error {
			val, ok, err := p.FetchYear(ctx, loc, v, t)
			if err != nil {
				log.Debugw("year fetch failed", "provider", p.Name(), "variable", v.Name, "date", t.Format(DateLayout), "error", err)
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			if ok {
				values[i] = &val
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed == past {
		return nil, fmt.Errorf("all %d requests failed: %w", failed, firstErr)
	}
	return values, nil
}

func (s *Service) isFuture(date time.Time) bool {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return day.After(today)
}

// extrapolate replaces the final slot with a trend estimate for targetYear.
func (s *Service) extrapolate(series TimeSeries, targetYear int) TimeSeries {
	estimate, ok := forecast.Extrapolate(series.Years(), series.Values, targetYear)
	if !ok || len(series.Values) == 0 {
		return series
	}

	values := make([]*float64, len(series.Values))
	copy(values, series.Values)
	values[len(values)-1] = &estimate
	series.Values = values

	log.Debugw("extrapolated future value", "variable", series.Variable, "year", targetYear, "estimate", estimate)
	return series
}

func unavailable(dates []string, v Variable, msg string) TimeSeries {
	return TimeSeries{
		Dates:    dates,
		Values:   make([]*float64, len(dates)),
		Variable: v.Name,
		Unit:     v.Unit,
		Source:   SourceUnavailable,
		Message:  msg,
	}
}
