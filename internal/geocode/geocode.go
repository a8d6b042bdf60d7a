// Package geocode resolves a free-text place name to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

var (
	// ErrDisabled is returned when no geocoding API key is configured.
	ErrDisabled = errors.New("geocoding is not configured")
	// ErrNotFound is returned when the place cannot be resolved.
	ErrNotFound = errors.New("place not found")
)

// Geocoder resolves place names.
type Geocoder interface {
	Lookup(ctx context.Context, place string) (weather.Location, error)
}

// lookupFunc matches geocoder.Geocoding.
type lookupFunc func(geocoder.Address) (geocoder.Location, error)

// Google resolves places with the Google Geocoding API.
type Google struct {
	apiKey  string
	timeout time.Duration
	lookup  lookupFunc
}

// NewGoogle returns a Google geocoder. An empty key yields a geocoder that
// always reports ErrDisabled. Each lookup gives up after timeout (0 = only ctx).
// geocoder keeps its API key in a package variable, so it is set here once.
func NewGoogle(apiKey string, timeout time.Duration) *Google {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &Google{apiKey: apiKey, timeout: timeout, lookup: geocoder.Geocoding}
}

type lookupResult struct {
	loc geocoder.Location
	err error
}

// Lookup resolves place. geocoder ignores contexts and uses a client without a
// timeout, so the call runs in its own goroutine and is abandoned on ctx expiry.
func (g *Google) Lookup(ctx context.Context, place string) (weather.Location, error) {
	if g.apiKey == "" {
		return weather.Location{}, ErrDisabled
	}
	place = strings.TrimSpace(place)
	if place == "" {
		return weather.Location{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return weather.Location{}, err
	}

	done := make(chan lookupResult, 1)
	go func() {
		res, err := g.lookup(geocoder.Address{City: place})
		done <- lookupResult{loc: res, err: err}
	}()

	var res lookupResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return weather.Location{}, fmt.Errorf("geocoding %q: %w", place, ctx.Err())
	}
	if res.err != nil {
		return weather.Location{}, fmt.Errorf("%w: %s: %v", ErrNotFound, place, res.err)
	}

	loc := weather.Location{Lat: res.loc.Latitude, Lon: res.loc.Longitude}
	if err := loc.Validate(); err != nil {
		return weather.Location{}, err
	}
	return loc, nil
}
