package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/historical-risk-explorer/internal/common"
)

// HTTPClientConfig bundles the HTTP client and the circuit breaker of a provider.
type HTTPClientConfig struct {
	Client  *http.Client
	Circuit *gobreaker.CircuitBreaker
}

var (
	// ErrMissingCredentials is returned by constructors of providers that need credentials.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUnmappedVariable is returned when a provider has no identifier for a variable.
	ErrUnmappedVariable = errors.New("variable not available from provider")

	errRateLimited  = errors.New("rate limited")
	errUnauthorized = errors.New("unauthorized")
	errServerError  = errors.New("server error")
	errClientError  = errors.New("request rejected")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// newCircuitBreaker trips after five consecutive failures so that a dead
// provider fails the remaining year slots fast.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: providerHealthy,
	})
}

// providerHealthy reports whether err leaves the provider itself healthy.
// A rejected request (4xx other than 429) says nothing about the provider.
func providerHealthy(err error) bool {
	return err == nil || errors.Is(err, errClientError) || errors.Is(err, errUnauthorized)
}

// doRequest executes the request once through the circuit breaker.
// Non-2xx responses are closed and reported as errors.
func doRequest(ctx context.Context, cfg HTTPClientConfig, req *http.Request) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	req = req.WithContext(ctx)

	call := func() (interface{}, error) {
		resp, err := cfg.Client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errRateLimited
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%w: %d", errUnauthorized, resp.StatusCode)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("%w: %d", errClientError, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
	}

	var (
		result interface{}
		err    error
	)
	if cfg.Circuit != nil {
		result, err = cfg.Circuit.Execute(call)
	} else {
		result, err = call()
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// nanFill is used for providers that report missing data as null rather than a sentinel.
var nanFill = math.NaN()

// toValue maps fill values and NaN to missing.
func toValue(v *float64, fill float64) *float64 {
	if v == nil || common.IsFill(*v, fill) {
		return nil
	}
	out := *v
	return &out
}
