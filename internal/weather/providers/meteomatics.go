package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

const meteomaticsFill = -999.0

// MeteomaticsProvider implements weather.SeriesProvider for the Meteomatics API.
// A whole yearly series is fetched with a single P1Y range request.
type MeteomaticsProvider struct {
	name     string
	username string
	password string
	baseURL  string
	httpCfg  HTTPClientConfig
}

// NewMeteomaticsProvider requires both username and password.
func NewMeteomaticsProvider(client *http.Client, username, password string) (*MeteomaticsProvider, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: meteomatics needs METEOMATICS_USERNAME and METEOMATICS_PASSWORD", ErrMissingCredentials)
	}

	return &MeteomaticsProvider{
		name:     weather.ProviderMeteomatics,
		username: username,
		password: password,
		baseURL:  "https://api.meteomatics.com",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuitBreaker(weather.ProviderMeteomatics),
		},
	}, nil
}

func (p *MeteomaticsProvider) Name() string {
	return p.name
}

// FetchSeries requests every date in one call and aligns the answer with dates.
func (p *MeteomaticsProvider) FetchSeries(ctx context.Context, loc weather.Location, v weather.Variable, dates []time.Time) ([]*float64, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	param, ok := v.ID(p.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnmappedVariable, v.Name)
	}

	span := fmt.Sprintf("%s--%s:P1Y", meteomaticsTime(dates[0]), meteomaticsTime(dates[len(dates)-1]))
	if len(dates) == 1 {
		span = meteomaticsTime(dates[0])
	}

	byDate, err := p.query(ctx, span, param, loc)
	if err != nil {
		return nil, err
	}

	values := make([]*float64, len(dates))
	for i, d := range dates {
		values[i] = byDate[d.Format(weather.DateLayout)]
	}
	return values, nil
}

func (p *MeteomaticsProvider) FetchYear(ctx context.Context, loc weather.Location, v weather.Variable, date time.Time) (float64, bool, error) {
	values, err := p.FetchSeries(ctx, loc, v, []time.Time{date})
	if err != nil {
		return 0, false, err
	}
	if values[0] == nil {
		return 0, false, nil
	}
	return *values[0], true, nil
}

// query returns the valid values keyed by ISO date.
func (p *MeteomaticsProvider) query(ctx context.Context, span, param string, loc weather.Location) (map[string]*float64, error) {
	u := fmt.Sprintf("%s/%s/%s/%.4f,%.4f/json", p.baseURL, span, param, loc.Lat, loc.Lon)
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(p.username, p.password)

	resp, err := doRequest(ctx, p.httpCfg, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data []struct {
			Parameter   string `json:"parameter"`
			Coordinates []struct {
				Dates []struct {
					Date  string   `json:"date"`
					Value *float64 `json:"value"`
				} `json:"dates"`
			} `json:"coordinates"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode meteomatics response: %w", err)
	}
	if len(payload.Data) == 0 || len(payload.Data[0].Coordinates) == 0 {
		return nil, fmt.Errorf("meteomatics response has no data for %s", param)
	}

	out := make(map[string]*float64)
	for _, d := range payload.Data[0].Coordinates[0].Dates {
		if len(d.Date) < len(weather.DateLayout) {
			continue
		}
		if val := toValue(d.Value, meteomaticsFill); val != nil {
			out[d.Date[:len(weather.DateLayout)]] = val
		}
	}
	return out, nil
}

func meteomaticsTime(t time.Time) string {
	return t.Format(weather.DateLayout) + "T00:00:00Z"
}
