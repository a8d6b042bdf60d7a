package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for the Open-Meteo historical archive.
// Open-Meteo does not require an API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    weather.ProviderOpenMeteo,
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuitBreaker(weather.ProviderOpenMeteo),
		},
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchYear(ctx context.Context, loc weather.Location, v weather.Variable, date time.Time) (float64, bool, error) {
	daily, ok := v.ID(p.name)
	if !ok {
		return 0, false, fmt.Errorf("%w: %s", ErrUnmappedVariable, v.Name)
	}

	day := date.Format(weather.DateLayout)
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	values.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
	values.Set("start_date", day)
	values.Set("end_date", day)
	values.Set("daily", daily)
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "UTC")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		return 0, false, err
	}

	resp, err := doRequest(ctx, p.httpCfg, req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	// Open-Meteo reports missing days as null.
	var payload struct {
		Daily map[string]json.RawMessage `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, false, fmt.Errorf("decode openmeteo response: %w", err)
	}

	var times []string
	if err := json.Unmarshal(payload.Daily["time"], &times); err != nil {
		return 0, false, fmt.Errorf("decode openmeteo times: %w", err)
	}
	var readings []*float64
	if err := json.Unmarshal(payload.Daily[daily], &readings); err != nil {
		return 0, false, fmt.Errorf("decode openmeteo %s: %w", daily, err)
	}

	for i, t := range times {
		if t != day || i >= len(readings) {
			continue
		}
		if val := toValue(readings[i], nanFill); val != nil {
			return *val, true, nil
		}
		return 0, false, nil
	}
	return 0, false, nil
}
