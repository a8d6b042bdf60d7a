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

const nasaPowerFill = -999.0

// NASAPowerProvider implements the weather.Provider interface for the NASA POWER daily point API.
// It needs no credentials and answers one date per request.
type NASAPowerProvider struct {
	name      string
	baseURL   string
	community string
	httpCfg   HTTPClientConfig
}

func NewNASAPowerProvider(client *http.Client) *NASAPowerProvider {
	return &NASAPowerProvider{
		name:      weather.ProviderNASAPower,
		baseURL:   "https://power.larc.nasa.gov/api/temporal/daily/point",
		community: "AG",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuitBreaker(weather.ProviderNASAPower),
		},
	}
}

func (p *NASAPowerProvider) Name() string {
	return p.name
}

func (p *NASAPowerProvider) FetchYear(ctx context.Context, loc weather.Location, v weather.Variable, date time.Time) (float64, bool, error) {
	param, ok := v.ID(p.name)
	if !ok {
		return 0, false, fmt.Errorf("%w: %s", ErrUnmappedVariable, v.Name)
	}

	day := date.Format("20060102")
	values := url.Values{}
	values.Set("parameters", param)
	values.Set("community", p.community)
	values.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	values.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
	values.Set("start", day)
	values.Set("end", day)
	values.Set("format", "JSON")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		return 0, false, err
	}

	resp, err := doRequest(ctx, p.httpCfg, req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	var payload struct {
		Header struct {
			FillValue *float64 `json:"fill_value"`
		} `json:"header"`
		Properties struct {
			Parameter map[string]map[string]*float64 `json:"parameter"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, false, fmt.Errorf("decode nasapower response: %w", err)
	}

	fill := nasaPowerFill
	if payload.Header.FillValue != nil {
		fill = *payload.Header.FillValue
	}

	series, ok := payload.Properties.Parameter[param]
	if !ok {
		return 0, false, fmt.Errorf("nasapower response has no %s parameter", param)
	}
	val := toValue(series[day], fill)
	if val == nil {
		return 0, false, nil
	}
	return *val, true, nil
}
