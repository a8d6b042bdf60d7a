package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

// Credentials holds the secrets providers may need. Read once at startup.
type Credentials struct {
	MeteomaticsUsername string
	MeteomaticsPassword string
}

// Build constructs the named providers in order. A provider that cannot be
// built (unknown name, missing credentials) is left out and reported in the
// joined error; the others are still returned.
func Build(names []string, client *http.Client, creds Credentials) ([]weather.Provider, error) {
	var (
		provs []weather.Provider
		errs  []error
	)

	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
			continue
		case weather.ProviderMeteomatics:
			p, err := NewMeteomaticsProvider(client, creds.MeteomaticsUsername, creds.MeteomaticsPassword)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			provs = append(provs, p)
		case weather.ProviderNASAPower:
			provs = append(provs, NewNASAPowerProvider(client))
		case weather.ProviderOpenMeteo:
			provs = append(provs, NewOpenMeteoProvider(client))
		default:
			errs = append(errs, fmt.Errorf("unknown provider %q", name))
		}
	}

	return provs, errors.Join(errs...)
}
