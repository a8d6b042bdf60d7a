package weather

import "sort"

// Provider names used as catalog keys and cache source tags.
const (
	ProviderMeteomatics = "meteomatics"
	ProviderNASAPower   = "nasapower"
	ProviderOpenMeteo   = "openmeteo"
)

// Variable describes an environmental variable and how each provider names it.
type Variable struct {
	Name             string            `json:"name"`
	Unit             string            `json:"unit"`
	DefaultThreshold float64           `json:"defaultThreshold"`
	IDs              map[string]string `json:"-"`
}

// ID returns the provider-specific identifier of the variable.
func (v Variable) ID(provider string) (string, bool) {
	id, ok := v.IDs[provider]
	return id, ok && id != ""
}

var catalog = map[string]Variable{
	"Temperature": {
		Name:             "Temperature",
		Unit:             "°C",
		DefaultThreshold: 25,
		IDs: map[string]string{
			ProviderMeteomatics: "t_2m:C",
			ProviderNASAPower:   "T2M",
			ProviderOpenMeteo:   "temperature_2m_mean",
		},
	},
	"Precipitation": {
		Name:             "Precipitation",
		Unit:             "mm",
		DefaultThreshold: 60,
		IDs: map[string]string{
			ProviderMeteomatics: "precip_24h:mm",
			ProviderNASAPower:   "PRECTOTCORR",
			ProviderOpenMeteo:   "precipitation_sum",
		},
	},
	"Wind Speed": {
		Name:             "Wind Speed",
		Unit:             "m/s",
		DefaultThreshold: 20,
		IDs: map[string]string{
			ProviderMeteomatics: "wind_speed_10m:ms",
			ProviderNASAPower:   "WS2M",
			ProviderOpenMeteo:   "wind_speed_10m_max",
		},
	},
	"Humidity": {
		Name:             "Humidity",
		Unit:             "%",
		DefaultThreshold: 70,
		IDs: map[string]string{
			ProviderMeteomatics: "relative_humidity_2m:p",
			ProviderNASAPower:   "RH2M",
			ProviderOpenMeteo:   "relative_humidity_2m_mean",
		},
	},
}

// LookupVariable returns the catalog entry for a human-readable variable name.
func LookupVariable(name string) (Variable, bool) {
	v, ok := catalog[name]
	return v, ok
}

// Variables lists the catalog sorted by name.
func Variables() []Variable {
	out := make([]Variable, 0, len(catalog))
	for _, v := range catalog {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ConditionFor maps a value of a variable to a human-friendly label.
func ConditionFor(variable string, value float64) Condition {
	switch variable {
	case "Temperature":
		switch {
		case value <= 0:
			return ConditionFreezing
		case value <= 10:
			return ConditionCold
		case value <= 20:
			return ConditionMild
		case value <= 30:
			return ConditionWarm
		case value <= 37:
			return ConditionHot
		default:
			return ConditionVeryHot
		}
	case "Precipitation":
		switch {
		case value < 1:
			return ConditionDry
		case value < 10:
			return ConditionLightRain
		case value < 30:
			return ConditionModerate
		case value < 60:
			return ConditionHeavy
		default:
			return ConditionStormy
		}
	case "Humidity":
		switch {
		case value < 30:
			return ConditionDry
		case value < 50:
			return ConditionComfortable
		case value < 70:
			return ConditionHumid
		default:
			return ConditionVeryHumid
		}
	case "Wind Speed":
		switch {
		case value < 5:
			return ConditionCalm
		case value < 15:
			return ConditionBreezy
		case value < 30:
			return ConditionWindy
		case value < 50:
			return ConditionVeryWindy
		default:
			return ConditionStormLevel
		}
	}
	return ConditionUnknown
}
