package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/historical-risk-explorer/internal/log"
	"github.com/i474232898/historical-risk-explorer/internal/risk"
)

const (
	CacheBackendFile   = "file"
	CacheBackendMemory = "memory"
)

type AppConfig struct {
	// Providers in fallback order.
	Providers []string

	// Credentials. Missing ones disable the provider that needs them.
	MeteomaticsUsername string
	MeteomaticsPassword string
	GoogleGeocodeAPIKey string

	CacheBackend string
	CacheDir     string
	CacheMaxAge  time.Duration // memory backend only (0 = unlimited)

	// HTTPTimeout bounds every single provider request.
	HTTPTimeout     time.Duration
	YearConcurrency int
	HistoryYears    int

	RiskMethod risk.Method

	Port  string
	Debug bool
}

// Load reads configuration from .env, an optional config.yaml and the
// environment, with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Infof("No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("port", "8080")
	v.SetDefault("providers", "meteomatics,nasapower,openmeteo")
	v.SetDefault("cache_backend", CacheBackendFile)
	v.SetDefault("cache_dir", "data/cache")
	v.SetDefault("cache_max_age", "0s")
	v.SetDefault("http_timeout", "15s")
	v.SetDefault("year_concurrency", 5)
	v.SetDefault("history_years", 30)
	v.SetDefault("risk_method", string(risk.MethodGEV))
	v.SetDefault("debug", false)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Providers:           splitList(v.GetString("providers")),
		MeteomaticsUsername: v.GetString("meteomatics_username"),
		MeteomaticsPassword: v.GetString("meteomatics_password"),
		GoogleGeocodeAPIKey: v.GetString("google_geocode_api_key"),
		CacheBackend:        strings.ToLower(v.GetString("cache_backend")),
		CacheDir:            v.GetString("cache_dir"),
		YearConcurrency:     v.GetInt("year_concurrency"),
		HistoryYears:        v.GetInt("history_years"),
		Port:                v.GetString("port"),
		Debug:               v.GetBool("debug"),
	}

	var err error
	if cfg.HTTPTimeout, err = time.ParseDuration(v.GetString("http_timeout")); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if cfg.CacheMaxAge, err = time.ParseDuration(v.GetString("cache_max_age")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_AGE: %w", err)
	}
	if cfg.RiskMethod, err = risk.ParseMethod(strings.ToLower(v.GetString("risk_method"))); err != nil {
		return nil, fmt.Errorf("invalid RISK_METHOD: %w", err)
	}

	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("PROVIDERS must name at least one provider")
	}
	switch cfg.CacheBackend {
	case CacheBackendFile:
		if cfg.CacheDir == "" {
			return nil, fmt.Errorf("CACHE_DIR is required for the file cache")
		}
	case CacheBackendMemory:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q", cfg.CacheBackend)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if cfg.HistoryYears <= 0 {
		return nil, fmt.Errorf("HISTORY_YEARS must be positive")
	}
	if cfg.YearConcurrency <= 0 {
		cfg.YearConcurrency = 1
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
