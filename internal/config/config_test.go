package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/i474232898/historical-risk-explorer/internal/risk"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Providers, []string{"meteomatics", "nasapower", "openmeteo"}) {
		t.Errorf("providers = %v", cfg.Providers)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("http timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.HistoryYears != 30 || cfg.YearConcurrency != 5 {
		t.Errorf("history years = %d, year concurrency = %d", cfg.HistoryYears, cfg.YearConcurrency)
	}
	if cfg.RiskMethod != risk.MethodGEV {
		t.Errorf("risk method = %q", cfg.RiskMethod)
	}
	if cfg.CacheBackend != CacheBackendFile || cfg.CacheDir != "data/cache" {
		t.Errorf("cache = %s %s", cfg.CacheBackend, cfg.CacheDir)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PROVIDERS", " NASAPower , openmeteo,")
	t.Setenv("METEOMATICS_USERNAME", "alice")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("RISK_METHOD", "frequency")
	t.Setenv("CACHE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Providers, []string{"nasapower", "openmeteo"}) {
		t.Errorf("providers = %v", cfg.Providers)
	}
	if cfg.MeteomaticsUsername != "alice" {
		t.Errorf("username = %q", cfg.MeteomaticsUsername)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("http timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.RiskMethod != risk.MethodFrequency {
		t.Errorf("risk method = %q", cfg.RiskMethod)
	}
	if cfg.CacheBackend != CacheBackendMemory {
		t.Errorf("cache backend = %q", cfg.CacheBackend)
	}
}

func TestFromViperRejectsInvalidValues(t *testing.T) {
	base := map[string]any{
		"providers":     "nasapower",
		"cache_backend": "file",
		"cache_dir":     "x",
		"cache_max_age": "0s",
		"http_timeout":  "15s",
		"history_years": 30,
		"risk_method":   "gev",
	}
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"bad timeout", "http_timeout", "soon"},
		{"bad method", "risk_method", "bayes"},
		{"no providers", "providers", " , "},
		{"bad backend", "cache_backend", "redis"},
		{"zero years", "history_years", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range base {
				v.Set(k, val)
			}
			v.Set(tt.key, tt.val)
			if _, err := fromViper(v); err == nil {
				t.Errorf("expected error for %s=%v", tt.key, tt.val)
			}
		})
	}
}
