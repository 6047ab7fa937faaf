package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/weather-forecast/internal/weather"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Units != "metric" || cfg.Language != "ja" {
		t.Fatalf("unexpected units/lang %q/%q", cfg.Units, cfg.Language)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.CacheDSN != "sqlite://weather_cache.db" {
		t.Fatalf("unexpected cache dsn %q", cfg.CacheDSN)
	}
	if !reflect.DeepEqual(cfg.WarmupLocations, weather.PresetLocations) {
		t.Fatalf("expected preset warm-up locations, got %v", cfg.WarmupLocations)
	}
	if cfg.LocationPermission {
		t.Fatal("expected location permission to default to false")
	}
	if _, ok := cfg.InitialFix(); ok {
		t.Fatal("expected no initial fix")
	}
	if cfg.TimeLocation() == nil {
		t.Fatal("expected a time location")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "secret")
	t.Setenv("CACHE_DSN", "memory")
	t.Setenv("CACHE_TIMEZONE", "Asia/Tokyo")
	t.Setenv("WARMUP_LOCATIONS", " Sapporo, ,Nemuro ")
	t.Setenv("DEVICE_FIX", "43.0621, 141.3544")
	t.Setenv("LOCATION_PERMISSION", "true")
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TimeLocation().String() != "Asia/Tokyo" {
		t.Fatalf("unexpected time location %s", cfg.TimeLocation())
	}
	if !reflect.DeepEqual(cfg.WarmupLocations, []string{"Sapporo", "Nemuro"}) {
		t.Fatalf("unexpected warm-up locations %v", cfg.WarmupLocations)
	}
	fix, ok := cfg.InitialFix()
	if !ok || fix.Latitude != 43.0621 || fix.Longitude != 141.3544 {
		t.Fatalf("unexpected initial fix %v (ok=%v)", fix, ok)
	}
	if !cfg.LocationPermission || cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing api key":  {"OPENWEATHER_API_KEY": ""},
		"bad timezone":     {"CACHE_TIMEZONE": "Mars/Olympus"},
		"bad fix":          {"DEVICE_FIX": "north"},
		"fix out of range": {"DEVICE_FIX": "95,10"},
		"zero timeout":     {"HTTP_TIMEOUT": "0s"},
		"bad prune time":   {"PRUNE_AT": "midnight"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("OPENWEATHER_API_KEY", "secret")
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
