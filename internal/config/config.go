package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-forecast/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey  string `env:"OPENWEATHER_API_KEY,required,notEmpty"`
	OpenWeatherBaseURL string `env:"OPENWEATHER_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5/forecast"`
	Units              string `env:"OPENWEATHER_UNITS"    envDefault:"metric"`
	Language           string `env:"OPENWEATHER_LANG"     envDefault:"ja"`

	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT"     envDefault:"10s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS"   envDefault:"1"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"5"`

	// CacheDSN selects the cache backend: memory, sqlite://<path>, postgres://..., mysql://...
	CacheDSN      string `env:"CACHE_DSN"      envDefault:"sqlite://weather_cache.db"`
	CacheTimezone string `env:"CACHE_TIMEZONE" envDefault:"Local"`

	// Locations fetched periodically so the day's cache is warm.
	WarmupLocations []string      `env:"WARMUP_LOCATIONS" envSeparator:"," envDefault:"Wakkanai,Asahikawa,Sapporo,Hakodate,Abashiri,Nemuro"`
	WarmupInterval  time.Duration `env:"WARMUP_INTERVAL"  envDefault:"1h"`
	PruneAt         string        `env:"PRUNE_AT"         envDefault:"00:05"`
	RequestTTL      time.Duration `env:"REQUEST_TTL"      envDefault:"10m"`

	LocationPermission bool   `env:"LOCATION_PERMISSION" envDefault:"false"`
	DeviceFix          string `env:"DEVICE_FIX"` // "lat,lon"
	DeviceCity         string `env:"DEVICE_CITY"`
	DeviceCountry      string `env:"DEVICE_COUNTRY"`
	GeocoderAPIKey     string `env:"GEOCODER_API_KEY"`

	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	Port string `env:"PORT" envDefault:"8080"`

	location   *time.Location
	initialFix *weather.Coordinates
}

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[AppConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.location, err = time.LoadLocation(cfg.CacheTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TIMEZONE: %w", err)
	}

	if cfg.DeviceFix != "" {
		fix, err := parseCoordinates(cfg.DeviceFix)
		if err != nil {
			return nil, fmt.Errorf("invalid DEVICE_FIX: %w", err)
		}
		cfg.initialFix = &fix
	}

	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}
	if _, err := time.Parse("15:04", cfg.PruneAt); err != nil {
		return nil, fmt.Errorf("invalid PRUNE_AT: %w", err)
	}

	cfg.WarmupLocations = compact(cfg.WarmupLocations)

	return &cfg, nil
}

// TimeLocation is the zone whose calendar day scopes cache entries.
func (c *AppConfig) TimeLocation() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// InitialFix returns the device fix configured through DEVICE_FIX.
func (c *AppConfig) InitialFix() (weather.Coordinates, bool) {
	if c.initialFix == nil {
		return weather.Coordinates{}, false
	}
	return *c.initialFix, true
}

func parseCoordinates(s string) (weather.Coordinates, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return weather.Coordinates{}, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}

	latitude, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("latitude: %w", err)
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("longitude: %w", err)
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return weather.Coordinates{}, fmt.Errorf("coordinates out of range: %s", s)
	}

	return weather.Coordinates{Latitude: latitude, Longitude: longitude}, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
