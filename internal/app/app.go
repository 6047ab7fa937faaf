// Package app assembles the forecast pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/config"
	"github.com/i474232898/weather-forecast/internal/location"
	"github.com/i474232898/weather-forecast/internal/store"
	"github.com/i474232898/weather-forecast/internal/weather"
	"github.com/i474232898/weather-forecast/internal/weather/providers"
)

// App holds the wired components.
type App struct {
	Service *weather.Service
	Device  *location.Device
	Store   store.Store
	Client  *providers.OpenWeatherProvider
}

// Build opens the cache store, prepares the device location and creates the service.
func Build(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*App, error) {
	cacheStore, err := store.Open(ctx, cfg.CacheDSN, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	device := location.NewDevice(cfg.LocationPermission)
	if fix, ok := cfg.InitialFix(); ok {
		device.UpdateFix(fix)
	} else if cfg.DeviceCity != "" && cfg.GeocoderAPIKey != "" {
		addr := location.Address{City: cfg.DeviceCity, Country: cfg.DeviceCountry}
		c, err := location.SeedFromAddress(ctx, device, location.NewGoogleGeocoder(cfg.GeocoderAPIKey), addr)
		if err != nil {
			logger.Warn("failed to seed device location", zap.String("city", addr.City), zap.Error(err))
		} else {
			logger.Info("seeded device location", zap.Stringer("coordinates", c))
		}
	}

	client := providers.NewOpenWeatherProvider(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithUnits(cfg.Units),
		providers.WithLanguage(cfg.Language),
		providers.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		providers.WithProviderLogger(logger.Named("openweather")),
	)

	tz := cfg.TimeLocation()
	service := weather.NewService(
		client,
		cacheStore,
		device,
		weather.WithLogger(logger.Named("forecast")),
		weather.WithClock(func() time.Time { return time.Now().In(tz) }),
		weather.WithRequestTTL(cfg.RequestTTL),
	)

	return &App{
		Service: service,
		Device:  device,
		Store:   cacheStore,
		Client:  client,
	}, nil
}

// Close releases the cache store.
func (a *App) Close() error {
	return a.Store.Close()
}
