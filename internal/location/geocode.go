package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-forecast/internal/weather"
)

var errEmptyAddress = errors.New("address has no city")

// Address is a coarse postal address used to seed the device fix.
type Address struct {
	City    string
	Country string
}

// Geocoder turns an address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, addr Address) (weather.Coordinates, error)
}

// GoogleGeocoder resolves addresses with the Google Geocoding API.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the geocoding API key.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, addr Address) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, err
	}

	loc, err := geocoder.Geocoding(geocoder.Address{
		City:    addr.City,
		Country: addr.Country,
	})
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("geocode %q: %w", addr.City, err)
	}

	return weather.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}

// SeedFromAddress geocodes addr once and records the result as the device's last fix.
func SeedFromAddress(ctx context.Context, d *Device, g Geocoder, addr Address) (weather.Coordinates, error) {
	if strings.TrimSpace(addr.City) == "" {
		return weather.Coordinates{}, errEmptyAddress
	}

	c, err := g.Geocode(ctx, addr)
	if err != nil {
		return weather.Coordinates{}, err
	}

	d.UpdateFix(c)
	return c, nil
}
