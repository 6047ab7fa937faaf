package location

import (
	"context"
	"errors"
	"testing"

	"github.com/i474232898/weather-forecast/internal/weather"
)

func TestDeviceResolveRequiresPermissionAndFix(t *testing.T) {
	d := NewDevice(false)
	sapporo := weather.Coordinates{Latitude: 43.06, Longitude: 141.35}

	if _, ok := d.Resolve(); ok {
		t.Fatal("expected no location without permission or fix")
	}

	d.UpdateFix(sapporo)
	if _, ok := d.Resolve(); ok {
		t.Fatal("expected no location without permission")
	}
	if _, ok := d.LastFix(); !ok {
		t.Fatal("expected the fix to be recorded regardless of permission")
	}

	d.SetPermission(true)
	got, ok := d.Resolve()
	if !ok || got != sapporo {
		t.Fatalf("expected %v, got %v (ok=%v)", sapporo, got, ok)
	}

	d.ClearFix()
	if _, ok := d.Resolve(); ok {
		t.Fatal("expected no location after the fix is cleared")
	}
	if !d.Permission() {
		t.Fatal("expected permission to be kept")
	}
}

type fakeGeocoder struct {
	coords weather.Coordinates
	err    error
	calls  int
}

func (g *fakeGeocoder) Geocode(_ context.Context, _ Address) (weather.Coordinates, error) {
	g.calls++
	return g.coords, g.err
}

func TestSeedFromAddress(t *testing.T) {
	d := NewDevice(true)
	g := &fakeGeocoder{coords: weather.Coordinates{Latitude: 41.77, Longitude: 140.73}}

	c, err := SeedFromAddress(context.Background(), d, g, Address{City: "Hakodate", Country: "Japan"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != g.coords {
		t.Fatalf("expected %v, got %v", g.coords, c)
	}
	if got, ok := d.Resolve(); !ok || got != g.coords {
		t.Fatal("expected the geocoded position to become the device fix")
	}
}

func TestSeedFromAddressErrors(t *testing.T) {
	d := NewDevice(true)
	g := &fakeGeocoder{}

	if _, err := SeedFromAddress(context.Background(), d, g, Address{City: "  "}); !errors.Is(err, errEmptyAddress) {
		t.Fatalf("expected errEmptyAddress, got %v", err)
	}
	if g.calls != 0 {
		t.Fatal("expected no geocoding for an empty city")
	}

	g.err = errors.New("ZERO_RESULTS")
	if _, err := SeedFromAddress(context.Background(), d, g, Address{City: "Atlantis"}); err == nil {
		t.Fatal("expected geocoding error")
	}
	if _, ok := d.LastFix(); ok {
		t.Fatal("expected no fix after a failed geocode")
	}
}
