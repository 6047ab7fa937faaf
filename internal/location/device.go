// Package location keeps the device's location permission and last-known fix.
package location

import (
	"sync"
	"time"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// Fix is a recorded position and the time it was taken.
type Fix struct {
	Coordinates weather.Coordinates `json:"coordinates"`
	RecordedAt  time.Time           `json:"recordedAt"`
}

// Device holds the location permission flag and the last known fix. The surrounding
// application is responsible for asking for permission and feeding fixes.
type Device struct {
	mu      sync.RWMutex
	granted bool
	fix     *Fix
	nowFn   func() time.Time
}

// NewDevice returns a Device with the given initial permission and no fix.
func NewDevice(granted bool) *Device {
	return &Device{granted: granted, nowFn: time.Now}
}

// SetPermission records whether location access is granted.
func (d *Device) SetPermission(granted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.granted = granted
}

// Permission reports whether location access is granted.
func (d *Device) Permission() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.granted
}

// UpdateFix replaces the last known fix.
func (d *Device) UpdateFix(c weather.Coordinates) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fix = &Fix{Coordinates: c, RecordedAt: d.nowFn()}
}

// ClearFix forgets the last known fix.
func (d *Device) ClearFix() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fix = nil
}

// LastFix returns the last known fix regardless of permission.
func (d *Device) LastFix() (Fix, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.fix == nil {
		return Fix{}, false
	}
	return *d.fix, true
}

// Resolve returns the last known coordinates when permission is granted and a fix exists.
func (d *Device) Resolve() (weather.Coordinates, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.granted || d.fix == nil {
		return weather.Coordinates{}, false
	}
	return d.fix.Coordinates, true
}

var _ weather.LocationResolver = (*Device)(nil)
