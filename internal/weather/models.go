package weather

import (
	"fmt"
	"strings"
)

// CurrentLocation is the reserved location name meaning "use the device's coordinates".
const CurrentLocation = "現在地"

// TimestampLayout is the layout of ForecastEntry.Timestamp as sent by the upstream service.
const TimestampLayout = "2006-01-02 15:04:05"

const iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

// PresetLocations are the named places offered to callers by default.
var PresetLocations = []string{"Wakkanai", "Asahikawa", "Sapporo", "Hakodate", "Abashiri", "Nemuro"}

// ConditionKind is a normalized high-level weather condition.
type ConditionKind string

const (
	ConditionUnknown ConditionKind = "unknown"
	ConditionClear   ConditionKind = "clear"
	ConditionCloudy  ConditionKind = "cloudy"
	ConditionRain    ConditionKind = "rain"
	ConditionSnow    ConditionKind = "snow"
	ConditionStorm   ConditionKind = "storm"
	ConditionMist    ConditionKind = "mist"
)

// Condition describes one weather condition of a forecast step.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Kind maps the upstream condition group onto a ConditionKind.
func (c Condition) Kind() ConditionKind {
	switch c.Main {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionCloudy
	case "Rain", "Drizzle":
		return ConditionRain
	case "Snow":
		return ConditionSnow
	case "Thunderstorm":
		return ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}

// IconURL returns the address of the icon image for this condition, or "" without an icon.
func (c Condition) IconURL() string {
	if c.Icon == "" {
		return ""
	}
	return fmt.Sprintf(iconURLFormat, c.Icon)
}

// ForecastEntry is one time step of a forecast.
type ForecastEntry struct {
	Timestamp   string      `json:"timestamp"`
	Temperature float64     `json:"temperatureC"`
	Conditions  []Condition `json:"conditions"`
}

// Forecast is a list of forecast steps in the order returned by the upstream service.
type Forecast []ForecastEntry

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// IsCurrentLocation reports whether name is the current-location sentinel.
func IsCurrentLocation(name string) bool {
	return strings.TrimSpace(name) == CurrentLocation
}

// NormalizeLocation returns the canonical form of a place name used for cache keys.
func NormalizeLocation(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
