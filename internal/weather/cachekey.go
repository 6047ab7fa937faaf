package weather

import (
	"fmt"
	"time"
)

// CacheKey builds the same-day cache key for a named location. Entries from previous days
// are never read again because the date is part of the key.
func CacheKey(location string, day time.Time) string {
	return fmt.Sprintf("weather_%s_%s", NormalizeLocation(location), day.Format(time.DateOnly))
}

// flightKey identifies an upstream call for de-duplication of concurrent identical requests.
func flightKey(q Query, day time.Time) string {
	if q.Coordinates != nil {
		return fmt.Sprintf("coords_%s_%s", q.Coordinates, day.Format(time.DateOnly))
	}
	return CacheKey(q.Name, day)
}
