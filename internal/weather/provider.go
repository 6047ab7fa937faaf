package weather

import (
	"context"
	"time"
)

// Query selects what the upstream service is asked for: a place name or coordinates.
type Query struct {
	Name        string
	Coordinates *Coordinates
}

// Client abstracts the upstream forecast endpoint. Fetch returns the verbatim response body.
type Client interface {
	Fetch(ctx context.Context, q Query) (string, error)
}

// LocationResolver returns the device's last-known coordinates when they may be used.
type LocationResolver interface {
	Resolve() (Coordinates, bool)
}

// CacheStore persists raw response bodies keyed by CacheKey. Get never fails; a backend
// problem is reported as a miss.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string) error
}

// Pruner is implemented by stores that can drop entries written before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}
