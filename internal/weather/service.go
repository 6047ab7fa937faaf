package weather

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/common"
)

// Service runs the forecast acquisition pipeline: cache lookup, location resolution,
// upstream fetch, cache write and decoding.
type Service struct {
	client   Client
	cache    CacheStore
	resolver LocationResolver
	logger   *zap.Logger
	nowFn    func() time.Time

	flights  flightGroup
	requests *gocache.Cache
	seq      atomic.Uint64

	mu      sync.RWMutex
	last    Forecast
	lastSeq uint64
}

// Option configures optional behaviour of a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock that dates cache keys. The returned time's location decides
// where the calendar day starts.
func WithClock(nowFn func() time.Time) Option {
	return func(s *Service) {
		if nowFn != nil {
			s.nowFn = nowFn
		}
	}
}

// WithRequestTTL controls how long finished requests can be looked up by id.
func WithRequestTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.requests = gocache.New(ttl, 2*ttl)
		}
	}
}

// NewService creates a Service. A nil cache disables caching and a nil resolver makes the
// current location always unavailable.
func NewService(client Client, cache CacheStore, resolver LocationResolver, opts ...Option) *Service {
	s := &Service{
		client:   client,
		cache:    cache,
		resolver: resolver,
		logger:   zap.NewNop(),
		nowFn:    time.Now,
		requests: gocache.New(10*time.Minute, 20*time.Minute),
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	if s.resolver == nil {
		s.resolver = noLocation{}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch starts an asynchronous fetch for location. Exactly one of onSuccess and onError is
// called, unless the request is cancelled first (through the returned handle or ctx), in
// which case neither is.
func (s *Service) Fetch(
	ctx context.Context,
	location string,
	onSuccess func(Forecast),
	onError func(error),
) *Request {
	seq := s.seq.Add(1)
	rctx, cancel := context.WithCancel(ctx)
	req := newRequest(location, seq, cancel)
	s.requests.Set(req.ID(), req, gocache.DefaultExpiration)

	go func() {
		defer cancel()

		forecast, err := s.run(rctx, location)
		if err != nil && errors.Is(err, context.Canceled) && rctx.Err() != nil {
			req.Cancel()
			s.logger.Debug("forecast request cancelled",
				zap.String("request", req.ID()), zap.String("location", location))
			return
		}

		if !req.complete(forecast, err) {
			return
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
		} else {
			s.recordLast(seq, forecast)
			if onSuccess != nil {
				onSuccess(forecast)
			}
		}
		req.finish()
	}()

	return req
}

// Forecast runs the pipeline synchronously.
func (s *Service) Forecast(ctx context.Context, location string) (Forecast, error) {
	seq := s.seq.Add(1)
	forecast, err := s.run(ctx, location)
	if err != nil {
		return nil, err
	}
	s.recordLast(seq, forecast)
	return forecast, nil
}

// Prefetch runs the pipeline for location to fill the same-day cache. The result is not
// recorded as the last result.
func (s *Service) Prefetch(ctx context.Context, location string) error {
	_, err := s.run(ctx, location)
	return err
}

// DailyForecast runs the pipeline and condenses the result per calendar day.
func (s *Service) DailyForecast(ctx context.Context, location string) ([]DailySummary, error) {
	forecast, err := s.Forecast(ctx, location)
	if err != nil {
		return nil, err
	}
	return Summarize(forecast), nil
}

// LastResult returns the most recent successful result. A request that finishes late never
// replaces the result of a request issued after it.
func (s *Service) LastResult() (Forecast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastSeq != 0
}

// Request looks up a request started by Fetch.
func (s *Service) Request(id string) (*Request, bool) {
	v, ok := s.requests.Get(id)
	if !ok {
		return nil, false
	}
	req, ok := v.(*Request)
	return req, ok
}

func (s *Service) recordLast(seq uint64, forecast Forecast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.lastSeq {
		s.last = forecast
		s.lastSeq = seq
	}
}

func (s *Service) run(ctx context.Context, location string) (Forecast, error) {
	name := strings.TrimSpace(location)
	if name == "" {
		return nil, ErrEmptyLocation
	}
	day := s.nowFn()

	if IsCurrentLocation(name) {
		coords, ok := s.resolver.Resolve()
		if !ok {
			s.logger.Info("current location requested but no fix is available")
			return nil, ErrLocationUnavailable
		}
		body, err := s.request(ctx, Query{Coordinates: &coords}, day, "")
		if err != nil {
			return nil, err
		}
		return s.decode(body, name)
	}

	key := CacheKey(name, day)
	if body, ok := s.cache.Get(ctx, key); ok && !common.IsBlank(body) {
		s.logger.Debug("forecast cache hit", zap.String("key", key))
		return s.decode(body, name)
	}
	s.logger.Debug("forecast cache miss", zap.String("key", key))

	body, err := s.request(ctx, Query{Name: name}, day, key)
	if err != nil {
		return nil, err
	}
	return s.decode(body, name)
}

// request performs the upstream call, joining an identical call already in flight. With a
// non-empty cacheKey the raw body is cached before it is decoded.
func (s *Service) request(ctx context.Context, q Query, day time.Time, cacheKey string) (string, error) {
	body, shared, err := s.flights.do(ctx, flightKey(q, day), func(fctx context.Context) (string, error) {
		body, err := s.client.Fetch(fctx, q)
		if err != nil {
			return "", err
		}
		if cacheKey != "" {
			if err := s.cache.Put(fctx, cacheKey, body); err != nil {
				s.logger.Warn("failed to cache forecast", zap.String("key", cacheKey), zap.Error(err))
			}
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			var te *TransportError
			if !errors.As(err, &te) {
				err = &TransportError{Err: err}
			}
		}
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("forecast request failed", zap.String("query", describe(q)), zap.Error(err))
		}
		return "", err
	}
	if shared {
		s.logger.Debug("joined in-flight forecast request", zap.String("query", describe(q)))
	}
	return body, nil
}

func (s *Service) decode(body, location string) (Forecast, error) {
	forecast, err := DecodeForecast(body)
	if err != nil {
		s.logger.Warn("failed to decode forecast", zap.String("location", location), zap.Error(err))
		return nil, err
	}
	return forecast, nil
}

func describe(q Query) string {
	if q.Coordinates != nil {
		return q.Coordinates.String()
	}
	return q.Name
}

type noCache struct{}

func (noCache) Get(context.Context, string) (string, bool) { return "", false }
func (noCache) Put(context.Context, string, string) error  { return nil }

type noLocation struct{}

func (noLocation) Resolve() (Coordinates, bool) { return Coordinates{}, false }
