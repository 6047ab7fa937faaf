package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// Prefetcher is the part of weather.Service the warm-up job needs.
type Prefetcher interface {
	Prefetch(ctx context.Context, location string) error
}

// Scheduler keeps the same-day cache warm for configured locations and prunes old entries.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	prefetcher Prefetcher
	pruner     weather.Pruner
	locations  []string
	interval   time.Duration
	pruneAt    string
	timeout    time.Duration
	loc        *time.Location
	logger     *zap.Logger
}

// New creates a Scheduler running in loc's time zone. pruner may be nil.
func New(
	prefetcher Prefetcher,
	pruner weather.Pruner,
	locations []string,
	interval time.Duration,
	pruneAt string,
	loc *time.Location,
	logger *zap.Logger,
) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(loc),
		prefetcher: prefetcher,
		pruner:     pruner,
		locations:  locations,
		interval:   interval,
		pruneAt:    pruneAt,
		timeout:    30 * time.Second,
		loc:        loc,
		logger:     logger,
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("scheduler: no warm-up locations configured")
	} else {
		minutes := int(s.interval.Minutes())
		if minutes <= 0 {
			minutes = 60
		}
		if _, err := s.scheduler.Every(minutes).Minutes().Do(s.Warm); err != nil {
			return err
		}
	}

	if s.pruner != nil && s.pruneAt != "" {
		if _, err := s.scheduler.Every(1).Day().At(s.pruneAt).Do(s.Prune); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Warm fetches every configured location. Locations already cached today cost no network call.
func (s *Scheduler) Warm() {
	s.logger.Debug("scheduler: running warm-up job", zap.Int("locations", len(s.locations)))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.prefetcher.Prefetch(ctx, loc); err != nil {
				s.logger.Warn("scheduler: warm-up failed", zap.String("location", loc), zap.Error(err))
			}
		}(loc)
	}
	wg.Wait()

	s.logger.Debug("scheduler: completed warm-up job")
}

// Prune removes entries written before the start of the current day.
func (s *Scheduler) Prune() {
	if s.pruner == nil {
		return
	}

	now := time.Now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.pruner.Prune(ctx, midnight)
	if err != nil {
		s.logger.Warn("scheduler: prune failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduler: pruned cache entries", zap.Int("removed", n))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
