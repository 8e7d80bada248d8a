package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/logging"
)

// DefaultTick is the real-time interval at which the clock is polled.
const DefaultTick = 5 * time.Second

// Sampler takes one sample at the given simulation hour.
type Sampler interface {
	SampleAt(ctx context.Context, hours float64) error
}

// Flusher persists pending mutations.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler polls the simulation clock and triggers a sample whenever the
// cadence fires.
type Scheduler struct {
	scheduler *gocron.Scheduler
	clock     climate.Clock
	sampler   Sampler
	flusher   Flusher
	tick      time.Duration
	log       *slog.Logger

	mu      sync.Mutex
	cadence *Cadence
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTick sets the real-time polling interval.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithGranule sets the simulated sampling granule.
func WithGranule(d time.Duration) Option {
	return func(s *Scheduler) { s.cadence = NewCadence(d) }
}

// WithFlusher sets what Stop flushes.
func WithFlusher(f Flusher) Option {
	return func(s *Scheduler) { s.flusher = f }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a new Scheduler.
func New(clock climate.Clock, sampler Sampler, opts ...Option) *Scheduler {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		clock:     clock,
		sampler:   sampler,
		tick:      DefaultTick,
		cadence:   NewCadence(DefaultGranule),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Component("scheduler")
	}
	return s
}

// Start schedules the polling job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.tick).SingletonMode().Do(func() {
		// A reading must finish before the next tick is due.
		ctx, cancel := context.WithTimeout(context.Background(), s.tick)
		defer cancel()
		s.Tick(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "tick", s.tick.String())
	return nil
}

// Tick reads the clock once and samples if a granule boundary was crossed.
// It reports whether a sample was attempted.
func (s *Scheduler) Tick(ctx context.Context) bool {
	hours := s.clock.TotalHours()

	s.mu.Lock()
	fire := s.cadence.Advance(hours)
	s.mu.Unlock()
	if !fire {
		return false
	}

	if err := s.sampler.SampleAt(ctx, hours); err != nil {
		s.log.Warn("sampling failed", "hours", hours, "error", err)
	}
	return true
}

// Stop stops the scheduler and flushes pending mutations.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.flusher == nil {
		return nil
	}
	if err := s.flusher.Flush(ctx); err != nil {
		s.log.Error("flush on shutdown failed", "error", err)
		return err
	}
	return nil
}
