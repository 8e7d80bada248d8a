// Package monitor is the authority that samples temperatures, keeps the
// aggregated history and answers snapshot requests.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/history"
	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/metrics"
	"github.com/i474232898/temperature-monitor/internal/sensor"
	"github.com/i474232898/temperature-monitor/internal/store"
)

// Sample is the last accepted reading.
type Sample struct {
	Date        history.Date `json:"-"`
	DateString  string       `json:"date"`
	Hours       float64      `json:"hours"`
	Temperature float64      `json:"temperature"`
}

// Stats summarises the service state.
type Stats struct {
	Days       int     `json:"days"`
	Dirty      bool    `json:"dirty"`
	LastSample *Sample `json:"last_sample,omitempty"`
}

// Service owns the aggregated history and its persistence. Sampling,
// persisting and snapshot reads are serialised by a single mutex.
type Service struct {
	mu          sync.Mutex
	agg         *history.Aggregator
	store       *store.DurableStore
	source      climate.SampleSource
	calendar    climate.Calendar
	sensors     *sensor.Manager
	debounce    time.Duration
	dirty       bool
	lastPersist time.Time
	last        *Sample
	now         func() time.Time

	log     *slog.Logger
	metrics *metrics.Manager
}

// Option configures a Service.
type Option func(*Service)

// WithDebounce delays persisting until d has passed since the previous
// successful persist. Zero persists after every sample.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates the service and hydrates it from st. A failed load is logged
// and the service starts empty.
func New(st *store.DurableStore, src climate.SampleSource, cal climate.Calendar, sensors *sensor.Manager, opts ...Option) *Service {
	s := &Service{
		store:    st,
		source:   src,
		calendar: cal,
		sensors:  sensors,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Component("monitor")
	}

	ix, recovered, err := st.Load()
	if err != nil {
		s.log.Error("error loading temperature data", "path", st.Path(), "error", err)
	}
	s.agg = history.NewAggregator(ix,
		history.WithLogger(s.log),
		history.WithMetrics(s.metrics),
	)
	// The canonical file is behind the recovered index until rewritten.
	s.dirty = recovered
	return s
}

// SampleAt reads the source at the sensor position, records the value on the
// calendar date of hours and persists. Source failures are returned wrapped
// and nothing is recorded.
func (s *Service) SampleAt(ctx context.Context, hours float64) error {
	d := s.calendar.DateAt(hours)
	if err := s.calendar.Contains(d); err != nil {
		s.log.Warn("dropping sample outside the calendar", "hours", hours, "date", d.String(), "error", err)
		s.metrics.SampleDropped("out_of_calendar")
		return nil
	}

	pos := s.sensors.Position()
	value, err := s.read(ctx, pos, hours)
	if err != nil {
		s.metrics.SourceFailed()
		return fmt.Errorf("read %s at %s: %w", s.source.Name(), pos, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.agg.Record(d, value) {
		return nil
	}
	s.dirty = true
	s.last = &Sample{Date: d, DateString: d.String(), Hours: hours, Temperature: value}

	if s.debounce > 0 && s.now().Sub(s.lastPersist) < s.debounce {
		return nil
	}
	return s.persistLocked()
}

func (s *Service) read(ctx context.Context, pos climate.Position, hours float64) (float64, error) {
	if ts, ok := s.source.(climate.TimedSource); ok {
		return ts.GetValueAt(ctx, pos, hours)
	}
	return s.source.GetValue(ctx, pos)
}

func (s *Service) persistLocked() error {
	if err := s.store.Persist(s.agg.Index()); err != nil {
		return err
	}
	s.dirty = false
	s.lastPersist = s.now()
	return nil
}

// Flush persists pending samples, if any.
func (s *Service) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked()
}

// Snapshot returns the persisted document after flushing pending samples.
// It returns store.ErrNoDocument when nothing has been persisted. A failed
// flush is logged and the previous generation is served.
func (s *Service) Snapshot(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		if err := s.persistLocked(); err != nil {
			s.log.Warn("serving previous snapshot; flush failed", "error", err)
		}
	}
	return s.store.ReadDocument()
}

// Stats returns a summary of the current state.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Days: s.agg.Index().Len(), Dirty: s.dirty}
	if s.last != nil {
		last := *s.last
		st.LastSample = &last
	}
	return st
}

// SensorLocation returns where the sensor currently measures.
func (s *Service) SensorLocation() sensor.Location {
	return s.sensors.Current()
}

// SetSpawn moves the sensor to the spawn point.
func (s *Service) SetSpawn() (sensor.Location, error) {
	return s.sensors.SetSpawn()
}

// SetLocation pins the sensor to pos.
func (s *Service) SetLocation(pos climate.Position) (sensor.Location, error) {
	return s.sensors.SetLocation(pos)
}
