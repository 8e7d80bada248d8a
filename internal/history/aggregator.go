package history

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/metrics"
)

// Aggregator folds samples into an Index, logging and dropping invalid ones.
type Aggregator struct {
	index   *Index
	log     *slog.Logger
	metrics *metrics.Manager
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger used for accepted and dropped samples.
func WithLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// NewAggregator wraps index. A nil index starts empty.
func NewAggregator(index *Index, opts ...AggregatorOption) *Aggregator {
	if index == nil {
		index = NewIndex()
	}
	a := &Aggregator{index: index}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logging.Component("aggregator")
	}
	a.metrics.DaysRecorded(index.Len())
	return a
}

// Record folds one sample. It returns false when the sample was dropped.
func (a *Aggregator) Record(d Date, value float64) bool {
	if err := a.index.Record(d, value); err != nil {
		reason := "unknown"
		if errors.Is(err, ErrInvalidSample) {
			reason = "invalid"
		}
		a.metrics.SampleDropped(reason)
		a.log.Warn("sample dropped", "date", d.String(), "value", value, "error", err)
		return false
	}
	a.metrics.SampleAccepted(a.index.Len())
	a.log.Info("sample recorded", "date", d.String(), "temperature", fmt.Sprintf("%.1f°C", value))
	return true
}

// Index returns the aggregated index. Callers must not mutate it concurrently
// with Record.
func (a *Aggregator) Index() *Index { return a.index }

// Replace swaps the underlying index, e.g. after hydrating from disk.
func (a *Aggregator) Replace(index *Index) {
	if index == nil {
		index = NewIndex()
	}
	a.index = index
	a.metrics.DaysRecorded(index.Len())
}
