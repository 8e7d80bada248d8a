// Package climate describes the world the monitor samples: positions, the
// sample source boundary, and the simulated calendar.
package climate

import (
	"context"
	"errors"
	"fmt"
)

// ErrSourceUnavailable wraps failures of a SampleSource.
var ErrSourceUnavailable = errors.New("sample source unavailable")

// Position is a block position in the world.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d, %d, %d", p.X, p.Y, p.Z)
}

// SampleSource abstracts whatever can report the ambient temperature at a
// position (the host world's climate query, a remote sensor, a simulator).
// Implementations may fail; callers log and skip the sample.
type SampleSource interface {
	Name() string
	GetValue(ctx context.Context, pos Position) (float64, error)
}

// TimedSource is implemented by sources that can answer for a given point in
// simulated time. The monitor reads these at the sampled hour instead of
// the live clock.
type TimedSource interface {
	SampleSource
	GetValueAt(ctx context.Context, pos Position, totalHours float64) (float64, error)
}

// SourceFunc adapts a plain function to SampleSource.
type SourceFunc func(ctx context.Context, pos Position) (float64, error)

func (f SourceFunc) Name() string { return "func" }

func (f SourceFunc) GetValue(ctx context.Context, pos Position) (float64, error) {
	return f(ctx, pos)
}
