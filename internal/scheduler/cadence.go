package scheduler

import (
	"math"
	"time"
)

// DefaultGranule is the simulated time between two samples.
const DefaultGranule = 15 * time.Minute

// Cadence turns a monotonic simulation clock into sampling events, one per
// granule boundary crossed.
type Cadence struct {
	granule float64 // hours
	last    float64
}

// NewCadence returns a cadence with the given simulated granule. Non-positive
// granules fall back to DefaultGranule.
func NewCadence(granule time.Duration) *Cadence {
	if granule <= 0 {
		granule = DefaultGranule
	}
	return &Cadence{granule: granule.Hours()}
}

// Advance reports whether hours crossed into a new granule since the last
// event. A jump over several granules yields a single event; time moving
// backwards yields none.
func (c *Cadence) Advance(hours float64) bool {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return false
	}
	if math.Floor(hours/c.granule) <= math.Floor(c.last/c.granule) {
		return false
	}
	c.last = hours
	return true
}

// Last returns the simulation hour of the last event.
func (c *Cadence) Last() float64 { return c.last }
