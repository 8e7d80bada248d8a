package sources

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/i474232898/temperature-monitor/internal/climate"
)

const (
	seaLevel        = 110
	lapseRatePerY   = 0.0065 * 4
	seasonAmplitude = 14
	dailyAmplitude  = 5
	noiseAmplitude  = 1.5
)

// Synthetic produces a deterministic temperature from the simulated time and
// the position: a seasonal swing over the year, a daily swing peaking in the
// afternoon, cooling with altitude, and small per-granule noise.
type Synthetic struct {
	clock    climate.Clock
	calendar climate.Calendar
	baseC    float64
}

// NewSynthetic creates a synthetic source. baseC is the yearly mean at sea level.
func NewSynthetic(clock climate.Clock, calendar climate.Calendar, baseC float64) *Synthetic {
	return &Synthetic{clock: clock, calendar: calendar, baseC: baseC}
}

func (s *Synthetic) Name() string { return "synthetic" }

// GetValue implements climate.SampleSource.
func (s *Synthetic) GetValue(_ context.Context, pos climate.Position) (float64, error) {
	return s.At(s.clock.TotalHours(), pos), nil
}

// GetValueAt implements climate.TimedSource.
func (s *Synthetic) GetValueAt(_ context.Context, pos climate.Position, totalHours float64) (float64, error) {
	return s.At(totalHours, pos), nil
}

// At returns the temperature at hours for pos.
func (s *Synthetic) At(hours float64, pos climate.Position) float64 {
	season := -math.Cos(2*math.Pi*s.calendar.YearFraction(hours)) * seasonAmplitude
	daily := -math.Cos(2*math.Pi*(s.calendar.HourOfDay(hours)-3)/s.calendar.HoursPerDay) * dailyAmplitude
	altitude := -float64(pos.Y-seaLevel) * lapseRatePerY

	t := s.baseC + season + daily + altitude + noise(pos, math.Floor(hours*4))
	return math.Round(t*10) / 10
}

func noise(pos climate.Position, slot float64) float64 {
	h := fnv.New64a()
	var buf [32]byte
	putInt := func(off int, v int64) {
		for i := 0; i < 8; i++ {
			buf[off+i] = byte(v >> (8 * i))
		}
	}
	putInt(0, int64(pos.X))
	putInt(8, int64(pos.Y))
	putInt(16, int64(pos.Z))
	putInt(24, int64(slot))
	_, _ = h.Write(buf[:])
	frac := float64(h.Sum64()%10000) / 10000
	return (frac*2 - 1) * noiseAmplitude
}
