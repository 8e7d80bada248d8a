package climate

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/temperature-monitor/internal/history"
)

const monthsPerYear = 12

// Calendar maps total simulated hours since world creation to a calendar
// date. Every month has the same number of days.
type Calendar struct {
	DaysPerMonth int
	HoursPerDay  float64
	StartYear    int
}

// DefaultCalendar matches a stock world: 9 days per month, 24 hour days,
// starting in year 1.
func DefaultCalendar() Calendar {
	return Calendar{DaysPerMonth: 9, HoursPerDay: 24, StartYear: 1}
}

// Validate reports configuration errors.
func (c Calendar) Validate() error {
	switch {
	case c.DaysPerMonth < 1 || c.DaysPerMonth > history.MaxDaysPerMonth:
		return fmt.Errorf("days per month must be in [1, %d], got %d", history.MaxDaysPerMonth, c.DaysPerMonth)
	case c.HoursPerDay <= 0:
		return fmt.Errorf("hours per day must be positive, got %v", c.HoursPerDay)
	case c.StartYear < 0:
		return fmt.Errorf("start year must not be negative, got %d", c.StartYear)
	}
	return nil
}

// DaysPerYear returns the number of days in a year.
func (c Calendar) DaysPerYear() int { return c.DaysPerMonth * monthsPerYear }

// DateAt converts total hours into a date. Negative hours clamp to the
// first day.
func (c Calendar) DateAt(totalHours float64) history.Date {
	if totalHours < 0 || math.IsNaN(totalHours) {
		totalHours = 0
	}
	totalDays := int(math.Floor(totalHours / c.HoursPerDay))
	dayOfYear := totalDays % c.DaysPerYear()
	return history.Date{
		Year:  c.StartYear + totalDays/c.DaysPerYear(),
		Month: dayOfYear/c.DaysPerMonth + 1,
		Day:   dayOfYear%c.DaysPerMonth + 1,
	}
}

// Contains reports whether d is a date of this calendar. It is stricter
// than history.Date.Validate, which only knows the largest month any
// calendar may have.
func (c Calendar) Contains(d history.Date) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Year < c.StartYear {
		return fmt.Errorf("%w: year %d is before %d", history.ErrInvalidSample, d.Year, c.StartYear)
	}
	if d.Day > c.DaysPerMonth {
		return fmt.Errorf("%w: day %d exceeds %d days per month", history.ErrInvalidSample, d.Day, c.DaysPerMonth)
	}
	return nil
}

// HourOfDay returns the fractional hour within the current day.
func (c Calendar) HourOfDay(totalHours float64) float64 {
	return math.Mod(math.Max(totalHours, 0), c.HoursPerDay)
}

// YearFraction returns how far through the year totalHours is, in [0, 1).
func (c Calendar) YearFraction(totalHours float64) float64 {
	hoursPerYear := float64(c.DaysPerYear()) * c.HoursPerDay
	return math.Mod(math.Max(totalHours, 0), hoursPerYear) / hoursPerYear
}

// Clock reports the current simulation time in total hours. Values are
// expected to be non-decreasing but consumers must tolerate jumps.
type Clock interface {
	TotalHours() float64
}

// SimClock advances simulated time at a fixed ratio to wall time.
type SimClock struct {
	start      time.Time
	startHours float64
	speed      float64
	now        func() time.Time
}

// NewSimClock returns a clock that reads startHours now and then advances
// speed simulated seconds per wall second.
func NewSimClock(startHours, speed float64) *SimClock {
	return newSimClock(startHours, speed, time.Now)
}

func newSimClock(startHours, speed float64, now func() time.Time) *SimClock {
	return &SimClock{start: now(), startHours: startHours, speed: speed, now: now}
}

// TotalHours implements Clock.
func (c *SimClock) TotalHours() float64 {
	elapsed := c.now().Sub(c.start).Seconds()
	return c.startHours + elapsed*c.speed/3600
}
