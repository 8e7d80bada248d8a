package climate

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/temperature-monitor/internal/history"
)

func TestCalendar_DateAt(t *testing.T) {
	c := DefaultCalendar()
	tests := []struct {
		hours float64
		want  history.Date
	}{
		{0, history.Date{Year: 1, Month: 1, Day: 1}},
		{23.99, history.Date{Year: 1, Month: 1, Day: 1}},
		{24, history.Date{Year: 1, Month: 1, Day: 2}},
		{9 * 24, history.Date{Year: 1, Month: 2, Day: 1}},
		{108*24 - 0.5, history.Date{Year: 1, Month: 12, Day: 9}},
		{108 * 24, history.Date{Year: 2, Month: 1, Day: 1}},
		{(108+6*9+2)*24 + 13.25, history.Date{Year: 2, Month: 7, Day: 3}},
		{-5, history.Date{Year: 1, Month: 1, Day: 1}},
	}
	for _, tt := range tests {
		if got := c.DateAt(tt.hours); got != tt.want {
			t.Errorf("DateAt(%v) = %v, want %v", tt.hours, got, tt.want)
		}
	}
}

func TestCalendar_Contains(t *testing.T) {
	c := Calendar{DaysPerMonth: 9, HoursPerDay: 24, StartYear: 1}
	tests := []struct {
		d  history.Date
		ok bool
	}{
		{history.Date{Year: 1, Month: 1, Day: 1}, true},
		{history.Date{Year: 40, Month: 12, Day: 9}, true},
		{history.Date{Year: 1, Month: 3, Day: 10}, false},
		{history.Date{Year: 1, Month: 3, Day: 31}, false},
		{history.Date{Year: 1, Month: 13, Day: 1}, false},
		{history.Date{Year: 0, Month: 1, Day: 1}, false},
	}
	for _, tt := range tests {
		err := c.Contains(tt.d)
		if (err == nil) != tt.ok {
			t.Errorf("Contains(%v) = %v, want ok=%v", tt.d, err, tt.ok)
		}
		if err != nil && !errors.Is(err, history.ErrInvalidSample) {
			t.Errorf("Contains(%v) error %v does not wrap ErrInvalidSample", tt.d, err)
		}
	}

	for h := 0.0; h < float64(c.DaysPerYear())*c.HoursPerDay*2; h += 7 {
		if err := c.Contains(c.DateAt(h)); err != nil {
			t.Fatalf("DateAt(%v) produced a date outside the calendar: %v", h, err)
		}
	}
}

func TestCalendar_Validate(t *testing.T) {
	if err := DefaultCalendar().Validate(); err != nil {
		t.Fatalf("default calendar invalid: %v", err)
	}
	bad := []Calendar{
		{DaysPerMonth: 0, HoursPerDay: 24},
		{DaysPerMonth: 32, HoursPerDay: 24},
		{DaysPerMonth: 9, HoursPerDay: 0},
		{DaysPerMonth: 9, HoursPerDay: 24, StartYear: -1},
	}
	for _, c := range bad {
		if c.Validate() == nil {
			t.Errorf("expected %+v to be rejected", c)
		}
	}
}

func TestCalendar_Fractions(t *testing.T) {
	c := DefaultCalendar()
	if got := c.HourOfDay(24*3 + 6.5); got != 6.5 {
		t.Errorf("HourOfDay = %v", got)
	}
	if got := c.YearFraction(54 * 24); got != 0.5 {
		t.Errorf("YearFraction = %v", got)
	}
}

func TestSimClock(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := newSimClock(10, 30, func() time.Time { return now })

	if got := clock.TotalHours(); got != 10 {
		t.Fatalf("TotalHours at start = %v", got)
	}
	// 2 wall minutes at 30x are one simulated hour.
	now = now.Add(2 * time.Minute)
	if got := clock.TotalHours(); got != 11 {
		t.Fatalf("TotalHours after 2m = %v", got)
	}
}
