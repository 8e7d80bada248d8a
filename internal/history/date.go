package history

import "fmt"

// MaxDaysPerMonth bounds the day-of-month accepted anywhere in the index.
const MaxDaysPerMonth = 31

// Date is a calendar date in the simulated world. Months are 1..12 and days
// start at 1.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Validate reports whether the date can be stored in the index. The day is
// checked against MaxDaysPerMonth only; climate.Calendar.Contains applies
// the configured month length.
func (d Date) Validate() error {
	switch {
	case d.Year < 0:
		return fmt.Errorf("%w: year %d is negative", ErrInvalidSample, d.Year)
	case d.Month < 1 || d.Month > 12:
		return fmt.Errorf("%w: month %d out of range", ErrInvalidSample, d.Month)
	case d.Day < 1 || d.Day > MaxDaysPerMonth:
		return fmt.Errorf("%w: day %d out of range", ErrInvalidSample, d.Day)
	}
	return nil
}

// String formats the date as Y-MM-DD, e.g. 2-07-03.
func (d Date) String() string {
	return fmt.Sprintf("%d-%02d-%02d", d.Year, d.Month, d.Day)
}
