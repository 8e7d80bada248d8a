// Package history holds the hierarchical year/month/day min-max temperature
// index, the aggregator that feeds it, and the snapshot document codec.
package history

import (
	"fmt"
	"math"
	"sort"
)

// Extrema is the min/max pair carried by every record in the index.
type Extrema struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func emptyExtrema() Extrema {
	return Extrema{Min: math.Inf(1), Max: math.Inf(-1)}
}

func (e *Extrema) fold(o Extrema) {
	if o.Min < e.Min {
		e.Min = o.Min
	}
	if o.Max > e.Max {
		e.Max = o.Max
	}
}

type monthNode struct {
	Extrema
	days map[int]Extrema
}

type yearNode struct {
	Extrema
	months map[int]*monthNode
}

// Index is the year → month → day tree of temperature extrema. Parent
// extrema always equal the fold of their children; the tree can only be
// changed through Record, so the invariant holds after every call.
//
// Index is not safe for concurrent use. The zero value is an empty index.
type Index struct {
	years map[int]*yearNode
	days  int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{years: make(map[int]*yearNode)}
}

// Record folds value into the day record for d and then into the enclosing
// month and year. Non-finite values and invalid dates are rejected with
// ErrInvalidSample and leave the index unchanged.
func (ix *Index) Record(d Date, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value %v is not finite", ErrInvalidSample, value)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	ix.fold(d, Extrema{Min: value, Max: value})
	return nil
}

// fold merges e into the day at d. New parents start at +Inf/-Inf and are
// folded before fold returns, so they are never observable in that state.
func (ix *Index) fold(d Date, e Extrema) {
	if ix.years == nil {
		ix.years = make(map[int]*yearNode)
	}
	y, ok := ix.years[d.Year]
	if !ok {
		y = &yearNode{Extrema: emptyExtrema(), months: make(map[int]*monthNode)}
		ix.years[d.Year] = y
	}
	m, ok := y.months[d.Month]
	if !ok {
		m = &monthNode{Extrema: emptyExtrema(), days: make(map[int]Extrema)}
		y.months[d.Month] = m
	}
	day, ok := m.days[d.Day]
	if !ok {
		day = emptyExtrema()
		ix.days++
	}
	day.fold(e)
	m.days[d.Day] = day

	m.Extrema.fold(day)
	y.Extrema.fold(m.Extrema)
}

// Len returns the number of day records.
func (ix *Index) Len() int { return ix.days }

// IsEmpty reports whether no sample has been recorded.
func (ix *Index) IsEmpty() bool { return ix.days == 0 }

// Years returns the recorded years in ascending order.
func (ix *Index) Years() []int {
	keys := make([]int, 0, len(ix.years))
	for k := range ix.years {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Year returns the extrema of year y.
func (ix *Index) Year(y int) (Extrema, bool) {
	n, ok := ix.years[y]
	if !ok {
		return Extrema{}, false
	}
	return n.Extrema, true
}

// Months returns the recorded months of year y in ascending order.
func (ix *Index) Months(y int) []int {
	n, ok := ix.years[y]
	if !ok {
		return nil
	}
	keys := make([]int, 0, len(n.months))
	for k := range n.months {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Month returns the extrema of month m in year y.
func (ix *Index) Month(y, m int) (Extrema, bool) {
	mn, ok := ix.month(y, m)
	if !ok {
		return Extrema{}, false
	}
	return mn.Extrema, true
}

// Days returns the recorded days of month m in year y in ascending order.
func (ix *Index) Days(y, m int) []int {
	mn, ok := ix.month(y, m)
	if !ok {
		return nil
	}
	keys := make([]int, 0, len(mn.days))
	for k := range mn.days {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Day returns the extrema recorded for d.
func (ix *Index) Day(d Date) (Extrema, bool) {
	mn, ok := ix.month(d.Year, d.Month)
	if !ok {
		return Extrema{}, false
	}
	e, ok := mn.days[d.Day]
	return e, ok
}

func (ix *Index) month(y, m int) (*monthNode, bool) {
	yn, ok := ix.years[y]
	if !ok {
		return nil, false
	}
	mn, ok := yn.months[m]
	return mn, ok
}

// Walk calls fn for every day record in chronological order.
func (ix *Index) Walk(fn func(d Date, e Extrema)) {
	for _, y := range ix.Years() {
		for _, m := range ix.Months(y) {
			for _, day := range ix.Days(y, m) {
				d := Date{Year: y, Month: m, Day: day}
				e, _ := ix.Day(d)
				fn(d, e)
			}
		}
	}
}

// Clone returns a deep copy that shares no state with ix.
func (ix *Index) Clone() *Index {
	out := NewIndex()
	ix.Walk(func(d Date, e Extrema) { out.fold(d, e) })
	return out
}

// Equal reports whether both indexes hold the same records at every level.
func (ix *Index) Equal(other *Index) bool {
	if other == nil {
		return ix.IsEmpty()
	}
	if ix.days != other.days || len(ix.years) != len(other.years) {
		return false
	}
	for y, yn := range ix.years {
		on, ok := other.years[y]
		if !ok || yn.Extrema != on.Extrema || len(yn.months) != len(on.months) {
			return false
		}
		for m, mn := range yn.months {
			om, ok := on.months[m]
			if !ok || mn.Extrema != om.Extrema || len(mn.days) != len(om.days) {
				return false
			}
			for d, e := range mn.days {
				if oe, ok := om.days[d]; !ok || oe != e {
					return false
				}
			}
		}
	}
	return true
}
