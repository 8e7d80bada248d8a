package history

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIndex_Record(t *testing.T) {
	Convey("Given an empty index", t, func() {
		ix := NewIndex()

		Convey("When two samples land on the same day", func() {
			d := Date{Year: 2, Month: 7, Day: 3}
			So(ix.Record(d, -4.0), ShouldBeNil)
			So(ix.Record(d, 9.5), ShouldBeNil)

			Convey("Then the day, month and year fold to the same extrema", func() {
				day, ok := ix.Day(d)
				So(ok, ShouldBeTrue)
				So(day, ShouldResemble, Extrema{Min: -4.0, Max: 9.5})

				month, ok := ix.Month(2, 7)
				So(ok, ShouldBeTrue)
				So(month, ShouldResemble, day)

				year, ok := ix.Year(2)
				So(ok, ShouldBeTrue)
				So(year, ShouldResemble, day)
				So(ix.Len(), ShouldEqual, 1)
			})
		})

		Convey("When samples 10.0 and 3.0 arrive in either order", func() {
			d := Date{Year: 1, Month: 1, Day: 1}
			other := NewIndex()
			So(ix.Record(d, 10.0), ShouldBeNil)
			So(ix.Record(d, 3.0), ShouldBeNil)
			So(other.Record(d, 3.0), ShouldBeNil)
			So(other.Record(d, 10.0), ShouldBeNil)

			Convey("Then both produce min 3 and max 10", func() {
				a, _ := ix.Day(d)
				b, _ := other.Day(d)
				So(a, ShouldResemble, Extrema{Min: 3.0, Max: 10.0})
				So(b, ShouldResemble, a)
				So(ix.Equal(other), ShouldBeTrue)
			})
		})

		Convey("When a sample is replayed that is not more extreme", func() {
			d := Date{Year: 3, Month: 12, Day: 9}
			So(ix.Record(d, 1.0), ShouldBeNil)
			So(ix.Record(d, 5.0), ShouldBeNil)
			before := ix.Clone()
			So(ix.Record(d, 2.5), ShouldBeNil)
			So(ix.Record(d, 2.5), ShouldBeNil)

			Convey("Then nothing changes", func() {
				So(ix.Equal(before), ShouldBeTrue)
			})
		})

		Convey("When invalid samples are recorded", func() {
			good := Date{Year: 1, Month: 2, Day: 3}
			So(errors.Is(ix.Record(good, math.NaN()), ErrInvalidSample), ShouldBeTrue)
			So(errors.Is(ix.Record(good, math.Inf(1)), ErrInvalidSample), ShouldBeTrue)
			So(errors.Is(ix.Record(good, math.Inf(-1)), ErrInvalidSample), ShouldBeTrue)
			So(errors.Is(ix.Record(Date{Year: 1, Month: 13, Day: 1}, 1), ErrInvalidSample), ShouldBeTrue)
			So(errors.Is(ix.Record(Date{Year: 1, Month: 0, Day: 1}, 1), ErrInvalidSample), ShouldBeTrue)
			So(errors.Is(ix.Record(Date{Year: 1, Month: 1, Day: 0}, 1), ErrInvalidSample), ShouldBeTrue)
			So(errors.Is(ix.Record(Date{Year: -1, Month: 1, Day: 1}, 1), ErrInvalidSample), ShouldBeTrue)

			Convey("Then the index stays empty", func() {
				So(ix.IsEmpty(), ShouldBeTrue)
				So(ix.Years(), ShouldBeEmpty)
			})
		})
	})
}

func TestIndex_FoldInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ix := NewIndex()

	for i := 0; i < 2000; i++ {
		d := Date{Year: rng.Intn(3), Month: 1 + rng.Intn(12), Day: 1 + rng.Intn(9)}
		v := rng.Float64()*80 - 40
		if err := ix.Record(d, v); err != nil {
			t.Fatalf("record %v: %v", d, err)
		}
		assertFolded(t, ix)
	}
}

// assertFolded re-derives every parent from its leaves and compares.
func assertFolded(t *testing.T, ix *Index) {
	t.Helper()
	for _, y := range ix.Years() {
		yWant := emptyExtrema()
		for _, m := range ix.Months(y) {
			mWant := emptyExtrema()
			for _, d := range ix.Days(y, m) {
				e, ok := ix.Day(Date{Year: y, Month: m, Day: d})
				if !ok {
					t.Fatalf("day %d-%d-%d listed but missing", y, m, d)
				}
				if e.Min > e.Max {
					t.Fatalf("day %d-%d-%d has min > max: %+v", y, m, d, e)
				}
				mWant.fold(e)
			}
			got, _ := ix.Month(y, m)
			if got != mWant {
				t.Fatalf("month %d-%d = %+v, want %+v", y, m, got, mWant)
			}
			yWant.fold(got)
		}
		got, _ := ix.Year(y)
		if got != yWant {
			t.Fatalf("year %d = %+v, want %+v", y, got, yWant)
		}
	}
}

func TestIndex_OrderedAccessors(t *testing.T) {
	ix := NewIndex()
	for _, d := range []Date{{10, 11, 2}, {2, 3, 9}, {2, 3, 1}, {2, 12, 1}, {10, 1, 1}} {
		if err := ix.Record(d, 1); err != nil {
			t.Fatal(err)
		}
	}

	if got := ix.Years(); len(got) != 2 || got[0] != 2 || got[1] != 10 {
		t.Errorf("Years() = %v", got)
	}
	if got := ix.Months(2); len(got) != 2 || got[0] != 3 || got[1] != 12 {
		t.Errorf("Months(2) = %v", got)
	}
	if got := ix.Days(2, 3); len(got) != 2 || got[0] != 1 || got[1] != 9 {
		t.Errorf("Days(2, 3) = %v", got)
	}
	if ix.Months(99) != nil || ix.Days(2, 5) != nil {
		t.Error("expected nil for missing parents")
	}

	var walked []Date
	ix.Walk(func(d Date, _ Extrema) { walked = append(walked, d) })
	want := []Date{{2, 3, 1}, {2, 3, 9}, {2, 12, 1}, {10, 1, 1}, {10, 11, 2}}
	if len(walked) != len(want) {
		t.Fatalf("walked %v", walked)
	}
	for i := range want {
		if walked[i] != want[i] {
			t.Errorf("walk[%d] = %v, want %v", i, walked[i], want[i])
		}
	}
}

func TestIndex_CloneIsIndependent(t *testing.T) {
	ix := NewIndex()
	d := Date{Year: 1, Month: 1, Day: 1}
	_ = ix.Record(d, 5)
	c := ix.Clone()
	_ = c.Record(d, -5)

	if e, _ := ix.Day(d); e.Min != 5 {
		t.Errorf("original mutated through clone: %+v", e)
	}
	if ix.Equal(c) {
		t.Error("expected clone to diverge")
	}
}

func TestIndex_ZeroValue(t *testing.T) {
	var ix Index
	if !ix.IsEmpty() {
		t.Fatal("zero index should be empty")
	}
	if err := ix.Record(Date{Year: 0, Month: 1, Day: 1}, 0); err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 1 {
		t.Errorf("Len() = %d", ix.Len())
	}
}

func TestDate_String(t *testing.T) {
	if got := (Date{Year: 2, Month: 7, Day: 3}).String(); got != "2-07-03" {
		t.Errorf("String() = %q", got)
	}
}
