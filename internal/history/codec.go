package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Document shape:
//
//	{"<year>": {"min": f, "max": f, "months": {"<MM>": {"min": f, "max": f,
//	    "days": {"<D>": {"min": f, "max": f}}}}}}
//
// Year keys are unpadded, month keys are zero-padded to two digits and day
// keys are unpadded.

type dayDoc struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type monthDoc struct {
	Min  float64           `json:"min"`
	Max  float64           `json:"max"`
	Days map[string]dayDoc `json:"days"`
}

type yearDoc struct {
	Min    float64             `json:"min"`
	Max    float64             `json:"max"`
	Months map[string]monthDoc `json:"months"`
}

// YearKey, MonthKey and DayKey format index keys the way they are written.
func YearKey(y int) string  { return strconv.Itoa(y) }
func MonthKey(m int) string { return fmt.Sprintf("%02d", m) }
func DayKey(d int) string   { return strconv.Itoa(d) }

// Encode serializes the whole index as an indented JSON document. An empty
// index encodes to {}.
func Encode(ix *Index) ([]byte, error) {
	root := make(map[string]yearDoc)
	if ix != nil {
		for y, yn := range ix.years {
			yd := yearDoc{Min: yn.Min, Max: yn.Max, Months: make(map[string]monthDoc, len(yn.months))}
			for m, mn := range yn.months {
				md := monthDoc{Min: mn.Min, Max: mn.Max, Days: make(map[string]dayDoc, len(mn.days))}
				for d, e := range mn.days {
					md.Days[DayKey(d)] = dayDoc{Min: e.Min, Max: e.Max}
				}
				yd.Months[MonthKey(m)] = md
			}
			root[YearKey(y)] = yd
		}
	}
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return out, nil
}

// IsBlank reports whether data carries no records at all: empty,
// whitespace-only, or an empty JSON object.
func IsBlank(data []byte) bool {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return true
	}
	if s[0] != '{' || s[len(s)-1] != '}' {
		return false
	}
	return strings.TrimSpace(s[1:len(s)-1]) == ""
}

var (
	digitsRe    = regexp.MustCompile(`^[0-9]+$`)
	legacyKeyRe = regexp.MustCompile(`^([0-9]+)-([0-9]{1,2})-([0-9]{1,2})$`)
)

// Decode parses a snapshot document. Year and month aggregates are always
// re-derived from the day records; stored aggregates are type-checked but not
// trusted. Month and day keys are accepted with or without leading zeros.
// Root-level "Y-MM-DD" keys from the older flat layout are migrated into the
// tree. Any structural violation returns an error wrapping
// ErrMalformedDocument.
func Decode(data []byte) (*Index, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, malformed("", "invalid json: %v", err)
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, malformed("", "trailing data after document")
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed("", "root is not an object")
	}

	ix := NewIndex()
	for key, node := range root {
		if m := legacyKeyRe.FindStringSubmatch(key); m != nil {
			d, err := parseDate(m[1], m[2], m[3])
			if err != nil {
				return nil, malformed(key, "%v", err)
			}
			e, err := decodeDay(key, node)
			if err != nil {
				return nil, err
			}
			ix.fold(d, e)
			continue
		}
		if err := decodeYear(ix, key, node); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

func decodeYear(ix *Index, key string, node any) error {
	if !digitsRe.MatchString(key) {
		return malformed(key, "invalid year key")
	}
	year, err := strconv.Atoi(key)
	if err != nil {
		return malformed(key, "invalid year key: %v", err)
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return malformed(key, "year is not an object")
	}
	if err := checkAggregates(key, obj); err != nil {
		return err
	}
	months, err := children(key, obj, "months")
	if err != nil {
		return err
	}
	for mk, mnode := range months {
		path := key + ".months." + mk
		month, err := parseKey(mk, 1, 12)
		if err != nil {
			return malformed(path, "invalid month key: %v", err)
		}
		mobj, ok := mnode.(map[string]any)
		if !ok {
			return malformed(path, "month is not an object")
		}
		if err := checkAggregates(path, mobj); err != nil {
			return err
		}
		days, err := children(path, mobj, "days")
		if err != nil {
			return err
		}
		for dk, dnode := range days {
			dpath := path + ".days." + dk
			day, err := parseKey(dk, 1, MaxDaysPerMonth)
			if err != nil {
				return malformed(dpath, "invalid day key: %v", err)
			}
			e, err := decodeDay(dpath, dnode)
			if err != nil {
				return err
			}
			ix.fold(Date{Year: year, Month: month, Day: day}, e)
		}
	}
	return nil
}

// children returns the non-empty child object stored under name. A parent
// without children has nothing to fold from and is rejected.
func children(path string, obj map[string]any, name string) (map[string]any, error) {
	raw, ok := obj[name]
	if !ok || raw == nil {
		return nil, malformed(path, "missing %s", name)
	}
	c, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed(path, "%s is not an object", name)
	}
	if len(c) == 0 {
		return nil, malformed(path, "%s is empty", name)
	}
	return c, nil
}

// checkAggregates validates the optional stored min/max of a parent node.
func checkAggregates(path string, obj map[string]any) error {
	for _, k := range []string{"min", "max"} {
		if _, _, err := number(path, obj, k); err != nil {
			return err
		}
	}
	return nil
}

func decodeDay(path string, node any) (Extrema, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return Extrema{}, malformed(path, "day is not an object")
	}
	lo, hasMin, err := number(path, obj, "min")
	if err != nil {
		return Extrema{}, err
	}
	hi, hasMax, err := number(path, obj, "max")
	if err != nil {
		return Extrema{}, err
	}
	switch {
	case !hasMin && !hasMax:
		return Extrema{}, malformed(path, "missing both min and max")
	case !hasMin:
		lo = hi
	case !hasMax:
		hi = lo
	}
	if lo > hi {
		return Extrema{}, malformed(path, "min %v greater than max %v", lo, hi)
	}
	return Extrema{Min: lo, Max: hi}, nil
}

// number reads obj[key]. Absent and null values report ok=false.
func number(path string, obj map[string]any, key string) (float64, bool, error) {
	raw, present := obj[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	n, isNum := raw.(json.Number)
	if !isNum {
		return 0, false, malformed(path, "%s is not a number", key)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false, malformed(path, "%s: %v", key, err)
	}
	return f, true, nil
}

func parseKey(s string, lo, hi int) (int, error) {
	if !digitsRe.MatchString(s) {
		return 0, fmt.Errorf("%q is not a decimal number", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d not in [%d, %d]", n, lo, hi)
	}
	return n, nil
}

func parseDate(y, m, d string) (Date, error) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return Date{}, err
	}
	month, err := parseKey(m, 1, 12)
	if err != nil {
		return Date{}, err
	}
	day, err := parseKey(d, 1, MaxDaysPerMonth)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

func malformed(path, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	return fmt.Errorf("%w: %s", ErrMalformedDocument, msg)
}
