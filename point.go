package crimeviz

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is a row as it arrives from a dataset, before coercion.
type Record struct {
	Label string `json:"label"`
	X     any    `json:"x"`
	Y     any    `json:"y"`
}

// Point is one observation of a series.
type Point struct {
	Label string
	X     string
	Y     float64
}

func CategoryPoint(label, x string, y float64) Point {
	return Point{
		Label: label,
		X:     x,
		Y:     y,
	}
}

func (p Point) Key() string {
	return p.Label + keySeparator + p.X
}

func (p Point) Valid() bool {
	return !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Point coerces the record. It reports false when x or y can not be used.
func (r Record) Point() (Point, bool) {
	x, ok := coerceString(r.X)
	if !ok {
		return Point{}, false
	}
	y, ok := coerceNumber(r.Y)
	if !ok {
		return Point{}, false
	}
	pt := CategoryPoint(r.Label, x, y)
	return pt, pt.Valid()
}

// Points coerces all records, dropping the malformed ones.
func Points(rs []Record) []Point {
	list := make([]Point, 0, len(rs))
	for _, r := range rs {
		if pt, ok := r.Point(); ok {
			list = append(list, pt)
		}
	}
	return list
}

type TimeRecord struct {
	Date  string `json:"date"`
	Count any    `json:"count"`
}

type TimePoint struct {
	Date  time.Time
	Count float64
}

func TimeValue(when time.Time, count float64) TimePoint {
	return TimePoint{
		Date:  when,
		Count: count,
	}
}

const MonthLayout = "2006-01"

func (r TimeRecord) Point() (TimePoint, bool) {
	when, err := time.Parse(MonthLayout, strings.TrimSpace(r.Date))
	if err != nil {
		return TimePoint{}, false
	}
	n, ok := coerceNumber(r.Count)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return TimePoint{}, false
	}
	return TimeValue(when, n), true
}

func coerceString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

func coerceNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
