// Package interact resolves pointer events on rendered charts into the state
// the charts are drawn with: hovered marks, hidden series and the floating
// label shared by every chart.
package interact

import (
	"math"
	"sort"
	"time"

	"github.com/midbel/crimeviz"
)

// Nearest returns the index of the domain value mapped closest to px. Values
// mapped to a non finite position are skipped and ties go to the first value.
func Nearest[T any](domain []T, scale func(T) float64, px float64) (int, bool) {
	var (
		best = -1
		dist = math.Inf(1)
	)
	for i, v := range domain {
		pos := scale(v)
		if math.IsNaN(pos) || math.IsInf(pos, 0) {
			continue
		}
		if d := math.Abs(pos - px); d < dist {
			dist = d
			best = i
		}
	}
	return best, best >= 0
}

// BisectLeft returns the first index in points[lo:] whose date is not before
// when. Points must be sorted by date.
func BisectLeft(points []crimeviz.TimePoint, when time.Time, lo int) int {
	lo = min(max(lo, 0), len(points))
	return lo + sort.Search(len(points)-lo, func(i int) bool {
		return !points[lo+i].Date.Before(when)
	})
}

// Closest returns the point of a sorted serie closest to when. The right
// neighbour only wins when strictly closer.
func Closest(points []crimeviz.TimePoint, when time.Time) (crimeviz.TimePoint, bool) {
	if len(points) == 0 {
		return crimeviz.TimePoint{}, false
	}
	i := BisectLeft(points, when, 1)
	var (
		d0, ok0 = at(points, i-1)
		d1, ok1 = at(points, i)
	)
	switch {
	case ok0 && ok1:
		if when.Sub(d0.Date) > d1.Date.Sub(when) {
			return d1, true
		}
		return d0, true
	case ok0:
		return d0, true
	case ok1:
		return d1, true
	default:
		return crimeviz.TimePoint{}, false
	}
}

func at(points []crimeviz.TimePoint, i int) (crimeviz.TimePoint, bool) {
	if i < 0 || i >= len(points) {
		return crimeviz.TimePoint{}, false
	}
	return points[i], true
}
