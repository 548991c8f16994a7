package crimeviz

import (
	"sort"
)

type Serie struct {
	Label  string
	Color  string
	Points []Point
}

func (s Serie) Find(x string) (Point, bool) {
	for _, p := range s.Points {
		if p.X == x {
			return p, true
		}
	}
	return Point{}, false
}

// GroupSeries groups points by label in order of first appearance. Points of
// each serie are ordered by the position of their x value in the domain.
func GroupSeries(points []Point, domain []string) []Serie {
	var (
		index  = make(map[string]int)
		series []Serie
	)
	for _, p := range points {
		ix, ok := index[p.Label]
		if !ok {
			ix = len(series)
			index[p.Label] = ix
			series = append(series, Serie{Label: p.Label})
		}
		series[ix].Points = append(series[ix].Points, p)
	}
	order := make(map[string]int)
	for i, x := range domain {
		order[x] = i
	}
	for i := range series {
		sort.SliceStable(series[i].Points, func(j, k int) bool {
			return order[series[i].Points[j].X] < order[series[i].Points[k].X]
		})
	}
	return series
}

// Labels returns the distinct labels in order of first appearance.
func Labels(points []Point) []string {
	var (
		seen = make(map[string]struct{})
		list []string
	)
	for _, p := range points {
		if _, ok := seen[p.Label]; ok {
			continue
		}
		seen[p.Label] = struct{}{}
		list = append(list, p.Label)
	}
	return list
}

// Distinct returns the sorted set of x values.
func Distinct(points []Point) []string {
	var (
		seen = make(map[string]struct{})
		list []string
	)
	for _, p := range points {
		if _, ok := seen[p.X]; ok {
			continue
		}
		seen[p.X] = struct{}{}
		list = append(list, p.X)
	}
	sort.Strings(list)
	return list
}
