package crimeviz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var BreakQuantiles = []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}

// Quantile returns the p-quantile of sorted values, interpolating linearly
// between the two closest ranks.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	if p <= 0 || n == 1 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	var (
		i  = (float64(n) - 1) * p
		i0 = math.Floor(i)
		v0 = sorted[int(i0)]
		v1 = sorted[int(i0)+1]
	)
	return v0 + (v1-v0)*(i-i0)
}

func positives(counts map[string]float64) []float64 {
	var list []float64
	for _, v := range counts {
		if v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			list = append(list, v)
		}
	}
	sort.Float64s(list)
	return list
}

// Breaks computes the class limits of a choropleth from the positive counts.
func Breaks(counts map[string]float64) []float64 {
	values := positives(counts)
	var list []float64
	for _, q := range BreakQuantiles {
		b := Quantile(values, q)
		if math.IsNaN(b) {
			continue
		}
		if len(list) > 0 && list[len(list)-1] == b {
			continue
		}
		list = append(list, b)
	}
	if len(list) < 2 {
		top := 1.0
		if len(values) > 0 {
			top = floats.Max(values)
		}
		list = []float64{0, top}
	}
	return list
}

// ThresholdScale maps a value to the color of the first threshold above it.
type ThresholdScale struct {
	Domain []float64
	Colors Palette
}

func NewThresholdScale(breaks []float64) ThresholdScale {
	s := ThresholdScale{
		Colors: BluesScheme(len(breaks)),
	}
	if len(breaks) > 1 {
		s.Domain = append(s.Domain, breaks[1:]...)
	}
	return s
}

func (s ThresholdScale) Color(v float64) string {
	if len(s.Colors) == 0 {
		return NoDataColor
	}
	ix := sort.Search(len(s.Domain), func(i int) bool {
		return s.Domain[i] > v
	})
	if ix >= len(s.Colors) {
		ix = len(s.Colors) - 1
	}
	return s.Colors[ix]
}

const (
	UnnamedColor = "#CCC"
	NoDataColor  = "#FFFFFF"
	BorderColor  = "#BBB"
	HighColor    = "#666"
)

type FeatureStyle struct {
	Fill        string
	FillOpacity float64
	Border      string
	Weight      float64
	Opacity     float64
}

// StyleFeature returns how a region is painted given its name and the counts.
func StyleFeature(name string, counts map[string]float64, scale ThresholdScale) FeatureStyle {
	if name == "" {
		return FeatureStyle{
			Fill:        UnnamedColor,
			FillOpacity: 0.5,
			Border:      BorderColor,
			Weight:      1,
		}
	}
	st := FeatureStyle{
		Fill:        NoDataColor,
		FillOpacity: 0.7,
		Border:      BorderColor,
		Weight:      1,
		Opacity:     1,
	}
	if v, ok := counts[name]; ok && v > 0 {
		st.Fill = scale.Color(v)
	}
	return st
}

func (f FeatureStyle) Highlight() FeatureStyle {
	f.Weight = 3
	f.Border = HighColor
	f.FillOpacity = 0.9
	return f
}

type Grade struct {
	From  float64
	Color string
	Label string
}

// LegendGrades lists the colored blocks of the map legend followed by an open
// ended estimate of the next limit.
func LegendGrades(breaks []float64, scale ThresholdScale) ([]Grade, string) {
	if len(breaks) == 0 {
		return nil, ""
	}
	var list []Grade
	for i, b := range breaks {
		sample := b + 1
		if i == 0 {
			sample = b + 0.1
		}
		list = append(list, Grade{
			From:  b,
			Color: scale.Color(sample),
			Label: FormatSI(b),
		})
	}
	last := breaks[len(breaks)-1]
	next := last * 1.1
	if len(breaks) > 1 {
		next = last + (breaks[1] - breaks[0])
	}
	return list, FormatSI(next) + "+"
}

type Summary struct {
	Regions  int
	WithData int
	Total    float64
	Mean     float64
	Max      float64
}

// Summarize describes the counts of the regions having positive values.
func Summarize(counts map[string]float64) Summary {
	values := positives(counts)
	s := Summary{
		Regions:  len(counts),
		WithData: len(values),
	}
	if len(values) == 0 {
		return s
	}
	s.Total = floats.Sum(values)
	s.Mean = stat.Mean(values, nil)
	s.Max = floats.Max(values)
	return s
}
