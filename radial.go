package crimeviz

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/midbel/slices"
	"github.com/midbel/svg"
)

var RadialPadding = Padding{
	Top:    55,
	Right:  30,
	Bottom: 30,
	Left:   30,
}

const (
	keySeparator = "__"

	outerRatio  = 0.5
	innerRatio  = 0.2
	dotRatio    = 0.025
	markerRatio = 0.05
	domainGrow  = 1.05
	padAngle    = 0.01
	labelOffset = 5

	CenterCaption = "Lockdown Phases"
)

var PhaseOrder = []string{
	"Pre-Lockdown",
	"Lockdown 1",
	"Post-Lockdown 1",
	"Lockdown 2",
	"Post-Lockdown 2",
	"Lockdown 3",
	"Post-Lockdown 3",
}

func phaseIndex(phase string) int {
	return slices.Index(PhaseOrder, func(p string) bool {
		return p == phase
	})
}

// SplitKey returns the label and the x value of a composite key.
func SplitKey(key string) (string, string) {
	label, x, _ := strings.Cut(key, keySeparator)
	return label, x
}

// OrderKeys sorts the composite keys by category, then by phase. Phases
// missing from the phase order come last and keep their relative order.
func OrderKeys(keys []string, categories []string) []string {
	catIndex := make(map[string]int)
	for i, c := range categories {
		catIndex[c] = i
	}
	list := make([]string, len(keys))
	copy(list, keys)
	sort.SliceStable(list, func(i, j int) bool {
		var (
			ci, pi = SplitKey(list[i])
			cj, pj = SplitKey(list[j])
		)
		if a, b := catIndex[ci], catIndex[cj]; a != b {
			return a < b
		}
		a, b := phaseIndex(pi), phaseIndex(pj)
		switch {
		case a < 0 && b < 0:
			return false
		case a < 0:
			return false
		case b < 0:
			return true
		default:
			return a < b
		}
	})
	return list
}

type BarLabel struct {
	X       float64
	Y       float64
	Rotate  float64
	Anchor  string
	Text    string
	Visible bool
}

type Bar struct {
	Point
	Index int
	Start float64
	End   float64
	Outer float64
	Color string
	Label BarLabel
}

func (b Bar) Mid() float64 {
	return (b.Start + b.End) / 2
}

type Marker struct {
	Category string
	Color    string
	Angle    float64
	Dot      svg.Pos
	Text     svg.Pos
	Anchor   string
}

type RadialGeometry struct {
	Budget
	Padding
	Base    float64
	Inner   float64
	Outer   float64
	CX      float64
	CY      float64
	Angle   BandScale
	Radius  RadialScale
	Ticks   []float64
	Bars    []Bar
	Markers []Marker
	Caption float64
}

func ComputeRadialGeometry(points []Point, b Budget) (RadialGeometry, error) {
	var g RadialGeometry
	points = slices.Filter(points, Point.Valid)
	if len(points) == 0 {
		return g, ErrNoData
	}
	if !b.Fits(MinRadialSize) {
		return g, fmt.Errorf("%w: %gx%g", ErrTooSmall, b.Width, b.Height)
	}
	g.Budget = b
	g.Padding = RadialPadding
	g.Base = math.Min(b.Inner(g.Padding))
	g.Outer = g.Base * outerRatio
	g.Inner = g.Base * innerRatio
	g.CX = b.Width / 2
	g.CY = b.Height / 2

	categories := Labels(points)
	sort.Strings(categories)

	keys := make([]string, 0, len(points))
	for _, p := range points {
		keys = append(keys, p.Key())
	}
	g.Angle = NewBandScale(OrderKeys(keys, categories), NewRange(0, fullcircle))

	var top float64
	for _, p := range points {
		top = math.Max(top, p.Y)
	}
	g.Radius = RadialScaler(0, top*domainGrow, NewRange(g.Inner, g.Outer))
	g.Ticks = g.Radius.Values(RadialTicks(g.Outer))

	for i, p := range points {
		g.Bars = append(g.Bars, g.bar(i, p))
	}
	for _, c := range categories {
		if m, ok := g.marker(c); ok {
			g.Markers = append(g.Markers, m)
		}
	}
	g.Caption = 11
	if g.Base < 300 {
		g.Caption = 9
	}
	return g, nil
}

// RadialTicks is the number of grid circles for the given outer radius.
func RadialTicks(outer float64) int {
	return max(3, min(5, int(math.Floor(outer/40))))
}

func (g RadialGeometry) bar(index int, p Point) Bar {
	b := Bar{
		Point: p,
		Index: index,
		Start: g.Angle.Scale(p.Key()),
		Color: CategoryColor(p.Label),
	}
	b.End = b.Start + g.Angle.Bandwidth()
	b.Outer = g.Radius.Scale(math.Max(0, p.Y))
	if math.IsNaN(b.Outer) || b.Outer < g.Inner {
		b.Outer = g.Inner
	}
	b.Label = g.barLabel(b)
	return b
}

func (g RadialGeometry) barLabel(b Bar) BarLabel {
	var (
		mid    = b.Mid()
		deg    = mid*rad2deg - 90
		radius = math.Max(g.Inner+labelOffset, b.Outer+labelOffset)
		angle  = mid - math.Pi/2
		lb     = BarLabel{
			X:       radius * math.Cos(angle),
			Y:       radius * math.Sin(angle),
			Rotate:  deg,
			Anchor:  "start",
			Text:    FormatThousands(b.Y),
			Visible: b.Y >= 0,
		}
	)
	if m := math.Mod(deg, 360); m > 90 && m < 270 {
		lb.Rotate += 180
		lb.Anchor = "end"
	}
	return lb
}

func (g RadialGeometry) marker(category string) (Marker, bool) {
	keys := slices.Filter(g.Angle.Domain, func(k string) bool {
		return strings.HasPrefix(k, category+keySeparator)
	})
	if len(keys) == 0 {
		return Marker{}, false
	}
	var (
		first = g.Angle.Scale(slices.Fst(keys))
		last  = g.Angle.Scale(slices.Lst(keys)) + g.Angle.Bandwidth()
		mid   = (first + last) / 2
		angle = mid - math.Pi/2
		dot   = g.Outer + g.Base*dotRatio
		text  = g.Outer + g.Base*markerRatio
	)
	m := Marker{
		Category: category,
		Color:    CategoryColor(category),
		Angle:    mid,
		Dot:      svg.NewPos(math.Cos(angle)*dot, math.Sin(angle)*dot),
		Text:     svg.NewPos(math.Cos(angle)*text, math.Sin(angle)*text),
		Anchor:   "middle",
	}
	switch deg := math.Mod(mid*rad2deg, 360); {
	case deg > 10 && deg < 170:
		m.Anchor = "start"
	case deg > 190 && deg < 350:
		m.Anchor = "end"
	}
	return m, true
}

func (g RadialGeometry) Sector(b Bar, outer float64) Sector {
	return Sector{
		Start:     b.Start,
		End:       b.End,
		Inner:     g.Inner,
		Outer:     outer,
		Pad:       padAngle,
		PadRadius: g.Inner,
	}
}

// BarState carries the interaction state applied to a rendered radial chart.
type BarState struct {
	Animate bool
	Hovered string
}

func (g RadialGeometry) Render(w io.Writer, style Style, title string, state BarState) error {
	el := newSurface(g.Budget)
	el.Class = append(el.Class, "radial-chart")
	el.ViewBox = svg.ViewBox{
		Pos: svg.NewPos(0, 0),
		Dim: svg.NewDim(g.Width, g.Height),
	}
	el.Ratio = svg.Ratio{Align: "xMidYMid", MeetOrSlice: "meet"}
	el.Title = escape(title)

	rules := style.barRules()
	if state.Animate {
		for _, b := range g.Bars {
			from := g.Sector(b, g.Inner).Path()
			rules = append(rules, style.growRule(b.Index, pathData(from)))
		}
	}
	el.Append(stylesheet(rules...))

	area := getBaseGroup("")
	area.Transform = svg.Translate(g.CX, g.CY)
	area.Append(g.renderGrid())
	area.Append(g.renderBars(state))
	area.Append(g.renderLabels(style))
	area.Append(g.renderMarkers(style))

	caption := svg.NewText(escape(CenterCaption))
	caption.Anchor = "middle"
	caption.Baseline = "middle"
	caption.Font = svg.NewFont(g.Caption)
	caption.Font.Weight = "bold"
	caption.Font.Fill = "currentColor"
	area.Append(caption.AsElement())

	el.Append(area.AsElement())
	return render(w, el.AsElement())
}

func (g RadialGeometry) renderGrid() svg.Element {
	grp := getBaseGroup("", "y-axis")
	for i, t := range g.Ticks {
		var c svg.Circle
		c.Class = append(c.Class, "grid-circle")
		c.Radius = g.Radius.Scale(t)
		c.Fill = svg.NewFill("none")
		c.Stroke = svg.NewStroke("currentColor", 1)
		c.Stroke.Opacity = 0.15
		c.Stroke.DashArray = []int{3, 3}
		grp.Append(c.AsElement())
		if i == 0 {
			continue
		}
		txt := svg.NewText(FormatSI(t))
		txt.Class = append(txt.Class, "tick-label")
		txt.Pos = svg.NewPos(4, -c.Radius)
		txt.Shift = svg.NewPos(0, -4)
		txt.Anchor = "start"
		txt.Font = svg.NewFont(9)
		txt.Font.Fill = "currentColor"
		grp.Append(txt.AsElement())
	}
	return grp.AsElement()
}

func (g RadialGeometry) renderBars(state BarState) svg.Element {
	grp := getBaseGroup("", "bars")
	for _, b := range g.Bars {
		pat := g.Sector(b, b.Outer).Path()
		pat.Fill = svg.Fill{Color: b.Color, Opacity: 1}
		pat.Class = []string{"radial-bar", "bar-" + Slugify(b.Point.Label), "bar-" + Slugify(b.X)}
		if state.Animate {
			pat.Class = append(pat.Class, fmt.Sprintf("grow-%d", b.Index))
		}
		if state.Hovered != "" && state.Hovered == b.Key() {
			pat.Class = append(pat.Class, "hovered")
		}
		pat.Data = []svg.Datum{
			{Name: "key", Value: escape(b.Key())},
			{Name: "count", Value: b.Y},
		}
		pat.Title = escape(fmt.Sprintf("%s - %s: %s", b.Point.Label, b.X, FormatThousands(b.Y)))
		grp.Append(pat.AsElement())
	}
	return grp.AsElement()
}

func (g RadialGeometry) renderLabels(style Style) svg.Element {
	grp := getBaseGroup("", "bar-labels")
	for _, b := range g.Bars {
		lg := getBaseGroup("")
		lg.Transform = svg.Translate(b.Label.X, b.Label.Y)
		lg.Transform.Rotate(b.Label.Rotate, 0, 0)
		lg.Data = []svg.Datum{
			{Name: "key", Value: escape(b.Key())},
		}
		if b.Label.Visible {
			txt := svg.NewText(b.Label.Text)
			txt.Anchor = b.Label.Anchor
			txt.Baseline = "middle"
			txt.Font = svg.NewFont(style.Bar.LabelSize)
			txt.Font.Fill = "currentColor"
			lg.Append(txt.AsElement())
		}
		grp.Append(lg.AsElement())
	}
	return grp.AsElement()
}

func (g RadialGeometry) renderMarkers(style Style) svg.Element {
	grp := getBaseGroup("", "category-markers")
	for _, m := range g.Markers {
		grp.Append(GetCircle(m.Dot, style.Bar.MarkerSize, m.Color))

		txt := svg.NewText(escape(m.Category))
		txt.Pos = m.Text
		txt.Shift = svg.NewPos(0, style.Bar.MarkerFontSize*0.35)
		txt.Anchor = m.Anchor
		txt.Font = svg.NewFont(style.Bar.MarkerFontSize)
		txt.Font.Fill = "currentColor"
		grp.Append(txt.AsElement())
	}
	return grp.AsElement()
}
