package crimeviz

import (
	"fmt"
	"io"
	"math"

	"github.com/midbel/slices"
	"github.com/midbel/svg"
)

var LinePadding = Padding{
	Top:    60,
	Right:  30,
	Bottom: 60,
	Left:   70,
}

const (
	LineYTicks     = 8
	defaultMaxY    = 10
	legendRowSize  = 20
	legendSwatch   = 12
	legendFontSize = 12
)

type LineGeometry struct {
	Budget
	Padding
	InnerWidth  float64
	InnerHeight float64

	X      PointScale
	Y      LinearScale
	Series []Serie
}

// YDomain returns the vertical domain shared by all line charts.
func YDomain(points []Point) (float64, float64) {
	top := math.NaN()
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		if math.IsNaN(top) || p.Y > top {
			top = p.Y
		}
	}
	if math.IsNaN(top) || top <= 0 {
		top = defaultMaxY
	}
	return 0, NiceCeil(top)
}

func ComputeLineGeometry(points []Point, b Budget) (LineGeometry, error) {
	var g LineGeometry
	points = slices.Filter(points, Point.Valid)
	if len(points) == 0 {
		return g, ErrNoData
	}
	if !b.Fits(MinRectSize) {
		return g, fmt.Errorf("%w: %gx%g", ErrTooSmall, b.Width, b.Height)
	}
	g.Budget = b
	g.Padding = LinePadding
	g.InnerWidth, g.InnerHeight = b.Inner(g.Padding)

	domain := Distinct(points)
	g.X = StringScaler(domain, NewRange(0, g.InnerWidth))

	lo, hi := YDomain(points)
	g.Y = NumberScaler(lo, hi, NewRange(g.InnerHeight, 0))

	colors := Tableau10.Ordinal(Labels(points))
	g.Series = GroupSeries(points, domain)
	for i := range g.Series {
		g.Series[i].Color = colors[g.Series[i].Label]
	}
	return g, nil
}

func (g LineGeometry) Positions(s Serie) []svg.Pos {
	list := make([]svg.Pos, 0, len(s.Points))
	for _, p := range s.Points {
		list = append(list, svg.NewPos(g.X.Scale(p.X), g.Y.Scale(p.Y)))
	}
	return list
}

// LineState carries the interaction state applied to a rendered line chart.
type LineState struct {
	Animate bool
	Hidden  func(string) bool
	Class   func(string) []string
}

func (g LineGeometry) Render(w io.Writer, style Style, state LineState) error {
	el := newSurface(g.Budget)
	el.Class = append(el.Class, "line-chart")

	rules := style.lineRules()
	el.Append(stylesheet(rules...))

	area := getBaseGroup("", "chart-group")
	area.Transform = svg.Translate(g.Left, g.Top)

	bottom := Axis[string]{
		Class:          "x-axis",
		Orientation:    OrientBottom,
		Scaler:         g.X,
		WithInnerTicks: true,
		WithLabelTicks: true,
	}
	left := Axis[float64]{
		Class:          "y-axis",
		Orientation:    OrientLeft,
		Ticks:          LineYTicks,
		Scaler:         g.Y,
		Format:         FormatThousands,
		WithInnerTicks: true,
		WithLabelTicks: true,
	}
	area.Append(bottom.Render(g.InnerWidth, g.InnerHeight, 0, g.InnerHeight))
	area.Append(left.Render(g.InnerHeight, g.InnerWidth, 0, 0))

	lines := getBaseGroup("", "lines")
	for _, s := range g.Series {
		var (
			pts = g.Positions(s)
			pat = linePath(pts, s.Color, style.Line.Width)
		)
		pat.Class = []string{"line-path", "line-" + Slugify(s.Label)}
		pat.Data = []svg.Datum{
			{Name: "label", Value: escape(s.Label)},
		}
		pat.Title = escape(s.Label)
		if state.Animate {
			n := int(math.Ceil(pathLength(pts)))
			pat.Stroke.DashArray = []int{n, n}
			pat.Stroke.DashOffset = []int{n}
			pat.Class = append(pat.Class, "animate")
		}
		if state.Hidden != nil && state.Hidden(s.Label) {
			pat.Class = append(pat.Class, "hidden")
		}
		if state.Class != nil {
			pat.Class = append(pat.Class, state.Class(s.Label)...)
		}
		lines.Append(pat.AsElement())
	}
	area.Append(lines.AsElement())
	el.Append(area.AsElement())
	return render(w, el.AsElement())
}

type LegendEntry struct {
	Label  string
	Color  string
	Hidden bool
}

func (g LineGeometry) Legend(hidden func(string) bool) []LegendEntry {
	list := make([]LegendEntry, 0, len(g.Series))
	for _, s := range g.Series {
		e := LegendEntry{
			Label: s.Label,
			Color: s.Color,
		}
		if hidden != nil {
			e.Hidden = hidden(s.Label)
		}
		list = append(list, e)
	}
	return list
}

// RenderLegend draws one clickable row per entry, hidden entries faded.
func RenderLegend(w io.Writer, style Style, entries []LegendEntry) error {
	var width float64
	for _, e := range entries {
		width = max(width, float64(len(e.Label)))
	}
	width = width*legendFontSize*0.6 + legendSwatch*2
	el := newSurface(NewBudget(width, float64(len(entries))*legendRowSize))
	el.Class = append(el.Class, "legend")
	el.Append(stylesheet(style.legendRules()...))

	for i, e := range entries {
		g := getBaseGroup("", "legend-item", "legend-"+Slugify(e.Label))
		g.Transform = svg.Translate(0, float64(i)*legendRowSize)
		g.Data = []svg.Datum{
			{Name: "label", Value: escape(e.Label)},
		}
		if e.Hidden {
			g.Class = append(g.Class, "hidden")
		}
		var sw svg.Rect
		sw.Class = append(sw.Class, "legend-color")
		sw.Pos = svg.NewPos(0, (legendRowSize-legendSwatch)/2)
		sw.Dim = svg.NewDim(legendSwatch, legendSwatch)
		sw.Fill = svg.Fill{Color: e.Color, Opacity: 1}

		txt := svg.NewText(escape(e.Label))
		txt.Pos = svg.NewPos(legendSwatch*1.5, legendRowSize/2)
		txt.Baseline = "middle"
		txt.Font = svg.NewFont(legendFontSize)
		txt.Font.Fill = "currentColor"

		g.Append(sw.AsElement())
		g.Append(txt.AsElement())
		el.Append(g.AsElement())
	}
	return render(w, el.AsElement())
}
