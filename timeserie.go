package crimeviz

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/midbel/svg"
)

var DetailPadding = Padding{
	Top:    30,
	Right:  40,
	Bottom: 70,
	Left:   70,
}

const (
	DetailHeight = 450.0
	DetailYTicks = 8

	detailColor  = "steelblue"
	detailWidth  = 1.5
	focusRadius  = 4.5
	pixelPerTick = 80
	yGrow        = 1.1
)

func DetailTitle(crimeType, borough string) string {
	return fmt.Sprintf("Monthly Count Data for Crime - %s (2014–2024) - %s", crimeType, borough)
}

type TimeGeometry struct {
	Budget
	Padding
	InnerWidth  float64
	InnerHeight float64

	X      TimeScale
	Y      LinearScale
	Points []TimePoint
}

// ComputeTimeGeometry lays out a monthly serie in a container of the given
// width. The height of the detail chart is fixed.
func ComputeTimeGeometry(points []TimePoint, width float64) (TimeGeometry, error) {
	var g TimeGeometry
	if width < MinRadialSize {
		return g, fmt.Errorf("%w: width %g", ErrTooSmall, width)
	}
	list := make([]TimePoint, 0, len(points))
	for _, p := range points {
		if p.Date.IsZero() || math.IsNaN(p.Count) || math.IsInf(p.Count, 0) {
			continue
		}
		list = append(list, p)
	}
	if len(list) == 0 {
		return g, ErrNoData
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.Before(list[j].Date)
	})
	g.Budget = NewBudget(width, DetailHeight)
	g.Padding = DetailPadding
	g.InnerWidth, g.InnerHeight = g.Inner(g.Padding)
	g.Points = list

	g.X = TimeScaler(list[0].Date, list[len(list)-1].Date, NewRange(0, g.InnerWidth))

	var top float64
	for _, p := range list {
		top = math.Max(top, p.Count)
	}
	top *= yGrow
	if top == 0 || math.IsNaN(top) {
		top = defaultMaxY
	}
	g.Y = NumberScaler(0, top, NewRange(g.InnerHeight, 0)).Nice(defaultTicks)
	return g, nil
}

func (g TimeGeometry) XTicks() int {
	return int(g.InnerWidth / pixelPerTick)
}

func (g TimeGeometry) Position(p TimePoint) svg.Pos {
	return svg.NewPos(g.X.Scale(p.Date), g.Y.Scale(p.Count))
}

func (g TimeGeometry) Positions() []svg.Pos {
	list := make([]svg.Pos, 0, len(g.Points))
	for _, p := range g.Points {
		list = append(list, g.Position(p))
	}
	return list
}

// Focus is the point highlighted under the pointer.
type Focus struct {
	Visible bool
	Point   TimePoint
}

func FormatMonth(t time.Time) string {
	if t.Month() == time.January {
		return t.Format("2006")
	}
	return t.Format("January")
}

func FormatTooltipDate(t time.Time) string {
	return t.Format("January 2006")
}

func (g TimeGeometry) Render(w io.Writer, title string, focus Focus) error {
	el := newSurface(g.Budget)
	el.Class = append(el.Class, "detail-chart")
	el.Title = escape(title)

	area := getBaseGroup("", "chart-group")
	area.Transform = svg.Translate(g.Left, g.Top)

	bottom := Axis[time.Time]{
		Class:          "x-axis",
		Orientation:    OrientBottom,
		Ticks:          g.XTicks(),
		Scaler:         g.X,
		Format:         FormatMonth,
		WithInnerTicks: true,
		WithLabelTicks: true,
	}
	left := Axis[float64]{
		Class:          "y-axis",
		Orientation:    OrientLeft,
		Ticks:          DetailYTicks,
		Scaler:         g.Y,
		Format:         FormatThousands,
		WithInnerTicks: true,
		WithLabelTicks: true,
	}
	area.Append(bottom.Render(g.InnerWidth, g.InnerHeight, 0, g.InnerHeight))
	area.Append(left.Render(g.InnerHeight, g.InnerWidth, 0, 0))
	area.Append(axisTitle("Date (Month/Year)", g.InnerWidth/2, g.InnerHeight+g.Bottom/1.5, false))
	area.Append(axisTitle("Number of Crimes", -g.InnerHeight/2, -g.Left/1.5, true))

	pat := monotonePath(g.Positions(), detailColor, detailWidth)
	pat.Class = append(pat.Class, "line")
	area.Append(pat.AsElement())
	area.Append(g.renderFocus(focus))

	var overlay svg.Rect
	overlay.Class = append(overlay.Class, "overlay")
	overlay.Dim = svg.NewDim(g.InnerWidth, g.InnerHeight)
	overlay.Fill = svg.NewFill("none")
	area.Append(overlay.AsElement())

	el.Append(area.AsElement())
	return render(w, el.AsElement())
}

func (g TimeGeometry) renderFocus(focus Focus) svg.Element {
	grp := getBaseGroup("", "focus-group")
	if !focus.Visible {
		grp.Class = append(grp.Class, "hidden")
		return grp.AsElement()
	}
	pos := g.Position(focus.Point)

	guide := svg.NewLine(svg.NewPos(pos.X, 0), svg.NewPos(pos.X, g.InnerHeight))
	guide.Class = append(guide.Class, "focus-line")
	guide.Stroke = svg.NewStroke("gray", 1)
	guide.Stroke.DashArray = []int{3, 3}
	guide.Stroke.Opacity = 0.5

	grp.Append(GetRing(pos, focusRadius, "black"))
	grp.Append(guide.AsElement())
	grp.Data = []svg.Datum{
		{Name: "date", Value: FormatTooltipDate(focus.Point.Date)},
		{Name: "count", Value: focus.Point.Count},
	}
	return grp.AsElement()
}
