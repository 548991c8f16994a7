package crimeviz

import (
	"math"
	"strings"

	"github.com/midbel/svg"
)

const (
	fullcircle = 2 * math.Pi
	halfcircle = math.Pi
	rad2deg    = 180 / math.Pi
)

func getBasePath(color string, width float64) svg.Path {
	var pat svg.Path
	pat.Rendering = "geometricPrecision"
	pat.Fill = svg.NewFill("none")
	if color != "" {
		pat.Stroke = svg.NewStroke(color, width)
	}
	return pat
}

func getBaseGroup(color string, class ...string) svg.Group {
	var g svg.Group
	if color != "" {
		g.Fill = svg.Fill{Color: color, Opacity: 1}
		g.Stroke = svg.NewStroke(color, 1)
	}
	for _, c := range class {
		if c != "" {
			g.Class = append(g.Class, c)
		}
	}
	return g
}

// getPosFromAngle places a point at radius along angle, where angle zero
// points up and angles grow clockwise.
func getPosFromAngle(angle, radius float64) svg.Pos {
	var (
		x = radius * math.Sin(angle)
		y = -radius * math.Cos(angle)
	)
	return svg.NewPos(x, y)
}

// Sector is an annular sector between two angles.
type Sector struct {
	Start     float64
	End       float64
	Inner     float64
	Outer     float64
	Pad       float64
	PadRadius float64
}

// Path draws the sector. The pad angle is applied as a constant linear
// distance computed at PadRadius, so both arcs keep the same gap.
func (s Sector) Path() svg.Path {
	var (
		pat = getBasePath("", 0)
		a00 = s.Start
		a01 = s.End
		a10 = s.Start
		a11 = s.End
		da  = math.Abs(s.End - s.Start)
	)
	if ap := s.Pad / 2; ap > 0 && s.PadRadius > 0 {
		p0 := math.Asin(math.Min(1, s.PadRadius/s.Inner*math.Sin(ap)))
		p1 := math.Asin(math.Min(1, s.PadRadius/s.Outer*math.Sin(ap)))
		if s.Inner <= 0 {
			p0 = 0
		}
		if da0 := da - p0*2; da0 > 0 {
			a00 += p0
			a01 -= p0
		} else {
			a00 = (s.Start + s.End) / 2
			a01 = a00
		}
		if da1 := da - p1*2; da1 > 0 {
			a10 += p1
			a11 -= p1
		} else {
			a10 = (s.Start + s.End) / 2
			a11 = a10
		}
	}
	var (
		outer = math.Abs(a11 - a10)
		inner = math.Abs(a01 - a00)
	)
	pat.AbsMoveTo(getPosFromAngle(a10, s.Outer))
	pat.AbsArcTo(getPosFromAngle(a11, s.Outer), s.Outer, s.Outer, 0, outer > halfcircle, true)
	pat.AbsLineTo(getPosFromAngle(a01, s.Inner))
	if s.Inner > 0 {
		pat.AbsArcTo(getPosFromAngle(a00, s.Inner), s.Inner, s.Inner, 0, inner > halfcircle, false)
	}
	pat.ClosePath()
	return pat
}

func linePath(pts []svg.Pos, color string, width float64) svg.Path {
	pat := getBasePath(color, width)
	for i, p := range pts {
		if i == 0 {
			pat.AbsMoveTo(p)
			continue
		}
		pat.AbsLineTo(p)
	}
	return pat
}

func pathLength(pts []svg.Pos) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return total
}

// monotonePath interpolates the points with a cubic curve that preserves
// monotonicity in y, assuming the points are ordered by x.
func monotonePath(pts []svg.Pos, color string, width float64) svg.Path {
	pat := getBasePath(color, width)
	if len(pts) == 0 {
		return pat
	}
	pat.AbsMoveTo(pts[0])
	switch n := len(pts); n {
	case 1:
		return pat
	case 2:
		pat.AbsLineTo(pts[1])
		return pat
	default:
		var t0 float64
		for i := 2; i < n; i++ {
			t1 := slope3(pts[i-2], pts[i-1], pts[i])
			if i == 2 {
				t0 = slope2(pts[0], pts[1], t1)
			}
			hermite(&pat, pts[i-2], pts[i-1], t0, t1)
			t0 = t1
		}
		hermite(&pat, pts[n-2], pts[n-1], t0, slope2(pts[n-2], pts[n-1], t0))
	}
	return pat
}

func hermite(pat *svg.Path, p0, p1 svg.Pos, t0, t1 float64) {
	dx := (p1.X - p0.X) / 3
	var (
		c1 = svg.NewPos(p0.X+dx, p0.Y+dx*t0)
		c2 = svg.NewPos(p1.X-dx, p1.Y-dx*t1)
	)
	pat.AbsCubicCurve(p1, c1, c2)
}

func slope2(p0, p1 svg.Pos, t float64) float64 {
	h := p1.X - p0.X
	if h == 0 {
		return t
	}
	return (3*(p1.Y-p0.Y)/h - t) / 2
}

func slope3(p0, p1, p2 svg.Pos) float64 {
	var (
		h0 = p1.X - p0.X
		h1 = p2.X - p1.X
		s0 = (p1.Y - p0.Y) / h0
		s1 = (p2.Y - p1.Y) / h1
		p  = (s0*h1 + s1*h0) / (h0 + h1)
	)
	v := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// pathData returns the content of the d attribute of the given path.
func pathData(pat svg.Path) string {
	var buf strings.Builder
	pat.Render(&buf)
	_, rest, ok := strings.Cut(buf.String(), `d="`)
	if !ok {
		return ""
	}
	d, _, _ := strings.Cut(rest, `"`)
	return d
}
