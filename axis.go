package crimeviz

import (
	"strconv"

	"github.com/midbel/svg"
)

const (
	FontSize     = 12.0
	TickFontSize = 10.0
	tickSize     = 6.0
)

type Orientation int

const (
	OrientTop Orientation = 1 << iota
	OrientRight
	OrientBottom
	OrientLeft
)

func (o Orientation) Vertical() bool {
	return o == OrientLeft || o == OrientRight
}

func (o Orientation) Reverse() bool {
	return o == OrientRight || o == OrientTop
}

type Axis[T ScalerConstraint] struct {
	Class string
	Orientation
	Ticks          int
	Scaler         Scaler[T]
	Domain         []T
	Format         func(T) string
	WithInnerTicks bool
	WithLabelTicks bool
	WithOuterTicks bool
}

func (a Axis[T]) Render(length, size, left, top float64) svg.Element {
	g := getBaseGroup("", "axis", a.Class)
	g.Transform = svg.Translate(left, top)
	d := domainLine(a.Orientation, length, svg.NewStroke("currentColor", 1))
	g.Append(d.AsElement())

	var (
		data   = a.Domain
		font   = svg.NewFont(TickFontSize)
		format = a.Format
	)
	font.Fill = "currentColor"
	if len(data) == 0 {
		data = a.Scaler.Values(a.Ticks)
	}
	if format == nil {
		format = formatAny[T]
	}
	for _, v := range data {
		var (
			pos = a.Scaler.Scale(v)
			grp = getBaseGroup("", "tick")
		)
		grp.Transform = svg.Translate(pos, 0)
		if a.Vertical() {
			grp.Transform = svg.Translate(0, pos)
		}
		if a.WithInnerTicks {
			tick := lineTick(a.Orientation, 0, tickSize, d.Stroke)
			grp.Append(tick.AsElement())
		}
		if a.WithLabelTicks {
			text := tickText(a.Orientation, escape(format(v)), 0, font)
			grp.Append(text.AsElement())
		}
		if a.WithOuterTicks {
			sk := d.Stroke
			sk.Opacity = 0.15
			sk.DashArray = []int{3, 3}
			tick := lineTick(a.Orientation, 0, -size, sk)
			grp.Append(tick.AsElement())
		}
		g.Append(grp.AsElement())
	}
	return g.AsElement()
}

func formatAny[T ScalerConstraint](v T) string {
	switch v := any(v).(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return ""
	}
}

func axisTitle(str string, x, y float64, rotate bool) svg.Element {
	txt := svg.NewText(escape(str))
	txt.Class = append(txt.Class, "axis-label")
	txt.Pos = svg.NewPos(x, y)
	txt.Anchor = "middle"
	txt.Font = svg.NewFont(FontSize)
	txt.Font.Fill = "currentColor"
	if rotate {
		txt.Transform.Rotate(-90, 0, 0)
	}
	return txt.AsElement()
}

func domainLine(orient Orientation, length float64, stroke svg.Stroke) svg.Line {
	x, y := length, 0.0
	if orient.Vertical() {
		x, y = y, x
	}
	d := svg.NewLine(svg.NewPos(0, 0), svg.NewPos(x, y))
	d.Class = append(d.Class, "domain")
	d.Stroke = stroke
	return d
}

func lineTick(orient Orientation, offset, size float64, stroke svg.Stroke) svg.Line {
	var (
		pos1 = svg.NewPos(offset, 0)
		pos2 = svg.NewPos(offset, size)
	)
	switch {
	case orient.Vertical() && !orient.Reverse():
		pos1 = svg.NewPos(0, offset)
		pos2 = svg.NewPos(-size, offset)
	case orient.Vertical() && orient.Reverse():
		pos1 = svg.NewPos(0, offset)
		pos2 = svg.NewPos(size, offset)
	case !orient.Vertical() && orient.Reverse():
		pos2.Y = -pos2.Y
	default:
	}
	tick := svg.NewLine(pos1, pos2)
	tick.Stroke = stroke
	return tick
}

func tickText(orient Orientation, str string, offset float64, font svg.Font) svg.Text {
	var (
		base   = "hanging"
		anchor = "middle"
		x, y   = offset, tickSize + 3
	)
	switch {
	case orient.Vertical() && !orient.Reverse():
		base = "middle"
		anchor = "end"
		x, y = -y, x
	case orient.Vertical() && orient.Reverse():
		base = "middle"
		anchor = "start"
		x, y = y, x
	case !orient.Vertical() && orient.Reverse():
		base = "auto"
		y = -y
	default:
	}
	text := svg.NewText(str)
	text.Pos = svg.NewPos(x, y)
	text.Font = font
	text.Anchor = anchor
	text.Baseline = base
	return text
}
