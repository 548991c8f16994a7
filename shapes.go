package crimeviz

import (
	"github.com/midbel/svg"
)

func GetCircle(pos svg.Pos, radius float64, color string) svg.Element {
	var el svg.Circle
	el.Class = append(el.Class, "marker")
	el.Pos = pos
	el.Fill = svg.Fill{Color: color, Opacity: 1}
	el.Radius = radius
	return el.AsElement()
}

// GetRing draws a hollow circle, used to follow the pointer on a curve.
func GetRing(pos svg.Pos, radius float64, color string) svg.Element {
	var el svg.Circle
	el.Class = append(el.Class, "focus")
	el.Pos = pos
	el.Fill = svg.NewFill("none")
	el.Stroke = svg.NewStroke(color, 1.5)
	el.Radius = radius
	return el.AsElement()
}

func GetSquare(pos svg.Pos, size float64, color string) svg.Element {
	half := size / 2
	pos.X -= half
	pos.Y -= half

	var el svg.Rect
	el.Class = append(el.Class, "swatch")
	el.Pos = pos
	el.Dim = svg.NewDim(size, size)
	el.Fill = svg.Fill{Color: color, Opacity: 1}
	return el.AsElement()
}
