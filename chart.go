package crimeviz

import (
	"bufio"
	"errors"
	"html"
	"io"

	"github.com/midbel/svg"
)

var (
	ErrNoData   = errors.New("no data")
	ErrTooSmall = errors.New("container too small")
)

const (
	MinRectSize   = 50.0
	MinRadialSize = 100.0
	MinInnerSize  = 10.0

	defaultTicks = 10
)

// Messages rendered in place of a chart when a layout cannot produce one.
const (
	MessageTooSmall      = "Container too small"
	MessageAreaTooSmall  = "Chart area too small"
	MessageNoData        = "No data available for this chart."
	MessageNoValidData   = "No valid data entries found to draw chart."
	MessageTargetMissing = "Chart rendering error: Target elements not found."
)

type Padding struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (p Padding) Horizontal() float64 {
	return p.Left + p.Right
}

func (p Padding) Vertical() float64 {
	return p.Top + p.Bottom
}

// Budget is the pixel size available to a chart.
type Budget struct {
	Width  float64
	Height float64
}

func NewBudget(w, h float64) Budget {
	return Budget{
		Width:  w,
		Height: h,
	}
}

func (b Budget) Fits(min float64) bool {
	return b.Width >= min && b.Height >= min
}

func (b Budget) Inner(p Padding) (float64, float64) {
	var (
		w = max(MinInnerSize, b.Width-p.Horizontal())
		h = max(MinInnerSize, b.Height-p.Vertical())
	)
	return w, h
}

// Mapping holds the display labels of a dataset.
type Mapping struct {
	X     string `json:"x" yaml:"x"`
	Y     string `json:"y" yaml:"y"`
	Label string `json:"label,omitempty" yaml:"label"`
	Chart string `json:"chart,omitempty" yaml:"chart"`
	Title string `json:"title,omitempty" yaml:"title"`
}

func newSurface(b Budget) svg.SVG {
	el := svg.NewSVG()
	el.OmitProlog = true
	el.Dim = svg.NewDim(b.Width, b.Height)
	return el
}

func render(w io.Writer, el svg.Element) error {
	bw := bufio.NewWriter(w)
	el.Render(bw)
	return bw.Flush()
}

// RenderMessage writes a surface whose only content is a centred message.
func RenderMessage(w io.Writer, b Budget, msg string) error {
	if b.Width <= 0 || b.Height <= 0 {
		b = NewBudget(MinRadialSize*3, MinRadialSize)
	}
	el := newSurface(b)
	el.Class = append(el.Class, "chart-message")

	txt := svg.NewText(escape(msg))
	txt.Pos = svg.NewPos(b.Width/2, b.Height/2)
	txt.Anchor = "middle"
	txt.Font = svg.NewFont(14)
	txt.Font.Fill = "currentColor"
	el.Append(txt.AsElement())

	return render(w, el.AsElement())
}

func escape(str string) string {
	return html.EscapeString(str)
}
