package crimeviz

import (
	"fmt"
	"strings"
	"time"

	"github.com/midbel/svg"
)

type Style struct {
	Line struct {
		Width      float64
		HoverWidth float64
		DimOpacity float64
		Draw       time.Duration
	}
	Bar struct {
		Outline        string
		OutlineWidth   float64
		HoverOpacity   float64
		Grow           time.Duration
		Stagger        time.Duration
		LabelSize      float64
		MarkerSize     float64
		MarkerFontSize float64
	}
	Fade time.Duration
}

func DefaultStyle() Style {
	var s Style
	s.Line.Width = 2
	s.Line.HoverWidth = 3.5
	s.Line.DimOpacity = 0.2
	s.Line.Draw = 1500 * time.Millisecond
	s.Bar.Outline = "#333"
	s.Bar.OutlineWidth = 0.5
	s.Bar.HoverOpacity = 0.85
	s.Bar.Grow = 1200 * time.Millisecond
	s.Bar.Stagger = 3 * time.Millisecond
	s.Bar.LabelSize = 8
	s.Bar.MarkerSize = 4
	s.Bar.MarkerFontSize = 10
	s.Fade = 300 * time.Millisecond
	return s
}

func (s Style) lineRules() []string {
	return []string{
		fmt.Sprintf(".line-path{transition:opacity %dms;}", s.Fade.Milliseconds()),
		".line-path.hidden{opacity:0;pointer-events:none;}",
		fmt.Sprintf(".line-path.dimmed{opacity:%s;}", ftoa(s.Line.DimOpacity)),
		fmt.Sprintf(".line-path.hovered{opacity:1;stroke-width:%s;}", ftoa(s.Line.HoverWidth)),
		fmt.Sprintf(".line-path.animate{animation:draw-line %dms linear forwards;}", s.Line.Draw.Milliseconds()),
		"@keyframes draw-line{to{stroke-dashoffset:0;}}",
	}
}

func (s Style) legendRules() []string {
	return []string{
		fmt.Sprintf(".legend-item{cursor:pointer;transition:opacity %dms;}", s.Fade.Milliseconds()),
		".legend-item.hidden{opacity:0.4;}",
	}
}

func (s Style) barRules() []string {
	return []string{
		fmt.Sprintf(".radial-bar.hovered{stroke:%s;stroke-width:%s;opacity:%s;}", s.Bar.Outline, ftoa(s.Bar.OutlineWidth), ftoa(s.Bar.HoverOpacity)),
		".bar-labels g{cursor:default;}",
	}
}

// growRule makes the bar at index grow from the given path to its own shape.
func (s Style) growRule(index int, from string) string {
	var (
		name  = fmt.Sprintf("grow-%d", index)
		delay = time.Duration(index) * s.Bar.Stagger
	)
	return fmt.Sprintf(".radial-bar.grow-%d{animation:%s %dms ease-in-out %dms backwards;}@keyframes %s{from{d:path(\"%s\");}}", index, name, s.Bar.Grow.Milliseconds(), delay.Milliseconds(), name, from)
}

func stylesheet(rules ...string) svg.Element {
	st := svg.Style{
		Content: strings.Join(rules, "\n"),
	}
	return st.AsElement()
}

func ftoa(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
