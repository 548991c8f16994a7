package dash

import (
	"time"

	"github.com/midbel/crimeviz"
)

// StyleConfig overrides the drawing style of the charts. Zero values keep
// the default.
type StyleConfig struct {
	LineWidth  float64       `yaml:"line-width"`
	HoverWidth float64       `yaml:"hover-width"`
	DimOpacity float64       `yaml:"dim-opacity"`
	LineDraw   time.Duration `yaml:"line-draw"`
	BarOutline string        `yaml:"bar-outline"`
	BarGrow    time.Duration `yaml:"bar-grow"`
	BarStagger time.Duration `yaml:"bar-stagger"`
	LabelSize  float64       `yaml:"label-size"`
	Fade       time.Duration `yaml:"fade"`
}

func (c StyleConfig) Apply(s crimeviz.Style) crimeviz.Style {
	if c.LineWidth > 0 {
		s.Line.Width = c.LineWidth
	}
	if c.HoverWidth > 0 {
		s.Line.HoverWidth = c.HoverWidth
	}
	if c.DimOpacity > 0 && c.DimOpacity <= 1 {
		s.Line.DimOpacity = c.DimOpacity
	}
	if c.LineDraw > 0 {
		s.Line.Draw = c.LineDraw
	}
	if c.BarOutline != "" {
		s.Bar.Outline = c.BarOutline
	}
	if c.BarGrow > 0 {
		s.Bar.Grow = c.BarGrow
	}
	if c.BarStagger > 0 {
		s.Bar.Stagger = c.BarStagger
	}
	if c.LabelSize > 0 {
		s.Bar.LabelSize = c.LabelSize
	}
	if c.Fade > 0 {
		s.Fade = c.Fade
	}
	return s
}

func (d *Dashboard) SetStyle(s crimeviz.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.style = s
}
