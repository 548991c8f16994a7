package interact

import (
	"fmt"
	"sync"

	"github.com/midbel/crimeviz"
)

// Pointer is a pointer position. X and Y are relative to the plotting area of
// the chart, PageX and PageY to the page holding the floating label.
type Pointer struct {
	X     float64
	Y     float64
	PageX float64
	PageY float64
}

const (
	lineOffset   = 10
	radialOffset = 5
	detailOffset = 15
)

type LineHandler struct {
	owner   string
	label   *Label
	visible *Visibility
	focus   Highlight

	mu      sync.RWMutex
	geom    crimeviz.LineGeometry
	mapping crimeviz.Mapping
}

func NewLineHandler(owner string, label *Label, visible *Visibility) *LineHandler {
	if visible == nil {
		visible = NewVisibility()
	}
	return &LineHandler{
		owner:   owner,
		label:   label,
		visible: visible,
	}
}

// Update gives the handler the geometry of the last layout.
func (h *LineHandler) Update(g crimeviz.LineGeometry, m crimeviz.Mapping) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.geom = g
	h.mapping = m
}

// Enter highlights serie and fills the label with the point of the serie
// nearest to the pointer. Hidden series do not react to the pointer.
func (h *LineHandler) Enter(serie string, p Pointer) bool {
	if h.visible.Hidden(serie) {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	var (
		s     crimeviz.Serie
		found bool
	)
	for _, x := range h.geom.Series {
		if x.Label == serie {
			s, found = x, true
			break
		}
	}
	if !found {
		return false
	}
	h.focus.Enter(serie)

	var lines []string
	if ix, ok := Nearest(h.geom.X.Domain, h.geom.X.Scale, p.X); ok {
		if pt, ok := s.Find(h.geom.X.Domain[ix]); ok {
			lines = append(lines,
				fmt.Sprintf("%s: %s", h.mapping.X, pt.X),
				fmt.Sprintf("%s: %s", h.mapping.Y, crimeviz.FormatThousands(pt.Y)),
			)
		}
	}
	h.label.Show(h.owner, p, lineOffset, serie, lines...)
	return true
}

func (h *LineHandler) Move(p Pointer) {
	h.label.Move(h.owner, p, lineOffset)
}

// Leave restores every visible serie. Hidden series stay hidden.
func (h *LineHandler) Leave() {
	h.focus.Leave()
	h.label.Hide(h.owner)
}

// Toggle flips the visibility of a serie from the legend.
func (h *LineHandler) Toggle(serie string) bool {
	visible := h.visible.Toggle(serie)
	if !visible && h.focus.Hovered() == serie {
		h.Leave()
	}
	return visible
}

func (h *LineHandler) Hovered() string {
	return h.focus.Hovered()
}

// State returns how the series have to be drawn.
func (h *LineHandler) State(animate bool) crimeviz.LineState {
	return crimeviz.LineState{
		Animate: animate,
		Hidden:  h.visible.Hidden,
		Class: func(label string) []string {
			if h.visible.Hidden(label) {
				return nil
			}
			return h.focus.Classes(label)
		},
	}
}

func (h *LineHandler) Legend() []crimeviz.LegendEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.geom.Legend(h.visible.Hidden)
}

type RadialHandler struct {
	owner string
	label *Label
	focus Highlight

	mu   sync.RWMutex
	bars map[string]crimeviz.Bar
}

func NewRadialHandler(owner string, label *Label) *RadialHandler {
	return &RadialHandler{
		owner: owner,
		label: label,
		bars:  make(map[string]crimeviz.Bar),
	}
}

func (h *RadialHandler) Update(g crimeviz.RadialGeometry) {
	bars := make(map[string]crimeviz.Bar)
	for _, b := range g.Bars {
		bars[b.Key()] = b
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bars = bars
}

// Enter outlines the bar, reached either from the bar itself or from its
// value label.
func (h *RadialHandler) Enter(key string, p Pointer) bool {
	h.mu.RLock()
	b, ok := h.bars[key]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.focus.Enter(key)
	h.label.Show(h.owner, p, radialOffset, b.Point.Label,
		fmt.Sprintf("Phase: %s", b.X),
		fmt.Sprintf("Count: %s", crimeviz.FormatThousands(b.Y)),
	)
	return true
}

func (h *RadialHandler) Move(p Pointer) {
	h.label.Move(h.owner, p, radialOffset)
}

func (h *RadialHandler) Leave() {
	h.focus.Leave()
	h.label.Hide(h.owner)
}

func (h *RadialHandler) State(animate bool) crimeviz.BarState {
	return crimeviz.BarState{
		Animate: animate,
		Hovered: h.focus.Hovered(),
	}
}

type TimeHandler struct {
	owner string
	label *Label

	mu    sync.RWMutex
	geom  crimeviz.TimeGeometry
	focus crimeviz.Focus
}

func NewTimeHandler(owner string, label *Label) *TimeHandler {
	return &TimeHandler{
		owner: owner,
		label: label,
	}
}

func (h *TimeHandler) Update(g crimeviz.TimeGeometry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.geom = g
	h.focus = crimeviz.Focus{}
}

// Move places the focus on the month closest to the pointer.
func (h *TimeHandler) Move(p Pointer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	pt, ok := Closest(h.geom.Points, h.geom.X.Invert(p.X))
	if !ok {
		return false
	}
	h.focus = crimeviz.Focus{
		Visible: true,
		Point:   pt,
	}
	h.label.Show(h.owner, p, detailOffset, crimeviz.FormatTooltipDate(pt.Date),
		fmt.Sprintf("Count: %s", crimeviz.FormatThousands(pt.Count)),
	)
	return true
}

func (h *TimeHandler) Leave() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focus = crimeviz.Focus{}
	h.label.Hide(h.owner)
}

func (h *TimeHandler) Focus() crimeviz.Focus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.focus
}
