package interact

import (
	"html"
	"strings"
	"sync"
)

const (
	LabelOpacity = 0.9
	labelRise    = 28
)

// LabelState is a copy of the floating label at some point in time.
type LabelState struct {
	Owner   string
	Visible bool
	Left    float64
	Top     float64
	Title   string
	Lines   []string
}

// HTML renders the content of the label, the title in bold followed by one
// line per entry.
func (s LabelState) HTML() string {
	var buf strings.Builder
	buf.WriteString("<strong>")
	buf.WriteString(html.EscapeString(s.Title))
	buf.WriteString("</strong>")
	for _, line := range s.Lines {
		buf.WriteString("<br>")
		buf.WriteString(html.EscapeString(line))
	}
	return buf.String()
}

// Label is the floating label shared by all the charts of a page. Only its
// current owner can move or hide it; showing it transfers the ownership.
type Label struct {
	mu    sync.Mutex
	state LabelState
}

func NewLabel() *Label {
	return &Label{}
}

// Show makes owner the owner of the label and places it next to the pointer.
func (l *Label) Show(owner string, p Pointer, offset float64, title string, lines ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = LabelState{
		Owner:   owner,
		Visible: true,
		Left:    p.PageX + offset,
		Top:     p.PageY - labelRise,
		Title:   title,
		Lines:   append([]string(nil), lines...),
	}
}

func (l *Label) Move(owner string, p Pointer, offset float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Owner != owner {
		return false
	}
	l.state.Left = p.PageX + offset
	l.state.Top = p.PageY - labelRise
	return true
}

func (l *Label) Hide(owner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Owner != owner {
		return false
	}
	l.state.Visible = false
	return true
}

func (l *Label) Owner() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Owner
}

func (l *Label) State() LabelState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.Lines = append([]string(nil), l.state.Lines...)
	return s
}
