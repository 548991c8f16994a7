package interact

import (
	"sync"
)

// Visibility tracks the series hidden from the legend. It survives relayouts
// of the chart it belongs to.
type Visibility struct {
	mu     sync.RWMutex
	hidden map[string]bool
}

func NewVisibility() *Visibility {
	return &Visibility{
		hidden: make(map[string]bool),
	}
}

// Toggle flips the visibility of a serie and reports whether it is visible
// afterwards.
func (v *Visibility) Toggle(label string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden[label] = !v.hidden[label]
	return !v.hidden[label]
}

func (v *Visibility) Hidden(label string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hidden[label]
}

func (v *Visibility) Visible(label string) bool {
	return !v.Hidden(label)
}

// Highlight remembers the mark under the pointer.
type Highlight struct {
	mu      sync.RWMutex
	hovered string
}

func (h *Highlight) Enter(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hovered = key
}

func (h *Highlight) Leave() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hovered = ""
}

func (h *Highlight) Hovered() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hovered
}

// Classes returns the emphasis classes of a serie: the hovered one stands
// out while the others are dimmed. Nothing changes when no serie is hovered.
func (h *Highlight) Classes(label string) []string {
	hovered := h.Hovered()
	switch {
	case hovered == "":
		return nil
	case hovered == label:
		return []string{"hovered"}
	default:
		return []string{"dimmed"}
	}
}
