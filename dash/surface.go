package dash

import (
	"bytes"
	"io"
	"sync"

	"github.com/midbel/crimeviz"
)

// RootTarget is always present in a document. Messages for targets that can
// not be found are written there.
const RootTarget = "body"

// Target is a resizable area of a document holding rendered content.
type Target struct {
	id     string
	parent string

	mu        sync.Mutex
	size      crimeviz.Budget
	content   []byte
	observers map[int]func(crimeviz.Budget)
	next      int
}

func newTarget(id, parent string, size crimeviz.Budget) *Target {
	return &Target{
		id:        id,
		parent:    parent,
		size:      size,
		observers: make(map[int]func(crimeviz.Budget)),
	}
}

func (t *Target) ID() string {
	return t.id
}

func (t *Target) Parent() string {
	return t.parent
}

func (t *Target) Size() crimeviz.Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

func (t *Target) Observe(fn func(crimeviz.Budget)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	ix := t.next
	t.next++
	t.observers[ix] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, ix)
	}
}

func (t *Target) Observers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers)
}

func (t *Target) Draw(fn func(io.Writer) error) error {
	var buf bytes.Buffer
	err := fn(&buf)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.content = buf.Bytes()
	return err
}

// Resize changes the size of the target and notifies its observers when the
// size is different from the previous one.
func (t *Target) Resize(size crimeviz.Budget) {
	t.mu.Lock()
	if t.size == size {
		t.mu.Unlock()
		return
	}
	t.size = size
	list := make([]func(crimeviz.Budget), 0, len(t.observers))
	for _, fn := range t.observers {
		list = append(list, fn)
	}
	t.mu.Unlock()

	for _, fn := range list {
		fn(size)
	}
}

func (t *Target) Content() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bytes.Clone(t.content)
}

func (t *Target) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t.Content())
	return int64(n), err
}

// Document is the set of targets charts are drawn into.
type Document struct {
	mu      sync.RWMutex
	targets map[string]*Target
}

func NewDocument(size crimeviz.Budget) *Document {
	d := Document{
		targets: make(map[string]*Target),
	}
	d.targets[RootTarget] = newTarget(RootTarget, "", size)
	return &d
}

// Add creates a target below parent. An existing target is returned as is.
// Unknown parents fall back to the root of the document.
func (d *Document) Add(id, parent string, size crimeviz.Budget) *Target {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.targets[id]; ok {
		return t
	}
	if _, ok := d.targets[parent]; !ok {
		parent = RootTarget
	}
	t := newTarget(id, parent, size)
	d.targets[id] = t
	return t
}

func (d *Document) Lookup(id string) (*Target, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.targets[id]
	return t, ok
}

func (d *Document) Remove(id string) {
	if id == RootTarget {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.targets, id)
}

// Ancestor returns the closest existing container of id: its parent when
// id is known, the root of the document otherwise.
func (d *Document) Ancestor(id string) *Target {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if t, ok := d.targets[id]; ok {
		if p, ok := d.targets[t.parent]; ok {
			return p
		}
	}
	return d.targets[RootTarget]
}

func (d *Document) Root() *Target {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.targets[RootTarget]
}
