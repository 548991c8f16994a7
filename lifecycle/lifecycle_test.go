package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/midbel/crimeviz"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"pgregory.net/rapid"
)

type fakeSurface struct {
	id string

	mu        sync.Mutex
	size      crimeviz.Budget
	observers map[int]func(crimeviz.Budget)
	next      int
	content   bytes.Buffer
	draws     int
}

func newSurface(id string, w, h float64) *fakeSurface {
	return &fakeSurface{
		id:        id,
		size:      crimeviz.NewBudget(w, h),
		observers: make(map[int]func(crimeviz.Budget)),
	}
}

func (s *fakeSurface) ID() string {
	return s.id
}

func (s *fakeSurface) Size() crimeviz.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *fakeSurface) Observe(fn func(crimeviz.Budget)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix := s.next
	s.next++
	s.observers[ix] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, ix)
	}
}

func (s *fakeSurface) Draw(fn func(io.Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content.Reset()
	s.draws++
	return fn(&s.content)
}

func (s *fakeSurface) resize(w, h float64) {
	s.mu.Lock()
	s.size = crimeviz.NewBudget(w, h)
	list := make([]func(crimeviz.Budget), 0, len(s.observers))
	for _, fn := range s.observers {
		list = append(list, fn)
	}
	size := s.size
	s.mu.Unlock()
	for _, fn := range list {
		fn(size)
	}
}

func (s *fakeSurface) observed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

type fakeChart struct {
	min float64

	mu     sync.Mutex
	sizes  []crimeviz.Budget
	firsts []bool
}

func (c *fakeChart) Kind() string {
	return "fake"
}

func (c *fakeChart) Layout(w io.Writer, size crimeviz.Budget, first bool) error {
	c.mu.Lock()
	c.sizes = append(c.sizes, size)
	c.firsts = append(c.firsts, first)
	c.mu.Unlock()
	if !size.Fits(c.min) {
		io.WriteString(w, crimeviz.MessageTooSmall)
		return crimeviz.ErrTooSmall
	}
	io.WriteString(w, "chart")
	return nil
}

func (c *fakeChart) layouts() []crimeviz.Budget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]crimeviz.Budget(nil), c.sizes...)
}

func TestDebouncerCoalesce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var (
			clock = NewManualClock()
			deb   = NewDebouncer(DefaultDebounce, clock)
			calls int
			last  int
			n     = rapid.IntRange(1, 20).Draw(t, "triggers")
		)
		for i := 0; i < n; i++ {
			v := i
			deb.Trigger(func() {
				calls++
				last = v
			})
			gap := rapid.Int64Range(0, int64(DefaultDebounce)-1).Draw(t, "gap")
			clock.Advance(time.Duration(gap))
		}
		clock.Advance(DefaultDebounce)
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
		if last != n-1 {
			t.Fatalf("expected last trigger (%d) to run, got %d", n-1, last)
		}
	})
}

func TestDebouncerCancel(t *testing.T) {
	var (
		clock = NewManualClock()
		deb   = NewDebouncer(DefaultDebounce, clock)
		calls int
	)
	deb.Trigger(func() { calls++ })
	if !deb.Pending() {
		t.Fatalf("expected a pending call")
	}
	if !deb.Cancel() {
		t.Fatalf("cancel should report the dropped call")
	}
	clock.Advance(time.Second)
	if calls != 0 {
		t.Fatalf("cancelled call ran %d times", calls)
	}
	if deb.Cancel() {
		t.Fatalf("nothing left to cancel")
	}
}

func TestResizeBurst(t *testing.T) {
	var (
		clock   = NewManualClock()
		ctrl    = NewController(WithClock(clock))
		surface = newSurface("chart", 640, 480)
		chart   = fakeChart{min: 50}
	)
	inst, err := ctrl.Attach(surface, &chart)
	if err != nil {
		t.Fatalf("attach: %s", err)
	}
	surface.resize(400, 300)
	clock.Advance(100 * time.Millisecond)
	surface.resize(800, 600)
	clock.Advance(100 * time.Millisecond)

	if got := len(chart.layouts()); got != 1 {
		t.Fatalf("layout ran during the debounce window: %d passes", got)
	}
	clock.Advance(DefaultDebounce)

	sizes := chart.layouts()
	if len(sizes) != 2 {
		t.Fatalf("expected initial layout and one relayout, got %d", len(sizes))
	}
	if want := crimeviz.NewBudget(800, 600); sizes[1] != want {
		t.Fatalf("relayout at %v, want %v", sizes[1], want)
	}
	if inst.Phase() != PhaseRendered {
		t.Fatalf("expected rendered, got %s", inst.Phase())
	}
	if p := inst.Progress(); p.Passes != 2 || p.Size != sizes[1] {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestAttachTwice(t *testing.T) {
	var (
		ctrl    = NewController(WithClock(NewManualClock()))
		surface = newSurface("chart", 640, 480)
	)
	first, err := ctrl.Attach(surface, &fakeChart{min: 50})
	if err != nil {
		t.Fatalf("attach: %s", err)
	}
	second, err := ctrl.Attach(surface, &fakeChart{min: 50})
	if err != nil {
		t.Fatalf("attach: %s", err)
	}
	if ctrl.Len() != 1 {
		t.Fatalf("expected 1 instance, got %d", ctrl.Len())
	}
	if surface.observed() != 1 {
		t.Fatalf("expected 1 observer, got %d", surface.observed())
	}
	if first.Phase() != PhaseTornDown {
		t.Fatalf("previous instance not torn down: %s", first.Phase())
	}
	if got, ok := ctrl.Target(surface.ID()); !ok || got.ID() != second.ID() {
		t.Fatalf("surface not bound to the last instance")
	}
	if err := first.Relayout(surface.Size()); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
}

func TestDispose(t *testing.T) {
	var (
		clock   = NewManualClock()
		ctrl    = NewController(WithClock(clock))
		surface = newSurface("chart", 640, 480)
		chart   = fakeChart{min: 50}
	)
	inst, err := ctrl.Attach(surface, &chart)
	if err != nil {
		t.Fatalf("attach: %s", err)
	}
	surface.resize(800, 600)
	if err := ctrl.Dispose(inst.ID()); err != nil {
		t.Fatalf("dispose: %s", err)
	}
	clock.Advance(time.Second)
	if n := len(chart.layouts()); n != 1 {
		t.Fatalf("pending relayout ran after dispose: %d passes", n)
	}
	if surface.observed() != 0 {
		t.Fatalf("observation still attached")
	}
	if inst.Phase() != PhaseTornDown {
		t.Fatalf("expected torn down, got %s", inst.Phase())
	}
	if _, ok := ctrl.Lookup(inst.ID()); ok {
		t.Fatalf("instance still registered")
	}
	if err := ctrl.Dispose(inst.ID()); !errors.Is(err, ErrUnknownInstance) {
		t.Fatalf("expected ErrUnknownInstance, got %v", err)
	}
}

func TestDegradedRecovers(t *testing.T) {
	var (
		clock   = NewManualClock()
		ctrl    = NewController(WithClock(clock))
		surface = newSurface("chart", 30, 30)
		chart   = fakeChart{min: 50}
	)
	inst, err := ctrl.Attach(surface, &chart)
	if err != nil {
		t.Fatalf("attach: %s", err)
	}
	if inst.Phase() != PhaseDegraded {
		t.Fatalf("expected degraded, got %s", inst.Phase())
	}
	if !inst.Observed() {
		t.Fatalf("degraded instance should keep observing its surface")
	}
	surface.resize(300, 200)
	clock.Advance(DefaultDebounce)
	if inst.Phase() != PhaseRendered {
		t.Fatalf("expected rendered, got %s", inst.Phase())
	}
	p := inst.Progress()
	if p.Failures != 1 || p.Passes != 1 {
		t.Fatalf("unexpected progress %+v", p)
	}
	chart.mu.Lock()
	defer chart.mu.Unlock()
	if !chart.firsts[0] || !chart.firsts[1] {
		t.Fatalf("first flag should hold until a layout succeeds: %v", chart.firsts)
	}
}

func TestIndependentInstances(t *testing.T) {
	var (
		clock = NewManualClock()
		ctrl  = NewController(WithClock(clock))
		s1    = newSurface("left", 300, 300)
		s2    = newSurface("right", 300, 300)
		c1    = fakeChart{min: 50}
		c2    = fakeChart{min: 50}
	)
	if _, err := ctrl.Attach(s1, &c1); err != nil {
		t.Fatalf("attach: %s", err)
	}
	if _, err := ctrl.Attach(s2, &c2); err != nil {
		t.Fatalf("attach: %s", err)
	}
	s1.resize(500, 500)
	clock.Advance(DefaultDebounce)
	if len(c1.layouts()) != 2 || len(c2.layouts()) != 1 {
		t.Fatalf("resize leaked to another instance: %d/%d", len(c1.layouts()), len(c2.layouts()))
	}
	ctrl.Close()
	if ctrl.Len() != 0 {
		t.Fatalf("instances left after close: %d", ctrl.Len())
	}
}

func TestMetrics(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("metrics: %s", err)
	}
	var (
		ctrl    = NewController(WithClock(NewManualClock()), WithMetrics(m))
		surface = newSurface("chart", 20, 20)
	)
	inst, err := ctrl.Attach(surface, &fakeChart{min: 50})
	if err != nil {
		t.Fatalf("attach: %s", err)
	}
	inst.Relayout(crimeviz.NewBudget(200, 200))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %s", err)
	}
	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	if totals["crimeviz.layout.passes"] != 1 {
		t.Errorf("expected 1 pass, got %d", totals["crimeviz.layout.passes"])
	}
	if totals["crimeviz.layout.degraded"] != 1 {
		t.Errorf("expected 1 degraded pass, got %d", totals["crimeviz.layout.degraded"])
	}
	if totals["crimeviz.instances.active"] != 1 {
		t.Errorf("expected 1 active instance, got %d", totals["crimeviz.instances.active"])
	}
}
