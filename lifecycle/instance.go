package lifecycle

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/internal/logging"
)

var (
	ErrDisposed        = errors.New("instance disposed")
	ErrUnknownInstance = errors.New("unknown instance")
)

// Surface is the resizable area an instance draws into.
type Surface interface {
	ID() string
	Size() crimeviz.Budget
	// Observe registers fn to be called on every size change. The returned
	// function stops the observation.
	Observe(fn func(crimeviz.Budget)) func()
	// Draw replaces the content of the surface with what fn writes.
	Draw(fn func(io.Writer) error) error
}

// Chart lays itself out for a given size. first is true until a layout
// completes without error. A chart that can not be drawn writes an inline
// message and returns the reason.
type Chart interface {
	Kind() string
	Layout(w io.Writer, size crimeviz.Budget, first bool) error
}

type Instance struct {
	id      string
	surface Surface
	chart   Chart
	metrics *Metrics

	debounce *Debouncer
	interp   *statekit.Interpreter[Progress]

	mu       sync.Mutex
	stop     func()
	disposed bool
}

func newInstance(id string, surface Surface, chart Chart, debounce *Debouncer, metrics *Metrics) (*Instance, error) {
	machine, err := newMachine()
	if err != nil {
		return nil, err
	}
	i := Instance{
		id:       id,
		surface:  surface,
		chart:    chart,
		metrics:  metrics,
		debounce: debounce,
		interp:   statekit.NewInterpreter(machine),
	}
	i.interp.Start()
	return &i, nil
}

func (i *Instance) ID() string {
	return i.id
}

func (i *Instance) Target() string {
	return i.surface.ID()
}

func (i *Instance) Kind() string {
	return i.chart.Kind()
}

func (i *Instance) Phase() Phase {
	return Phase(i.interp.State().Value)
}

func (i *Instance) Progress() Progress {
	return i.interp.State().Context
}

// Resize schedules a layout at the given size once the surface stops
// changing for the debounce duration.
func (i *Instance) Resize(size crimeviz.Budget) {
	i.debounce.Trigger(func() {
		if err := i.Relayout(size); err != nil && !errors.Is(err, ErrDisposed) {
			logging.Warn().
				Add(logging.Instance(i.id)).
				Add(logging.Chart(i.Kind())).
				Add(logging.ErrorField(err)).
				Msg("relayout failed")
		}
	})
}

// Relayout lays out the chart immediately. Passes of one instance never
// overlap. A chart that can only draw a message leaves the instance degraded
// without reporting an error.
func (i *Instance) Relayout(size crimeviz.Budget) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}

	from := i.Phase()
	i.interp.Send(statekit.Event{Type: eventLayout, Payload: size})
	i.logTransition(from)

	var (
		first  = i.Progress().Passes == 0
		start  = time.Now()
		layout error
	)
	err := i.surface.Draw(func(w io.Writer) error {
		layout = i.chart.Layout(w, size, first)
		return nil
	})
	if err != nil {
		i.interp.Send(statekit.Event{Type: eventFail})
		return err
	}
	i.metrics.recordLayout(context.Background(), i.Kind(), time.Since(start), layout)

	from = i.Phase()
	if layout != nil {
		i.interp.Send(statekit.Event{Type: eventFail, Payload: layout})
		logging.Warn().
			Add(logging.Instance(i.id)).
			Add(logging.Target(i.Target())).
			Add(logging.Size(size.Width, size.Height)).
			Add(logging.ErrorField(layout)).
			Msg("layout degraded")
	} else {
		i.interp.Send(statekit.Event{Type: eventDone})
	}
	i.logTransition(from)
	return nil
}

func (i *Instance) observe() {
	stop := i.surface.Observe(i.Resize)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.stop = stop
}

// Observed reports whether the instance follows the size of its surface.
func (i *Instance) Observed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stop != nil
}

func (i *Instance) dispose() {
	i.debounce.Cancel()

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return
	}
	i.disposed = true
	if i.stop != nil {
		i.stop()
		i.stop = nil
	}
	from := i.Phase()
	i.interp.Send(statekit.Event{Type: eventDispose})
	i.logTransition(from)
}

func (i *Instance) logTransition(from Phase) {
	logging.Debug().
		Add(logging.Instance(i.id)).
		Add(logging.Chart(i.Kind())).
		Add(logging.Transition(string(from), string(i.Phase()))).
		Msg("lifecycle transition")
}
