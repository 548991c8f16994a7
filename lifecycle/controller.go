package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/midbel/crimeviz/internal/logging"
)

type Option func(*Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.wait = d
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// Controller keeps track of the instances attached to surfaces. A surface has
// at most one instance at any time.
type Controller struct {
	clock   Clock
	wait    time.Duration
	metrics *Metrics

	mu        sync.Mutex
	instances map[string]*Instance
	targets   map[string]string
}

func NewController(options ...Option) *Controller {
	c := Controller{
		clock:     SystemClock(),
		wait:      DefaultDebounce,
		instances: make(map[string]*Instance),
		targets:   make(map[string]string),
	}
	for _, o := range options {
		o(&c)
	}
	return &c
}

// Attach draws chart on surface and starts following the size of the
// surface. The instance previously attached to the same surface, if any, is
// disposed first.
func (c *Controller) Attach(surface Surface, chart Chart) (*Instance, error) {
	if prev, ok := c.Target(surface.ID()); ok {
		c.Dispose(prev.ID())
	}
	id := uuid.NewString()
	inst, err := newInstance(id, surface, chart, NewDebouncer(c.wait, c.clock), c.metrics)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", surface.ID(), err)
	}
	if err := inst.Relayout(surface.Size()); err != nil {
		inst.dispose()
		return nil, err
	}
	inst.observe()

	c.mu.Lock()
	c.instances[id] = inst
	c.targets[surface.ID()] = id
	c.mu.Unlock()

	c.metrics.recordActive(context.Background(), chart.Kind(), 1)
	logging.Info().
		Add(logging.Instance(id)).
		Add(logging.Target(surface.ID())).
		Add(logging.Chart(chart.Kind())).
		Msg("instance attached")
	return inst, nil
}

// Dispose stops the instance from following its surface and forgets it.
func (c *Controller) Dispose(id string) error {
	c.mu.Lock()
	inst, ok := c.instances[id]
	if ok {
		delete(c.instances, id)
		if c.targets[inst.Target()] == id {
			delete(c.targets, inst.Target())
		}
	}
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownInstance)
	}
	inst.dispose()
	c.metrics.recordActive(context.Background(), inst.Kind(), -1)
	logging.Info().
		Add(logging.Instance(id)).
		Add(logging.Target(inst.Target())).
		Msg("instance disposed")
	return nil
}

func (c *Controller) Lookup(id string) (*Instance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.instances[id]
	return inst, ok
}

// Target returns the instance attached to a surface.
func (c *Controller) Target(surface string) (*Instance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.targets[surface]
	if !ok {
		return nil, false
	}
	inst, ok := c.instances[id]
	return inst, ok
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instances)
}

// Close disposes every instance.
func (c *Controller) Close() error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.instances))
	for id := range c.instances {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.Dispose(id)
	}
	return nil
}
