package dash

import (
	"errors"
	"io"
	"sync"

	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/interact"
	"github.com/midbel/crimeviz/internal/logging"
	"github.com/midbel/crimeviz/lifecycle"
)

const (
	// DetailTarget is the popup area receiving the monthly series of a
	// borough.
	DetailTarget = "popup-chart"
	// DetailTitleTarget receives the title of the popup.
	DetailTitleTarget = "popup-title"
)

type lineChart struct {
	points  []crimeviz.Point
	mapping crimeviz.Mapping
	style   crimeviz.Style
	legend  lifecycle.Surface
	handler *interact.LineHandler
}

func (c *lineChart) Kind() string {
	return ChartLine
}

func (c *lineChart) Layout(w io.Writer, size crimeviz.Budget, first bool) error {
	g, err := crimeviz.ComputeLineGeometry(c.points, size)
	if err != nil {
		c.legend.Draw(func(io.Writer) error { return nil })
		return failed(w, size, err, crimeviz.MessageTooSmall)
	}
	c.handler.Update(g, c.mapping)
	if err := g.Render(w, c.style, c.handler.State(first)); err != nil {
		return err
	}
	return c.legend.Draw(func(w io.Writer) error {
		return crimeviz.RenderLegend(w, c.style, c.handler.Legend())
	})
}

type radialChart struct {
	points  []crimeviz.Point
	title   string
	style   crimeviz.Style
	handler *interact.RadialHandler
}

func (c *radialChart) Kind() string {
	return ChartRadial
}

func (c *radialChart) Layout(w io.Writer, size crimeviz.Budget, _ bool) error {
	g, err := crimeviz.ComputeRadialGeometry(c.points, size)
	if err != nil {
		return failed(w, size, err, crimeviz.MessageAreaTooSmall)
	}
	c.handler.Update(g)
	return g.Render(w, c.style, c.title, c.handler.State(true))
}

type detailChart struct {
	points  []crimeviz.TimePoint
	title   string
	handler *interact.TimeHandler
}

func (c *detailChart) Kind() string {
	return "detail"
}

func (c *detailChart) Layout(w io.Writer, size crimeviz.Budget, _ bool) error {
	g, err := crimeviz.ComputeTimeGeometry(c.points, size.Width)
	if err != nil {
		size.Height = crimeviz.DetailHeight
		return failed(w, size, err, crimeviz.MessageAreaTooSmall)
	}
	c.handler.Update(g)
	return g.Render(w, c.title, c.handler.Focus())
}

func failed(w io.Writer, size crimeviz.Budget, err error, small string) error {
	msg := crimeviz.MessageNoValidData
	if errors.Is(err, crimeviz.ErrTooSmall) {
		msg = small
	}
	if err := crimeviz.RenderMessage(w, size, msg); err != nil {
		return err
	}
	return err
}

// View is what the dashboard keeps about a chart drawn on a target.
type View struct {
	Target   string
	Instance *lifecycle.Instance

	Line    *interact.LineHandler
	Radial  *interact.RadialHandler
	Detail  *interact.TimeHandler
	Visible *interact.Visibility
}

// Dashboard draws charts into the targets of a document, one chart per
// target.
type Dashboard struct {
	doc   *Document
	ctrl  *lifecycle.Controller
	label *interact.Label
	style crimeviz.Style

	mu    sync.Mutex
	views map[string]View
}

func NewDashboard(doc *Document, ctrl *lifecycle.Controller) *Dashboard {
	return &Dashboard{
		doc:   doc,
		ctrl:  ctrl,
		label: interact.NewLabel(),
		style: crimeviz.DefaultStyle(),
		views: make(map[string]View),
	}
}

func (d *Dashboard) Document() *Document {
	return d.doc
}

// Label is the floating label shared by every chart of the dashboard.
func (d *Dashboard) Label() *interact.Label {
	return d.label
}

// RenderLineChart draws one line per label of data into target and its
// legend into legend. Failures are written in place of the chart.
func (d *Dashboard) RenderLineChart(data []crimeviz.Record, mapping crimeviz.Mapping, target, legend string) (*lifecycle.Instance, error) {
	surface, ok := d.doc.Lookup(target)
	side, found := d.doc.Lookup(legend)
	if !ok || !found {
		d.missing(target, legend)
		return nil, nil
	}
	d.release(target)
	points, ok := d.points(surface, data)
	if !ok {
		side.Draw(func(io.Writer) error { return nil })
		return nil, nil
	}
	var (
		visible = interact.NewVisibility()
		handler = interact.NewLineHandler(target, d.label, visible)
		chart   = lineChart{
			points:  points,
			mapping: mapping,
			style:   d.currentStyle(),
			legend:  side,
			handler: handler,
		}
	)
	return d.attach(surface, &chart, View{
		Line:    handler,
		Visible: visible,
	})
}

// RenderRadialChart draws the counts of every category and phase of data
// around a circle.
func (d *Dashboard) RenderRadialChart(data []crimeviz.Record, target, title string) (*lifecycle.Instance, error) {
	surface, ok := d.doc.Lookup(target)
	if !ok {
		d.missing(target)
		return nil, nil
	}
	d.release(target)
	points, ok := d.points(surface, data)
	if !ok {
		return nil, nil
	}
	var (
		handler = interact.NewRadialHandler(target, d.label)
		chart   = radialChart{
			points:  points,
			title:   title,
			style:   d.currentStyle(),
			handler: handler,
		}
	)
	return d.attach(surface, &chart, View{
		Radial: handler,
	})
}

// RenderTimeSeriesDetail draws the monthly counts of an entity into the
// popup of the dashboard.
func (d *Dashboard) RenderTimeSeriesDetail(data []crimeviz.TimeRecord, entity, category string) (*lifecycle.Instance, error) {
	surface, ok := d.doc.Lookup(DetailTarget)
	if !ok {
		d.missing(DetailTarget)
		return nil, nil
	}
	title := crimeviz.DetailTitle(category, entity)
	if t, ok := d.doc.Lookup(DetailTitleTarget); ok {
		t.Draw(func(w io.Writer) error {
			_, err := io.WriteString(w, title)
			return err
		})
	}
	d.release(DetailTarget)

	var points []crimeviz.TimePoint
	for _, r := range data {
		if p, ok := r.Point(); ok {
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		msg := crimeviz.MessageNoData
		if len(data) > 0 {
			msg = crimeviz.MessageNoValidData
		}
		d.message(surface, msg)
		return nil, nil
	}
	var (
		handler = interact.NewTimeHandler(DetailTarget, d.label)
		chart   = detailChart{
			points:  points,
			title:   title,
			handler: handler,
		}
	)
	return d.attach(surface, &chart, View{
		Detail: handler,
	})
}

func (d *Dashboard) currentStyle() crimeviz.Style {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.style
}

// View returns the chart currently drawn on target.
func (d *Dashboard) View(target string) (View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.views[target]
	return v, ok
}

// Redraw lays out the chart of target again at its current size, after a
// change of its interaction state.
func (d *Dashboard) Redraw(target string) error {
	v, ok := d.View(target)
	if !ok {
		return lifecycle.ErrUnknownInstance
	}
	surface, ok := d.doc.Lookup(target)
	if !ok {
		return ErrTargetMissing
	}
	return v.Instance.Relayout(surface.Size())
}

// Dispose removes the chart drawn on target.
func (d *Dashboard) Dispose(target string) error {
	d.mu.Lock()
	v, ok := d.views[target]
	delete(d.views, target)
	d.mu.Unlock()
	if !ok {
		return lifecycle.ErrUnknownInstance
	}
	return d.ctrl.Dispose(v.Instance.ID())
}

func (d *Dashboard) attach(surface *Target, chart lifecycle.Chart, view View) (*lifecycle.Instance, error) {
	inst, err := d.ctrl.Attach(surface, chart)
	if err != nil {
		return nil, err
	}
	view.Target = surface.ID()
	view.Instance = inst

	d.mu.Lock()
	defer d.mu.Unlock()
	d.views[surface.ID()] = view
	return inst, nil
}

// release disposes the chart previously drawn on target, if any.
func (d *Dashboard) release(target string) {
	d.mu.Lock()
	delete(d.views, target)
	d.mu.Unlock()
	if inst, ok := d.ctrl.Target(target); ok {
		d.ctrl.Dispose(inst.ID())
	}
}

// points coerces data. When nothing can be drawn, the reason is written in
// the target and no chart is attached.
func (d *Dashboard) points(surface *Target, data []crimeviz.Record) ([]crimeviz.Point, bool) {
	if len(data) == 0 {
		d.message(surface, crimeviz.MessageNoData)
		return nil, false
	}
	points := crimeviz.Points(data)
	if len(points) == 0 {
		d.message(surface, crimeviz.MessageNoValidData)
		return nil, false
	}
	return points, true
}

func (d *Dashboard) message(surface *Target, msg string) {
	logging.Debug().
		Add(logging.Target(surface.ID())).
		Add(logging.Str("message", msg)).
		Msg("chart not attached")
	surface.Draw(func(w io.Writer) error {
		return crimeviz.RenderMessage(w, surface.Size(), msg)
	})
}

// missing writes the target error in the closest container of the first
// missing target.
func (d *Dashboard) missing(ids ...string) {
	var (
		where = d.doc.Root()
		list  []string
	)
	for _, id := range ids {
		if _, ok := d.doc.Lookup(id); !ok {
			list = append(list, id)
		}
	}
	if len(ids) > 0 {
		where = d.doc.Ancestor(ids[0])
	}
	for _, id := range list {
		logging.Warn().
			Add(logging.Target(id)).
			Msg("target not found")
	}
	where.Draw(func(w io.Writer) error {
		return crimeviz.RenderMessage(w, where.Size(), crimeviz.MessageTargetMissing)
	})
}
