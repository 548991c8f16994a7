package dash

import (
	"errors"
	"strings"
	"testing"

	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/lifecycle"
)

func testDashboard(t *testing.T) (*Dashboard, *lifecycle.ManualClock) {
	t.Helper()
	var (
		clock = lifecycle.NewManualClock()
		ctrl  = lifecycle.NewController(lifecycle.WithClock(clock))
		doc   = NewDocument(crimeviz.NewBudget(1200, 900))
	)
	t.Cleanup(func() {
		ctrl.Close()
	})
	return NewDashboard(doc, ctrl), clock
}

func trendRecords() []crimeviz.Record {
	return []crimeviz.Record{
		{Label: "Theft", X: "2020", Y: 10.0},
		{Label: "Theft", X: "2021", Y: 15.0},
		{Label: "Burglary", X: "2020", Y: 5.0},
		{Label: "Burglary", X: "2021", Y: 8.0},
	}
}

func phaseRecords() []crimeviz.Record {
	return []crimeviz.Record{
		{Label: "THEFT", X: "Pre-Lockdown", Y: 100.0},
		{Label: "THEFT", X: "Lockdown 1", Y: 80.0},
		{Label: "BURGLARY", X: "Pre-Lockdown", Y: 50.0},
	}
}

var trendMapping = crimeviz.Mapping{
	X:     "year",
	Y:     "count",
	Label: "offence",
	Chart: ChartLine,
}

func TestDashboardLineChart(t *testing.T) {
	d, _ := testDashboard(t)
	target := d.Document().Add("trend", RootTarget, crimeviz.NewBudget(800, 600))
	legend := d.Document().Add("trend-legend", RootTarget, crimeviz.NewBudget(200, 100))

	inst, err := d.RenderLineChart(trendRecords(), trendMapping, "trend", "trend-legend")
	if err != nil {
		t.Fatalf("render: %s", err)
	}
	if inst == nil {
		t.Fatalf("no instance attached")
	}
	if inst.Phase() != lifecycle.PhaseRendered {
		t.Fatalf("expected rendered phase, got %s", inst.Phase())
	}
	if !strings.Contains(string(target.Content()), "<svg") {
		t.Fatalf("chart not drawn: %s", target.Content())
	}
	content := string(legend.Content())
	for _, id := range []string{"legend-theft", "legend-burglary"} {
		if !strings.Contains(content, id) {
			t.Fatalf("legend misses %s: %s", id, content)
		}
	}
	v, ok := d.View("trend")
	if !ok || v.Line == nil || v.Instance != inst {
		t.Fatalf("view not registered: %+v", v)
	}
}

func TestDashboardRenderTwice(t *testing.T) {
	d, _ := testDashboard(t)
	target := d.Document().Add("phases", RootTarget, crimeviz.NewBudget(600, 600))

	first, err := d.RenderRadialChart(phaseRecords(), "phases", "Phases")
	if err != nil {
		t.Fatalf("first render: %s", err)
	}
	second, err := d.RenderRadialChart(phaseRecords(), "phases", "Phases")
	if err != nil {
		t.Fatalf("second render: %s", err)
	}
	if first.ID() == second.ID() {
		t.Fatalf("expected a new instance")
	}
	if first.Observed() {
		t.Fatalf("previous instance still follows the target")
	}
	if first.Phase() != lifecycle.PhaseTornDown {
		t.Fatalf("previous instance not torn down: %s", first.Phase())
	}
	if n := target.Observers(); n != 1 {
		t.Fatalf("expected 1 observer, got %d", n)
	}
}

func TestDashboardUnusableData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []crimeviz.Record
		want string
	}{
		{name: "empty", want: crimeviz.MessageNoData},
		{
			name: "invalid",
			data: []crimeviz.Record{{Label: "THEFT", X: "Lockdown", Y: "many"}},
			want: crimeviz.MessageNoValidData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, _ := testDashboard(t)
			target := d.Document().Add("phases", RootTarget, crimeviz.NewBudget(600, 600))

			inst, err := d.RenderRadialChart(tt.data, "phases", "")
			if err != nil {
				t.Fatalf("render: %s", err)
			}
			if inst != nil {
				t.Fatalf("no instance should be attached")
			}
			if !strings.Contains(string(target.Content()), tt.want) {
				t.Fatalf("message %q not drawn: %s", tt.want, target.Content())
			}
			if n := target.Observers(); n != 0 {
				t.Fatalf("expected no observer, got %d", n)
			}
		})
	}
}

func TestDashboardMissingTarget(t *testing.T) {
	d, _ := testDashboard(t)
	panel := d.Document().Add("panel", RootTarget, crimeviz.NewBudget(800, 600))
	d.Document().Add("trend", "panel", crimeviz.NewBudget(800, 600))

	inst, err := d.RenderLineChart(trendRecords(), trendMapping, "trend", "trend-legend")
	if err != nil || inst != nil {
		t.Fatalf("nothing should be attached: %v %v", inst, err)
	}
	if !strings.Contains(string(panel.Content()), crimeviz.MessageTargetMissing) {
		t.Fatalf("error not written in the parent: %s", panel.Content())
	}

	inst, err = d.RenderRadialChart(phaseRecords(), "nowhere", "")
	if err != nil || inst != nil {
		t.Fatalf("nothing should be attached: %v %v", inst, err)
	}
	root := d.Document().Root()
	if !strings.Contains(string(root.Content()), crimeviz.MessageTargetMissing) {
		t.Fatalf("error not written in the document: %s", root.Content())
	}
}

func TestDashboardResize(t *testing.T) {
	d, clock := testDashboard(t)
	target := d.Document().Add("phases", RootTarget, crimeviz.NewBudget(600, 600))

	inst, err := d.RenderRadialChart(phaseRecords(), "phases", "Phases")
	if err != nil {
		t.Fatalf("render: %s", err)
	}
	for _, s := range []crimeviz.Budget{
		crimeviz.NewBudget(300, 300),
		crimeviz.NewBudget(500, 400),
		crimeviz.NewBudget(640, 480),
	} {
		target.Resize(s)
	}
	if p := inst.Progress(); p.Passes != 1 {
		t.Fatalf("layout should wait for the size to settle, got %d passes", p.Passes)
	}
	clock.Advance(lifecycle.DefaultDebounce)

	p := inst.Progress()
	if p.Passes != 2 {
		t.Fatalf("expected a single layout after the burst, got %d passes", p.Passes)
	}
	if p.Size != crimeviz.NewBudget(640, 480) {
		t.Fatalf("layout not done at the last size: %+v", p.Size)
	}
}

func TestDashboardTooSmall(t *testing.T) {
	d, _ := testDashboard(t)
	target := d.Document().Add("phases", RootTarget, crimeviz.NewBudget(60, 60))

	inst, err := d.RenderRadialChart(phaseRecords(), "phases", "")
	if err != nil {
		t.Fatalf("render: %s", err)
	}
	if inst.Phase() != lifecycle.PhaseDegraded {
		t.Fatalf("expected degraded phase, got %s", inst.Phase())
	}
	if !strings.Contains(string(target.Content()), crimeviz.MessageAreaTooSmall) {
		t.Fatalf("message not drawn: %s", target.Content())
	}
	if !inst.Observed() {
		t.Fatalf("degraded instance should still follow its target")
	}
}

func TestDashboardDetail(t *testing.T) {
	d, _ := testDashboard(t)
	target := d.Document().Add(DetailTarget, RootTarget, crimeviz.NewBudget(800, crimeviz.DetailHeight))
	title := d.Document().Add(DetailTitleTarget, RootTarget, crimeviz.NewBudget(800, 0))

	data := []crimeviz.TimeRecord{
		{Date: "2020-01", Count: 10},
		{Date: "2020-02", Count: 25},
		{Date: "2020-03", Count: 5},
	}
	inst, err := d.RenderTimeSeriesDetail(data, "Camden", "Theft")
	if err != nil {
		t.Fatalf("render: %s", err)
	}
	if inst == nil || inst.Kind() != "detail" {
		t.Fatalf("detail chart not attached")
	}
	if got, want := string(title.Content()), crimeviz.DetailTitle("Theft", "Camden"); got != want {
		t.Fatalf("title: want %q, got %q", want, got)
	}
	if !strings.Contains(string(target.Content()), "<svg") {
		t.Fatalf("chart not drawn")
	}

	inst, err = d.RenderTimeSeriesDetail(nil, "Camden", "Theft")
	if err != nil || inst != nil {
		t.Fatalf("nothing should be attached: %v %v", inst, err)
	}
	if !strings.Contains(string(target.Content()), crimeviz.MessageNoData) {
		t.Fatalf("message not drawn: %s", target.Content())
	}
	if _, ok := d.View(DetailTarget); ok {
		t.Fatalf("previous detail chart still registered")
	}
}

func TestDashboardDispose(t *testing.T) {
	d, _ := testDashboard(t)
	target := d.Document().Add("phases", RootTarget, crimeviz.NewBudget(600, 600))
	if _, err := d.RenderRadialChart(phaseRecords(), "phases", ""); err != nil {
		t.Fatalf("render: %s", err)
	}
	if err := d.Dispose("phases"); err != nil {
		t.Fatalf("dispose: %s", err)
	}
	if n := target.Observers(); n != 0 {
		t.Fatalf("expected no observer, got %d", n)
	}
	if err := d.Dispose("phases"); !errors.Is(err, lifecycle.ErrUnknownInstance) {
		t.Fatalf("expected ErrUnknownInstance, got %v", err)
	}
}

func TestDocument(t *testing.T) {
	doc := NewDocument(crimeviz.NewBudget(100, 100))
	a := doc.Add("a", "unknown", crimeviz.NewBudget(10, 10))
	if a.Parent() != RootTarget {
		t.Fatalf("unknown parent should fall back to the root, got %s", a.Parent())
	}
	if again := doc.Add("a", RootTarget, crimeviz.NewBudget(20, 20)); again != a {
		t.Fatalf("existing target should be returned")
	}
	doc.Remove(RootTarget)
	if _, ok := doc.Lookup(RootTarget); !ok {
		t.Fatalf("root should never be removed")
	}
	if doc.Ancestor("missing") != doc.Root() {
		t.Fatalf("unknown target should resolve to the root")
	}

	var calls int
	stop := a.Observe(func(crimeviz.Budget) {
		calls++
	})
	a.Resize(crimeviz.NewBudget(10, 10))
	a.Resize(crimeviz.NewBudget(30, 10))
	stop()
	a.Resize(crimeviz.NewBudget(40, 10))
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
}

func TestDashboardLineAnimation(t *testing.T) {
	d, clock := testDashboard(t)
	target := d.Document().Add("trend", RootTarget, crimeviz.NewBudget(800, 600))
	d.Document().Add("legend", RootTarget, crimeviz.NewBudget(200, 600))

	if _, err := d.RenderLineChart(trendRecords(), trendMapping, "trend", "legend"); err != nil {
		t.Fatalf("render: %s", err)
	}
	const offset = `stroke-dashoffset="`
	if !strings.Contains(string(target.Content()), offset) {
		t.Fatalf("first layout should animate the lines")
	}
	target.Resize(crimeviz.NewBudget(640, 480))
	clock.Advance(lifecycle.DefaultDebounce)

	out := string(target.Content())
	if strings.Contains(out, offset) || strings.Contains(out, `animate"`) {
		t.Fatalf("lines animated again after resize: %s", out)
	}
	if !strings.Contains(out, "line-theft") {
		t.Fatalf("lines not drawn after resize")
	}
}

func TestDashboardLineDegradedLegend(t *testing.T) {
	d, clock := testDashboard(t)
	target := d.Document().Add("trend", RootTarget, crimeviz.NewBudget(800, 600))
	legend := d.Document().Add("legend", RootTarget, crimeviz.NewBudget(200, 600))

	inst, err := d.RenderLineChart(trendRecords(), trendMapping, "trend", "legend")
	if err != nil {
		t.Fatalf("render: %s", err)
	}
	if !strings.Contains(string(legend.Content()), "legend-theft") {
		t.Fatalf("legend not drawn")
	}
	target.Resize(crimeviz.NewBudget(40, 40))
	clock.Advance(lifecycle.DefaultDebounce)

	if inst.Phase() != lifecycle.PhaseDegraded {
		t.Fatalf("expected degraded phase, got %s", inst.Phase())
	}
	if !strings.Contains(string(target.Content()), crimeviz.MessageTooSmall) {
		t.Fatalf("message not drawn: %s", target.Content())
	}
	if n := len(legend.Content()); n != 0 {
		t.Fatalf("legend should be cleared, got %d bytes", n)
	}

	target.Resize(crimeviz.NewBudget(800, 600))
	clock.Advance(lifecycle.DefaultDebounce)
	if !strings.Contains(string(legend.Content()), "legend-theft") {
		t.Fatalf("legend not drawn again after recovery")
	}
}
