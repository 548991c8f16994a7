package crimeviz

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(float64) string
		in   float64
		want string
	}{
		{name: "thousands", fn: FormatThousands, in: 1234567, want: "1,234,567"},
		{name: "thousands fraction", fn: FormatThousands, in: 1234.5, want: "1,234.5"},
		{name: "thousands NaN", fn: FormatThousands, in: math.NaN(), want: ""},
		{name: "si zero", fn: FormatSI, in: 0, want: "0"},
		{name: "si kilo", fn: FormatSI, in: 1500, want: "1.5k"},
		{name: "si units", fn: FormatSI, in: 42, want: "42"},
		{name: "si mega", fn: FormatSI, in: 2000000, want: "2M"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.fn(tt.in); got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNames(t *testing.T) {
	if got := Slugify("Violence Against the Person"); got != "violence-against-the-person" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := TitleCase("  KENSINGTON AND chelsea "); got != "Kensington And Chelsea" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := TitleCase("barking-and dagenham"); got != "Barking-And Dagenham" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestTimeRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input TimeRecord
		valid bool
	}{
		{name: "number", input: TimeRecord{Date: "2020-03", Count: 12.0}, valid: true},
		{name: "string", input: TimeRecord{Date: " 2020-03 ", Count: "12"}, valid: true},
		{name: "bad date", input: TimeRecord{Date: "03/2020", Count: 12.0}},
		{name: "bad count", input: TimeRecord{Date: "2020-03", Count: "twelve"}},
		{name: "missing count", input: TimeRecord{Date: "2020-03"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, ok := tt.input.Point()
			if ok != tt.valid {
				t.Fatalf("valid: want %t, got %t", tt.valid, ok)
			}
			if ok && (p.Count != 12 || p.Date.Month() != time.March) {
				t.Fatalf("unexpected point %+v", p)
			}
		})
	}
}

func month(year int, m time.Month, count float64) TimePoint {
	return TimeValue(time.Date(year, m, 1, 0, 0, 0, 0, time.UTC), count)
}

func TestComputeTimeGeometry(t *testing.T) {
	points := []TimePoint{
		month(2020, time.March, 5),
		month(2020, time.January, 10),
		month(2020, time.February, 25),
		{Count: 3},
	}
	g, err := ComputeTimeGeometry(points, 800)
	if err != nil {
		t.Fatalf("layout: %s", err)
	}
	if g.Height != DetailHeight || g.Width != 800 {
		t.Fatalf("unexpected size %+v", g.Budget)
	}
	if len(g.Points) != 3 {
		t.Fatalf("point without date should be dropped, got %d points", len(g.Points))
	}
	if g.Points[0].Date.Month() != time.January || g.Points[2].Date.Month() != time.March {
		t.Fatalf("points not sorted by date")
	}
	if _, hi := g.Y.Domain(); hi < 25*1.1 {
		t.Fatalf("y domain too short: %g", hi)
	}
	pos := g.Positions()
	if pos[0].X != 0 || pos[2].X != g.InnerWidth {
		t.Fatalf("points do not span the chart: %+v", pos)
	}

	var buf bytes.Buffer
	focus := Focus{Visible: true, Point: g.Points[1]}
	if err := g.Render(&buf, DetailTitle("Theft", "Camden"), focus); err != nil {
		t.Fatalf("render: %s", err)
	}
	if !strings.Contains(buf.String(), "detail-chart") {
		t.Fatalf("chart not rendered")
	}
}

func TestComputeTimeGeometryErrors(t *testing.T) {
	if _, err := ComputeTimeGeometry([]TimePoint{month(2020, time.January, 1)}, 80); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("expected ErrTooSmall, got %v", err)
	}
	if _, err := ComputeTimeGeometry(nil, 800); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	g, err := ComputeTimeGeometry([]TimePoint{month(2020, time.January, 0)}, 800)
	if err != nil {
		t.Fatalf("layout: %s", err)
	}
	if _, hi := g.Y.Domain(); hi < defaultMaxY {
		t.Fatalf("zero counts should use the default maximum, got %g", hi)
	}
}

func TestFormatDates(t *testing.T) {
	jan := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatMonth(jan); got != "2021" {
		t.Fatalf("january: got %q", got)
	}
	if got := FormatMonth(jan.AddDate(0, 4, 0)); got != "May" {
		t.Fatalf("may: got %q", got)
	}
	if got := FormatTooltipDate(jan); got != "January 2021" {
		t.Fatalf("tooltip: got %q", got)
	}
}

func TestRenderMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderMessage(&buf, Budget{}, MessageNoData); err != nil {
		t.Fatalf("render: %s", err)
	}
	out := buf.String()
	if !strings.Contains(out, MessageNoData) || !strings.Contains(out, "chart-message") {
		t.Fatalf("unexpected message %s", out)
	}
}
