package crimeviz

import (
	"math"
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestTicks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		start, stop float64
		count       int
		want        []float64
	}{
		{name: "integers", start: 0, stop: 10, count: 5, want: []float64{0, 2, 4, 6, 8, 10}},
		{name: "fractions", start: 0, stop: 1, count: 5, want: []float64{0, 0.2, 0.4, 0.6, 0.8, 1}},
		{name: "reversed", start: 10, stop: 0, count: 5, want: []float64{10, 8, 6, 4, 2, 0}},
		{name: "single", start: 3, stop: 3, count: 5, want: []float64{3}},
		{name: "no count", start: 0, stop: 10, count: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Ticks(tt.start, tt.stop, tt.count)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("ticks: want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNiceCeil(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(1e-3, 1e9).Draw(t, "value")
		got := NiceCeil(v)
		if got < v {
			t.Fatalf("nice ceil of %g is below the value: %g", v, got)
		}
		if got > v*2.5 {
			t.Fatalf("nice ceil of %g is too far from the value: %g", v, got)
		}
	})
	for _, v := range []float64{0, -5} {
		if got := NiceCeil(v); got != v {
			t.Fatalf("%g should be kept, got %g", v, got)
		}
	}
}

func TestPointScale(t *testing.T) {
	s := StringScaler([]string{"2020", "2021"}, NewRange(0, 100))
	if got := s.Scale("2020"); got != 25 {
		t.Fatalf("2020: want 25, got %g", got)
	}
	if got := s.Scale("2021"); got != 75 {
		t.Fatalf("2021: want 75, got %g", got)
	}
	if got := s.Scale("2022"); !math.IsNaN(got) {
		t.Fatalf("unknown value should not be mapped, got %g", got)
	}
}

func TestBandScaleCoversCircle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var (
			n    = rapid.IntRange(1, 60).Draw(t, "bands")
			keys = make([]string, n)
		)
		for i := range keys {
			keys[i] = time.Month(i%12 + 1).String() + string(rune('a'+i/12))
		}
		var (
			s     = NewBandScale(keys, NewRange(0, fullcircle))
			total = float64(n)*s.Bandwidth() + float64(n-1)*s.InnerPadding() + s.OuterPadding()
		)
		if math.Abs(total-fullcircle) > 1e-9 {
			t.Fatalf("bands cover %g instead of %g", total, fullcircle)
		}
		for i := 1; i < n; i++ {
			if s.Scale(keys[i]) <= s.Scale(keys[i-1]) {
				t.Fatalf("bands not ordered at %d", i)
			}
		}
	})
}

func TestRadialScale(t *testing.T) {
	s := RadialScaler(0, 100, NewRange(20, 100))
	if got := s.Scale(0); got != 20 {
		t.Fatalf("zero should map to the inner radius, got %g", got)
	}
	if got := s.Scale(-10); got != 20 {
		t.Fatalf("negative should map to the inner radius, got %g", got)
	}
	if got := s.Scale(math.NaN()); got != 20 {
		t.Fatalf("NaN should map to the inner radius, got %g", got)
	}
	if got := s.Scale(100); math.Abs(got-100) > 1e-9 {
		t.Fatalf("max should map to the outer radius, got %g", got)
	}

	rapid.Check(t, func(t *rapid.T) {
		var (
			v    = rapid.Float64Range(0, 100).Draw(t, "value")
			r    = s.Scale(v)
			area = (r*r - 20*20) / (100*100 - 20*20)
		)
		if math.Abs(area-v/100) > 1e-9 {
			t.Fatalf("area of %g is not proportional: %g", v, area)
		}
	})

	flat := RadialScaler(0, 0, NewRange(20, 100))
	if got := flat.Scale(0); got != 20 {
		t.Fatalf("empty domain should map to the inner radius, got %g", got)
	}
}

func TestTimeScale(t *testing.T) {
	var (
		fst = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
		lst = time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC)
		s   = TimeScaler(fst, lst, NewRange(0, 100))
	)
	if got := s.Scale(fst); got != 0 {
		t.Fatalf("first date: want 0, got %g", got)
	}
	if got := s.Scale(lst); got != 100 {
		t.Fatalf("last date: want 100, got %g", got)
	}
	mid := fst.Add(lst.Sub(fst) / 2)
	if got := s.Invert(50); !got.Equal(mid) {
		t.Fatalf("invert: want %s, got %s", mid, got)
	}

	ticks := s.Values(5)
	want := []string{"2020-01", "2020-07", "2021-01", "2021-07"}
	if len(ticks) != len(want) {
		t.Fatalf("ticks: want %v, got %v", want, ticks)
	}
	for i := range ticks {
		if got := ticks[i].Format(MonthLayout); got != want[i] {
			t.Fatalf("tick %d: want %s, got %s", i, want[i], got)
		}
	}
}
