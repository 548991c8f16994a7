package crimeviz

import (
	"math"
	"time"
)

type ScalerConstraint interface {
	~float64 | ~string | time.Time
}

type Scaler[T ScalerConstraint] interface {
	Scale(T) float64
	Values(int) []T
	Max() float64
	Min() float64
}

type Range struct {
	F float64
	T float64
}

func NewRange(f, t float64) Range {
	return Range{
		F: f,
		T: t,
	}
}

func (r Range) Len() float64 {
	return r.T - r.F
}

func (r Range) Max() float64 {
	return math.Max(r.F, r.T)
}

func (r Range) Min() float64 {
	return math.Min(r.F, r.T)
}

type LinearScale struct {
	Range
	fst float64
	lst float64
}

func NumberScaler(fst, lst float64, rg Range) LinearScale {
	return LinearScale{
		Range: rg,
		fst:   fst,
		lst:   lst,
	}
}

func (s LinearScale) Domain() (float64, float64) {
	return s.fst, s.lst
}

func (s LinearScale) Scale(v float64) float64 {
	diff := s.lst - s.fst
	if diff == 0 {
		return s.F + s.Len()/2
	}
	return s.F + (v-s.fst)/diff*s.Len()
}

func (s LinearScale) Invert(px float64) float64 {
	if s.Len() == 0 {
		return s.fst
	}
	return s.fst + (px-s.F)/s.Len()*(s.lst-s.fst)
}

func (s LinearScale) Values(count int) []float64 {
	return Ticks(s.fst, s.lst, count)
}

// Nice extends the domain outward so that both ends fall on tick boundaries.
func (s LinearScale) Nice(count int) LinearScale {
	start, stop := s.fst, s.lst
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	var prestep float64
	for i := 0; i < 10; i++ {
		step := tickIncrement(start, stop, count)
		if step == prestep {
			if reverse {
				start, stop = stop, start
			}
			s.fst, s.lst = start, stop
			return s
		}
		switch {
		case step > 0:
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		case step < 0:
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		default:
			return s
		}
		prestep = step
	}
	return s
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

func tickIncrement(start, stop float64, count int) float64 {
	var (
		step  = (stop - start) / math.Max(0, float64(count))
		power = math.Floor(math.Log10(step))
		err   = step / math.Pow(10, power)
	)
	factor := 1.0
	switch {
	case err >= e10:
		factor = 10
	case err >= e5:
		factor = 5
	case err >= e2:
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	inc := tickIncrement(start, stop, count)
	if inc == 0 || math.IsInf(inc, 0) || math.IsNaN(inc) {
		return nil
	}
	var list []float64
	if inc > 0 {
		r0, r1 := math.Round(start/inc), math.Round(stop/inc)
		if r0*inc < start {
			r0++
		}
		if r1*inc > stop {
			r1--
		}
		for i := r0; i <= r1; i++ {
			list = append(list, i*inc)
		}
	} else {
		inc = -inc
		r0, r1 := math.Round(start*inc), math.Round(stop*inc)
		if r0/inc < start {
			r0++
		}
		if r1/inc > stop {
			r1--
		}
		for i := r0; i <= r1; i++ {
			list = append(list, i/inc)
		}
	}
	if reverse {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	return list
}

// NiceCeil returns the upper bound of [0, v] once niced with the default tick count.
func NiceCeil(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	_, hi := NumberScaler(0, v, NewRange(0, 1)).Nice(defaultTicks).Domain()
	return math.Max(hi, v)
}

type PointScale struct {
	Range
	Domain  []string
	Padding float64
}

func StringScaler(values []string, rg Range) PointScale {
	return PointScale{
		Range:   rg,
		Domain:  values,
		Padding: 0.5,
	}
}

func (s PointScale) Step() float64 {
	n := float64(len(s.Domain))
	return s.Len() / math.Max(1, n-1+2*s.Padding)
}

func (s PointScale) Scale(v string) float64 {
	ix := s.indexOf(v)
	if ix < 0 {
		return math.NaN()
	}
	var (
		n     = float64(len(s.Domain))
		step  = s.Step()
		start = s.F + (s.Len()-step*(n-1))*0.5
	)
	return start + float64(ix)*step
}

func (s PointScale) Values(c int) []string {
	if c > 0 && c < len(s.Domain) {
		return s.Domain[:c]
	}
	return s.Domain
}

func (s PointScale) indexOf(v string) int {
	for i := range s.Domain {
		if s.Domain[i] == v {
			return i
		}
	}
	return -1
}

type BandScale struct {
	Range
	Domain       []string
	PaddingInner float64
	PaddingOuter float64
	Align        float64

	index map[string]int
}

func NewBandScale(keys []string, rg Range) BandScale {
	s := BandScale{
		Range:        rg,
		PaddingInner: 0.1,
		PaddingOuter: 0.2,
		Align:        0.5,
		index:        make(map[string]int),
	}
	for _, k := range keys {
		if _, ok := s.index[k]; ok {
			continue
		}
		s.index[k] = len(s.Domain)
		s.Domain = append(s.Domain, k)
	}
	return s
}

func (s BandScale) Step() float64 {
	n := float64(len(s.Domain))
	return s.Len() / math.Max(1, n-s.PaddingInner+2*s.PaddingOuter)
}

func (s BandScale) Bandwidth() float64 {
	return s.Step() * (1 - s.PaddingInner)
}

func (s BandScale) start() float64 {
	n := float64(len(s.Domain))
	return s.F + (s.Len()-s.Step()*(n-s.PaddingInner))*s.Align
}

func (s BandScale) Scale(key string) float64 {
	ix, ok := s.index[key]
	if !ok {
		return math.NaN()
	}
	return s.start() + float64(ix)*s.Step()
}

func (s BandScale) Values(c int) []string {
	if c > 0 && c < len(s.Domain) {
		return s.Domain[:c]
	}
	return s.Domain
}

// InnerPadding is the gap between two adjacent bands.
func (s BandScale) InnerPadding() float64 {
	return s.Step() * s.PaddingInner
}

// OuterPadding is the total space left before the first band and after the last one.
func (s BandScale) OuterPadding() float64 {
	if len(s.Domain) == 0 {
		return s.Len()
	}
	var (
		before = s.start() - s.F
		last   = s.start() + float64(len(s.Domain)-1)*s.Step() + s.Bandwidth()
	)
	return before + (s.T - last)
}

// RadialScale maps values onto radii so that the area of a sector grows
// linearly with its value.
type RadialScale struct {
	Range
	fst float64
	lst float64
}

func RadialScaler(fst, lst float64, rg Range) RadialScale {
	return RadialScale{
		Range: rg,
		fst:   fst,
		lst:   lst,
	}
}

func (s RadialScale) Domain() (float64, float64) {
	return s.fst, s.lst
}

func (s RadialScale) Scale(v float64) float64 {
	diff := s.lst - s.fst
	if math.IsNaN(v) || v <= s.fst || diff <= 0 {
		return s.F
	}
	var (
		in  = s.F * s.F
		out = s.T * s.T
	)
	return math.Sqrt(in + (v-s.fst)/diff*(out-in))
}

func (s RadialScale) Values(count int) []float64 {
	return Ticks(s.fst, s.lst, count)
}

type TimeScale struct {
	Range
	fst time.Time
	lst time.Time
}

func TimeScaler(fst, lst time.Time, rg Range) TimeScale {
	return TimeScale{
		Range: rg,
		fst:   fst,
		lst:   lst,
	}
}

func (s TimeScale) Domain() (time.Time, time.Time) {
	return s.fst, s.lst
}

func (s TimeScale) Scale(t time.Time) float64 {
	diff := s.lst.Sub(s.fst)
	if diff == 0 {
		return s.F + s.Len()/2
	}
	return s.F + float64(t.Sub(s.fst))/float64(diff)*s.Len()
}

func (s TimeScale) Invert(px float64) time.Time {
	if s.Len() == 0 {
		return s.fst
	}
	var (
		ratio = (px - s.F) / s.Len()
		diff  = float64(s.lst.Sub(s.fst))
	)
	return s.fst.Add(time.Duration(ratio * diff))
}

var monthSteps = []int{1, 2, 3, 6, 12, 24, 60, 120}

// Values returns month aligned ticks, choosing the smallest step that keeps
// the number of ticks under count.
func (s TimeScale) Values(count int) []time.Time {
	if count < 1 {
		count = 1
	}
	fst, lst := s.fst, s.lst
	if lst.Before(fst) {
		fst, lst = lst, fst
	}
	var (
		span = monthIndex(lst) - monthIndex(fst)
		step = monthSteps[len(monthSteps)-1]
	)
	for _, m := range monthSteps {
		if span/m < count {
			step = m
			break
		}
	}
	ix := monthIndex(fst)
	if t := time.Date(fst.Year(), fst.Month(), 1, 0, 0, 0, 0, fst.Location()); t.Before(fst) {
		ix++
	}
	if r := ix % step; r != 0 {
		ix += step - r
	}
	var list []time.Time
	for ; ; ix += step {
		t := time.Date(ix/12, time.Month(ix%12+1), 1, 0, 0, 0, 0, fst.Location())
		if t.After(lst) {
			break
		}
		list = append(list, t)
	}
	return list
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
