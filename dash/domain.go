package dash

import (
	"sort"
	"strings"
	"time"

	"github.com/midbel/crimeviz"
	"github.com/midbel/slices"
)

// AllTypes selects every crime type.
const AllTypes = "All"

// MonthCount is the monthly total of a borough.
type MonthCount struct {
	Date  string  `json:"date"`
	Count float64 `json:"count"`
}

func (m MonthCount) Record() crimeviz.TimeRecord {
	return crimeviz.TimeRecord{
		Date:  m.Date,
		Count: m.Count,
	}
}

func matchType(crimeType string) func(Crime) bool {
	crimeType = strings.TrimSpace(crimeType)
	if crimeType == "" || crimeType == AllTypes {
		return func(Crime) bool { return true }
	}
	return func(c Crime) bool {
		return c.Type == crimeType
	}
}

func (w Window) filter(list []Crime) []Crime {
	return slices.Filter(list, func(c Crime) bool {
		return w.Contains(c.Date)
	})
}

// CrimeTypes returns "All" followed by the crime types found within the
// window, sorted.
func CrimeTypes(list []Crime, w Window) []string {
	var (
		seen  = make(map[string]struct{})
		types []string
	)
	for _, c := range w.filter(list) {
		if c.Type == "" {
			continue
		}
		if _, ok := seen[c.Type]; ok {
			continue
		}
		seen[c.Type] = struct{}{}
		types = append(types, c.Type)
	}
	sort.Strings(types)
	return append([]string{AllTypes}, types...)
}

// Choropleth sums the counts of each borough within the window.
func Choropleth(list []Crime, w Window, crimeType string) map[string]float64 {
	var (
		keep   = matchType(crimeType)
		counts = make(map[string]float64)
	)
	for _, c := range w.filter(list) {
		if !keep(c) {
			continue
		}
		counts[c.Borough] += c.Count
	}
	return counts
}

// BoroughSeries sums the counts of a borough per month, ordered by date.
func BoroughSeries(list []Crime, w Window, borough, crimeType string) []MonthCount {
	var (
		name   = crimeviz.TitleCase(borough)
		keep   = matchType(crimeType)
		months = make(map[time.Time]float64)
	)
	for _, c := range w.filter(list) {
		if c.Borough != name || !keep(c) {
			continue
		}
		when := time.Date(c.Date.Year(), c.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		months[when] += c.Count
	}
	keys := make([]time.Time, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
	series := make([]MonthCount, 0, len(keys))
	for _, k := range keys {
		series = append(series, MonthCount{
			Date:  k.Format(crimeviz.MonthLayout),
			Count: months[k],
		})
	}
	return series
}

func (s *Store) CrimeTypes() []string {
	return CrimeTypes(s.Crimes(), s.cfg.Window)
}

func (s *Store) Choropleth(crimeType string) map[string]float64 {
	return Choropleth(s.Crimes(), s.cfg.Window, crimeType)
}

// Rates divides the counts of every borough by its population in the last
// year of the window, per thousand residents. Boroughs without population
// are left out.
func (s *Store) Rates(crimeType string) map[string]float64 {
	var (
		counts = s.Choropleth(crimeType)
		year   = s.cfg.Window.To.Year()
		rates  = make(map[string]float64, len(counts))
	)
	for name, n := range counts {
		people, ok := s.Population(name, year)
		if !ok || people <= 0 {
			continue
		}
		rates[name] = n / people * 1000
	}
	return rates
}

func (s *Store) BoroughSeries(borough, crimeType string) []MonthCount {
	return BoroughSeries(s.Crimes(), s.cfg.Window, borough, crimeType)
}
