package dash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/fsnotify/fsnotify"
	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/internal/logging"
	"github.com/midbel/crimeviz/lifecycle"
	"golang.org/x/sync/errgroup"
)

// Crime is one row of the map crime file.
type Crime struct {
	Date    time.Time
	Borough string
	Type    string
	Count   float64
}

type Population struct {
	Borough string
	Year    int
	Count   float64
}

// loaded is what one source contributes to the store.
type loaded struct {
	source string
	rows   int
	err    error
}

// Store keeps the content of the data directory in memory. A reload replaces
// everything at once.
type Store struct {
	cfg   Config
	retry retry.Retry[Table]

	mu         sync.RWMutex
	datasets   map[string][]crimeviz.Record
	failures   map[string]error
	crimes     []Crime
	population []Population
	boroughs   *crimeviz.FeatureCollection

	listeners []func()
}

func NewStore(cfg Config) *Store {
	attempts := cfg.Retries
	if attempts <= 0 {
		attempts = 1
	}
	return &Store{
		cfg: cfg,
		retry: retry.New[Table](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  100 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
			NonRetryableErrors: []error{
				ErrMissingColumns,
			},
		}),
		datasets: make(map[string][]crimeviz.Record),
		failures: make(map[string]error),
	}
}

// OnReload registers fn to be called after every successful reload.
func (s *Store) OnReload(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load reads all the sources in parallel. A missing or broken source is
// logged and left empty, it does not prevent the others from loading.
func (s *Store) Load(ctx context.Context) error {
	var (
		datasets = make([][]crimeviz.Record, len(s.cfg.Datasets))
		results  = make([]loaded, len(s.cfg.Datasets)+3)
		crimes   []Crime
		people   []Population
		boroughs *crimeviz.FeatureCollection
		start    = time.Now()
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, d := range s.cfg.Datasets {
		g.Go(func() error {
			list, err := s.loadDataset(ctx, d)
			datasets[i] = list
			results[i] = loaded{source: d.Name, rows: len(list), err: err}
			return ctx.Err()
		})
	}
	offset := len(s.cfg.Datasets)
	g.Go(func() error {
		var err error
		crimes, err = s.loadCrimes(ctx)
		results[offset] = loaded{source: s.cfg.Sources.Crimes, rows: len(crimes), err: err}
		return ctx.Err()
	})
	g.Go(func() error {
		var err error
		people, err = s.loadPopulation(ctx)
		results[offset+1] = loaded{source: s.cfg.Sources.Population, rows: len(people), err: err}
		return ctx.Err()
	})
	g.Go(func() error {
		var err error
		boroughs, err = s.loadBoroughs(ctx)
		var n int
		if boroughs != nil {
			n = len(boroughs.Features)
		}
		results[offset+2] = loaded{source: s.cfg.Sources.Boroughs, rows: n, err: err}
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return err
	}

	failures := make(map[string]error)
	for _, r := range results {
		if r.err != nil {
			logging.Warn().
				Add(logging.Dataset(r.source)).
				Add(logging.ErrorField(r.err)).
				Msg("source not loaded")
			failures[r.source] = r.err
			continue
		}
		logging.Info().
			Add(logging.Dataset(r.source)).
			Add(logging.Rows(r.rows)).
			Msg("source loaded")
	}

	s.mu.Lock()
	s.datasets = make(map[string][]crimeviz.Record)
	for i, d := range s.cfg.Datasets {
		s.datasets[d.Name] = datasets[i]
	}
	s.failures = failures
	s.crimes = crimes
	s.population = people
	s.boroughs = boroughs
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	logging.Info().
		Add(logging.Int("failures", len(failures))).
		Add(logging.Duration(time.Since(start))).
		Msg("store loaded")

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// Watch reloads the store each time the data directory changes, until ctx
// is done. Bursts of events are coalesced into a single reload.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(s.cfg.Data); err != nil {
		return fmt.Errorf("watch %s: %w", s.cfg.Data, err)
	}
	deb := lifecycle.NewDebouncer(s.cfg.Debounce, lifecycle.SystemClock())
	defer deb.Cancel()

	reload := func() {
		if err := s.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().
				Add(logging.ErrorField(err)).
				Msg("reload failed")
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logging.Debug().
				Add(logging.Str("file", ev.Name)).
				Add(logging.Str("op", ev.Op.String())).
				Msg("data directory changed")
			deb.Trigger(reload)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Warn().
				Add(logging.ErrorField(err)).
				Msg("watch error")
		}
	}
}

func (s *Store) table(ctx context.Context, file string) (Table, error) {
	where := location(s.cfg.Data, file)
	return s.retry.Do(ctx, func(ctx context.Context) (Table, error) {
		return loadTable(ctx, where)
	})
}

func (s *Store) exists(file string) bool {
	where := location(s.cfg.Data, file)
	if isRemote(where) {
		return true
	}
	_, err := os.Stat(where)
	return err == nil
}

func (s *Store) loadDataset(ctx context.Context, d Dataset) ([]crimeviz.Record, error) {
	if !s.exists(d.File) {
		return nil, fmt.Errorf("data file not found: %s", d.File)
	}
	tbl, err := s.table(ctx, d.File)
	if err != nil {
		return nil, err
	}
	return datasetRecords(tbl, d.Mapping)
}

// datasetRecords keeps the x, y and label columns of every complete row.
func datasetRecords(tbl Table, m crimeviz.Mapping) ([]crimeviz.Record, error) {
	sel, err := SelectColumns(tbl.Header, m.X, m.Y, m.Label)
	if err != nil {
		return nil, err
	}
	list := make([]crimeviz.Record, 0, tbl.Len())
	for _, row := range tbl.Rows {
		cells, ok := sel.Complete(row)
		if !ok {
			continue
		}
		r := crimeviz.Record{
			X:     cells[0],
			Label: cells[2],
		}
		if n, err := parseCount(cells[1]); err == nil {
			r.Y = n
		} else {
			r.Y = cells[1]
		}
		list = append(list, r)
	}
	return list, nil
}

func (s *Store) loadCrimes(ctx context.Context) ([]Crime, error) {
	if !s.exists(s.cfg.Sources.Crimes) {
		return nil, fmt.Errorf("crime data file not found: %s", s.cfg.Sources.Crimes)
	}
	tbl, err := s.table(ctx, s.cfg.Sources.Crimes)
	if err != nil {
		return nil, err
	}
	return crimeRows(tbl)
}

// crimeRows drops the rows with a date or a count that can not be parsed.
func crimeRows(tbl Table) ([]Crime, error) {
	sel, err := SelectColumns(tbl.Header, "Month_Year", "Borough", "Count")
	if err != nil {
		return nil, err
	}
	kind := SelectOptional(tbl.Header, "Offence Group")

	var (
		list   = make([]Crime, 0, tbl.Len())
		failed int
	)
	for _, row := range tbl.Rows {
		cells, err := sel.Select(row)
		if err != nil {
			continue
		}
		when, err := parseDay(cells[0])
		if err != nil {
			failed++
			continue
		}
		count, err := parseCount(cells[2])
		if err != nil {
			continue
		}
		c := Crime{
			Date:    when,
			Borough: crimeviz.TitleCase(cells[1]),
			Count:   count,
		}
		if k, err := kind.Select(row); err == nil {
			c.Type = k[0]
		}
		list = append(list, c)
	}
	if failed > 0 {
		logging.Warn().
			Add(logging.Int("rows", failed)).
			Msg("rows failed date parsing")
	}
	return list, nil
}

func (s *Store) loadPopulation(ctx context.Context) ([]Population, error) {
	if !s.exists(s.cfg.Sources.Population) {
		return nil, fmt.Errorf("population data file not found: %s", s.cfg.Sources.Population)
	}
	tbl, err := s.table(ctx, s.cfg.Sources.Population)
	if err != nil {
		return nil, err
	}
	return populationRows(tbl, s.cfg.Window)
}

// populationRows keeps the years inside the window.
func populationRows(tbl Table, window Window) ([]Population, error) {
	sel, err := SelectColumns(tbl.Header, "Borough", "Year", "Population")
	if err != nil {
		return nil, err
	}
	list := make([]Population, 0, tbl.Len())
	for _, row := range tbl.Rows {
		cells, err := sel.Select(row)
		if err != nil {
			continue
		}
		year, err := strconv.ParseFloat(cells[1], 64)
		if err != nil {
			continue
		}
		if y := int(year); y < window.From.Year() || y > window.To.Year() {
			continue
		}
		count, _ := parseCount(cells[2])
		list = append(list, Population{
			Borough: crimeviz.TitleCase(cells[0]),
			Year:    int(year),
			Count:   count,
		})
	}
	return list, nil
}

func (s *Store) loadBoroughs(ctx context.Context) (*crimeviz.FeatureCollection, error) {
	if !s.exists(s.cfg.Sources.Boroughs) {
		return nil, fmt.Errorf("geojson file not found: %s", s.cfg.Sources.Boroughs)
	}
	r, err := readFrom(ctx, location(s.cfg.Data, s.cfg.Sources.Boroughs))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	fc, err := crimeviz.DecodeFeatures(r)
	if err != nil {
		return nil, err
	}
	return &fc, nil
}

// Dataset returns the records of a dataset of the catalogue with the way
// its columns are displayed.
func (s *Store) Dataset(name string) ([]crimeviz.Record, crimeviz.Mapping, error) {
	d, err := s.cfg.Dataset(name)
	if err != nil {
		return nil, crimeviz.Mapping{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.failures[name]; ok {
		return nil, d.Mapping, err
	}
	return s.datasets[name], d.Mapping, nil
}

func (s *Store) Charts() map[string]string {
	return s.cfg.Charts()
}

func (s *Store) Crimes() []Crime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crimes
}

func (s *Store) Boroughs() (crimeviz.FeatureCollection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.boroughs == nil {
		return crimeviz.FeatureCollection{}, false
	}
	return *s.boroughs, true
}

// Population returns the population of a borough for the given year.
func (s *Store) Population(borough string, year int) (float64, bool) {
	borough = crimeviz.TitleCase(borough)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.population {
		if p.Year == year && p.Borough == borough {
			return p.Count, true
		}
	}
	return 0, false
}
