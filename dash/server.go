package dash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/interact"
	"github.com/midbel/crimeviz/internal/logging"
	"github.com/midbel/crimeviz/lifecycle"
)

const (
	mapPrefix = "map:"
	svgPrefix = "svg:"
)

// Server exposes the datasets, their aggregations and the rendered charts.
type Server struct {
	cfg     Config
	store   *Store
	dash    *Dashboard
	cache   *ViewCache
	limiter ratelimit.RateLimiter
	mux     *http.ServeMux

	mu     sync.Mutex
	filter string
}

func NewServer(cfg Config, store *Store, dash *Dashboard) *Server {
	rate, burst := cfg.Limit.Rate, cfg.Limit.Burst
	if rate <= 0 {
		rate = 50
	}
	if burst <= 0 {
		burst = rate
	}
	s := Server{
		cfg:   cfg,
		store: store,
		dash:  dash,
		cache: NewViewCache(),
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    burst,
			FailOpen: true,
		}),
		mux:    http.NewServeMux(),
		filter: AllTypes,
	}
	store.OnReload(func() {
		s.cache.Invalidate()
	})
	s.routes()
	return &s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /charts", s.handleCharts)
	s.mux.HandleFunc("GET /data/crime-types", s.handleCrimeTypes)
	s.mux.HandleFunc("GET /data/crime-choropleth", s.handleChoropleth)
	s.mux.HandleFunc("GET /data/crime-rates", s.handleRates)
	s.mux.HandleFunc("GET /data/borough-details/{name...}", s.handleBoroughDetails)
	s.mux.HandleFunc("GET /data/{name}", s.handleDataset)
	s.mux.HandleFunc("GET /geojson/london-boroughs", s.handleBoroughs)

	s.mux.HandleFunc("GET /svg/map", s.handleMap)
	s.mux.HandleFunc("GET /svg/borough/{name...}", s.handleBoroughChart)
	s.mux.HandleFunc("GET /svg/{name}", s.handleChart)

	s.mux.HandleFunc("POST /views", s.handleCreateView)
	s.mux.HandleFunc("GET /views/{id}", s.handleGetView)
	s.mux.HandleFunc("POST /views/{id}/resize", s.handleResizeView)
	s.mux.HandleFunc("POST /views/{id}/toggle", s.handleToggleView)
	s.mux.HandleFunc("DELETE /views/{id}", s.handleDeleteView)
}

// Handler returns the routes of the server behind the rate limiter.
func (s *Server) Handler() http.Handler {
	return s.limit(s.mux)
}

// ListenAndServe serves until ctx is done, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		logging.Info().
			Add(logging.Str("addr", s.cfg.Addr)).
			Msg("server listening")
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		sub, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sub)
	}
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			key = r.RemoteAddr
		}
		if !s.limiter.Allow(r.Context(), key) {
			logging.Warn().
				Add(logging.Str("client", key)).
				Add(logging.Str("path", r.URL.Path)).
				Msg("rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Charts())
}

type datasetResponse struct {
	Data    []crimeviz.Record `json:"data"`
	Columns crimeviz.Mapping  `json:"columns"`
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	data, mapping, err := s.store.Dataset(name)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownDataset):
			writeError(w, http.StatusNotFound, fmt.Sprintf("Invalid dataset name for original charts: %s", name))
		case errors.Is(err, ErrMissingColumns):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusNotFound, err.Error())
		}
		return
	}
	if data == nil {
		data = []crimeviz.Record{}
	}
	writeJSON(w, http.StatusOK, datasetResponse{
		Data:    data,
		Columns: mapping,
	})
}

func (s *Server) handleCrimeTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.CrimeTypes())
}

func crimeType(r *http.Request) string {
	if t := r.URL.Query().Get("crime_type"); t != "" {
		return t
	}
	return AllTypes
}

// setFilter remembers the crime type of the map view. The rendered map is
// dropped when it changes.
func (s *Server) setFilter(crime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == crime {
		return
	}
	s.filter = crime
	s.cache.Invalidate(mapPrefix)
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	crime := crimeType(r)
	s.setFilter(crime)
	writeJSON(w, http.StatusOK, s.store.Choropleth(crime))
}

// handleRates returns the counts of the choropleth per thousand residents.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Rates(crimeType(r)))
}

func (s *Server) handleBoroughDetails(w http.ResponseWriter, r *http.Request) {
	series := s.store.BoroughSeries(r.PathValue("name"), crimeType(r))
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleBoroughs(w http.ResponseWriter, r *http.Request) {
	buf, err := s.cache.Get("geojson", func() ([]byte, error) {
		fc, ok := s.store.Boroughs()
		if !ok {
			return nil, ErrUnknownDataset
		}
		return json.Marshal(fc)
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "GeoJSON data not loaded or available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var (
		crime = crimeType(r)
		size  = s.size(r)
		state = crimeviz.MapState{
			Highlighted: crimeviz.TitleCase(r.URL.Query().Get("highlight")),
		}
		key = fmt.Sprintf("%s%s:%s:%gx%g", mapPrefix, crime, state.Highlighted, size.Width, size.Height)
	)
	s.setFilter(crime)
	buf, err := s.cache.Get(key, func() ([]byte, error) {
		fc, ok := s.store.Boroughs()
		if !ok {
			return nil, ErrUnknownDataset
		}
		var tmp bytes.Buffer
		err := crimeviz.RenderMap(&tmp, fc, s.store.Choropleth(crime), size, state)
		return tmp.Bytes(), err
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "GeoJSON data not loaded or available")
		return
	}
	writeSVG(w, buf)
}

// handleBoroughChart draws the monthly series of a borough in the popup of
// the dashboard and returns it.
func (s *Server) handleBoroughChart(w http.ResponseWriter, r *http.Request) {
	var (
		name   = crimeviz.TitleCase(r.PathValue("name"))
		crime  = crimeType(r)
		series = s.store.BoroughSeries(name, crime)
		width  = floatParam(r, "width", s.cfg.Width)
		list   = make([]crimeviz.TimeRecord, 0, len(series))
	)
	for _, m := range series {
		list = append(list, m.Record())
	}
	doc := s.dash.Document()
	target := doc.Add(DetailTarget, RootTarget, crimeviz.NewBudget(width, crimeviz.DetailHeight))
	doc.Add(DetailTitleTarget, RootTarget, crimeviz.NewBudget(width, 0))
	target.Resize(crimeviz.NewBudget(width, crimeviz.DetailHeight))

	if _, err := s.dash.RenderTimeSeriesDetail(list, name, crime); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSVG(w, target.Content())
}

// handleChart draws a dataset of the catalogue once, outside of any view.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var (
		name = r.PathValue("name")
		size = s.size(r)
		key  = fmt.Sprintf("%s%s:%gx%g", svgPrefix, name, size.Width, size.Height)
	)
	buf, err := s.cache.Get(key, func() ([]byte, error) {
		data, mapping, err := s.store.Dataset(name)
		if err != nil {
			return nil, err
		}
		chart, err := s.chart(data, mapping, nil)
		if err != nil {
			return nil, err
		}
		var tmp bytes.Buffer
		if err := chart.Layout(&tmp, size, false); err != nil && tmp.Len() == 0 {
			return nil, err
		}
		return tmp.Bytes(), nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownDataset) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeSVG(w, buf)
}

// chart builds the chart of a dataset detached from any dashboard. Without
// legend, the legend of a line chart is discarded.
func (s *Server) chart(data []crimeviz.Record, mapping crimeviz.Mapping, legend lifecycle.Surface) (lifecycle.Chart, error) {
	points := crimeviz.Points(data)
	if legend == nil {
		legend = newTarget("", "", crimeviz.Budget{})
	}
	label := s.dash.Label()
	switch mapping.Chart {
	case ChartLine:
		return &lineChart{
			points:  points,
			mapping: mapping,
			style:   s.dash.currentStyle(),
			legend:  legend,
			handler: interact.NewLineHandler("", label, nil),
		}, nil
	case ChartRadial:
		return &radialChart{
			points:  points,
			title:   mapping.Title,
			style:   s.dash.currentStyle(),
			handler: interact.NewRadialHandler("", label),
		}, nil
	default:
		return nil, fmt.Errorf("%s: unsupported chart", mapping.Chart)
	}
}

type createView struct {
	Dataset string  `json:"dataset"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

type viewResponse struct {
	ID       string  `json:"id"`
	Instance string  `json:"instance,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	Phase    string  `json:"phase"`
	Passes   int     `json:"passes"`
	Failures int     `json:"failures"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Legend   string  `json:"legend,omitempty"`
	Content  string  `json:"content"`
}

func legendID(view string) string {
	return view + "-legend"
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req createView
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, mapping, err := s.store.Dataset(req.Dataset)
	if err != nil {
		if errors.Is(err, ErrUnknownDataset) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Width <= 0 {
		req.Width = s.cfg.Width
	}
	if req.Height <= 0 {
		req.Height = s.cfg.Height
	}
	var (
		id   = uuid.NewString()
		doc  = s.dash.Document()
		size = crimeviz.NewBudget(req.Width, req.Height)
	)
	doc.Add(id, RootTarget, size)
	switch mapping.Chart {
	case ChartLine:
		doc.Add(legendID(id), RootTarget, size)
		_, err = s.dash.RenderLineChart(data, mapping, id, legendID(id))
	default:
		_, err = s.dash.RenderRadialChart(data, id, mapping.Title)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.describe(id))
}

func (s *Server) describe(id string) viewResponse {
	res := viewResponse{
		ID:    id,
		Phase: string(lifecycle.PhaseUninitialized),
	}
	if t, ok := s.dash.Document().Lookup(id); ok {
		size := t.Size()
		res.Width, res.Height = size.Width, size.Height
		res.Content = string(t.Content())
	}
	if t, ok := s.dash.Document().Lookup(legendID(id)); ok {
		res.Legend = string(t.Content())
	}
	if v, ok := s.dash.View(id); ok {
		p := v.Instance.Progress()
		res.Instance = v.Instance.ID()
		res.Kind = v.Instance.Kind()
		res.Phase = string(v.Instance.Phase())
		res.Passes = p.Passes
		res.Failures = p.Failures
	}
	return res
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.dash.Document().Lookup(id); !ok {
		writeError(w, http.StatusNotFound, "view not found")
		return
	}
	writeJSON(w, http.StatusOK, s.describe(id))
}

// handleResizeView changes the size of the target of a view. The chart is
// laid out again once the size settles.
func (s *Server) handleResizeView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	target, ok := s.dash.Document().Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "view not found")
		return
	}
	size := crimeviz.NewBudget(floatParam(r, "width", 0), floatParam(r, "height", 0))
	if size.Width <= 0 || size.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be finite positive numbers")
		return
	}
	target.Resize(size)
	writeJSON(w, http.StatusAccepted, s.describe(id))
}

func (s *Server) handleToggleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, ok := s.dash.View(id)
	if !ok || v.Line == nil {
		writeError(w, http.StatusNotFound, "line chart not found")
		return
	}
	serie := r.URL.Query().Get("serie")
	visible := v.Line.Toggle(serie)
	if err := s.dash.Redraw(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"serie":   serie,
		"visible": visible,
	})
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	var (
		id  = r.PathValue("id")
		doc = s.dash.Document()
	)
	if _, ok := doc.Lookup(id); !ok {
		writeError(w, http.StatusNotFound, "view not found")
		return
	}
	s.dash.Dispose(id)
	doc.Remove(id)
	doc.Remove(legendID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) size(r *http.Request) crimeviz.Budget {
	return crimeviz.NewBudget(floatParam(r, "width", s.cfg.Width), floatParam(r, "height", s.cfg.Height))
}

func floatParam(r *http.Request, name string, value float64) float64 {
	str := r.URL.Query().Get(name)
	if str == "" {
		return value
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return value
	}
	return f
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		logging.Error().
			Add(logging.ErrorField(err)).
			Msg("encoding response")
		code = http.StatusInternalServerError
		buf, _ = json.Marshal(map[string]string{
			"error": "response can not be encoded",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(buf, '\n'))
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{
		"error": msg,
	})
}

func writeSVG(w http.ResponseWriter, buf []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf)
}
