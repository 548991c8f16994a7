package dash

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/lifecycle"
)

type testServer struct {
	*httptest.Server
	clock *lifecycle.ManualClock
}

func startServer(t *testing.T) testServer {
	t.Helper()
	var (
		store = loadStore(t)
		clock = lifecycle.NewManualClock()
		ctrl  = lifecycle.NewController(lifecycle.WithClock(clock))
		dash  = NewDashboard(NewDocument(crimeviz.NewBudget(1200, 900)), ctrl)
		srv   = NewServer(store.cfg, store, dash)
		ts    = httptest.NewServer(srv.Handler())
	)
	t.Cleanup(func() {
		ts.Close()
		ctrl.Close()
	})
	return testServer{
		Server: ts,
		clock:  clock,
	}
}

func (s testServer) do(t *testing.T, method, path, body string, code int, v any) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request %s: %s", path, err)
	}
	res, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %s", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != code {
		t.Fatalf("%s %s: want status %d, got %d", method, path, code, res.StatusCode)
	}
	if v == nil {
		return
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("%s %s: decode: %s", method, path, err)
	}
}

func TestServerData(t *testing.T) {
	srv := startServer(t)

	var charts map[string]string
	srv.do(t, http.MethodGet, "/charts", "", http.StatusOK, &charts)
	if len(charts) != 2 || charts["Major_Crimes_Trend"] == "" {
		t.Fatalf("unexpected charts %v", charts)
	}

	var res datasetResponse
	srv.do(t, http.MethodGet, "/data/Crime_Lockdown_Patterns", "", http.StatusOK, &res)
	if len(res.Data) != 3 || res.Columns.Chart != ChartRadial {
		t.Fatalf("unexpected dataset %+v", res)
	}

	var failure map[string]string
	srv.do(t, http.MethodGet, "/data/unknown", "", http.StatusNotFound, &failure)
	if !strings.Contains(failure["error"], "unknown") {
		t.Fatalf("unexpected error %v", failure)
	}

	var types []string
	srv.do(t, http.MethodGet, "/data/crime-types", "", http.StatusOK, &types)
	if len(types) != 4 || types[0] != AllTypes {
		t.Fatalf("unexpected crime types %v", types)
	}

	var counts map[string]float64
	srv.do(t, http.MethodGet, "/data/crime-choropleth?crime_type=Burglary", "", http.StatusOK, &counts)
	if counts["Camden"] != 7 {
		t.Fatalf("unexpected counts %v", counts)
	}

	var rates map[string]float64
	srv.do(t, http.MethodGet, "/data/crime-rates?crime_type=Burglary", "", http.StatusOK, &rates)
	if got, want := rates["Camden"], 7.0/210000*1000; len(rates) != 1 || math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected rates %v", rates)
	}

	var series []MonthCount
	srv.do(t, http.MethodGet, "/data/borough-details/camden", "", http.StatusOK, &series)
	if len(series) != 2 || series[0].Date != "2020-03" {
		t.Fatalf("unexpected series %v", series)
	}
}

func TestServerSVG(t *testing.T) {
	srv := startServer(t)

	for _, path := range []string{
		"/svg/Major_Crimes_Trend",
		"/svg/Crime_Lockdown_Patterns?width=500&height=500",
		"/svg/map?crime_type=Theft",
		"/svg/borough/Camden",
	} {
		res, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("%s: %s", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, res.StatusCode)
		}
		if ct := res.Header.Get("Content-Type"); ct != "image/svg+xml" {
			t.Fatalf("%s: unexpected content type %s", path, ct)
		}
	}
	srv.do(t, http.MethodGet, "/svg/unknown", "", http.StatusNotFound, nil)
}

func TestServerViews(t *testing.T) {
	srv := startServer(t)

	var view viewResponse
	srv.do(t, http.MethodPost, "/views", `{"dataset": "Major_Crimes_Trend", "width": 800, "height": 600}`, http.StatusCreated, &view)
	if view.ID == "" || view.Kind != ChartLine || view.Phase != string(lifecycle.PhaseRendered) {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Legend == "" || !strings.Contains(view.Content, "<svg") {
		t.Fatalf("view not drawn")
	}

	path := "/views/" + view.ID
	srv.do(t, http.MethodPost, path+"/resize?width=640&height=480", "", http.StatusAccepted, &view)
	if view.Passes != 1 {
		t.Fatalf("layout should be deferred, got %d passes", view.Passes)
	}
	srv.clock.Advance(lifecycle.DefaultDebounce)
	srv.do(t, http.MethodGet, path, "", http.StatusOK, &view)
	if view.Passes != 2 || view.Width != 640 {
		t.Fatalf("view not laid out after resize: %+v", view)
	}

	var toggle map[string]any
	srv.do(t, http.MethodPost, path+"/toggle?serie=Theft", "", http.StatusOK, &toggle)
	if toggle["visible"] != false {
		t.Fatalf("serie should be hidden: %v", toggle)
	}

	srv.do(t, http.MethodPost, path+"/resize", "", http.StatusBadRequest, nil)
	srv.do(t, http.MethodDelete, path, "", http.StatusNoContent, nil)
	srv.do(t, http.MethodGet, path, "", http.StatusNotFound, nil)
	srv.do(t, http.MethodPost, "/views", `{"dataset": "unknown"}`, http.StatusNotFound, nil)
}

func TestServerResizeNotFinite(t *testing.T) {
	srv := startServer(t)

	var view viewResponse
	srv.do(t, http.MethodPost, "/views", `{"dataset": "Major_Crimes_Trend", "width": 800, "height": 600}`, http.StatusCreated, &view)
	path := "/views/" + view.ID
	for _, q := range []string{"width=Inf&height=Inf", "width=NaN&height=480", "width=640&height=-Inf"} {
		srv.do(t, http.MethodPost, path+"/resize?"+q, "", http.StatusBadRequest, nil)
	}
	srv.clock.Advance(lifecycle.DefaultDebounce)
	srv.do(t, http.MethodGet, path, "", http.StatusOK, &view)
	if view.Passes != 1 || view.Width != 800 || view.Height != 600 {
		t.Fatalf("view should keep its size: %+v", view)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"width": math.Inf(1)})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	var res map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res["error"] == "" {
		t.Fatalf("expected an error body, got %q", rec.Body.String())
	}
}

func TestServerRateLimit(t *testing.T) {
	var (
		store = loadStore(t)
		cfg   = store.cfg
	)
	cfg.Limit = Limit{Rate: 1, Burst: 2}
	var (
		ctrl = lifecycle.NewController(lifecycle.WithClock(lifecycle.NewManualClock()))
		srv  = NewServer(cfg, store, NewDashboard(NewDocument(crimeviz.NewBudget(800, 600)), ctrl))
		h    = srv.Handler()
	)
	defer ctrl.Close()

	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/charts", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[len(codes)-1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}
