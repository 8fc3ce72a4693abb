package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evdash/internal/charts"
	apierrors "evdash/internal/errors"
	"evdash/internal/middleware"
	"evdash/internal/report"
	"evdash/internal/services"
	"evdash/internal/session"
	"evdash/internal/shared/testutil"
	live "evdash/internal/websocket"
	"evdash/pkg/contracts/domain"
)

const (
	testCookie    = "evdash_session"
	testBodyLimit = 512
)

type testEnv struct {
	server *httptest.Server
	client *http.Client
	logs   *testutil.BufferedSlogHandler
	hub    *live.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	handler := testutil.NewBufferedSlogHandler(nil)
	logger := slog.New(handler)
	data := testutil.NewDataset(t)

	pipeline := report.NewPipeline(data, logger, nil)
	store := session.NewStore(session.Options{TTL: time.Hour}, logger, nil)
	svc := services.NewDashboardService(pipeline, store, logger, nil)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	hub := live.NewHub(logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(hubDone)
	}()

	page, err := NewPageHandler(svc, logger, errorHandler)
	require.NoError(t, err)

	hs := Handlers{
		Page:      page,
		API:       NewDashboardHandler(svc, logger, errorHandler),
		Live:      NewLiveHandler(svc, hub, LiveConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}, logger, errorHandler),
		Health:    NewHealthHandler(services.NewHealthService(data, store, hub, logger), logger),
		Metrics:   NewMetricsHandler(store, hub),
		ClientLog: NewClientLogHandler(logger, errorHandler),
		Sessions:  NewSessionMiddleware(svc, CookieConfig{Name: testCookie, TTL: time.Hour}, logger),
		Bodies:    middleware.NewBodyValidator(logger, errorHandler, testBodyLimit),
	}

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	hs.Register(r)

	srv := httptest.NewServer(r)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		cancel()
		<-hubDone
		srv.Close()
	})

	return &testEnv{
		server: srv,
		client: &http.Client{Jar: jar},
		logs:   handler,
		hub:    hub,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type problem struct {
	Status    int             `json:"status"`
	Type      string          `json:"type"`
	ErrorCode string          `json:"error_code"`
	Details   json.RawMessage `json:"details"`
}

type reportBody struct {
	Filters domain.FilterState `json:"filters"`
	Mode    string             `json:"mode"`
	Year    int                `json:"year"`
	Panels  []domain.Panel     `json:"panels"`
	Table   []struct {
		Maker string   `json:"maker"`
		Year  int      `json:"year"`
		Sales *float64 `json:"sales"`
	} `json:"table"`
}

func TestSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	state := decode[domain.FilterState](t, resp)
	assert.Equal(t, domain.DefaultFilterState(testutil.FixtureLatestYear), state)

	// The jar sends the cookie back, so no new session is started.
	resp = env.do(t, http.MethodGet, "/api/filters", nil)
	assert.Empty(t, resp.Cookies())
}

func TestUnknownSessionCookieIsReplaced(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/filters", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "stale"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Len(t, resp.Cookies(), 1)
	assert.NotEqual(t, "stale", resp.Cookies()[0].Value)
}

func TestFilterFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/api/filters", map[string]string{"maker": "TATA MOTORS"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apierrors.ContentTypeProblem, resp.Header.Get("Content-Type"))
	assert.Equal(t, "FILTERS_HIDDEN", decode[problem](t, resp).ErrorCode)

	resp = env.do(t, http.MethodPost, "/api/filters/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[domain.FilterState](t, resp).Active)

	resp = env.do(t, http.MethodPut, "/api/filters", map[string]interface{}{"maker": "TATA MOTORS", "year": 2022})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[domain.FilterState](t, resp)
	assert.Equal(t, "TATA MOTORS", state.Maker)
	assert.Equal(t, 2022, state.Year)

	resp = env.do(t, http.MethodGet, "/api/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[reportBody](t, resp)
	assert.Equal(t, string(domain.FiltersShown), rep.Mode)
	assert.Equal(t, 2022, rep.Year)
	require.Len(t, rep.Table, 1)
	assert.Equal(t, "TATA MOTORS", rep.Table[0].Maker)
	require.NotNil(t, rep.Table[0].Sales)
	assert.Equal(t, 200.0, *rep.Table[0].Sales)
	assert.Len(t, rep.Panels, len(charts.PanelIDs))

	resp = env.do(t, http.MethodPut, "/api/filters", map[string]interface{}{"maker": "NOPE", "year": 1999})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	p := decode[problem](t, resp)
	assert.Equal(t, "VALIDATION_FAILED", p.ErrorCode)
	assert.Contains(t, string(p.Details), `"field":"maker"`)
	assert.Contains(t, string(p.Details), `"field":"year"`)

	// A rejected update leaves the state alone.
	resp = env.do(t, http.MethodGet, "/api/filters", nil)
	assert.Equal(t, "TATA MOTORS", decode[domain.FilterState](t, resp).Maker)

	// Hiding resets the selections.
	resp = env.do(t, http.MethodPost, "/api/filters/toggle", nil)
	assert.Equal(t, domain.DefaultFilterState(testutil.FixtureLatestYear), decode[domain.FilterState](t, resp))
}

func TestReportQuery(t *testing.T) {
	tests := []struct {
		name       string
		show       bool
		query      string
		wantStatus int
		wantRows   int
		wantYear   int
	}{
		{name: "hidden ignores selections", query: "?maker=TATA+MOTORS&year=2021", wantStatus: http.StatusOK, wantRows: 4, wantYear: 2023},
		{name: "shown applies selections", show: true, query: "?maker=TATA+MOTORS&year=2021", wantStatus: http.StatusOK, wantRows: 1, wantYear: 2021},
		{name: "shown with All", show: true, query: "?maker=All&category=2W", wantStatus: http.StatusOK, wantRows: 2, wantYear: 2023},
		{name: "hidden ignores malformed input", query: "?year=abc&maker=NOBODY", wantStatus: http.StatusOK, wantRows: 4, wantYear: 2023},
		{name: "shown rejects non numeric year", show: true, query: "?year=abc", wantStatus: http.StatusBadRequest},
		{name: "unknown category", show: true, query: "?category=9W", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.show {
				require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/filters/toggle", nil).StatusCode)
			}

			resp := env.do(t, http.MethodGet, "/api/report"+tt.query, nil)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "VALIDATION_FAILED", decode[problem](t, resp).ErrorCode)
				return
			}
			rep := decode[reportBody](t, resp)
			assert.Len(t, rep.Table, tt.wantRows)
			assert.Equal(t, tt.wantYear, rep.Year)
		})
	}
}

func TestMissingSalesIsNull(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/filters/toggle", nil)

	resp := env.do(t, http.MethodGet, "/api/report?maker=OLA+ELECTRIC&year=2022", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[reportBody](t, resp)
	require.Len(t, rep.Table, 1)
	assert.Nil(t, rep.Table[0].Sales)
}

func TestOptionsAndDatasets(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	opts := decode[domain.FilterOptions](t, resp)
	assert.Equal(t, testutil.FixtureMakers, opts.Makers)
	assert.Equal(t, testutil.FixtureMinYear, opts.MinYear)
	assert.Equal(t, testutil.FixtureLatestYear, opts.MaxYear)

	resp = env.do(t, http.MethodGet, "/api/datasets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inv []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&inv))
	assert.Len(t, inv, 5)
}

func TestCharts(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path        string
		wantStatus  int
		contentType string
		prefix      string
	}{
		{path: "/api/charts/top-makers.svg", wantStatus: http.StatusOK, contentType: "image/svg+xml", prefix: "<svg"},
		{path: "/api/charts/market-share.png", wantStatus: http.StatusOK, contentType: "image/png", prefix: "\x89PNG"},
		{path: "/api/charts/nope.svg", wantStatus: http.StatusNotFound},
		{path: "/api/charts/top-makers.gif", wantStatus: http.StatusNotFound},
		{path: "/api/charts/top-makers", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, apierrors.ContentTypeProblem, resp.Header.Get("Content-Type"))
				return
			}
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body[:min(len(body), 512)]), tt.prefix)
		})
	}
}

func TestChartForEmptySelectionIsPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/filters/toggle", nil)
	env.do(t, http.MethodPut, "/api/filters", map[string]interface{}{"maker": "MAHINDRA", "category": "2W"})

	for _, id := range charts.PanelIDs {
		resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/charts/%s.svg", id), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, id)
	}
}

func TestExports(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/export/sales.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ev_sales.csv")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := strings.TrimPrefix(string(body), "\ufeff")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Equal(t, "maker,cat,year,sales", strings.TrimSpace(lines[0]))
	assert.Len(t, lines, 5)

	resp = env.do(t, http.MethodGet, "/api/export/report.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ev_report.xlsx")
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx is a zip archive")
}

func TestPage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, "<h1>🔋 "+report.Title+"</h1>")
	assert.Contains(t, page, "Show filters")
	assert.NotContains(t, page, "Select EV Maker")
	for _, id := range charts.PanelIDs {
		assert.Contains(t, page, `id="chart-`+id+`"`)
	}

	// The toggle form redirects back to the page with the controls shown.
	resp = env.do(t, http.MethodPost, "/filters/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	page = string(body)
	assert.Contains(t, page, "Hide filters")
	assert.Contains(t, page, "Select EV Maker")
	assert.Contains(t, page, "Select Vehicle Class")
	assert.Contains(t, page, `min="2021"`)

	resp = env.do(t, http.MethodGet, "/?maker=ATHER+ENERGY", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `<option value="ATHER ENERGY" selected>`)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/health/ready", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", decode[services.HealthStatus](t, resp).Status)

	resp = env.do(t, http.MethodGet, "/api/health/live", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.do(t, http.MethodGet, "/api/filters", nil)
	resp = env.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[MetricsSnapshot](t, resp)
	require.NotNil(t, snap.Sessions)
	assert.Equal(t, 1, snap.Sessions.Active)
	require.NotNil(t, snap.Live)
	assert.Greater(t, snap.Runtime.Goroutines, 0)

	// Health routes never start sessions.
	assert.Equal(t, 1, snap.Sessions.Active)
}

func TestClientLog(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/client-log", map[string]interface{}{
		"level": "error", "message": "chart failed", "source": "dashboard",
		"data": map[string]interface{}{"panel": "growth"},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	rec, ok := env.logs.Find("chart failed")
	require.True(t, ok)
	assert.Equal(t, "dashboard", rec.Attrs["client_source"])

	resp = env.do(t, http.MethodPost, "/api/client-log", map[string]string{"level": "info"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/client-log", strings.NewReader("message=x"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp2, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp2.StatusCode)
}

func TestRequestBodyLimits(t *testing.T) {
	large := strings.Repeat("x", testBodyLimit)
	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		show     bool
		wantCode int
		wantErr  string
	}{
		{name: "filters oversized", method: http.MethodPut, path: "/api/filters", show: true,
			body: `{"maker":"` + large + `"}`, wantCode: http.StatusRequestEntityTooLarge, wantErr: "PAYLOAD_TOO_LARGE"},
		{name: "filters invalid json", method: http.MethodPut, path: "/api/filters", show: true,
			body: `{"maker":`, wantCode: http.StatusBadRequest, wantErr: "INVALID_JSON"},
		{name: "client log oversized", method: http.MethodPost, path: "/api/client-log",
			body: `{"message":"` + large + `"}`, wantCode: http.StatusRequestEntityTooLarge, wantErr: "PAYLOAD_TOO_LARGE"},
		{name: "filters within limit", method: http.MethodPut, path: "/api/filters", show: true,
			body: `{"year":2022}`, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.show {
				require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/filters/toggle", nil).StatusCode)
			}

			req, err := http.NewRequest(tt.method, env.server.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			resp, err := env.client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode[problem](t, resp).ErrorCode)
			}
		})
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/filters", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLiveChannel(t *testing.T) {
	env := newTestEnv(t)

	// Start the session over HTTP so the socket shares it.
	env.do(t, http.MethodGet, "/api/filters", nil)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	dialer := ws.Dialer{Jar: env.client.Jar, HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() map[string]json.RawMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}
	typeOf := func(m map[string]json.RawMessage) string {
		var s string
		require.NoError(t, json.Unmarshal(m["type"], &s))
		return s
	}

	assert.Equal(t, live.TypeConnection, typeOf(read()))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "filter", "maker": "TATA MOTORS"}))
	msg := read()
	require.Equal(t, live.TypeError, typeOf(msg))
	assert.Contains(t, string(msg["error"]), "FILTERS_HIDDEN")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "toggle"}))
	msg = read()
	require.Equal(t, live.TypeReport, typeOf(msg))
	var rep reportBody
	require.NoError(t, json.Unmarshal(msg["data"], &rep))
	assert.True(t, rep.Filters.Active)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "filter", "maker": "ATHER ENERGY", "year": 2022}))
	msg = read()
	require.Equal(t, live.TypeReport, typeOf(msg))
	require.NoError(t, json.Unmarshal(msg["data"], &rep))
	require.Len(t, rep.Table, 1)
	assert.Equal(t, "ATHER ENERGY", rep.Table[0].Maker)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "filter", "year": 1800}))
	msg = read()
	require.Equal(t, live.TypeError, typeOf(msg))
	assert.Contains(t, string(msg["error"]), "VALIDATION_FAILED")

	// The HTTP API sees the state the socket changed.
	resp := env.do(t, http.MethodGet, "/api/filters", nil)
	assert.Equal(t, "ATHER ENERGY", decode[domain.FilterState](t, resp).Maker)

	assert.Equal(t, 1, env.hub.ClientCount())
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://allowed.example"})
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{name: "no origin", host: "dash.local", want: true},
		{name: "allowed", origin: "http://allowed.example", host: "dash.local", want: true},
		{name: "same host", origin: "http://dash.local", host: "dash.local", want: true},
		{name: "foreign", origin: "http://evil.example", host: "dash.local", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, check(r))
		})
	}
	assert.True(t, originChecker([]string{"*"})(func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Origin", "http://anything")
		return r
	}()))
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "filter error", err: &services.FilterError{Fields: []services.FieldError{{Field: "maker", Value: "x", Err: services.ErrUnknownMaker}}}, wantStatus: 400, wantCode: "VALIDATION_FAILED"},
		{name: "hidden", err: services.ErrFiltersHidden, wantStatus: 409, wantCode: "FILTERS_HIDDEN"},
		{name: "panel", err: fmt.Errorf("%w: x", services.ErrUnknownPanel), wantStatus: 404, wantCode: "PANEL_NOT_FOUND"},
		{name: "session", err: fmt.Errorf("%w: x", services.ErrSessionNotFound), wantStatus: 404, wantCode: "NOT_FOUND"},
		{name: "format", err: fmt.Errorf("%w: gif", charts.ErrUnknownFormat), wantStatus: 404, wantCode: "NOT_FOUND"},
		{name: "invalid input", err: fmt.Errorf("%w: bad", services.ErrInvalidInput), wantStatus: 400, wantCode: "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *apierrors.APIError
			require.True(t, errors.As(mapServiceError(tt.err), &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}

	plain := errors.New("boom")
	assert.Equal(t, plain, mapServiceError(plain))
}
