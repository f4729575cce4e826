package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"findd/internal/engine"
	"findd/pkg/types"
)

type mockService struct {
	searchResp  types.SearchResponse
	searchErr   error
	lastSearch  types.SearchRequest
	status      types.StatusResponse
	instances   []types.RunningInstance
	ensureErr   error
	lastEnsure  types.EnsureRequest
	blocked     types.BlockAutostartRequest
	stopped     bool
	lastStop    types.ShutdownRequest
	history     []types.HistoryEntry
	historyErr  error
	historyWant int
	events      []types.EngineEvent
	ready       bool
}

func (m *mockService) Search(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error) {
	m.lastSearch = req
	return m.searchResp, m.searchErr
}
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Instances(ctx context.Context) []types.RunningInstance {
	return m.instances
}
func (m *mockService) Ensure(ctx context.Context, req types.EnsureRequest) error {
	m.lastEnsure = req
	return m.ensureErr
}
func (m *mockService) BlockAutostart(req types.BlockAutostartRequest) { m.blocked = req }
func (m *mockService) Shutdown(ctx context.Context, req types.ShutdownRequest) bool {
	m.lastStop = req
	return m.stopped
}
func (m *mockService) History(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	m.historyWant = limit
	return m.history, m.historyErr
}
func (m *mockService) Events() []types.EngineEvent    { return m.events }
func (m *mockService) Ready(ctx context.Context) bool { return m.ready }

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func do(t *testing.T, svc Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var er types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("error body: %v (%s)", err, w.Body.String())
	}
	return er
}

func TestSearch_ReturnsResponse(t *testing.T) {
	svc := &mockService{searchResp: types.SearchResponse{
		Handled:  true,
		Paths:    []string{`D:\00_Развитие`},
		Best:     `D:\00_Развитие`,
		Statuses: []types.StatusMessage{{Text: "Нашёл папку: 00 развитие", Level: types.LevelInfo}},
	}}
	w := do(t, svc, http.MethodPost, "/search", `{"utterance":"найди папку 00 развитие","open":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	var body types.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !body.Handled || body.Best != `D:\00_Развитие` || len(body.Statuses) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if !svc.lastSearch.Open || svc.lastSearch.Utterance != "найди папку 00 развитие" {
		t.Fatalf("request not forwarded: %+v", svc.lastSearch)
	}
}

func TestSearch_NotHandledHasEmptyArrays(t *testing.T) {
	svc := &mockService{}
	w := do(t, svc, http.MethodPost, "/search", `{"utterance":"привет"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"paths":[]`) || !strings.Contains(w.Body.String(), `"statuses":[]`) {
		t.Fatalf("expected empty arrays, got %s", w.Body.String())
	}
}

func TestSearch_Validation(t *testing.T) {
	svc := &mockService{}
	w := do(t, svc, http.MethodPost, "/search", "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", w.Code)
	}
	w = do(t, svc, http.MethodPost, "/search", `{"utterance":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank utterance status=%d", w.Code)
	}
	if er := decodeError(t, w); er.Code != http.StatusBadRequest || er.Error == "" {
		t.Fatalf("error body=%+v", er)
	}

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"utterance":"найди"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("content-type status=%d", rec.Code)
	}
}

func TestSearch_BodyLimit(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := do(t, &mockService{}, http.MethodPost, "/search", `{"utterance":"найди папку очень длинное имя"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{engine.ErrCLINotFound(`C:\es.exe`), http.StatusServiceUnavailable},
		{engine.ErrEngineNotFound(""), http.StatusServiceUnavailable},
		{engine.ErrAutostartBlocked("closed by user"), http.StatusConflict},
		{engine.ErrNotReady("IPC: server not running"), http.StatusServiceUnavailable},
		{mockHTTPError{msg: "slow down", code: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		w := do(t, &mockService{searchErr: c.err}, http.MethodPost, "/search", `{"utterance":"найди файл"}`)
		if w.Code != c.want {
			t.Fatalf("%v: status=%d want %d", c.err, w.Code, c.want)
		}
		if er := decodeError(t, w); er.Error != c.err.Error() {
			t.Fatalf("%v: error body=%+v", c.err, er)
		}
	}
}

func TestSearch_TimeoutAppliesToServiceContext(t *testing.T) {
	SetSearchTimeout(20 * time.Millisecond)
	defer SetSearchTimeout(0)
	var deadline bool
	svc := &ctxService{fn: func(ctx context.Context) {
		_, deadline = ctx.Deadline()
	}}
	w := do(t, svc, http.MethodPost, "/search", `{"utterance":"найди файл"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !deadline {
		t.Fatalf("expected search context to carry a deadline")
	}
}

type ctxService struct {
	mockService
	fn func(ctx context.Context)
}

func (c *ctxService) Search(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error) {
	c.fn(ctx)
	return types.SearchResponse{Handled: true}, nil
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{
		Engine:   types.EngineStatus{State: "ready", Instance: "findd"},
		CLIFound: true,
	}}
	w := do(t, svc, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Engine.State != "ready" || body.Engine.Instance != "findd" || !body.CLIFound {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestInstancesHandler(t *testing.T) {
	w := do(t, &mockService{}, http.MethodGet, "/instances", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"instances":[]`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	svc := &mockService{instances: []types.RunningInstance{{Instance: "findd", Service: true}}}
	w = do(t, svc, http.MethodGet, "/instances", "")
	var body types.InstancesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Instances) != 1 || body.Instances[0].Instance != "findd" || !body.Instances[0].Service {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHistoryHandler(t *testing.T) {
	svc := &mockService{history: []types.HistoryEntry{{ID: "1", Outcome: "found"}}}
	w := do(t, svc, http.MethodGet, "/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.historyWant != defaultHistoryLimit {
		t.Fatalf("limit=%d", svc.historyWant)
	}
	w = do(t, svc, http.MethodGet, "/history?limit=5", "")
	if w.Code != http.StatusOK || svc.historyWant != 5 {
		t.Fatalf("status=%d limit=%d", w.Code, svc.historyWant)
	}
	for _, bad := range []string{"0", "-1", "abc"} {
		w = do(t, svc, http.MethodGet, "/history?limit="+bad, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s status=%d", bad, w.Code)
		}
	}
	svc.historyErr = mockHTTPError{msg: "history disabled", code: http.StatusNotFound}
	w = do(t, svc, http.MethodGet, "/history", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("disabled status=%d", w.Code)
	}
}

func TestEventsHandler(t *testing.T) {
	w := do(t, &mockService{}, http.MethodGet, "/events", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"events":[]`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	svc := &mockService{events: []types.EngineEvent{{Name: "engine_start", Instance: "findd"}}}
	w = do(t, svc, http.MethodGet, "/events", "")
	if !strings.Contains(w.Body.String(), `"engine_start"`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestEnsureHandler(t *testing.T) {
	svc := &mockService{}
	w := do(t, svc, http.MethodPost, "/engine/ensure", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("empty body: status=%d body=%s", w.Code, w.Body.String())
	}
	w = do(t, svc, http.MethodPost, "/engine/ensure", `{"timeout_seconds":2.5,"force":true}`)
	if w.Code != http.StatusOK || svc.lastEnsure.TimeoutSeconds != 2.5 || !svc.lastEnsure.Force {
		t.Fatalf("status=%d req=%+v", w.Code, svc.lastEnsure)
	}
	w = do(t, svc, http.MethodPost, "/engine/ensure", `{"timeout_seconds":-1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative timeout status=%d", w.Code)
	}

	svc.ensureErr = engine.ErrAutostartBlocked("user closed")
	w = do(t, svc, http.MethodPost, "/engine/ensure", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("blocked status=%d", w.Code)
	}
	svc.ensureErr = engine.ErrStopFailed("engine did not exit")
	w = do(t, svc, http.MethodPost, "/engine/ensure", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("stop failed status=%d", w.Code)
	}
	svc.ensureErr = engine.ErrNotReady("")
	w = do(t, svc, http.MethodPost, "/engine/ensure", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready status=%d", w.Code)
	}
}

func TestBlockAutostartHandler(t *testing.T) {
	svc := &mockService{}
	w := do(t, svc, http.MethodPost, "/engine/block-autostart", `{"seconds":30,"reason":"user closed the engine"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.blocked.Seconds != 30 || svc.blocked.Reason != "user closed the engine" {
		t.Fatalf("request not forwarded: %+v", svc.blocked)
	}
	w = do(t, svc, http.MethodPost, "/engine/block-autostart", `{"seconds":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero seconds status=%d", w.Code)
	}
}

func TestShutdownHandler(t *testing.T) {
	svc := &mockService{stopped: true}
	w := do(t, svc, http.MethodPost, "/engine/shutdown", `{"own":true}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) || !svc.lastStop.Own {
		t.Fatalf("status=%d body=%s req=%+v", w.Code, w.Body.String(), svc.lastStop)
	}
	svc.stopped = false
	w = do(t, svc, http.MethodPost, "/engine/shutdown", "")
	var body types.EngineActionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.OK || body.Error == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthAndReady(t *testing.T) {
	w := do(t, &mockService{}, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", w.Code, w.Body.String())
	}
	w = do(t, &mockService{ready: true}, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}
	w = do(t, &mockService{}, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "not ready") {
		t.Fatalf("readyz status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := do(t, &mockService{}, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	SetCORSOptions(true, []string{"http://localhost:3000"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow-origin=%q status=%d", got, w.Code)
	}
}
