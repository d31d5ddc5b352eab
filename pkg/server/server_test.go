package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/ladder/pkg/catalog"
	"mercator-hq/ladder/pkg/config"
	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/telemetry/health"
	"mercator-hq/ladder/pkg/telemetry/metrics"
)

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
		MaxBodyBytes:    1 << 10,
	}
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	src, err := catalog.Source()
	if err != nil {
		t.Fatalf("catalog.Source: %v", err)
	}
	eng, err := engine.NewEngine(engine.DefaultEngineConfig(), src, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func newTestServer(t *testing.T, opts Options) (*Server, *engine.Engine) {
	t.Helper()
	eng := newTestEngine(t)
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewServer(testServerConfig(), eng, opts), eng
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

func TestEvaluate(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	h := srv.Handler()

	tests := []struct {
		name      string
		ladder    string
		body      string
		want      interface{}
		defaulted bool
		rule      string
	}{
		{"grade match", catalog.HighSchoolGrades, `{"input": 10}`, "Sophomore", false, "sophomore"},
		{"grade default", catalog.HighSchoolGrades, `{"input": 3}`, "TBD", true, ""},
		{"raw input parsed", catalog.HighSchoolGrades, `{"raw": "12"}`, "Senior", false, "senior"},
		{"season in list", catalog.Seasons, `{"input": 1}`, "Winter", false, "winter"},
		{"season default", catalog.Seasons, `{"input": 13}`, "Invalid", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/ladders/"+tt.ladder+"/evaluate", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			var d engine.Decision
			if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if d.Result != tt.want {
				t.Errorf("result = %v, want %v", d.Result, tt.want)
			}
			if d.Defaulted != tt.defaulted || d.RuleName != tt.rule {
				t.Errorf("defaulted=%v rule=%q, want %v %q", d.Defaulted, d.RuleName, tt.defaulted, tt.rule)
			}
			if d.ID == "" || d.Ladder != tt.ladder {
				t.Errorf("unexpected decision %+v", d)
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Error("missing request ID header")
			}
		})
	}
}

func TestEvaluate_PlanetWeightsReturnsObject(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/ladders/planet-weights/evaluate", `{"input": 4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var d struct {
		Result map[string]interface{} `json:"result"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Result["planet"] != "Jupiter" || d.Result["factor"] != 2.53 {
		t.Errorf("result = %v", d.Result)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	h := srv.Handler()

	tests := []struct {
		name     string
		path     string
		body     string
		status   int
		wantCode string
	}{
		{"unknown ladder", "/v1/ladders/nope/evaluate", `{"input": 1}`, http.StatusNotFound, CodeLadderNotFound},
		{"unknown ladder raw", "/v1/ladders/nope/evaluate", `{"raw": "1"}`, http.StatusNotFound, CodeLadderNotFound},
		{"string against number ladder", "/v1/ladders/seasons/evaluate", `{"input": "June"}`, http.StatusUnprocessableEntity, CodeMismatchedType},
		{"raw not a number", "/v1/ladders/seasons/evaluate", `{"raw": "June"}`, http.StatusUnprocessableEntity, CodeMismatchedType},
		{"malformed json", "/v1/ladders/seasons/evaluate", `{"input": `, http.StatusBadRequest, CodeInvalidJSON},
		{"unknown field", "/v1/ladders/seasons/evaluate", `{"value": 1}`, http.StatusBadRequest, CodeInvalidJSON},
		{"missing input", "/v1/ladders/seasons/evaluate", `{}`, http.StatusBadRequest, CodeMissingField},
		{"both input and raw", "/v1/ladders/seasons/evaluate", `{"input": 1, "raw": "1"}`, http.StatusBadRequest, CodeMissingField},
		{"body too large", "/v1/ladders/seasons/evaluate", `{"raw": "` + strings.Repeat("9", 2048) + `"}`, http.StatusRequestEntityTooLarge, CodeBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			if got := decodeError(t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestEvaluate_EngineClosed(t *testing.T) {
	srv, eng := newTestServer(t, Options{})
	_ = eng.Close()

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/ladders/seasons/evaluate", `{"input": 1}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestEvaluate_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(t, srv.Handler(), http.MethodGet, "/v1/ladders/seasons/evaluate", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListLadders(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := do(t, srv.Handler(), http.MethodGet, "/v1/ladders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp LaddersResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Ladders) != len(catalog.Names()) {
		t.Errorf("got %d ladders, want %d", len(resp.Ladders), len(catalog.Names()))
	}
}

func TestGetLadder(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/v1/ladders/snapple-facts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var info engine.LadderInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Name != catalog.SnappleFacts || len(info.Rules) == 0 {
		t.Errorf("unexpected info %+v", info)
	}

	if rec := do(t, h, http.MethodGet, "/v1/ladders/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing ladder status = %d", rec.Code)
	}
}

func TestHealthAndVersion(t *testing.T) {
	checker := health.New(time.Second)
	ready := false
	checker.Register("engine", func(context.Context) error {
		if !ready {
			return errors.New("warming up")
		}
		return nil
	})
	srv, _ := newTestServer(t, Options{Health: checker, Version: health.NewVersionInfo("1.0.0", "abc", "now")})
	h := srv.Handler()

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before ready = %d", rec.Code)
	}
	ready = true
	if rec := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz after ready = %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/version", "")
	if !strings.Contains(rec.Body.String(), `"version":"1.0.0"`) {
		t.Errorf("version body = %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "ladder"}, nil)
	srv, eng := newTestServer(t, Options{Metrics: collector, MetricsPath: "/metrics"})
	eng.SetMetrics(collector)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/v1/ladders/seasons/evaluate", `{"input": 7}`)
	do(t, h, http.MethodPost, "/v1/ladders/seasons/evaluate", `{"input": 0}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{
		`ladder_evaluations_total{ladder="seasons",outcome="matched"} 1`,
		`ladder_defaults_total{ladder="seasons"} 1`,
		`ladder_rule_hits_total{ladder="seasons",rule="summer"} 1`,
		`ladder_http_requests_total{code="200",route="evaluate"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := testServerConfig()
	cfg.APIKeys = []string{"k1", "k2"}
	srv := NewServer(cfg, newTestEngine(t), Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	h := srv.Handler()

	tests := []struct {
		name     string
		path     string
		header   string
		value    string
		wantCode int
		wantErr  string
	}{
		{"no key", "/v1/ladders", "", "", http.StatusUnauthorized, CodeMissingAPIKey},
		{"wrong key", "/v1/ladders", APIKeyHeader, "nope", http.StatusUnauthorized, CodeInvalidAPIKey},
		{"header key", "/v1/ladders", APIKeyHeader, "k2", http.StatusOK, ""},
		{"bearer key", "/v1/ladders", "Authorization", "Bearer k1", http.StatusOK, ""},
		{"basic scheme ignored", "/v1/ladders", "Authorization", "Basic k1", http.StatusUnauthorized, CodeMissingAPIKey},
		{"health is open", "/healthz", "", "", http.StatusOK, ""},
		{"version is open", "/version", "", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantErr != "" {
				got := decodeError(t, rec)
				if got.Code != tt.wantErr || got.Type != ErrorTypeAuthentication {
					t.Errorf("error = %+v, want code %q", got, tt.wantErr)
				}
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Type != ErrorTypeServerError {
		t.Errorf("type = %q", got.Type)
	}
}

func TestRequestIDMiddleware_ReusesHeader(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-42" || rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Errorf("request ID not propagated: seen=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := loggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	do(t, h, http.MethodGet, "/v1/ladders/x", "")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status=404") {
		t.Errorf("unexpected log line %q", out)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
