package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"mercator-hq/ladder/pkg/config"
)

func startService(t *testing.T, cfg *config.Config) (string, *service) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		cancel()
		t.Fatalf("newService() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		svc.Close()
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("service did not stop")
		}
		svc.Close()
	})

	return "http://" + ln.Addr().String(), svc
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestService_EndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Records.Enabled = true
	cfg.Records.Driver = config.DriverMemory

	base, svc := startService(t, cfg)

	if code, _ := get(t, base+"/healthz"); code != http.StatusOK {
		t.Errorf("/healthz = %d", code)
	}
	code, body := get(t, base+"/readyz")
	if code != http.StatusOK || !strings.Contains(body, `"records"`) {
		t.Errorf("/readyz = %d %s", code, body)
	}

	resp, err := http.Post(base+"/v1/ladders/seasons/evaluate", "application/json", strings.NewReader(`{"input": 7}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("evaluate status = %d", resp.StatusCode)
	}
	var decision struct {
		Result   string `json:"result"`
		RuleName string `json:"rule_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		t.Fatal(err)
	}
	if decision.Result != "Summer" || decision.RuleName != "summer" {
		t.Errorf("decision = %+v", decision)
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.recorder.Stats().Written < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n, err := svc.store.Count(context.Background(), nil); err != nil || n != 1 {
		t.Errorf("stored records = %d, %v; want 1", n, err)
	}

	code, body = get(t, base+cfg.Telemetry.Metrics.Path)
	if code != http.StatusOK {
		t.Fatalf("metrics status = %d", code)
	}
	for _, want := range []string{
		`ladder_evaluations_total{ladder="seasons",outcome="matched"} 1`,
		`ladder_ladders_loaded 4`,
		`ladder_records_written 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	code, body = get(t, base+"/version")
	if code != http.StatusOK || !strings.Contains(body, Version) {
		t.Errorf("/version = %d %s", code, body)
	}
}

func TestService_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Metrics.Enabled = false

	base, _ := startService(t, cfg)
	if code, _ := get(t, base+"/metrics"); code != http.StatusNotFound {
		t.Errorf("/metrics with metrics disabled = %d, want 404", code)
	}
}

func TestNewService_BadLaddersPath(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.LaddersPath = "/does/not/exist"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := newService(context.Background(), cfg, logger); err == nil {
		t.Error("newService should fail when ladders cannot be loaded")
	}
}

func TestServe_DryRun(t *testing.T) {
	out, err := execute(t, "serve", "--dry-run")
	if err != nil {
		t.Fatalf("serve --dry-run returned error: %v", err)
	}
	if !strings.Contains(out, "✓ Ladders loaded (4 ladders)") || !strings.Contains(out, "✓ Configuration valid") {
		t.Errorf("unexpected dry-run output:\n%s", out)
	}
}

func TestServe_InvalidListenOverride(t *testing.T) {
	if _, err := execute(t, "serve", "--dry-run", "--listen", "no-port"); err == nil {
		t.Error("an invalid --listen should fail validation")
	}
}
