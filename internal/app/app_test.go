package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/thermo/internal/config"
	"github.com/five82/thermo/internal/gateway"
	"github.com/five82/thermo/internal/simulator"
	"github.com/five82/thermo/internal/state"
	"github.com/five82/thermo/internal/telemetry"
)

func TestApply_RoutesEventsToStore(t *testing.T) {
	store := &state.Store{}
	now := time.Now()
	target := 42.0

	apply(store, gateway.Event{Kind: gateway.EventStateChanged, State: gateway.StateOpen, Epoch: 1, ConnID: "c1", At: now}, 2*time.Second, zerolog.Nop())
	apply(store, gateway.Event{Kind: gateway.EventPatch, Patch: gateway.Patch{TargetTemperature: &target}, At: now}, 2*time.Second, zerolog.Nop())
	apply(store, gateway.Event{Kind: gateway.EventMalformed, Err: gateway.ErrMalformed}, 2*time.Second, zerolog.Nop())

	snap := store.Snapshot()
	if snap.Connection != gateway.StateOpen || snap.ConnID != "c1" {
		t.Fatalf("connection = %v/%q", snap.Connection, snap.ConnID)
	}
	if snap.Thermostat.Target == nil || *snap.Thermostat.Target != 42 {
		t.Fatalf("Target = %v, want 42", snap.Thermostat.Target)
	}
	if snap.Malformed != 1 {
		t.Fatalf("Malformed = %d, want 1", snap.Malformed)
	}

	apply(store, gateway.Event{Kind: gateway.EventStateChanged, State: gateway.StateClosed, Epoch: 1, Err: errors.New("eof"), At: now}, 2*time.Second, zerolog.Nop())
	snap = store.Snapshot()
	if want := now.Add(2 * time.Second); !snap.RetryAt.Equal(want) {
		t.Fatalf("RetryAt = %v, want %v", snap.RetryAt, want)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	off := false

	cfg, err := loadConfig(Options{Host: "10.0.0.7:8080", Heater: &off, Chart: "LIVE"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got := cfg.Gateway.Endpoint(); got != "ws://10.0.0.7:8080/ws" {
		t.Fatalf("Endpoint = %q", got)
	}
	if cfg.Features.Heater {
		t.Fatalf("Heater override ignored")
	}
	if cfg.Features.Chart != config.ChartLive {
		t.Fatalf("Chart = %q, want live", cfg.Features.Chart)
	}

	if _, err := loadConfig(Options{Chart: "pie"}); err == nil || !strings.Contains(err.Error(), "chart flag") {
		t.Fatalf("loadConfig bad chart err = %v", err)
	}
}

func TestLoadConfig_FileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[gateway\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := loadConfig(Options{ConfigPath: path}); err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("err = %v, want load config error", err)
	}
}

func TestMetricsRouter(t *testing.T) {
	collector, err := telemetry.NewPrometheusCollector()
	if err != nil {
		t.Fatalf("NewPrometheusCollector: %v", err)
	}
	collector.IncConnectAttempt()
	store := &state.Store{}
	store.SetConnection(gateway.StateOpen, "abc", 4, nil, 0, time.Now())

	srv := httptest.NewServer(newMetricsRouter(collector, store, zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "thermo_gateway_connect_attempts_total 1") {
		t.Fatalf("metrics body missing counter:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	var health struct {
		Connection string `json:"connection"`
		Epoch      uint64 `json:"epoch"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Connection != "open" || health.Epoch != 4 {
		t.Fatalf("health = %+v", health)
	}
}

// TestGatewayRoundTrip drives a real client against the simulator through
// the pump and checks the store only changes on gateway echoes.
func TestGatewayRoundTrip(t *testing.T) {
	sim := simulator.New(simulator.Options{Interval: time.Hour, Logger: zerolog.Nop()})
	ts := httptest.NewServer(sim.Handler())
	defer ts.Close()
	simCtx, stopSim := context.WithCancel(context.Background())
	defer stopSim()
	simDone := make(chan struct{})
	go func() {
		sim.Run(simCtx)
		close(simDone)
	}()

	endpoint := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	client, err := gateway.NewClient(gateway.Options{
		Endpoint:       endpoint,
		ReconnectDelay: 50 * time.Millisecond,
		Logger:         zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &state.Store{}
	StartPump(ctx, store, client, zerolog.Nop())
	go func() { _ = client.Run(ctx) }()

	waitStore(t, store, "greeting", func(s state.Snapshot) bool {
		th := s.Thermostat
		return s.Connection == gateway.StateOpen &&
			th.Target != nil && *th.Target == 50 &&
			th.Heater != nil && !*th.Heater &&
			th.Current != nil
	})
	firstEpoch := store.Snapshot().Epoch

	if err := client.Send(gateway.SetTargetTemperature(42)); err != nil {
		t.Fatalf("Send target: %v", err)
	}
	waitStore(t, store, "target echo", func(s state.Snapshot) bool {
		return s.Thermostat.Target != nil && *s.Thermostat.Target == 42
	})

	if err := client.Send(gateway.SetHeaterState(true)); err != nil {
		t.Fatalf("Send heater: %v", err)
	}
	waitStore(t, store, "heater echo", func(s state.Snapshot) bool {
		return s.Thermostat.Heater != nil && *s.Thermostat.Heater
	})

	// Stopping the simulator loop drops every client; the handler keeps
	// accepting new connections.
	stopSim()
	<-simDone
	waitStore(t, store, "reconnect", func(s state.Snapshot) bool {
		return s.Connection == gateway.StateOpen && s.Epoch > firstEpoch
	})
	if snap := store.Snapshot(); snap.Thermostat.Target == nil || *snap.Thermostat.Target != 42 {
		t.Fatalf("target after reconnect = %v, want 42", snap.Thermostat.Target)
	}
}

func waitStore(t *testing.T, store *state.Store, what string, ok func(state.Snapshot) bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if ok(store.Snapshot()) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s: %+v", what, store.Snapshot())
}
