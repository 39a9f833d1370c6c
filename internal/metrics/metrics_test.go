package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_RegistersCollectorsWithoutPanic(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	if m.RequestsTotal == nil {
		t.Fatal("expected RequestsTotal to be constructed")
	}
	m.ObserveRequest("weather-api", "v1", "200")
	m.ObserveRateLimit("login_ip")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	m.ObserveRequest("weather-api", "v1", "200")
	m.ObserveRequest("weather-api", "v1", "200")
	m.ObserveRateLimit("login_ip")

	dir := t.TempDir()
	path := filepath.Join(dir, "metrics-snapshot.json")
	if err := m.SaveSnapshot(path); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	restored := New(prometheus.NewRegistry())
	if err := restored.LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	snap := restored.Snapshot()
	if snap["requests:weather-api:v1:200"] != 2 {
		t.Errorf("expected restored count 2, got %d", snap["requests:weather-api:v1:200"])
	}
	if snap["rate_limit:login_ip"] != 1 {
		t.Errorf("expected restored rate limit count 1, got %d", snap["rate_limit:login_ip"])
	}
}

func TestLoadSnapshot_MissingFileErrors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	err := m.LoadSnapshot(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err == nil {
		t.Fatal("expected error loading missing snapshot file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestSnapshot_ReturnsCopyNotReference(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRateLimit("login_ip")
	snap := m.Snapshot()
	snap["rate_limit:login_ip"] = 999
	if m.Snapshot()["rate_limit:login_ip"] == 999 {
		t.Error("expected Snapshot to return an independent copy")
	}
}
