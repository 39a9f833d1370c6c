package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apidoorman/doorman-go/internal/chaos"
)

func TestLiveness_AlwaysOK(t *testing.T) {
	c := NewChecker(nil, nil)
	rec := httptest.NewRecorder()
	c.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_OKWhenHealthy(t *testing.T) {
	c := NewChecker(chaos.New(0), func() error { return nil })
	rec := httptest.NewRecorder()
	c.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_DegradedOnStoreFailure(t *testing.T) {
	c := NewChecker(chaos.New(0), func() error { return errors.New("unreachable") })
	rec := httptest.NewRecorder()
	c.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestReadiness_DegradedDuringChaosOutage(t *testing.T) {
	state := chaos.New(0)
	state.TriggerOutage(chaos.BackendRedis, 5000)
	c := NewChecker(state, func() error { return nil })
	rec := httptest.NewRecorder()
	c.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 during chaos outage, got %d", rec.Code)
	}
}
