package chaos

import (
	"testing"
	"time"
)

func TestTriggerOutage_MarksDownAndClearsAutomatically(t *testing.T) {
	s := New(time.Second)
	if s.IsDown(BackendRedis) {
		t.Fatal("expected redis to be up initially")
	}

	s.TriggerOutage(BackendRedis, 20)
	if !s.IsDown(BackendRedis) {
		t.Fatal("expected redis to be down after TriggerOutage")
	}

	time.Sleep(40 * time.Millisecond)
	if s.IsDown(BackendRedis) {
		t.Error("expected outage to auto-clear after duration elapses")
	}
}

func TestClearOutage_Immediate(t *testing.T) {
	s := New(time.Second)
	s.TriggerOutage(BackendMongo, 5*time.Minute.Milliseconds())
	s.ClearOutage(BackendMongo)
	if s.IsDown(BackendMongo) {
		t.Error("expected outage to be cleared immediately")
	}
}

func TestErrorBudgetBurn_CountsOnlyWhileDown(t *testing.T) {
	s := New(time.Second)
	s.TriggerOutage(BackendRedis, 5*time.Minute.Milliseconds())
	s.IsDown(BackendRedis)
	s.IsDown(BackendRedis)
	if got := s.ErrorBudgetBurn(BackendRedis); got != 2 {
		t.Errorf("expected burn count 2, got %d", got)
	}
}
