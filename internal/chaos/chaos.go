// Package chaos implements the administrative backend-outage toggle (spec
// §4.10): an operator can force a named backend ("redis", "mongo") into a
// failing state for a bounded duration to exercise failover paths. The
// readiness probe (internal/health) consults it; the protocol dispatchers
// do not. Grounded on the
// pack's ticker-driven background scheduler idiom for the auto-clear timer,
// the same idiom reused for internal/configstore's autosave loop.
package chaos

import (
	"sync"
	"time"
)

// Backend names a subsystem that can be toggled into a simulated outage.
type Backend string

const (
	BackendRedis Backend = "redis"
	BackendMongo Backend = "mongo"
)

// State tracks the live chaos toggles and a per-backend error-budget burn
// counter of how many checks observed an outage; nothing in the gateway
// feeds that counter into the circuit breaker.
type State struct {
	mu       sync.Mutex
	outages  map[Backend]*time.Timer
	burn     map[Backend]int64
	ceiling  time.Duration
}

// New constructs chaos state with the configured fail-fast ceiling: any
// check against a toggled-outage backend must return within ceiling so chaos
// testing never itself causes a client-visible hang.
func New(ceiling time.Duration) *State {
	if ceiling <= 0 {
		ceiling = 2 * time.Second
	}
	return &State{
		outages: make(map[Backend]*time.Timer),
		burn:    make(map[Backend]int64),
		ceiling: ceiling,
	}
}

// TriggerOutage forces backend into a failing state for durationMS
// milliseconds, after which it clears automatically.
func (s *State) TriggerOutage(backend Backend, durationMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.outages[backend]; ok {
		existing.Stop()
	}
	s.outages[backend] = time.AfterFunc(time.Duration(durationMS)*time.Millisecond, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.outages, backend)
	})
}

// ClearOutage cancels an active outage toggle immediately.
func (s *State) ClearOutage(backend Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.outages[backend]; ok {
		t.Stop()
		delete(s.outages, backend)
	}
}

// IsDown reports whether backend currently has an active outage toggle, and
// records one error-budget burn if so.
func (s *State) IsDown(backend Backend) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, down := s.outages[backend]
	if down {
		s.burn[backend]++
	}
	return down
}

// ErrorBudgetBurn returns the number of requests that have observed backend
// as down since the process started; the counter is never reset.
func (s *State) ErrorBudgetBurn(backend Backend) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.burn[backend]
}

// Ceiling is the fail-fast timeout chaos-aware backend checks must respect.
func (s *State) Ceiling() time.Duration {
	return s.ceiling
}
