// Package health exposes liveness and readiness checks: liveness always
// reports 200 once the process is serving, readiness reflects whether the
// gateway's dependencies (config store, any active chaos outage) are
// currently healthy enough to serve traffic.
package health

import (
	"net/http"

	"github.com/apidoorman/doorman-go/internal/chaos"
)

// Checker reports the live/ready status of the gateway.
type Checker struct {
	chaosState *chaos.State
	storePing  func() error
}

// NewChecker constructs a Checker. storePing should attempt a cheap
// round-trip against the configured config store backend (a no-op for MEM).
func NewChecker(chaosState *chaos.State, storePing func() error) *Checker {
	return &Checker{chaosState: chaosState, storePing: storePing}
}

// Liveness always returns 200 once the process can accept connections at
// all; it does not depend on any downstream system.
func (c *Checker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

// Readiness returns 200 when every dependency check passes, or 503 with a
// "degraded" body when the config store is unreachable or a chaos outage is
// currently forcing a backend down.
func (c *Checker) Readiness(w http.ResponseWriter, r *http.Request) {
	degraded := false
	if c.storePing != nil {
		if err := c.storePing(); err != nil {
			degraded = true
		}
	}
	if c.chaosState != nil {
		if c.chaosState.IsDown(chaos.BackendMongo) || c.chaosState.IsDown(chaos.BackendRedis) {
			degraded = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if degraded {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
