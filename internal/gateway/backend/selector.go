// Package backend implements upstream server selection and the retry loop
// that wraps it (spec §4.8): round-robin across an API's server list with a
// process-wide cursor, a per-client_key cursor for routing-table pinning, and
// a gobreaker-protected retry budget. Grounded on the teacher's
// internal/circuitbreaker.Manager (per-service breaker map keyed by a string
// identity) generalized from a fixed ServiceType enum to a per-(api,version)
// key, and internal/rpcutil.WithRetry's exponential-backoff retry shape
// generalized into a bounded-attempts loop driven by the routing table's
// retry budget rather than a fixed constant.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/sony/gobreaker"
)

// ErrBackendsExhausted is returned when the retry budget is spent without a
// successful attempt (with a budget smaller than the server list, not every
// server is tried).
var ErrBackendsExhausted = errors.New("backend: retry budget exhausted")

// Attempt is one try against a selected upstream server.
type Attempt func(ctx context.Context, server string) error

// Selector chooses upstream servers for an API and retries failed attempts
// under a per-(api,version) circuit breaker.
type Selector struct {
	mu        sync.Mutex
	cursors   map[string]*uint64      // process-wide round-robin cursor, keyed by "api:version"
	clientKey map[string]*uint64      // per-client_key cursor, keyed by "api:version:client_key"
	breakers  map[string]*gobreaker.CircuitBreaker

	breakerTimeout    time.Duration
	breakerMaxReq     uint32
	breakerConsecFail uint32
}

// Config tunes the circuit breaker wrapping every API's retry loop.
type Config struct {
	BreakerTimeout           time.Duration
	BreakerMaxRequests       uint32
	BreakerConsecutiveFailures uint32
}

// New constructs a Selector with the given breaker tuning; zero-value fields
// fall back to conservative defaults.
func New(cfg Config) *Selector {
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.BreakerMaxRequests == 0 {
		cfg.BreakerMaxRequests = 1
	}
	if cfg.BreakerConsecutiveFailures == 0 {
		cfg.BreakerConsecutiveFailures = 5
	}
	return &Selector{
		cursors:           make(map[string]*uint64),
		clientKey:         make(map[string]*uint64),
		breakers:          make(map[string]*gobreaker.CircuitBreaker),
		breakerTimeout:    cfg.BreakerTimeout,
		breakerMaxReq:     cfg.BreakerMaxRequests,
		breakerConsecFail: cfg.BreakerConsecutiveFailures,
	}
}

func (s *Selector) breakerFor(key string) *gobreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.breakers[key]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        key,
		MaxRequests: s.breakerMaxReq,
		Timeout:     s.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.breakerConsecFail
		},
	})
	s.breakers[key] = b
	return b
}

func (s *Selector) cursorFor(key string) *uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[key]
	if !ok {
		c = new(uint64)
		s.cursors[key] = c
	}
	return c
}

func (s *Selector) clientCursorFor(key string) *uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clientKey[key]
	if !ok {
		c = new(uint64)
		s.clientKey[key] = c
	}
	return c
}

// next returns the next server in servers for the given cursor, advancing it.
func next(cursor *uint64, servers []string) string {
	n := atomic.AddUint64(cursor, 1) - 1
	return servers[int(n%uint64(len(servers)))]
}

// Dispatch selects servers for api/version (honoring endpointServers override
// and routing.Strategy pinning by clientKey) and retries attempt against each
// in turn, up to retryBudget tries, wrapped in the API's circuit breaker. It
// returns ErrBackendsExhausted once the budget is spent without success.
func (s *Selector) Dispatch(ctx context.Context, api, version string, apiServers, endpointServers []string, routing *configstore.Routing, clientKey string, retryBudget int, attempt Attempt) error {
	servers := apiServers
	if len(endpointServers) > 0 {
		servers = endpointServers
	}
	if len(servers) == 0 {
		return fmt.Errorf("backend: no servers configured for %s/%s", api, version)
	}
	if retryBudget <= 0 {
		retryBudget = 1
	}

	breakerKey := api + ":" + version
	breaker := s.breakerFor(breakerKey)

	pinned := routing != nil && routing.Strategy == "pinned" && clientKey != ""
	var cursor *uint64
	if pinned {
		cursor = s.clientCursorFor(breakerKey + ":" + clientKey)
	} else {
		cursor = s.cursorFor(breakerKey)
	}

	var lastErr error
	for try := 0; try < retryBudget; try++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		server := next(cursor, servers)
		_, err := breaker.Execute(func() (interface{}, error) {
			return nil, attempt(ctx, server)
		})
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("%w: last error: %v", ErrBackendsExhausted, lastErr)
	}
	return ErrBackendsExhausted
}

// BreakerState reports the current state of the breaker for api/version
// ("closed", "open", "half-open"); no HTTP route exposes it.
func (s *Selector) BreakerState(api, version string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[api+":"+version]
	if !ok {
		return "closed"
	}
	return b.State().String()
}
