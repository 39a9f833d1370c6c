// Platform operational endpoints: liveness/readiness, cache clearing, the
// chaos toggle, and config store dump/restore (spec §4.1, §4.9, §4.10).
package gatewayhttp

import (
	"encoding/json"
	"net/http"

	"github.com/apidoorman/doorman-go/internal/chaos"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

// handleHealth is the always-200 liveness probe.
func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.checker.Liveness(w, r)
}

// handleReady reports readiness, degrading when the store or an
// actively-toggled chaos outage says so.
func (h *handlers) handleReady(w http.ResponseWriter, r *http.Request) {
	h.checker.Readiness(w, r)
}

// handleClearCaches answers 204 and clears nothing. The gateway's MEM config
// store holds its own entities directly rather than behind a read-through
// cache, and rate-limit window state is left as it is.
func (h *handlers) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type chaosToggleRequest struct {
	Backend    string `json:"backend"`
	DurationMS int64  `json:"duration_ms"`
	Clear      bool   `json:"clear"`
}

// handleChaosToggle forces (or clears) a simulated backend outage.
func (h *handlers) handleChaosToggle(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req chaosToggleRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Backend == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "backend is required")
		return
	}
	backend := chaos.Backend(req.Backend)
	if req.Clear {
		h.chaos.ClearOutage(backend)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if req.DurationMS <= 0 {
		req.DurationMS = 30000
	}
	h.chaos.TriggerOutage(backend, req.DurationMS)
	w.WriteHeader(http.StatusNoContent)
}

// handleConfigDump returns every collection of the config store as plain
// JSON in the response body; it writes no file and applies no encryption.
func (h *handlers) handleConfigDump(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Dump(r.Context())
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}

// handleConfigRestore replaces the MEM config store's contents from an
// uploaded snapshot body.
func (h *handlers) handleConfigRestore(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var data map[string][]map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "malformed snapshot body")
		return
	}
	if err := h.store.Restore(r.Context(), data); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// metricsGuard enforces internal/config's PrometheusConfig posture: public,
// bearer-token gated, or loopback/allowlist restricted.
func (h *handlers) metricsGuard(next http.Handler) http.Handler {
	cfg := h.cfg.Prometheus
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.Public {
			next.ServeHTTP(w, r)
			return
		}
		if cfg.BearerToken != "" && r.Header.Get("Authorization") == "Bearer "+cfg.BearerToken {
			next.ServeHTTP(w, r)
			return
		}
		if len(cfg.Allowlist) > 0 && ipAllowed(remoteIP(r, cfg.TrustXFF), cfg.Allowlist) {
			next.ServeHTTP(w, r)
			return
		}
		apierrors.WriteSimpleError(w, apierrors.ErrCodeAuthRequired, "metrics endpoint access denied")
	})
}

func remoteIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return xff
		}
	}
	return r.RemoteAddr
}

func ipAllowed(ip string, allowlist []string) bool {
	for _, a := range allowlist {
		if a == ip {
			return true
		}
	}
	return false
}
