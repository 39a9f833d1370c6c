// Package ratelimit implements the login IP throttle (spec §4.2) via
// go-chi/httprate, and the general per-user/per-API window counter (spec
// §4.5) backing default and per-API rate rules. Grounded on the teacher's
// internal/ratelimit/middleware.go factory-function style.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// rateLimitResponse is the JSON body written on a 429.
type rateLimitResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

func createRateLimitHandler(limitType string, windowSeconds int) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		response := rateLimitResponse{
			Error:             "rate_limit_exceeded",
			Message:           fmt.Sprintf("%s rate limit exceeded. Please try again later.", limitType),
			RetryAfterSeconds: windowSeconds,
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", windowSeconds))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(response)
	}
}

// LoginIPThrottle rate-limits the login endpoint per client IP, independent
// of the per-user/per-API window counters, to blunt credential-stuffing
// before any user identity is even known. disabled lets operators turn it off
// entirely (LOGIN_IP_RATE_DISABLED) for local development.
func LoginIPThrottle(limit int, window time.Duration, disabled bool) func(http.Handler) http.Handler {
	if disabled || limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(createRateLimitHandler("login", int(window.Seconds()))),
	)
}
