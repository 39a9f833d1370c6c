// Package corspolicy applies CORS headers with a strict precedence: a
// per-API policy (set by an administrator on the API entity) wins outright
// over the gateway's global fallback policy, and exactly one layer ever
// writes Access-Control-Allow-Origin for a given request. Grounded on the
// teacher's use of go-chi/cors in internal/httpserver/server.go for the
// global-only case; the per-API override is new and implemented by hand
// since go-chi/cors has no per-request policy hook.
package corspolicy

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/apidoorman/doorman-go/internal/config"
	"github.com/apidoorman/doorman-go/internal/configstore"
)

// Policy is a resolved CORS policy, either the global default or an API override.
type Policy struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	ExposeHeaders    []string
}

// FromGlobalConfig builds the default policy from static configuration.
func FromGlobalConfig(cfg config.CORSConfig) Policy {
	return Policy{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		AllowCredentials: cfg.AllowCredentials,
	}
}

// FromAPI builds a policy override from an API entity's CORS fields, when any
// are set; ok is false when the API carries no override and the global
// fallback should apply instead.
func FromAPI(api configstore.API) (Policy, bool) {
	if len(api.CORSAllowOrigins) == 0 && len(api.CORSAllowMethods) == 0 && len(api.CORSAllowHeaders) == 0 {
		return Policy{}, false
	}
	return Policy{
		AllowOrigins:     api.CORSAllowOrigins,
		AllowMethods:     api.CORSAllowMethods,
		AllowHeaders:     api.CORSAllowHeaders,
		AllowCredentials: api.CORSAllowCredentials,
		ExposeHeaders:    api.CORSExposeHeaders,
	}, true
}

// GlobalMiddleware returns the go-chi/cors handler for the global fallback
// mount (e.g. /platform/* admin routes, which have no per-API policy).
func GlobalMiddleware(policy Policy) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   policy.AllowOrigins,
		AllowedMethods:   policy.AllowMethods,
		AllowedHeaders:   policy.AllowHeaders,
		AllowCredentials: policy.AllowCredentials,
		ExposedHeaders:   policy.ExposeHeaders,
	})
}

// Apply writes CORS response headers for policy against the request's Origin
// header, by hand rather than via go-chi/cors, so that a per-API policy
// resolved dynamically per request (after endpoint resolution) can take
// precedence over the global middleware without double-writing
// Access-Control-Allow-Origin. Returns true for any preflight (OPTIONS)
// carrying an Origin header, which the caller should stop processing
// immediately: an allowed origin is answered with 204 and the CORS headers,
// a disallowed one gets no CORS headers and no status written here.
func Apply(w http.ResponseWriter, r *http.Request, policy Policy) (preflightHandled bool) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	if !originAllowed(policy.AllowOrigins, origin) {
		return r.Method == http.MethodOptions
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Add("Vary", "Origin")
	if policy.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if len(policy.ExposeHeaders) > 0 {
		w.Header().Set("Access-Control-Expose-Headers", joinCSV(policy.ExposeHeaders))
	}

	if r.Method == http.MethodOptions {
		if len(policy.AllowMethods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", joinCSV(policy.AllowMethods))
		}
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			w.Header().Set("Access-Control-Allow-Headers", allowedSubset(policy.AllowHeaders, requested))
		} else if len(policy.AllowHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", joinCSV(policy.AllowHeaders))
		}
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func joinCSV(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

// allowedSubset echoes back the intersection of requested headers and the
// policy's allow list, or the whole allow list when that intersection is
// empty; the gateway still reports success so the preflight
// isn't blocked outright, leaving the browser to enforce the real request's
// header restriction (see Open Question decisions in DESIGN.md).
func allowedSubset(allowed []string, requested string) string {
	allowedSet := make(map[string]bool, len(allowed))
	for _, h := range allowed {
		allowedSet[toLower(h)] = true
	}
	var kept []string
	for _, h := range splitCSV(requested) {
		if allowedSet[toLower(h)] {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return joinCSV(allowed)
	}
	return joinCSV(kept)
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			part := trimSpace(s[start:i])
			if part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
