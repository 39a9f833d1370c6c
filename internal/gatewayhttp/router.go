package gatewayhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apidoorman/doorman-go/internal/authn"
	"github.com/apidoorman/doorman-go/internal/corspolicy"
	"github.com/apidoorman/doorman-go/internal/logger"
	"github.com/apidoorman/doorman-go/internal/permission"
	"github.com/apidoorman/doorman-go/internal/ratelimit"
	"github.com/apidoorman/doorman-go/internal/wsreject"
)

// ConfigureRouter attaches every Doorman route and middleware to router.
// Middleware ordering follows the teacher's ConfigureRouter: request
// identity and recovery first, then the gateway-specific concerns
// (WebSocket rejection, chaos latency injection, CORS, auth), generalized
// from the teacher's single global CORS policy to a per-API override
// resolved after endpoint lookup (internal/corspolicy).
func ConfigureRouter(router chi.Router, h *handlers) {
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(h))
	router.Use(wsreject.Middleware)
	router.Use(h.limitBody)
	router.Use(h.latencyInjection)
	router.Use(h.gzipCompress)

	loginThrottle := ratelimit.LoginIPThrottle(h.cfg.Auth.LoginIPRateLimit, h.cfg.Auth.LoginIPRateWindow.Duration, h.cfg.Auth.LoginIPRateDisabled)
	authMW := authn.Middleware(h.issuer, h.ledger)
	csrfMW := authn.RequireCSRF(h.cfg.Server.HTTPSOnly)

	router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(5 * time.Second))
		r.Get("/api/health", h.handleHealth)
		r.Get("/api/ready", h.handleReady)
		r.With(h.metricsGuard).Handle("/metrics", promhttp.Handler())
	})

	router.Route("/platform", func(platform chi.Router) {
		platform.Use(corspolicy.GlobalMiddleware(corspolicy.FromGlobalConfig(h.cfg.CORS)))
		platform.Use(chimiddleware.Timeout(30 * time.Second))

		platform.With(loginThrottle).Post("/authorization", h.handleLogin)

		platform.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Use(csrfMW)
			r.Post("/authorization/refresh", h.handleRefresh)
			r.Post("/authorization/invalidate", h.handleInvalidate)
			r.Get("/authorization/status", h.handleStatus)

			h.mountAdminRoutes(r)

			r.With(requirePermission(h, "manage_users")).Post("/authorization/admin/revoke/{username}", h.handleAdminRevoke)
			r.With(requirePermission(h, "manage_security")).Post("/tools/chaos/toggle", h.handleChaosToggle)
			r.With(requirePermission(h, "manage_security")).Get("/config/dump", h.handleConfigDump)
			r.With(requirePermission(h, "manage_security")).Post("/config/restore", h.handleConfigRestore)
			r.With(requirePermission(h, "manage_apis")).Post("/proto/{api}/{ver}/{filename}", h.handleProtoUpload)
			r.With(requirePermission(h, "manage_apis")).Delete("/caches", h.handleClearCaches)
		})
	})

	router.Route("/api/rest/{api}/{ver}", func(r chi.Router) {
		r.Use(h.corsForAPI(pathAPIVersion))
		r.Use(csrfMW)
		r.HandleFunc("/*", h.handleREST)
	})
	router.Route("/api/soap/{api}/{ver}", func(r chi.Router) {
		r.Use(h.corsForAPI(pathAPIVersion))
		r.Use(csrfMW)
		r.HandleFunc("/*", h.handleSOAP)
	})
	router.Route("/api/graphql/{api}", func(r chi.Router) {
		r.Use(h.corsForAPI(headerAPIVersion))
		r.Use(csrfMW)
		r.Post("/", h.handleGraphQL)
	})
	router.Route("/api/grpc/{api}/{ver}", func(r chi.Router) {
		r.Use(h.corsForAPI(pathAPIVersion))
		r.Use(csrfMW)
		r.Post("/", h.handleGRPC)
	})
}

// requestLogger attaches the request-scoped zerolog logger and request ID to
// context, mirroring the teacher's logger.Middleware ordering placed right
// after RequestID/RealIP/Recoverer.
func requestLogger(h *handlers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := chimiddleware.GetReqID(r.Context())
			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithContext(ctx, h.logger.With().Str("request_id", requestID).Logger())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requirePermission looks up the permission.Action by name and wraps
// permission.Require, so router wiring can stay terse at each call site.
func requirePermission(h *handlers, action permission.Action) func(http.Handler) http.Handler {
	return permission.Require(action, h.roleLookup, principalRole)
}
