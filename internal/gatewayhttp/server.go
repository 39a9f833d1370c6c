// Package gatewayhttp wires every gateway concern into a chi router and HTTP
// server: the middleware chain, the four protocol dispatcher mounts, the
// platform admin CRUD surface, and the health/metrics/chaos endpoints.
// Grounded on the teacher's internal/httpserver/server.go Server/handlers
// split and ConfigureRouter wiring function, generalized from payment routes
// to the gateway's protocol-dispatch and platform-admin routes.
package gatewayhttp

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/apidoorman/doorman-go/internal/authn"
	"github.com/apidoorman/doorman-go/internal/chaos"
	"github.com/apidoorman/doorman-go/internal/config"
	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/credit"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
	"github.com/apidoorman/doorman-go/internal/gateway/graphql"
	"github.com/apidoorman/doorman-go/internal/gateway/rest"
	"github.com/apidoorman/doorman-go/internal/gateway/soap"
	"github.com/apidoorman/doorman-go/internal/health"
	"github.com/apidoorman/doorman-go/internal/metrics"
	"github.com/apidoorman/doorman-go/internal/permission"
	"github.com/apidoorman/doorman-go/internal/ratelimit"
	"github.com/apidoorman/doorman-go/internal/resolver"
)

// Server wires handlers, middleware, and dependencies for the gateway HTTP surface.
type Server struct {
	handlers
	httpServer *http.Server
}

// handlers bundles every dependency the route handlers close over.
type handlers struct {
	cfg       *config.Config
	store     configstore.Store
	resolver  *resolver.Resolver
	selector  *backend.Selector
	issuer    *authn.Issuer
	ledger    *authn.RevocationLedger
	credits   *credit.Service
	chaos     *chaos.State
	checker   *health.Checker
	metrics   *metrics.Metrics
	rateLim   ratelimit.Counter
	restDisp  *rest.Dispatcher
	soapDisp  *soap.Dispatcher
	gqlDisp   *graphql.Dispatcher
	roleLookup permission.RoleLookup
	grpcRegistry *grpcRegistry
	logger    zerolog.Logger
}

// Deps aggregates everything New needs to build the Server.
type Deps struct {
	Config     *config.Config
	Store      configstore.Store
	Resolver   *resolver.Resolver
	Selector   *backend.Selector
	Issuer     *authn.Issuer
	Ledger     *authn.RevocationLedger
	Credits    *credit.Service
	Chaos      *chaos.State
	Checker    *health.Checker
	Metrics    *metrics.Metrics
	RateLim    ratelimit.Counter
	RESTDispatcher    *rest.Dispatcher
	SOAPDispatcher    *soap.Dispatcher
	GraphQLDispatcher *graphql.Dispatcher
	RoleLookup permission.RoleLookup
	GRPCDescriptorDir string
	Logger     zerolog.Logger
}

// New builds the HTTP server with a fully configured router.
func New(deps Deps) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:        deps.Config,
			store:      deps.Store,
			resolver:   deps.Resolver,
			selector:   deps.Selector,
			issuer:     deps.Issuer,
			ledger:     deps.Ledger,
			credits:    deps.Credits,
			chaos:      deps.Chaos,
			checker:    deps.Checker,
			metrics:    deps.Metrics,
			rateLim:    deps.RateLim,
			restDisp:   deps.RESTDispatcher,
			soapDisp:   deps.SOAPDispatcher,
			gqlDisp:    deps.GraphQLDispatcher,
			roleLookup:   deps.RoleLookup,
			grpcRegistry: newGRPCRegistry(deps.GRPCDescriptorDir),
			logger:       deps.Logger,
		},
		httpServer: &http.Server{
			Addr:         deps.Config.Server.Address,
			ReadTimeout:  deps.Config.Server.ReadTimeout.Duration,
			WriteTimeout: deps.Config.Server.WriteTimeout.Duration,
			IdleTimeout:  deps.Config.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	ConfigureRouter(router, &s.handlers)

	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, honoring the configured grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("gatewayhttp.starting_graceful_shutdown")
	return s.httpServer.Shutdown(ctx)
}
