// Application wiring for the doormand gateway process: reads config, builds
// every internal package's dependency graph the way the teacher's
// internal/httpserver.New callers assemble their payment service stack, and
// hands back a ready-to-run gatewayhttp.Server plus a lifecycle.Manager that
// owns clean shutdown of everything it opened.
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/apidoorman/doorman-go/internal/authn"
	"github.com/apidoorman/doorman-go/internal/chaos"
	"github.com/apidoorman/doorman-go/internal/config"
	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/credit"
	"github.com/apidoorman/doorman-go/internal/dbpool"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
	"github.com/apidoorman/doorman-go/internal/gateway/graphql"
	"github.com/apidoorman/doorman-go/internal/gateway/rest"
	"github.com/apidoorman/doorman-go/internal/gateway/soap"
	"github.com/apidoorman/doorman-go/internal/gatewayhttp"
	"github.com/apidoorman/doorman-go/internal/health"
	"github.com/apidoorman/doorman-go/internal/lifecycle"
	"github.com/apidoorman/doorman-go/internal/logger"
	"github.com/apidoorman/doorman-go/internal/metrics"
	"github.com/apidoorman/doorman-go/internal/permission"
	"github.com/apidoorman/doorman-go/internal/ratelimit"
	"github.com/apidoorman/doorman-go/internal/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// app bundles the running gateway and the manager that tears it down in the
// reverse order things were opened.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	server    *gatewayhttp.Server
	store     configstore.Store
	metrics   *metrics.Metrics
	lifecycle *lifecycle.Manager
}

// buildApp loads cfgPath and constructs every dependency the gateway needs.
// Mirrors the teacher's cmd entrypoints loading config.Load first and
// failing fast, then wiring one package at a time in dependency order.
func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.ConfigStore.Backend == config.ConfigStoreMemory && cfg.Server.Workers != 1 {
		return nil, fmt.Errorf("config_store.backend=MEM requires server.workers=1, got %d", cfg.Server.Workers)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     cfg.Logging.Service,
		Version:     cfg.Logging.Version,
		Environment: cfg.Logging.Environment,
	})

	lc := lifecycle.NewManager()

	store, err := configstore.New(ctx, cfg.ConfigStore)
	if err != nil {
		return nil, fmt.Errorf("init config store: %w", err)
	}
	lc.RegisterFunc("configstore", store.Close)
	configstore.StartAutoSave(ctx, store, cfg.ConfigStore)

	issuer := authn.NewIssuer(cfg.Auth.JWTSecretKey, cfg.Auth.TokenLifetime.Duration)
	ledger := authn.NewRevocationLedger()

	creditRepo, creditClose, err := buildCreditRepository(ctx, cfg, store)
	if err != nil {
		return nil, fmt.Errorf("init credit repository: %w", err)
	}
	if creditClose != nil {
		lc.RegisterFunc("credit-postgres", creditClose)
	}
	creditSvc := credit.NewService(creditRepo)

	chaosState := chaos.New(cfg.Upstream.ChaosCheckCeiling.Duration)
	storePing := func() error {
		// A plain Find (rather than FindOne) never returns ErrNotFound for an
		// empty collection, so an empty-but-reachable store still reports ready.
		_, err := store.Find(context.Background(), configstore.CollectionSecurity, nil, 0, 1)
		return err
	}
	checker := health.NewChecker(chaosState, storePing)

	registry := prometheus.NewRegistry()
	gwMetrics := metrics.New(registry)

	selector := backend.New(backend.Config{
		BreakerTimeout:             cfg.CircuitBreaker.Timeout.Duration,
		BreakerMaxRequests:         cfg.CircuitBreaker.MaxRequests,
		BreakerConsecutiveFailures: cfg.CircuitBreaker.ConsecutiveFailures,
	})

	restDisp := rest.New(selector, cfg.Upstream.Timeout.Duration)
	soapDisp := soap.New(selector, cfg.Upstream.Timeout.Duration)
	gqlDisp := graphql.New(selector, cfg.Upstream.Timeout.Duration)

	res := resolver.New(store)

	roleLookup := permission.RoleLookup(func(ctx context.Context, roleName string) (configstore.Role, error) {
		doc, err := store.FindOne(ctx, configstore.CollectionRoles, map[string]interface{}{"role_name": roleName})
		if err != nil {
			return configstore.Role{}, err
		}
		if doc == nil {
			return configstore.Role{}, fmt.Errorf("role %q not found", roleName)
		}
		var role configstore.Role
		if err := configstore.Decode(doc, &role); err != nil {
			return configstore.Role{}, err
		}
		return role, nil
	})

	rateLim, rateLimClose := buildRateLimitCounter(cfg)
	if rateLimClose != nil {
		lc.RegisterFunc("ratelimit-redis", rateLimClose)
	}

	server := gatewayhttp.New(gatewayhttp.Deps{
		Config:            cfg,
		Store:             store,
		Resolver:          res,
		Selector:          selector,
		Issuer:            issuer,
		Ledger:            ledger,
		Credits:           creditSvc,
		Chaos:             chaosState,
		Checker:           checker,
		Metrics:           gwMetrics,
		RateLim:           rateLim,
		RESTDispatcher:    restDisp,
		SOAPDispatcher:    soapDisp,
		GraphQLDispatcher: gqlDisp,
		RoleLookup:        roleLookup,
		GRPCDescriptorDir: cfg.Server.GRPCDescriptorDir,
		Logger:            log,
	})

	return &app{cfg: cfg, log: log, server: server, store: store, metrics: gwMetrics, lifecycle: lc}, nil
}

// buildCreditRepository picks the MEM or Postgres-backed credit.Repository
// per config_store.backend, seeding the MEM repository from whatever credit
// definitions are already in the store.
func buildCreditRepository(ctx context.Context, cfg *config.Config, store configstore.Store) (credit.Repository, func() error, error) {
	if cfg.ConfigStore.Backend == config.ConfigStoreExternal && cfg.ConfigStore.CreditPostgresURL != "" {
		pool, err := dbpool.NewSharedPool(cfg.ConfigStore.CreditPostgresURL, cfg.ConfigStore.CreditPostgresPool)
		if err != nil {
			return nil, nil, err
		}
		return credit.NewPostgresRepository(pool), pool.Close, nil
	}

	defs := make(map[string]configstore.CreditDefinition)
	cursor, err := store.Find(ctx, configstore.CollectionCreditDefs, nil, 0, 1000)
	if err == nil {
		docs, err := cursor.ToList(ctx, 1000)
		if err == nil {
			for _, doc := range docs {
				var def configstore.CreditDefinition
				if err := configstore.Decode(doc, &def); err == nil {
					defs[def.CreditGroup] = def
				}
			}
		}
	}
	return credit.NewMemoryRepository(defs), nil, nil
}

// buildRateLimitCounter selects the Redis-backed counter when a Redis URL is
// configured, falling back to the in-process sweeping counter otherwise.
func buildRateLimitCounter(cfg *config.Config) (ratelimit.Counter, func() error) {
	if cfg.ConfigStore.RedisURL == "" {
		return ratelimit.NewMemoryCounter(cfg.RateLimit.DefaultWindow.Duration), nil
	}
	opts, err := redis.ParseURL(cfg.ConfigStore.RedisURL)
	if err != nil {
		return ratelimit.NewMemoryCounter(cfg.RateLimit.DefaultWindow.Duration), nil
	}
	client := redis.NewClient(opts)
	return ratelimit.NewRedisCounter(client), client.Close
}
