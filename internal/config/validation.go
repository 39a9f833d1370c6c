package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "doorman"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.Workers <= 0 {
		c.Server.Workers = 1
	}
	if c.Server.MaxPageSize <= 0 {
		c.Server.MaxPageSize = 100
	}
	if c.Server.MaxMultipartSizeBytes <= 0 {
		c.Server.MaxMultipartSizeBytes = 10 << 20
	}
	if c.ConfigStore.Backend == "" {
		c.ConfigStore.Backend = ConfigStoreMemory
	}
	if c.ConfigStore.DumpPath == "" {
		c.ConfigStore.DumpPath = "./data/doorman.dump"
	}
	if c.ConfigStore.AutoSaveFrequency.Duration <= 0 {
		c.ConfigStore.AutoSaveFrequency = Duration{Duration: 5 * time.Minute}
	}
	if c.Auth.TokenLifetime.Duration <= 0 {
		c.Auth.TokenLifetime = Duration{Duration: time.Hour}
	}
	if c.Auth.LoginIPRateLimit <= 0 {
		c.Auth.LoginIPRateLimit = 5
	}
	if c.Auth.LoginIPRateWindow.Duration <= 0 {
		c.Auth.LoginIPRateWindow = Duration{Duration: time.Minute}
	}
	if len(c.CORS.AllowMethods) == 0 {
		c.CORS.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowHeaders) == 0 {
		c.CORS.AllowHeaders = []string{"Content-Type", "Authorization", "X-CSRF-Token", "X-API-Version", "X-Request-ID"}
	}
	if c.RateLimit.DefaultWindow.Duration <= 0 {
		c.RateLimit.DefaultWindow = Duration{Duration: time.Minute}
	}
	if c.RateLimit.DefaultLimit <= 0 {
		c.RateLimit.DefaultLimit = 60
	}
	if c.CircuitBreaker.MaxRequests == 0 {
		c.CircuitBreaker.MaxRequests = 3
	}
	if c.CircuitBreaker.Interval.Duration <= 0 {
		c.CircuitBreaker.Interval = Duration{Duration: 60 * time.Second}
	}
	if c.CircuitBreaker.Timeout.Duration <= 0 {
		c.CircuitBreaker.Timeout = Duration{Duration: 30 * time.Second}
	}
	if c.CircuitBreaker.ConsecutiveFailures == 0 {
		c.CircuitBreaker.ConsecutiveFailures = 5
	}
	if c.CircuitBreaker.FailureRatio <= 0 {
		c.CircuitBreaker.FailureRatio = 0.5
	}
	if c.CircuitBreaker.MinRequests == 0 {
		c.CircuitBreaker.MinRequests = 10
	}
	if c.Upstream.Timeout.Duration <= 0 {
		c.Upstream.Timeout = Duration{Duration: 10 * time.Second}
	}
	if c.Upstream.ChaosCheckCeiling.Duration <= 0 {
		c.Upstream.ChaosCheckCeiling = Duration{Duration: 2 * time.Second}
	}

	return c.validate()
}

// validate checks that required configuration is set and internally consistent.
//
// Two checks are fatal at startup rather than merely logged, because violating either
// silently corrupts state rather than producing a clean error later:
//   - MEM backend with Workers > 1: the in-process store has no cross-process coordination,
//     so a second worker would hold an independent, diverging copy of every entity.
//   - EXTERNAL backend without a document store URL: there would be nowhere to persist to,
//     and the memory fallback would mask the misconfiguration instead of failing loudly.
func (c *Config) validate() error {
	var errs []string

	if c.ConfigStore.Backend != ConfigStoreMemory && c.ConfigStore.Backend != ConfigStoreExternal {
		errs = append(errs, fmt.Sprintf("config_store.backend must be %q or %q, got %q", ConfigStoreMemory, ConfigStoreExternal, c.ConfigStore.Backend))
	}

	if c.ConfigStore.Backend == ConfigStoreMemory && c.Server.Workers > 1 {
		errs = append(errs, "server.workers > 1 is incompatible with config_store.backend=MEM: the memory store is process-local and cannot be shared across workers; set config_store.backend=EXTERNAL or server.workers=1")
	}

	if c.ConfigStore.Backend == ConfigStoreExternal && c.ConfigStore.MongoURL == "" {
		errs = append(errs, "config_store.mongo_url is required when config_store.backend=EXTERNAL")
	}

	if c.Auth.JWTSecretKey == "" {
		errs = append(errs, "auth.jwt_secret_key (JWT_SECRET_KEY) is required")
	}

	if c.Auth.AdminEmail != "" || c.Auth.AdminPassword != "" {
		if c.Auth.AdminEmail == "" {
			errs = append(errs, "auth.admin_email is required when auth.admin_password is set")
		}
		if err := validateStrongPassword(c.Auth.AdminPassword); c.Auth.AdminPassword != "" && err != nil {
			errs = append(errs, fmt.Sprintf("auth.admin_password: %v", err))
		}
	}

	if c.CORS.Strict {
		for _, origin := range c.CORS.AllowOrigins {
			if origin == "*" && c.CORS.AllowCredentials {
				errs = append(errs, "cors.strict forbids allow_origins=\"*\" combined with allow_credentials=true")
				break
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// validateStrongPassword enforces the admin seed password rule: at least 12 characters,
// containing upper, lower, digit, and punctuation classes.
func validateStrongPassword(pw string) error {
	if len(pw) < 12 {
		return errors.New("must be at least 12 characters")
	}
	var hasUpper, hasLower, hasDigit, hasPunct bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(`!"#$%&'()*+,-./:;<=>?@[\]^_`+"`"+`{|}~`, r):
			hasPunct = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasPunct {
		return errors.New("must mix uppercase, lowercase, digit, and punctuation characters")
	}
	return nil
}

// ApplyPostgresPoolSettings applies connection pool settings to a database connection.
// If pool config is not specified, applies sensible defaults.
func ApplyPostgresPoolSettings(db *sql.DB, pool PostgresPoolConfig) {
	maxOpen := pool.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}

	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	maxLifetime := pool.ConnMaxLifetime.Duration
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
}
