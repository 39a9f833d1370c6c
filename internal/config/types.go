package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	ConfigStore ConfigStoreConfig `yaml:"config_store"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string   `yaml:"address"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
	ShutdownGrace Duration `yaml:"shutdown_grace"`
	RoutePrefix  string   `yaml:"route_prefix"`
	Workers      int      `yaml:"workers"`
	Env          string   `yaml:"env"`
	HTTPSOnly    bool     `yaml:"https_only"`
	HTTPSEnabled bool     `yaml:"https_enabled"`
	CookieDomain string   `yaml:"cookie_domain"`
	MaxMultipartSizeBytes int64 `yaml:"max_multipart_size_bytes"`
	MaxPageSize  int      `yaml:"max_page_size"`
	EnableLatencyInjection bool `yaml:"enable_latency_injection"`
	GRPCDescriptorDir string `yaml:"grpc_descriptor_dir"`
	GzipMinSizeBytes int `yaml:"gzip_min_size_bytes"`
}

// LoggingConfig mirrors the teacher's structured logging setup.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Service     string `yaml:"service"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ConfigStoreBackend selects between the in-process memory backend and an external document store.
type ConfigStoreBackend string

const (
	// ConfigStoreMemory keeps every entity in process memory; requires Workers == 1.
	ConfigStoreMemory ConfigStoreBackend = "MEM"
	// ConfigStoreExternal delegates entity storage to an external document store (MongoDB-shaped).
	ConfigStoreExternal ConfigStoreBackend = "EXTERNAL"
)

// ConfigStoreConfig configures the dual-backend entity store (spec §4.1).
type ConfigStoreConfig struct {
	Backend             ConfigStoreBackend `yaml:"backend"`
	MongoURL            string             `yaml:"mongo_url"`
	MongoDatabase       string             `yaml:"mongo_database"`
	EncryptionKey       string             `yaml:"encryption_key"`
	DumpPath            string             `yaml:"dump_path"`
	EnableAutoSave      bool               `yaml:"enable_auto_save"`
	AutoSaveFrequency   Duration           `yaml:"auto_save_frequency"`
	CreditPostgresURL   string             `yaml:"credit_postgres_url"`
	CreditPostgresPool  PostgresPoolConfig `yaml:"credit_postgres_pool"`
	RedisURL            string             `yaml:"redis_url"`
}

// PostgresPoolConfig tunes the shared Postgres connection pool backing the credit ledger
// when config_store.backend is EXTERNAL.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// AuthConfig configures token issuance/verification (spec §4.2).
type AuthConfig struct {
	JWTSecretKey          string   `yaml:"jwt_secret_key"`
	TokenEncryptionKey    string   `yaml:"token_encryption_key"`
	TokenLifetime         Duration `yaml:"token_lifetime"`
	AdminEmail            string   `yaml:"admin_email"`
	AdminPassword         string   `yaml:"admin_password"`
	BaseURL               string   `yaml:"base_url"`
	LoginIPRateLimit      int      `yaml:"login_ip_rate_limit"`
	LoginIPRateWindow     Duration `yaml:"login_ip_rate_window"`
	LoginIPRateDisabled   bool     `yaml:"login_ip_rate_disabled"`
	IPWhitelist           []string `yaml:"ip_whitelist"`
	IPBlacklist           []string `yaml:"ip_blacklist"`
	TrustXForwardedFor    bool     `yaml:"trust_x_forwarded_for"`
	XFFTrustedProxies     []string `yaml:"xff_trusted_proxies"`
	AllowLocalhostBypass  bool     `yaml:"allow_localhost_bypass"`
}

// CORSConfig is the global CORS fallback policy applied to /platform/*.
type CORSConfig struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	Strict           bool     `yaml:"strict"`
}

// RateLimitConfig configures the default per-user/per-API rate rule window counter backend.
type RateLimitConfig struct {
	DefaultWindow Duration `yaml:"default_window"`
	DefaultLimit  int      `yaml:"default_limit"`
}

// PrometheusConfig guards the /metrics scrape endpoint.
type PrometheusConfig struct {
	Public       bool     `yaml:"public"`
	BearerToken  string   `yaml:"bearer_token"`
	Allowlist    []string `yaml:"allowlist"`
	TrustXFF     bool     `yaml:"trust_xff"`
}

// CircuitBreakerConfig configures the per-API backend circuit breaker (generalized from the teacher's
// per-service breaker manager).
type CircuitBreakerConfig struct {
	Enabled             bool     `yaml:"enabled"`
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	Timeout             Duration `yaml:"timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
	FailureRatio        float64  `yaml:"failure_ratio"`
	MinRequests         uint32   `yaml:"min_requests"`
}

// UpstreamConfig configures default upstream call behavior shared by all four dispatchers.
type UpstreamConfig struct {
	Timeout           Duration `yaml:"timeout"`
	ChaosCheckCeiling Duration `yaml:"chaos_check_ceiling"`
}
