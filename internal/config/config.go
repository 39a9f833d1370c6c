package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:               ":8080",
			ReadTimeout:           Duration{Duration: 15 * time.Second},
			WriteTimeout:          Duration{Duration: 15 * time.Second},
			IdleTimeout:           Duration{Duration: 60 * time.Second},
			ShutdownGrace:         Duration{Duration: 20 * time.Second},
			Workers:               1,
			Env:                   "development",
			MaxMultipartSizeBytes: 10 << 20,
			MaxPageSize:           100,
			GRPCDescriptorDir:     "./data/grpc-descriptors",
			GzipMinSizeBytes:      1024,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Service:     "doorman",
			Environment: "development",
		},
		ConfigStore: ConfigStoreConfig{
			Backend:           ConfigStoreMemory,
			DumpPath:          "./data/doorman.dump",
			AutoSaveFrequency: Duration{Duration: 5 * time.Minute},
		},
		Auth: AuthConfig{
			TokenLifetime:     Duration{Duration: 1 * time.Hour},
			LoginIPRateLimit:  5,
			LoginIPRateWindow: Duration{Duration: 1 * time.Minute},
		},
		CORS: CORSConfig{
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "Authorization", "X-CSRF-Token", "X-API-Version", "X-Request-ID"},
			Strict:       true,
		},
		RateLimit: RateLimitConfig{
			DefaultWindow: Duration{Duration: 1 * time.Minute},
			DefaultLimit:  60,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			MaxRequests:         3,
			Interval:            Duration{Duration: 60 * time.Second},
			Timeout:             Duration{Duration: 30 * time.Second},
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
		},
		Upstream: UpstreamConfig{
			Timeout:           Duration{Duration: 10 * time.Second},
			ChaosCheckCeiling: Duration{Duration: 2 * time.Second},
		},
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
