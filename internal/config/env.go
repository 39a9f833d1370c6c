package config

import (
	"strings"
	"time"

	"os"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration. Names follow
// spec §6 exactly (no namespacing prefix beyond what the spec already defines).
func (c *Config) applyEnvOverrides() {
	setIfEnv(&c.Auth.BaseURL, "DOORMAN_BASE_URL")
	setIfEnv(&c.Auth.AdminEmail, "DOORMAN_ADMIN_EMAIL")
	setIfEnv(&c.Auth.AdminPassword, "DOORMAN_ADMIN_PASSWORD")
	setIfEnv(&c.Server.Env, "ENV")
	setBoolIfEnv(&c.Server.HTTPSOnly, "HTTPS_ONLY")
	setBoolIfEnv(&c.Server.HTTPSEnabled, "HTTPS_ENABLED")
	setIfEnv(&c.Server.CookieDomain, "COOKIE_DOMAIN")

	if v := os.Getenv("MEM_OR_EXTERNAL"); v != "" {
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case string(ConfigStoreExternal):
			c.ConfigStore.Backend = ConfigStoreExternal
		default:
			c.ConfigStore.Backend = ConfigStoreMemory
		}
	}
	setIfEnv(&c.ConfigStore.EncryptionKey, "MEM_ENCRYPTION_KEY")
	setIfEnv(&c.ConfigStore.DumpPath, "MEM_DUMP_PATH")

	if v := os.Getenv("THREADS"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.Server.Workers = n
		}
	}

	setIfEnv(&c.Auth.JWTSecretKey, "JWT_SECRET_KEY")
	setIfEnv(&c.ConfigStore.EncryptionKey, "TOKEN_ENCRYPTION_KEY")

	setCSVIfEnv(&c.CORS.AllowOrigins, "ALLOWED_ORIGINS")
	setCSVIfEnv(&c.CORS.AllowMethods, "ALLOW_METHODS")
	setCSVIfEnv(&c.CORS.AllowHeaders, "ALLOW_HEADERS")
	setBoolIfEnv(&c.CORS.AllowCredentials, "ALLOW_CREDENTIALS")
	setBoolIfEnv(&c.CORS.Strict, "CORS_STRICT")

	if v := os.Getenv("LOGIN_IP_RATE_LIMIT"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.Auth.LoginIPRateLimit = n
		}
	}
	setDurationSecondsIfEnv(&c.Auth.LoginIPRateWindow, "LOGIN_IP_RATE_WINDOW")
	setBoolIfEnv(&c.Auth.LoginIPRateDisabled, "LOGIN_IP_RATE_DISABLED")

	if v := os.Getenv("MAX_PAGE_SIZE"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.Server.MaxPageSize = n
		}
	}
	if v := os.Getenv("MAX_MULTIPART_SIZE_BYTES"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.Server.MaxMultipartSizeBytes = int64(n)
		}
	}
	setBoolIfEnv(&c.Server.EnableLatencyInjection, "ENABLE_LATENCY_INJECTION")
	if v := os.Getenv("GZIP_MIN_SIZE_BYTES"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.Server.GzipMinSizeBytes = n
		}
	}

	setBoolIfEnv(&c.Prometheus.Public, "PROMETHEUS_PUBLIC")
	setIfEnv(&c.Prometheus.BearerToken, "PROMETHEUS_BEARER_TOKEN")
	setCSVIfEnv(&c.Prometheus.Allowlist, "PROMETHEUS_ALLOWLIST")
	setBoolIfEnv(&c.Prometheus.TrustXFF, "PROMETHEUS_TRUST_XFF")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setDurationSecondsIfEnv sets a Duration pointer from an environment variable expressed in
// plain seconds (per spec §6, e.g. LOGIN_IP_RATE_WINDOW=60) or a Go duration string.
func setDurationSecondsIfEnv(target *Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if dur, err := time.ParseDuration(v); err == nil {
		*target = Duration{Duration: dur}
		return
	}
	if n, err := parseInt(v); err == nil {
		*target = Duration{Duration: time.Duration(n) * time.Second}
	}
}

// setCSVIfEnv sets a string slice from a comma-separated environment variable.
func setCSVIfEnv(target *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	*target = out
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	n := 0
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, strErr("empty integer")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strErr("invalid integer")
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

type strErr string

func (e strErr) Error() string { return string(e) }
