package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	clearEnv()
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when jwt secret key is missing")
	}
	if !strings.Contains(err.Error(), "jwt_secret_key") {
		t.Errorf("expected error about jwt_secret_key, got: %v", err)
	}
}

func TestLoadConfig_ValidMinimal(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_SECRET_KEY", "a-sufficiently-long-secret")
	defer clearEnv()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error with valid config, got: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.ConfigStore.Backend != ConfigStoreMemory {
		t.Errorf("expected default backend MEM, got %s", cfg.ConfigStore.Backend)
	}
	if cfg.Server.Workers != 1 {
		t.Errorf("expected default workers 1, got %d", cfg.Server.Workers)
	}
}

func TestLoadConfig_MemBackendRejectsMultipleWorkers(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_SECRET_KEY", "a-sufficiently-long-secret")
	os.Setenv("THREADS", "4")
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when MEM backend is combined with workers > 1")
	}
	if !strings.Contains(err.Error(), "server.workers > 1") {
		t.Errorf("expected workers error, got: %v", err)
	}
}

func TestLoadConfig_ExternalBackendRequiresMongoURL(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_SECRET_KEY", "a-sufficiently-long-secret")
	os.Setenv("MEM_OR_EXTERNAL", "EXTERNAL")
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when EXTERNAL backend is missing mongo_url")
	}
	if !strings.Contains(err.Error(), "config_store.mongo_url") {
		t.Errorf("expected mongo_url error, got: %v", err)
	}
}

func TestLoadConfig_WeakAdminPasswordRejected(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_SECRET_KEY", "a-sufficiently-long-secret")
	os.Setenv("DOORMAN_ADMIN_EMAIL", "admin@example.com")
	os.Setenv("DOORMAN_ADMIN_PASSWORD", "short")
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for weak admin password")
	}
	if !strings.Contains(err.Error(), "admin_password") {
		t.Errorf("expected admin_password error, got: %v", err)
	}
}

func TestLoadConfig_StrongAdminPasswordAccepted(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_SECRET_KEY", "a-sufficiently-long-secret")
	os.Setenv("DOORMAN_ADMIN_EMAIL", "admin@example.com")
	os.Setenv("DOORMAN_ADMIN_PASSWORD", "Sup3r-Strong-Passw0rd!")
	defer clearEnv()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Auth.AdminEmail != "admin@example.com" {
		t.Errorf("expected admin email to be set, got %s", cfg.Auth.AdminEmail)
	}
}

func TestLoadConfig_CORSStrictRejectsWildcardWithCredentials(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_SECRET_KEY", "a-sufficiently-long-secret")
	os.Setenv("ALLOWED_ORIGINS", "*")
	os.Setenv("ALLOW_CREDENTIALS", "true")
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for wildcard origin with credentials under strict CORS")
	}
	if !strings.Contains(err.Error(), "cors.strict") {
		t.Errorf("expected cors.strict error, got: %v", err)
	}
}

func TestLoadConfig_EnvOverridesApplied(t *testing.T) {
	clearEnv()
	os.Setenv("JWT_SECRET_KEY", "a-sufficiently-long-secret")
	os.Setenv("ENV", "production")
	os.Setenv("HTTPS_ONLY", "true")
	os.Setenv("LOGIN_IP_RATE_LIMIT", "10")
	os.Setenv("MAX_PAGE_SIZE", "250")
	defer clearEnv()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Server.Env != "production" {
		t.Errorf("expected env production, got %s", cfg.Server.Env)
	}
	if !cfg.Server.HTTPSOnly {
		t.Error("expected https_only true")
	}
	if cfg.Auth.LoginIPRateLimit != 10 {
		t.Errorf("expected login ip rate limit 10, got %d", cfg.Auth.LoginIPRateLimit)
	}
	if cfg.Server.MaxPageSize != 250 {
		t.Errorf("expected max page size 250, got %d", cfg.Server.MaxPageSize)
	}
}

func clearEnv() {
	envVars := []string{
		"DOORMAN_BASE_URL", "DOORMAN_ADMIN_EMAIL", "DOORMAN_ADMIN_PASSWORD",
		"ENV", "HTTPS_ONLY", "HTTPS_ENABLED", "COOKIE_DOMAIN",
		"MEM_OR_EXTERNAL", "MEM_ENCRYPTION_KEY", "MEM_DUMP_PATH", "THREADS",
		"JWT_SECRET_KEY", "TOKEN_ENCRYPTION_KEY",
		"ALLOWED_ORIGINS", "ALLOW_METHODS", "ALLOW_HEADERS", "ALLOW_CREDENTIALS", "CORS_STRICT",
		"LOGIN_IP_RATE_LIMIT", "LOGIN_IP_RATE_WINDOW", "LOGIN_IP_RATE_DISABLED",
		"MAX_PAGE_SIZE", "MAX_MULTIPART_SIZE_BYTES", "ENABLE_LATENCY_INJECTION",
		"PROMETHEUS_PUBLIC", "PROMETHEUS_BEARER_TOKEN", "PROMETHEUS_ALLOWLIST", "PROMETHEUS_TRUST_XFF",
	}
	for _, key := range envVars {
		os.Unsetenv(key)
	}
}
