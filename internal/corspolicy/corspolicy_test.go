package corspolicy

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestApply_AllowedOriginSetsHeader(t *testing.T) {
	policy := Policy{AllowOrigins: []string{"https://app.example.com"}, AllowMethods: []string{"GET", "POST"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	handled := Apply(rec, req, policy)
	if handled {
		t.Error("non-OPTIONS request should not be marked as handled")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected origin echoed, got %q", got)
	}
}

func TestApply_DisallowedOriginSkipsHeader(t *testing.T) {
	policy := Policy{AllowOrigins: []string{"https://app.example.com"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	Apply(rec, req, policy)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no ACAO header for disallowed origin, got %q", got)
	}
}

func TestApply_PreflightHandled(t *testing.T) {
	policy := Policy{AllowOrigins: []string{"*"}, AllowMethods: []string{"GET", "POST"}, AllowHeaders: []string{"Content-Type"}}
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()

	if !Apply(rec, req, policy) {
		t.Fatal("expected preflight to be marked handled")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestApply_SingleACAOHeader(t *testing.T) {
	policy := Policy{AllowOrigins: []string{"https://app.example.com"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	Apply(rec, req, policy)
	if len(rec.Header().Values("Access-Control-Allow-Origin")) != 1 {
		t.Error("expected exactly one Access-Control-Allow-Origin header")
	}
}
