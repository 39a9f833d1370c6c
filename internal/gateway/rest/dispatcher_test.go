package rest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
)

func TestForward_PassesThroughUpstreamResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("expected /forecast, got %s", r.URL.Path)
		}
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"temp":72}`))
	}))
	defer upstream.Close()

	api := configstore.API{APIName: "weather-api", APIVersion: "v1", APIServers: []string{upstream.URL}}
	endpoint := configstore.Endpoint{EndpointURI: "/forecast", EndpointMethod: "GET"}

	d := New(backend.New(backend.Config{}), 2*time.Second)
	req := httptest.NewRequest(http.MethodGet, "/api/rest/weather-api/v1/forecast", nil)
	rec := httptest.NewRecorder()

	if err := d.Forward(rec, req, api, endpoint, nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Upstream") != "yes" {
		t.Error("expected upstream header to be passed through")
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != `{"temp":72}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestForward_RetriesOnServerErrorThenSucceeds(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer healthy.Close()

	api := configstore.API{APIName: "weather-api", APIVersion: "v1", APIServers: []string{failing.URL, healthy.URL}}
	endpoint := configstore.Endpoint{EndpointURI: "/forecast", EndpointMethod: "GET"}
	routing := &configstore.Routing{RetryBudget: 3}

	d := New(backend.New(backend.Config{}), 2*time.Second)
	req := httptest.NewRequest(http.MethodGet, "/api/rest/weather-api/v1/forecast", nil)
	rec := httptest.NewRecorder()

	if err := d.Forward(rec, req, api, endpoint, routing, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected eventual 200, got %d", rec.Code)
	}
}

func TestForward_FiltersDisallowedHeaders(t *testing.T) {
	var seenHeader string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get("X-Secret")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	api := configstore.API{
		APIName: "weather-api", APIVersion: "v1", APIServers: []string{upstream.URL},
		APIAllowedHeaders: []string{"X-Public"},
	}
	endpoint := configstore.Endpoint{EndpointURI: "/forecast", EndpointMethod: "GET"}

	d := New(backend.New(backend.Config{}), 2*time.Second)
	req := httptest.NewRequest(http.MethodGet, "/api/rest/weather-api/v1/forecast", nil)
	req.Header.Set("X-Secret", "leak-me-not")
	rec := httptest.NewRecorder()

	if err := d.Forward(rec, req, api, endpoint, nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenHeader != "" {
		t.Errorf("expected X-Secret to be filtered, got %q", seenHeader)
	}
}
