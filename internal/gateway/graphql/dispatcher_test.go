package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
)

func TestForward_RewritesToGraphQLPath(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"hello":"world"}}`))
	}))
	defer upstream.Close()

	api := configstore.API{APIName: "gql", APIVersion: "v1", APIServers: []string{upstream.URL}}
	d := New(backend.New(backend.Config{}), 2*time.Second)
	r := httptest.NewRequest(http.MethodPost, "/api/graphql/gql", nil)
	r.Header.Set("X-API-Version", "v1")
	rec := httptest.NewRecorder()

	err := d.Forward(rec, r, api, nil, Request{Query: "{ hello }"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/graphql" {
		t.Errorf("expected rewrite to /graphql, got %s", gotPath)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
}

func TestForward_PassesThroughErrorsArrayWith200(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"errors":[{"message":"boom"}]}`))
	}))
	defer upstream.Close()

	api := configstore.API{APIName: "gql", APIVersion: "v1", APIServers: []string{upstream.URL}}
	d := New(backend.New(backend.Config{}), 2*time.Second)
	r := httptest.NewRequest(http.MethodPost, "/api/graphql/gql", nil)
	rec := httptest.NewRecorder()

	if err := d.Forward(rec, r, api, nil, Request{Query: "{ broken }"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 passthrough, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"errors"`) {
		t.Errorf("expected errors array preserved, got %s", rec.Body.String())
	}
}
