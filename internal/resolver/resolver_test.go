package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
)

func newTestStore(t *testing.T) configstore.Store {
	t.Helper()
	store := configstore.NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	api, err := configstore.Encode(configstore.API{
		APIID: "a1", APIName: "weather-api", APIVersion: "v1",
		APIType: "REST", APIServers: []string{"http://upstream"},
		APIAllowedGroups: []string{"paid"}, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertOne(ctx, configstore.CollectionAPIs, api); err != nil {
		t.Fatal(err)
	}

	endpoint, err := configstore.Encode(configstore.Endpoint{
		EndpointID: "e1", APIName: "weather-api", APIVersion: "v1",
		EndpointMethod: "GET", EndpointURI: "/forecast", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertOne(ctx, configstore.CollectionEndpoints, endpoint); err != nil {
		t.Fatal(err)
	}

	sub, err := configstore.Encode(configstore.Subscription{UserID: "u1", APIName: "weather-api", APIVersion: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertOne(ctx, configstore.CollectionSubscriptions, sub); err != nil {
		t.Fatal(err)
	}

	return store
}

func TestResolve_HappyPath(t *testing.T) {
	res := New(newTestStore(t))
	resolved, errDetail := res.Resolve(context.Background(), "weather-api", "v1", "GET", "/forecast", "u1", nil)
	if errDetail != nil {
		t.Fatalf("unexpected error: %v", errDetail)
	}
	if resolved.API.APIName != "weather-api" {
		t.Errorf("expected weather-api, got %s", resolved.API.APIName)
	}
}

func TestResolve_UnknownAPI(t *testing.T) {
	res := New(newTestStore(t))
	_, errDetail := res.Resolve(context.Background(), "missing-api", "v1", "GET", "/forecast", "u1", nil)
	if errDetail == nil || errDetail.Code != "GTW003" {
		t.Fatalf("expected GTW003, got %v", errDetail)
	}
}

func TestResolve_UnknownEndpoint(t *testing.T) {
	res := New(newTestStore(t))
	_, errDetail := res.Resolve(context.Background(), "weather-api", "v1", "POST", "/not-registered", "u1", nil)
	if errDetail == nil || errDetail.Code != "GTW001" {
		t.Fatalf("expected GTW001, got %v", errDetail)
	}
}

func TestResolve_NotSubscribedRejected(t *testing.T) {
	res := New(newTestStore(t))
	_, errDetail := res.Resolve(context.Background(), "weather-api", "v1", "GET", "/forecast", "unknown-user", nil)
	if errDetail == nil || errDetail.Code != "GTW002" {
		t.Fatalf("expected GTW002, got %v", errDetail)
	}
}

func TestResolve_GroupMembershipGrantsAccess(t *testing.T) {
	res := New(newTestStore(t))
	_, errDetail := res.Resolve(context.Background(), "weather-api", "v1", "GET", "/forecast", "unknown-user", []string{"paid"})
	if errDetail != nil {
		t.Fatalf("expected group membership to grant access, got %v", errDetail)
	}
}

func TestResolve_PublicAPIBypassesSubscription(t *testing.T) {
	store := configstore.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	api, err := configstore.Encode(configstore.API{
		APIID: "a2", APIName: "open-api", APIVersion: "v1",
		APIType: "REST", APIServers: []string{"http://upstream"},
		Public: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertOne(ctx, configstore.CollectionAPIs, api); err != nil {
		t.Fatal(err)
	}
	endpoint, err := configstore.Encode(configstore.Endpoint{
		EndpointID: "e2", APIName: "open-api", APIVersion: "v1",
		EndpointMethod: "GET", EndpointURI: "/ping", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertOne(ctx, configstore.CollectionEndpoints, endpoint); err != nil {
		t.Fatal(err)
	}

	res := New(store)
	_, errDetail := res.Resolve(ctx, "open-api", "v1", "GET", "/ping", "", nil)
	if errDetail != nil {
		t.Fatalf("expected public API to bypass subscription gate, got %v", errDetail)
	}
}

func TestResolve_UnconfiguredRolesGroupsStillRequiresSubscription(t *testing.T) {
	store := configstore.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	api, err := configstore.Encode(configstore.API{
		APIID: "a3", APIName: "gated-api", APIVersion: "v1",
		APIType: "REST", APIServers: []string{"http://upstream"},
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertOne(ctx, configstore.CollectionAPIs, api); err != nil {
		t.Fatal(err)
	}
	endpoint, err := configstore.Encode(configstore.Endpoint{
		EndpointID: "e3", APIName: "gated-api", APIVersion: "v1",
		EndpointMethod: "GET", EndpointURI: "/secret", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertOne(ctx, configstore.CollectionEndpoints, endpoint); err != nil {
		t.Fatal(err)
	}

	res := New(store)
	_, errDetail := res.Resolve(ctx, "gated-api", "v1", "GET", "/secret", "unknown-user", nil)
	if errDetail == nil || errDetail.Code != "GTW002" {
		t.Fatalf("expected GTW002 for an unsubscribed caller against a non-public API, got %v", errDetail)
	}
}

func TestVersionFromRequest_PathVersion(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/rest/weather-api/v2/forecast", nil)
	version, errDetail := VersionFromRequest(r, "v2", false)
	if errDetail != nil {
		t.Fatalf("unexpected error: %v", errDetail)
	}
	if version != "v2" {
		t.Errorf("expected v2, got %s", version)
	}
}

func TestVersionFromRequest_HeaderRequired(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/graphql/gql", nil)
	_, errDetail := VersionFromRequest(r, "", true)
	if errDetail == nil {
		t.Fatal("expected error when X-API-Version header missing")
	}

	r.Header.Set(VersionHeader, "v1")
	version, errDetail := VersionFromRequest(r, "", true)
	if errDetail != nil {
		t.Fatalf("unexpected error: %v", errDetail)
	}
	if version != "v1" {
		t.Errorf("expected v1, got %s", version)
	}
}
