package soap

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
)

func TestForward_PreservesSOAPActionAndContentType(t *testing.T) {
	var gotAction, gotContentType string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPAction")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<Envelope><Body>ok</Body></Envelope>`))
	}))
	defer upstream.Close()

	api := configstore.API{APIName: "billing-api", APIVersion: "v1", APIServers: []string{upstream.URL}}
	endpoint := configstore.Endpoint{EndpointURI: "/invoice", EndpointMethod: "POST"}

	d := New(backend.New(backend.Config{}), 2*time.Second)
	req := httptest.NewRequest(http.MethodPost, "/api/soap/billing-api/v1/invoice", strings.NewReader(`<Envelope/>`))
	req.Header.Set("SOAPAction", "urn:invoice#create")
	rec := httptest.NewRecorder()

	if err := d.Forward(rec, req, api, endpoint, nil, []byte(`<Envelope/>`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAction != "urn:invoice#create" {
		t.Errorf("expected SOAPAction preserved, got %q", gotAction)
	}
	if gotContentType != "text/xml" {
		t.Errorf("expected text/xml, got %q", gotContentType)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "<Body>ok</Body>") {
		t.Errorf("unexpected response body: %s", body)
	}
}
