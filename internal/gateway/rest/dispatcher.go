// Package rest implements the REST protocol dispatcher (spec §4.7): verb and
// path are forwarded as-is to the selected upstream server, the query string
// is preserved, request headers are filtered against the API's allow-list,
// and the response body passes through unmodified. Grounded on the
// teacher's internal/httputil.NewClient connection-pooled client plus
// internal/gateway/backend's retry loop for upstream selection.
package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
	"github.com/apidoorman/doorman-go/internal/httputil"
)

// Dispatcher forwards REST requests to a selected upstream server.
type Dispatcher struct {
	client   *http.Client
	selector *backend.Selector
}

// New constructs a REST Dispatcher with the given upstream timeout.
func New(selector *backend.Selector, upstreamTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		client:   httputil.NewClient(upstreamTimeout),
		selector: selector,
	}
}

// Forward dispatches method+uri (with query preserved) to one of api's
// servers (or endpoint's override), retrying per the routing table, and
// writes the upstream's response verbatim to w. allowedHeaders, when
// non-empty, restricts which request headers are forwarded.
func (d *Dispatcher) Forward(w http.ResponseWriter, r *http.Request, api configstore.API, endpoint configstore.Endpoint, routing *configstore.Routing, clientKey string, body []byte) error {
	retryBudget := 1
	if routing != nil && routing.RetryBudget > 0 {
		retryBudget = routing.RetryBudget
	}

	upstreamPath := endpoint.UpstreamPath
	if upstreamPath == "" {
		upstreamPath = endpoint.EndpointURI
	}
	if r.URL.RawQuery != "" {
		upstreamPath += "?" + r.URL.RawQuery
	}

	allowed := allowedHeaderSet(api.APIAllowedHeaders)

	var upstreamResp *http.Response
	err := d.selector.Dispatch(r.Context(), api.APIName, api.APIVersion, api.APIServers, endpoint.EndpointServers, routing, clientKey, retryBudget, func(ctx context.Context, server string) error {
		req, err := http.NewRequestWithContext(r.Context(), r.Method, server+upstreamPath, bytes.NewReader(body))
		if err != nil {
			return err
		}
		copyFilteredHeaders(req.Header, r.Header, allowed)
		if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}

		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return errStatus(resp.StatusCode)
		}
		upstreamResp = resp
		return nil
	})
	if err != nil {
		return err
	}
	defer upstreamResp.Body.Close()

	for key, values := range upstreamResp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(upstreamResp.StatusCode)
	_, copyErr := io.Copy(w, upstreamResp.Body)
	return copyErr
}

func allowedHeaderSet(headers []string) map[string]bool {
	if len(headers) == 0 {
		return nil
	}
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[strings.ToLower(h)] = true
	}
	return set
}

func copyFilteredHeaders(dst, src http.Header, allowed map[string]bool) {
	for key, values := range src {
		if allowed != nil && !allowed[strings.ToLower(key)] {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

type statusError int

func (e statusError) Error() string {
	return "rest: upstream returned server error status"
}

func errStatus(code int) error {
	return statusError(code)
}
