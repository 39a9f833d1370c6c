// Package graphql implements the GraphQL protocol dispatcher (spec §4.7):
// accepts POST /api/graphql/{api} with JSON {query, variables,
// operationName}, rewrites to POST {server}/graphql, and passes through
// responses containing an errors array with 200 (GraphQL's own convention,
// distinct from the gateway's own error envelope).
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
	"github.com/apidoorman/doorman-go/internal/httputil"
)

// Request is the GraphQL request envelope a client posts.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Dispatcher forwards GraphQL operations to a selected upstream server.
type Dispatcher struct {
	client   *http.Client
	selector *backend.Selector
}

// New constructs a GraphQL Dispatcher with the given upstream timeout.
func New(selector *backend.Selector, upstreamTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		client:   httputil.NewClient(upstreamTimeout),
		selector: selector,
	}
}

// Forward rewrites req into a POST {server}/graphql call and streams the
// upstream's JSON response back unmodified — an "errors" array in a 200
// response is GraphQL's own error convention and is not rewrapped.
func (d *Dispatcher) Forward(w http.ResponseWriter, r *http.Request, api configstore.API, routing *configstore.Routing, req Request) error {
	retryBudget := 1
	if routing != nil && routing.RetryBudget > 0 {
		retryBudget = routing.RetryBudget
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	var upstreamResp *http.Response
	dispatchErr := d.selector.Dispatch(r.Context(), api.APIName, api.APIVersion, api.APIServers, nil, routing, "", retryBudget, func(ctx context.Context, server string) error {
		upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/graphql", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		upstreamReq.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(upstreamReq)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return errServerError
		}
		upstreamResp = resp
		return nil
	})
	if dispatchErr != nil {
		return dispatchErr
	}
	defer upstreamResp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(upstreamResp.StatusCode)
	_, copyErr := io.Copy(w, upstreamResp.Body)
	return copyErr
}

type graphqlError string

func (e graphqlError) Error() string { return string(e) }

const errServerError = graphqlError("graphql: upstream returned server error status")
