// Package soap implements the SOAP protocol dispatcher (spec §4.7): the
// client posts a SOAP envelope on /api/soap/{api}/{ver}/{uri}; the raw XML
// body is forwarded to the selected server with Content-Type: text/xml and
// the client-supplied SOAPAction header preserved. Shares the backend
// selector and retry loop with internal/gateway/rest.
package soap

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
	"github.com/apidoorman/doorman-go/internal/httputil"
)

// Dispatcher forwards SOAP envelopes to a selected upstream server.
type Dispatcher struct {
	client   *http.Client
	selector *backend.Selector
}

// New constructs a SOAP Dispatcher with the given upstream timeout.
func New(selector *backend.Selector, upstreamTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		client:   httputil.NewClient(upstreamTimeout),
		selector: selector,
	}
}

// Forward posts body as a SOAP envelope to the selected upstream server,
// preserving the client's SOAPAction header, and streams the response back.
func (d *Dispatcher) Forward(w http.ResponseWriter, r *http.Request, api configstore.API, endpoint configstore.Endpoint, routing *configstore.Routing, body []byte) error {
	retryBudget := 1
	if routing != nil && routing.RetryBudget > 0 {
		retryBudget = routing.RetryBudget
	}

	upstreamPath := endpoint.UpstreamPath
	if upstreamPath == "" {
		upstreamPath = endpoint.EndpointURI
	}
	soapAction := r.Header.Get("SOAPAction")

	var upstreamResp *http.Response
	err := d.selector.Dispatch(r.Context(), api.APIName, api.APIVersion, api.APIServers, endpoint.EndpointServers, routing, "", retryBudget, func(ctx context.Context, server string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+upstreamPath, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "text/xml")
		if soapAction != "" {
			req.Header.Set("SOAPAction", soapAction)
		}

		resp, err := d.client.Do(req)
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
	if err != nil {
		return err
	}
	defer upstreamResp.Body.Close()

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(upstreamResp.StatusCode)
	_, copyErr := io.Copy(w, upstreamResp.Body)
	return copyErr
}

type soapError string

func (e soapError) Error() string { return string(e) }

const errServerError = soapError("soap: upstream returned server error status")
