// Protocol dispatch handlers mount the four ingress surfaces (spec §4.7):
// REST/SOAP carry their api_version in the path, GraphQL/gRPC carry it in
// the X-API-Version header. Each shares the resolve -> subscription gate ->
// rate limit -> credit authorize -> field validate -> forward pipeline,
// differing only in how the path/body map onto the protocol's dispatcher.
package gatewayhttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apidoorman/doorman-go/internal/authn"
	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/corspolicy"
	"github.com/apidoorman/doorman-go/internal/credit"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
	"github.com/apidoorman/doorman-go/internal/gateway/backend"
	"github.com/apidoorman/doorman-go/internal/gateway/graphql"
	"github.com/apidoorman/doorman-go/internal/resolver"
)

// dispatchContext is what every protocol handler resolves before handing off
// to its dispatcher.
type dispatchContext struct {
	api       configstore.API
	endpoint  configstore.Endpoint
	principal authn.Principal
	routing   *configstore.Routing
}

// prepare runs the resolve -> subscription -> rate-limit -> credit pipeline
// shared by every protocol. It writes the error response itself and returns
// ok=false when any stage fails.
func (h *handlers) prepare(w http.ResponseWriter, r *http.Request, apiName, apiVersion, method, uri string) (dispatchContext, bool) {
	principal, authenticated := h.optionalPrincipal(r)
	groups := h.userGroups(r.Context(), principal.UserID)

	resolved, errDetail := h.resolver.Resolve(r.Context(), apiName, apiVersion, method, uri, principal.UserID, groups)
	if errDetail != nil {
		apierrors.WriteDetail(w, errDetail)
		return dispatchContext{}, false
	}

	if resolved.Endpoint.RequiresAuth && !authenticated {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeAuthRequired, "authentication required")
		return dispatchContext{}, false
	}

	if !h.checkRateLimit(w, r, resolved.API, principal.UserID) {
		return dispatchContext{}, false
	}

	if resolved.Endpoint.CreditGroup != "" {
		if err := h.credits.Authorize(r.Context(), principal.UserID, resolved.Endpoint.CreditGroup, 1); err != nil {
			if err == credit.ErrInsufficientCredits && h.metrics != nil {
				h.metrics.ObserveRateLimit("credit_denied")
			}
			apierrors.WriteSimpleError(w, apierrors.ErrCodeRateLimited, "insufficient credits remaining")
			return dispatchContext{}, false
		}
	}

	routing := h.routingFor(r.Context(), resolved.API.APIName, resolved.API.APIVersion)
	return dispatchContext{api: resolved.API, endpoint: resolved.Endpoint, principal: principal, routing: routing}, true
}

// corsForAPI returns middleware that resolves the per-API CORS policy (§4.5)
// for the protocol route it guards, falling back to the global policy when
// the API carries no override or can't yet be resolved, and applies it
// before the protocol handler runs. This both sets CORS response headers on
// the real request and answers an OPTIONS preflight locally instead of
// letting it fall through to the protocol dispatcher as a literal upstream
// call. extract reports the api_name/api_version the route carries.
func (h *handlers) corsForAPI(extract func(r *http.Request) (apiName, apiVersion string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy := corspolicy.FromGlobalConfig(h.cfg.CORS)
			apiName, apiVersion := extract(r)
			if apiName != "" && apiVersion != "" {
				if api, errDetail := h.resolver.ResolveAPI(r.Context(), apiName, apiVersion); errDetail == nil && api != nil {
					if override, ok := corspolicy.FromAPI(*api); ok {
						policy = override
					}
				}
			}
			if corspolicy.Apply(w, r, policy) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// pathAPIVersion extracts api_name/api_version from a path-versioned route
// (REST, SOAP, gRPC) for corsForAPI; headerAPIVersion reads the
// X-API-Version header since GraphQL carries no version path segment.
func pathAPIVersion(r *http.Request) (string, string) {
	return chi.URLParam(r, "api"), chi.URLParam(r, "ver")
}

func headerAPIVersion(r *http.Request) (string, string) {
	return chi.URLParam(r, "api"), r.Header.Get(resolver.VersionHeader)
}

// clientKeyFor is the pinned-routing identity: the authenticated user when
// present, otherwise the caller's remote address.
func clientKeyFor(r *http.Request, p authn.Principal) string {
	if p.UserID != "" {
		return p.UserID
	}
	return r.RemoteAddr
}

// handleREST forwards /api/rest/{api}/{ver}/{uri...}.
func (h *handlers) handleREST(w http.ResponseWriter, r *http.Request) {
	apiName := chi.URLParam(r, "api")
	version, errDetail := resolver.VersionFromRequest(r, chi.URLParam(r, "ver"), false)
	if errDetail != nil {
		apierrors.WriteDetail(w, errDetail)
		return
	}
	uri := "/" + chi.URLParam(r, "*")

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	dc, ok := h.prepare(w, r, apiName, version, r.Method, uri)
	if !ok {
		return
	}
	if dc.endpoint.FieldValidation != nil && len(body) > 0 {
		if detail := validateJSONBody(dc.endpoint.FieldValidation, body); detail != nil {
			apierrors.WriteDetail(w, detail)
			return
		}
	}

	if err := h.restDisp.Forward(w, r, dc.api, dc.endpoint, dc.routing, clientKeyFor(r, dc.principal), body); err != nil {
		writeDispatchError(w, err)
	}
}

// handleSOAP forwards /api/soap/{api}/{ver}/{uri...}.
func (h *handlers) handleSOAP(w http.ResponseWriter, r *http.Request) {
	apiName := chi.URLParam(r, "api")
	version, errDetail := resolver.VersionFromRequest(r, chi.URLParam(r, "ver"), false)
	if errDetail != nil {
		apierrors.WriteDetail(w, errDetail)
		return
	}
	uri := "/" + chi.URLParam(r, "*")

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	dc, ok := h.prepare(w, r, apiName, version, r.Method, uri)
	if !ok {
		return
	}

	if err := h.soapDisp.Forward(w, r, dc.api, dc.endpoint, dc.routing, body); err != nil {
		writeDispatchError(w, err)
	}
}

// handleGraphQL forwards POST /api/graphql/{api}; version comes from the
// X-API-Version header since GraphQL carries one conventional operation
// endpoint with no version path segment.
func (h *handlers) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	apiName := chi.URLParam(r, "api")
	version, errDetail := resolver.VersionFromRequest(r, "", true)
	if errDetail != nil {
		apierrors.WriteDetail(w, errDetail)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req graphql.Request
	if err := json.Unmarshal(body, &req); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "malformed GraphQL request body")
		return
	}

	dc, ok := h.prepare(w, r, apiName, version, http.MethodPost, "/graphql")
	if !ok {
		return
	}

	if err := h.gqlDisp.Forward(w, r, dc.api, dc.routing, req); err != nil {
		writeDispatchError(w, err)
	}
}

// writeDispatchError maps a dispatcher-level failure (upstream 5xx, retry
// budget exhausted) onto the gateway's own error envelope.
func writeDispatchError(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrBackendsExhausted) {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeBackendsExhausted, "all upstream backends failed")
		return
	}
	apierrors.WriteSimpleError(w, apierrors.ErrCodeUpstreamTimeout, err.Error())
}

// validateJSONBody decodes body as a generic map and walks it against
// schema, surfacing the first violation found.
func validateJSONBody(schema *configstore.FieldSchema, body []byte) *apierrors.ErrorDetail {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		detail := apierrors.NewErrorResponse(apierrors.ErrCodeMalformedBody, "request body is not valid JSON", nil).Error
		return &detail
	}
	return resolver.ValidateFields(schema, decoded, "")
}
