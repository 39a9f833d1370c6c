// Package resolver implements endpoint resolution and the subscription gate
// (spec §4.4): given an ingress path's (protocol, api_name, api_version, uri)
// it looks up the registered API and endpoint, checks group/subscription
// access, and walks the declared field-validation schema against a decoded
// request body. Grounded on the teacher's lookup-then-validate request
// pipeline shape (internal/httphandlers), generalized from payment-specific
// lookups to the gateway's (api, version, method, uri) resolution tuple.
package resolver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/apidoorman/doorman-go/internal/configstore"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

// VersionHeader is the header GraphQL and gRPC callers must supply since
// their paths carry no version path segment.
const VersionHeader = "X-API-Version"

// Resolved is the outcome of a successful resolution.
type Resolved struct {
	API      configstore.API
	Endpoint configstore.Endpoint
}

// Resolver looks up APIs/endpoints/subscriptions from the config store.
type Resolver struct {
	store configstore.Store
}

// New constructs a Resolver backed by store.
func New(store configstore.Store) *Resolver {
	return &Resolver{store: store}
}

// VersionFromRequest determines api_version per spec §4.4 step 1: the
// second path segment for REST/SOAP, or the X-API-Version header for
// GraphQL/gRPC (protocols that carry no version path segment).
func VersionFromRequest(r *http.Request, pathVersion string, requiresHeader bool) (string, *apierrors.ErrorDetail) {
	if !requiresHeader {
		if pathVersion == "" {
			detail := apierrors.NewErrorResponse(apierrors.ErrCodeRoutingMisconfig, "api_version missing from path", nil).Error
			return "", &detail
		}
		return pathVersion, nil
	}
	version := r.Header.Get(VersionHeader)
	if version == "" {
		detail := apierrors.NewErrorResponse(apierrors.ErrCodeRoutingMisconfig, "X-API-Version header is required for this protocol", nil).Error
		return "", &detail
	}
	return version, nil
}

// ResolveAPI fetches the (api_name, api_version) record, GTW003 if absent.
func (res *Resolver) ResolveAPI(ctx context.Context, apiName, apiVersion string) (*configstore.API, *apierrors.ErrorDetail) {
	doc, err := res.store.FindOne(ctx, configstore.CollectionAPIs, map[string]interface{}{
		"api_name":    apiName,
		"api_version": apiVersion,
	})
	if err != nil || doc == nil {
		detail := apierrors.NewErrorResponse(apierrors.ErrCodeAPINotFound, fmt.Sprintf("API %s/%s not found", apiName, apiVersion), nil).Error
		return nil, &detail
	}
	var api configstore.API
	if err := configstore.Decode(doc, &api); err != nil {
		detail := apierrors.NewErrorResponse(apierrors.ErrCodeRoutingMisconfig, "stored API record is malformed", nil).Error
		return nil, &detail
	}
	return &api, nil
}

// ResolveEndpoint fetches the (api_name, api_version, method, uri) record,
// GTW001 if absent. GraphQL/gRPC pass a conventional uri ("/graphql",
// "/grpc") declared at onboarding rather than a caller-supplied path.
func (res *Resolver) ResolveEndpoint(ctx context.Context, apiName, apiVersion, method, uri string) (*configstore.Endpoint, *apierrors.ErrorDetail) {
	doc, err := res.store.FindOne(ctx, configstore.CollectionEndpoints, map[string]interface{}{
		"api_name":        apiName,
		"api_version":     apiVersion,
		"endpoint_method": method,
		"endpoint_uri":    uri,
	})
	if err != nil || doc == nil {
		detail := apierrors.NewErrorResponse(apierrors.ErrCodeEndpointNotFound, fmt.Sprintf("endpoint %s %s not found", method, uri), nil).Error
		return nil, &detail
	}
	var endpoint configstore.Endpoint
	if err := configstore.Decode(doc, &endpoint); err != nil {
		detail := apierrors.NewErrorResponse(apierrors.ErrCodeRoutingMisconfig, "stored endpoint record is malformed", nil).Error
		return nil, &detail
	}
	return &endpoint, nil
}

// CheckSubscription enforces spec §4.4 step 4: a caller must belong to a
// group named in the API's api_allowed_groups, belong to a group whose apis
// list names "api_name/api_version", or hold a direct subscription to that
// exact (api_name, api_version) pair, unless the API is
// explicitly marked public. Subscription is the default gate — an API with
// no allowed_roles/allowed_groups configured is still subscription-gated,
// since those two lists are optional refinements, not the bypass itself.
func (res *Resolver) CheckSubscription(ctx context.Context, api *configstore.API, userID string, userGroups []string) *apierrors.ErrorDetail {
	if api.Public {
		return nil
	}
	key := api.APIName + "/" + api.APIVersion
	for _, g := range userGroups {
		for _, allowed := range api.APIAllowedGroups {
			if g == allowed || allowed == key {
				return nil
			}
		}
		if doc, err := res.store.FindOne(ctx, configstore.CollectionGroups, map[string]interface{}{"group_name": g}); err == nil && doc != nil {
			var group configstore.Group
			if configstore.Decode(doc, &group) == nil && contains(group.APIs, key) {
				return nil
			}
		}
	}
	doc, err := res.store.FindOne(ctx, configstore.CollectionSubscriptions, map[string]interface{}{
		"user_id":     userID,
		"api_name":    api.APIName,
		"api_version": api.APIVersion,
	})
	if err == nil && doc != nil {
		return nil
	}
	detail := apierrors.NewErrorResponse(apierrors.ErrCodeAPINotSubscribed, fmt.Sprintf("not subscribed to %s", key), nil).Error
	return &detail
}

// Resolve runs the full §4.4 pipeline through the subscription gate,
// stopping short of field validation (callers validate the decoded body
// separately via ValidateFields once they've read it).
func (res *Resolver) Resolve(ctx context.Context, apiName, apiVersion, method, uri, userID string, userGroups []string) (*Resolved, *apierrors.ErrorDetail) {
	api, errDetail := res.ResolveAPI(ctx, apiName, apiVersion)
	if errDetail != nil {
		return nil, errDetail
	}
	endpoint, errDetail := res.ResolveEndpoint(ctx, apiName, apiVersion, method, uri)
	if errDetail != nil {
		return nil, errDetail
	}
	if errDetail := res.CheckSubscription(ctx, api, userID, userGroups); errDetail != nil {
		return nil, errDetail
	}
	return &Resolved{API: *api, Endpoint: *endpoint}, nil
}
