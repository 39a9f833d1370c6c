package gatewayhttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/apidoorman/doorman-go/internal/authn"
	"github.com/apidoorman/doorman-go/internal/configstore"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

// optionalPrincipal extracts and verifies a bearer token if present, without
// failing the request when one is absent — callers decide whether the
// resolved endpoint actually requires auth.
func (h *handlers) optionalPrincipal(r *http.Request) (authn.Principal, bool) {
	token := authn.ExtractBearerToken(r)
	if token == "" {
		return authn.Principal{}, false
	}
	claims, err := h.issuer.Verify(token)
	if err != nil {
		return authn.Principal{}, false
	}
	issuedAt := claims.RegisteredClaims.IssuedAt
	if issuedAt != nil && h.ledger.IsRevoked(claims.UserID, claims.TokenID(), issuedAt.Time) {
		return authn.Principal{}, false
	}
	principal := authn.Principal{UserID: claims.UserID, Role: claims.Role, TokenID: claims.TokenID()}
	if issuedAt != nil {
		principal.IssuedAt = issuedAt.Time
	}
	if claims.RegisteredClaims.ExpiresAt != nil {
		principal.ExpiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}
	return principal, true
}

// userGroups fetches the group memberships of userID for the subscription
// gate; an unknown user resolves to no groups rather than an error, since a
// public endpoint needs none.
func (h *handlers) userGroups(ctx context.Context, userID string) []string {
	if userID == "" {
		return nil
	}
	doc, err := h.store.FindOne(ctx, configstore.CollectionUsers, map[string]interface{}{"user_id": userID})
	if err != nil || doc == nil {
		return nil
	}
	var user configstore.User
	if err := configstore.Decode(doc, &user); err != nil {
		return nil
	}
	return user.Groups
}

// readBody reads the request body up to the configured cap, translating a
// MaxBytesReader overflow into REQ002 rather than a generic 500.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeBodyTooLarge, "request body exceeds the configured size limit")
			return nil, false
		}
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "unable to read request body")
		return nil, false
	}
	return body, true
}

// routingFor fetches the routing policy for api/version, returning nil (the
// default round-robin/single-try policy) when none has been configured.
func (h *handlers) routingFor(ctx context.Context, apiName, apiVersion string) *configstore.Routing {
	doc, err := h.store.FindOne(ctx, configstore.CollectionRouting, map[string]interface{}{
		"api_name":    apiName,
		"api_version": apiVersion,
	})
	if err != nil || doc == nil {
		return nil
	}
	var routing configstore.Routing
	if err := configstore.Decode(doc, &routing); err != nil {
		return nil
	}
	return &routing
}

// rateLimitKey combines user, API, and version into one window-counter key,
// per spec §4.5's default per-user/per-API rate rule.
func rateLimitKey(userID, apiName, apiVersion string) string {
	return userID + ":" + apiName + ":" + apiVersion
}

// checkRateLimit enforces the API's own rate rule when set, falling back to
// the gateway-wide default window/limit, and records a metrics hit on 429.
func (h *handlers) checkRateLimit(w http.ResponseWriter, r *http.Request, api configstore.API, userID string) bool {
	if h.rateLim == nil {
		return true
	}
	limit := h.cfg.RateLimit.DefaultLimit
	window := h.cfg.RateLimit.DefaultWindow.Duration
	if api.RateLimitCount > 0 {
		limit = api.RateLimitCount
	}
	if api.RateLimitWindowSeconds > 0 {
		window = secondsToDuration(api.RateLimitWindowSeconds)
	}
	if limit <= 0 || window <= 0 {
		return true
	}
	key := rateLimitKey(userID, api.APIName, api.APIVersion)
	allowed, _, err := h.rateLim.Allow(r.Context(), key, limit, window)
	if err != nil || allowed {
		return true
	}
	if h.metrics != nil {
		h.metrics.ObserveRateLimit("api_window")
	}
	apierrors.WriteSimpleError(w, apierrors.ErrCodeRateLimited, "rate limit exceeded for this API")
	return false
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
