package authn

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

type contextKey string

const principalContextKey contextKey = "authn.principal"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID   string
	Role     string
	TokenID  string
	IssuedAt time.Time
	ExpiresAt time.Time
}

// FromContext returns the authenticated principal, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	return p, ok
}

// WithPrincipal attaches a principal to the context, mainly for tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// Middleware validates the bearer token on every request under its mount,
// rejecting with AUTH001 when absent, invalid, expired, or revoked. On
// success it attaches a Principal to the request context for downstream
// permission checks.
func Middleware(issuer *Issuer, ledger *RevocationLedger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r)
			if token == "" {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeAuthRequired, "authentication required")
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidCredential, "invalid or expired token")
				return
			}
			issuedAt := claims.RegisteredClaims.IssuedAt
			if issuedAt != nil && ledger.IsRevoked(claims.UserID, claims.TokenID(), issuedAt.Time) {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeTokenRevoked, "token has been revoked")
				return
			}

			principal := Principal{UserID: claims.UserID, Role: claims.Role, TokenID: claims.TokenID()}
			if issuedAt != nil {
				principal.IssuedAt = issuedAt.Time
			}
			if claims.RegisteredClaims.ExpiresAt != nil {
				principal.ExpiresAt = claims.RegisteredClaims.ExpiresAt.Time
			}
			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCSRF rejects state-changing requests lacking a valid double-submit
// CSRF token, when enforceCSRF is true (HTTPS posture enabled).
func RequireCSRF(enforceCSRF bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enforceCSRF {
				next.ServeHTTP(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if !CheckCSRF(r) {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeCSRFMismatch, "csrf token missing or mismatched")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
