// Authentication endpoints (spec §4.2): login issues a bearer token plus
// CSRF cookie pair, refresh reissues one from a still-valid session,
// invalidate clears cookies and revokes the session, status reports the
// caller's identity, and the admin revoke endpoint forces every token held by
// another user to expire immediately.
package gatewayhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apidoorman/doorman-go/internal/authn"
	"github.com/apidoorman/doorman-go/internal/configstore"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// handleLogin verifies credentials and issues a session.
func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Email == "" || req.Password == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "email and password are required")
		return
	}

	doc, err := h.store.FindOne(r.Context(), configstore.CollectionUsers, map[string]interface{}{"email": req.Email})
	if err != nil || doc == nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidCredential, "invalid email or password")
		return
	}
	var user configstore.User
	if err := configstore.Decode(doc, &user); err != nil || !user.Active {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidCredential, "invalid email or password")
		return
	}
	if !authn.CheckPassword(user.PasswordHash, req.Password) {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidCredential, "invalid email or password")
		return
	}

	h.issueSession(w, user)
}

// issueSession signs a fresh token for user and sets the session cookies.
func (h *handlers) issueSession(w http.ResponseWriter, user configstore.User) {
	token, _, expiresAt, err := h.issuer.Issue(user.UserID, user.Role)
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, "unable to issue session")
		return
	}
	csrfToken, err := authn.NewCSRFToken()
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, "unable to issue session")
		return
	}
	authn.SetSessionCookies(w, token, csrfToken, expiresAt, h.cfg.Server.CookieDomain, h.cfg.Server.HTTPSOnly)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"access_token": token,
		"csrf_token":   csrfToken,
		"expires_at":   expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// handleRefresh reissues a token for the still-authenticated caller, then
// revokes the old token's token_id (expiring it at its own original expiry)
// so the replaced credential can't be reused alongside the new one.
func (h *handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	principal, ok := authn.FromContext(r.Context())
	if !ok {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeAuthRequired, "authentication required")
		return
	}
	doc, err := h.store.FindOne(r.Context(), configstore.CollectionUsers, map[string]interface{}{"user_id": principal.UserID})
	if err != nil || doc == nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidCredential, "user no longer exists")
		return
	}
	var user configstore.User
	if err := configstore.Decode(doc, &user); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, "malformed user record")
		return
	}
	h.issueSession(w, user)
	if !principal.ExpiresAt.IsZero() {
		h.ledger.RevokeToken(principal.UserID, principal.TokenID, principal.ExpiresAt)
	}
}

// handleInvalidate logs the caller out: clears cookies and revokes only the
// current session's token_id, leaving any other device's session untouched.
// Revoking every session for the user is reserved for handleAdminRevoke.
func (h *handlers) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	principal, ok := authn.FromContext(r.Context())
	if ok && !principal.ExpiresAt.IsZero() {
		h.ledger.RevokeToken(principal.UserID, principal.TokenID, principal.ExpiresAt)
	}
	authn.ClearSessionCookies(w, h.cfg.Server.CookieDomain, h.cfg.Server.HTTPSOnly)
	w.WriteHeader(http.StatusNoContent)
}

// handleStatus reports the authenticated caller's identity.
func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := authn.FromContext(r.Context())
	if !ok {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeAuthRequired, "authentication required")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(statusResponse{UserID: principal.UserID, Role: principal.Role})
}

// handleAdminRevoke forces every token held by {username} to expire
// immediately, for compromised-credential response.
func (h *handlers) handleAdminRevoke(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	h.ledger.Revoke(username, h.cfg.Auth.TokenLifetime.Duration)
	w.WriteHeader(http.StatusNoContent)
}
