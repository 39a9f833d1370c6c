// Package permission evaluates a principal's boolean role flags against the
// administrative action they're attempting, and enforces that the admin role
// itself can only be modified by another admin.
package permission

import (
	"context"
	"errors"
	"net/http"

	"github.com/apidoorman/doorman-go/internal/configstore"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

// ErrAdminRoleProtected is returned by GuardAdminRoleMutation when a non-admin
// attempts to create, modify, or delete the admin role.
var ErrAdminRoleProtected = errors.New("permission: only an admin may modify the admin role")

// Action names one gated administrative capability; Allows maps each Action
// to one Role struct field (see configstore.Role).
type Action string

const (
	ActionManageUsers         Action = "manage_users"
	ActionManageAPIs          Action = "manage_apis"
	ActionManageEndpoints     Action = "manage_endpoints"
	ActionManageGroups        Action = "manage_groups"
	ActionManageRoles         Action = "manage_roles"
	ActionManageRoutings      Action = "manage_routings"
	ActionManageGateway       Action = "manage_gateway"
	ActionManageSubscriptions Action = "manage_subscriptions"
	ActionManageSecurity      Action = "manage_security"
	ActionManageCredits       Action = "manage_credits"
	ActionManageAuth          Action = "manage_auth"
	ActionManageTokens        Action = "manage_tokens"
	ActionManageTiers         Action = "manage_tiers"
	ActionManageRateLimits    Action = "manage_rate_limits"
	ActionViewAnalytics       Action = "view_analytics"
	ActionViewLogs            Action = "view_logs"
	ActionExportData          Action = "export_logs"
)

// Allows reports whether role grants the given action. Admin roles implicitly
// allow every action.
func Allows(role configstore.Role, action Action) bool {
	if role.IsAdmin {
		return true
	}
	switch action {
	case ActionManageUsers:
		return role.ManageUsers
	case ActionManageAPIs:
		return role.ManageAPIs
	case ActionManageEndpoints:
		return role.ManageEndpoints
	case ActionManageGroups:
		return role.ManageGroups
	case ActionManageRoles:
		return role.ManageRoles
	case ActionManageRoutings:
		return role.ManageRoutings
	case ActionManageGateway:
		return role.ManageGateway
	case ActionManageSubscriptions:
		return role.ManageSubscriptions
	case ActionManageSecurity:
		return role.ManageSecurity
	case ActionManageCredits:
		return role.ManageCredits
	case ActionManageAuth:
		return role.ManageAuth
	case ActionManageTokens:
		return role.ManageTokens
	case ActionManageTiers:
		return role.ManageTiers
	case ActionManageRateLimits:
		return role.ManageRateLimits
	case ActionViewAnalytics:
		return role.ViewAnalytics
	case ActionViewLogs:
		return role.ViewLogs
	case ActionExportData:
		return role.ExportData
	default:
		return false
	}
}

// RoleLookup resolves a role name to its flag set; typically backed by
// configstore.Store.FindOne against the roles collection.
type RoleLookup func(ctx context.Context, roleName string) (configstore.Role, error)

// Require builds a middleware that denies the request with API007 unless the
// authenticated principal's role allows action. principalRole extracts the
// caller's role name from context (set by internal/authn.Middleware).
func Require(action Action, lookup RoleLookup, principalRole func(ctx context.Context) (string, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleName, ok := principalRole(r.Context())
			if !ok {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeAuthRequired, "authentication required")
				return
			}
			role, err := lookup(r.Context(), roleName)
			if err != nil {
				apierrors.WriteSimpleError(w, apierrors.ErrCodePermissionDenied, "role not found")
				return
			}
			if !Allows(role, action) {
				apierrors.WriteSimpleError(w, apierrors.ErrCodePermissionDenied, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuardAdminRoleMutation rejects attempts by a non-admin to create, modify, or
// delete the admin role itself, closing off the obvious privilege-escalation
// path a generic manage_roles flag would otherwise leave open.
func GuardAdminRoleMutation(callerIsAdmin bool, targetRoleName string, targetIsAdminFlag bool) error {
	if callerIsAdmin {
		return nil
	}
	if targetIsAdminFlag || targetRoleName == "admin" {
		return ErrAdminRoleProtected
	}
	return nil
}
