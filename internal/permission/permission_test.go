package permission

import (
	"testing"

	"github.com/apidoorman/doorman-go/internal/configstore"
)

func TestAllows_AdminBypassesEverything(t *testing.T) {
	admin := configstore.Role{IsAdmin: true}
	if !Allows(admin, ActionManageRoles) {
		t.Error("expected admin role to allow every action")
	}
}

func TestAllows_ChecksSpecificFlag(t *testing.T) {
	role := configstore.Role{ManageUsers: true}
	if !Allows(role, ActionManageUsers) {
		t.Error("expected manage_users flag to allow ActionManageUsers")
	}
	if Allows(role, ActionManageRoles) {
		t.Error("expected manage_users flag to not allow ActionManageRoles")
	}
}

func TestGuardAdminRoleMutation(t *testing.T) {
	if err := GuardAdminRoleMutation(true, "admin", true); err != nil {
		t.Errorf("expected admin caller to be allowed, got %v", err)
	}
	if err := GuardAdminRoleMutation(false, "admin", true); err != ErrAdminRoleProtected {
		t.Errorf("expected ErrAdminRoleProtected, got %v", err)
	}
	if err := GuardAdminRoleMutation(false, "editor", false); err != nil {
		t.Errorf("expected non-admin role mutation to be allowed, got %v", err)
	}
}
