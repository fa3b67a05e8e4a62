package authz

import (
	"context"

	"github.com/replybase/replybase/internal/core/datamodel/grant"
	"github.com/replybase/replybase/internal/core/datamodel/workspace"
)

// Role is the single role a principal holds. A principal never holds more
// than one at a time; the resolver's priority order exists to fail safely if
// that invariant is ever violated by a bug, not to arbitrate multi-role users.
type Role string

const (
	RoleNone          Role = ""
	RoleSuperAdmin    Role = "super_admin"
	RolePlatformStaff Role = "platform_staff"
	RoleAdmin         Role = "admin"
	RoleEmployee      Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RolePlatformStaff, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

// Resolution is the outcome of resolving a principal: which role they hold
// and which workspace that role is scoped to. WorkspaceID is empty exactly
// when the role is super_admin (platform-wide) or none; the constructors
// below are the only way resolutions are built, which keeps that pairing out
// of callers' hands.
type Resolution struct {
	Role        Role
	WorkspaceID string
}

func NoRole() Resolution {
	return Resolution{Role: RoleNone}
}

func SuperAdminResolution() Resolution {
	return Resolution{Role: RoleSuperAdmin}
}

func PlatformStaffResolution() Resolution {
	return Resolution{Role: RolePlatformStaff, WorkspaceID: workspace.PlatformWorkspaceID}
}

func AdminResolution(workspaceID string) Resolution {
	return Resolution{Role: RoleAdmin, WorkspaceID: workspaceID}
}

func EmployeeResolution(workspaceID string) Resolution {
	return Resolution{Role: RoleEmployee, WorkspaceID: workspaceID}
}

func (r Resolution) HasRole() bool {
	return r.Role != RoleNone
}

// Repository is the read-only view of the identity and grant stores that the
// resolver needs. Resolution never writes; that is what makes it safe to run
// concurrently with anything, including itself.
type Repository interface {
	// GetUserRole returns the legacy role flag stored on the user row and
	// whether the user exists and is active.
	GetUserRole(ctx context.Context, userID string) (role *string, active bool, err error)
	GetAdminGrants(ctx context.Context, userID string) ([]grant.AdminGrant, error)
	GetEmployeeAssignment(ctx context.Context, userID string) (*grant.EmployeeAssignment, error)
}

// ResolverAPI is what the gate, scope checks and other services consume.
type ResolverAPI interface {
	Resolve(ctx context.Context, userID string) (Resolution, error)
}

type ctxKey string

const contextResolutionKey ctxKey = "resolution"

func ContextWithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, contextResolutionKey, res)
}

func ResolutionFromContext(ctx context.Context) (Resolution, bool) {
	if ctx == nil {
		return NoRole(), false
	}
	res, ok := ctx.Value(contextResolutionKey).(Resolution)
	return res, ok
}
