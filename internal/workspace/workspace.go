package workspace

import (
	"context"

	"github.com/replybase/replybase/internal/core/datamodel/grant"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/workspace"
)

// Repository persists workspaces and the employee rosters scoped to them.
type Repository interface {
	GetByID(ctx context.Context, id string) (*datamodel.Workspace, error)
	// CreateWithOwner inserts the workspace and its owner's admin grant in
	// one transaction; signup is the only path that creates the first grant
	// of a workspace.
	CreateWithOwner(ctx context.Context, ws *datamodel.Workspace, ownerGrant *grant.AdminGrant) error
	ListEmployees(ctx context.Context, workspaceID string) ([]grant.EmployeeAssignment, error)
	UpdateEmployeeProfile(ctx context.Context, workspaceID, userID string, fields ProfileFields) (bool, error)
	DeactivateEmployee(ctx context.Context, workspaceID, userID string) (bool, error)
}

type ProfileFields struct {
	Name  *string
	Phone *string
}

type ServiceAPI interface {
	Signup(ctx context.Context, dto SignupDTO) (*SignupResult, error)
	GetWorkspace(ctx context.Context, callerID, workspaceID string) (*datamodel.Workspace, error)
	ListEmployees(ctx context.Context, callerID, workspaceID string) ([]grant.EmployeeAssignment, error)
	UpdateEmployeeProfile(ctx context.Context, callerID, workspaceID, userID string, fields ProfileFields) error
	DeactivateEmployee(ctx context.Context, callerID, workspaceID, userID string) error
}

type SignupResult struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
}
