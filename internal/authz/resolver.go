package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/core/datamodel/workspace"
)

// Resolver decides, for any authenticated principal, the single role and
// workspace binding they hold. It runs on every authenticated request, so it
// is a pure read with a short deadline and no cache: a revoked grant must be
// gone on the very next request.
type Resolver struct {
	repo    Repository
	logger  *slog.Logger
	timeout time.Duration
}

func NewResolver(repo Repository, logger *slog.Logger, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = internal.DefaultResolveTimeout
	}
	return &Resolver{
		repo:    repo,
		logger:  logger,
		timeout: timeout,
	}
}

// Resolve checks, in strict priority order: the super_admin flag on the user
// row, a platform-workspace admin grant, a workspace admin grant, then an
// employee assignment. First match wins and at most one Resolution is ever
// returned. Storage failures and deadline expiry surface as
// ErrResolutionFailed, which is distinct from the legitimate NoRole outcome.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Resolution, error) {
	if userID == "" {
		return NoRole(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	roleFlag, active, err := r.repo.GetUserRole(ctx, userID)
	if err != nil {
		r.logger.Error("role resolution failed reading user", "error", err, "user_id", userID)
		return NoRole(), internal.ErrResolutionFailed.WithCause(err)
	}
	if !active {
		return NoRole(), nil
	}
	if roleFlag != nil && *roleFlag == string(RoleSuperAdmin) {
		return SuperAdminResolution(), nil
	}

	grants, err := r.repo.GetAdminGrants(ctx, userID)
	if err != nil {
		r.logger.Error("role resolution failed reading admin grants", "error", err, "user_id", userID)
		return NoRole(), internal.ErrResolutionFailed.WithCause(err)
	}
	// Platform staff outranks workspace admin if both ever exist; a user with
	// both rows indicates a broken invariant and we fail toward the narrower
	// platform scope rather than tenant data access.
	for _, g := range grants {
		if g.WorkspaceID != nil && *g.WorkspaceID == workspace.PlatformWorkspaceID {
			return PlatformStaffResolution(), nil
		}
	}
	for _, g := range grants {
		if g.WorkspaceID != nil && *g.WorkspaceID != workspace.PlatformWorkspaceID {
			return AdminResolution(*g.WorkspaceID), nil
		}
	}

	assignment, err := r.repo.GetEmployeeAssignment(ctx, userID)
	if err != nil {
		r.logger.Error("role resolution failed reading employee assignment", "error", err, "user_id", userID)
		return NoRole(), internal.ErrResolutionFailed.WithCause(err)
	}
	if assignment != nil && assignment.IsActive {
		return EmployeeResolution(assignment.WorkspaceID), nil
	}

	return NoRole(), nil
}
