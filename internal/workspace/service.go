package workspace

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/authz"
	grantmodel "github.com/replybase/replybase/internal/core/datamodel/grant"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/workspace"
	"github.com/replybase/replybase/internal/identity"
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo       Repository
	identities identity.ServiceAPI
	resolver   authz.ResolverAPI
	hasher     PasswordHasher
	logger     *slog.Logger
}

func NewService(repo Repository, identities identity.ServiceAPI, resolver authz.ResolverAPI, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		identities: identities,
		resolver:   resolver,
		hasher:     hasher,
		logger:     logger,
	}
}

// Signup registers a new admin: user account, workspace and the workspace's
// first admin grant. An email that already belongs to any principal is
// rejected rather than silently attached to a second role.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (*SignupResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := identity.NormalizeEmail(dto.Email)
	if _, err := s.identities.GetByEmail(ctx, email); err == nil {
		return nil, internal.ErrEmailTaken
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("could not hash password", err)
	}

	user, err := s.identities.FindOrCreate(ctx, email, passwordHash)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	workspaceID := uuid.NewString()
	ws := &datamodel.Workspace{
		ID:          workspaceID,
		OwnerUserID: user.ID,
		Name:        dto.WorkspaceName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ownerGrant := &grantmodel.AdminGrant{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		WorkspaceID: &workspaceID,
		Role:        string(authz.RoleAdmin),
		CreatedAt:   now,
	}

	if err := s.repo.CreateWithOwner(ctx, ws, ownerGrant); err != nil {
		s.logger.Error("failed to create workspace with owner", "error", err, "user_id", user.ID)
		return nil, err
	}

	s.logger.Info("workspace created",
		"workspace_id", workspaceID,
		"owner_user_id", user.ID,
		"name", dto.WorkspaceName)

	return &SignupResult{
		UserID:      user.ID,
		WorkspaceID: workspaceID,
		Role:        string(authz.RoleAdmin),
	}, nil
}

func (s *Service) GetWorkspace(ctx context.Context, callerID, workspaceID string) (*datamodel.Workspace, error) {
	if err := s.enforce(ctx, callerID, workspaceID); err != nil {
		return nil, err
	}

	ws, err := s.repo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, internal.ErrWorkspaceNotFound
	}
	return ws, nil
}

func (s *Service) ListEmployees(ctx context.Context, callerID, workspaceID string) ([]grantmodel.EmployeeAssignment, error) {
	if err := s.enforce(ctx, callerID, workspaceID); err != nil {
		return nil, err
	}
	return s.repo.ListEmployees(ctx, workspaceID)
}

func (s *Service) UpdateEmployeeProfile(ctx context.Context, callerID, workspaceID, userID string, fields ProfileFields) error {
	if err := s.enforceAdmin(ctx, callerID, workspaceID); err != nil {
		return err
	}

	updated, err := s.repo.UpdateEmployeeProfile(ctx, workspaceID, userID, fields)
	if err != nil {
		return err
	}
	if !updated {
		return internal.ErrUserNotFound
	}
	return nil
}

// DeactivateEmployee soft-disables the assignment; the row stays for audit
// history and the user record itself is untouched.
func (s *Service) DeactivateEmployee(ctx context.Context, callerID, workspaceID, userID string) error {
	if err := s.enforceAdmin(ctx, callerID, workspaceID); err != nil {
		return err
	}

	deactivated, err := s.repo.DeactivateEmployee(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !deactivated {
		return internal.ErrUserNotFound
	}

	s.logger.Info("employee deactivated", "workspace_id", workspaceID, "user_id", userID, "by", callerID)
	return nil
}

// enforce runs the per-resource scope check for the read endpoints, which
// explicitly permit super_admin cross-workspace visibility. Mismatches
// surface as 404, not 403, so tenants cannot probe each other's workspace
// ids.
func (s *Service) enforce(ctx context.Context, callerID, workspaceID string) error {
	res, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return err
	}
	if !authz.EnforceScope(res, workspaceID, authz.AllowCrossWorkspace()).Allowed() {
		s.logger.Warn("workspace scope mismatch",
			"caller_id", callerID,
			"caller_workspace", res.WorkspaceID,
			"requested_workspace", workspaceID)
		return internal.ErrWorkspaceMismatch
	}
	return nil
}

// enforceAdmin guards employee mutations. Unlike the read paths there is no
// cross-workspace allowance: only the workspace's own admin may write, so a
// super_admin is bounced off tenant employee records like any outsider.
func (s *Service) enforceAdmin(ctx context.Context, callerID, workspaceID string) error {
	res, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return err
	}
	if !authz.EnforceScope(res, workspaceID).Allowed() {
		return internal.ErrWorkspaceMismatch
	}
	if res.Role != authz.RoleAdmin {
		return internal.ErrForbidden
	}
	return nil
}
