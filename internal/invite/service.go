package invite

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/authz"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/invite"
	"github.com/replybase/replybase/internal/core/datamodel/workspace"
	"github.com/replybase/replybase/internal/core/events"
	"github.com/replybase/replybase/internal/identity"
)

// PasswordHasher is satisfied by the auth service; acceptance needs it to
// hash the credential of a newly created account.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Service is the invite lifecycle state machine: pending → accepted |
// revoked | expired, with grants created transactionally on acceptance. It
// deliberately has no opinion on plan or seat quotas; billing runs its own
// check before calling CreateInvite.
type Service struct {
	repo       Repository
	grants     authz.Repository
	identities identity.ServiceAPI
	resolver   authz.ResolverAPI
	hasher     PasswordHasher
	bus        *events.EventBus
	logger     *slog.Logger
	ttl        time.Duration
	now        func() time.Time
}

func NewService(
	repo Repository,
	grants authz.Repository,
	identities identity.ServiceAPI,
	resolver authz.ResolverAPI,
	hasher PasswordHasher,
	bus *events.EventBus,
	logger *slog.Logger,
	ttl time.Duration,
) *Service {
	if ttl <= 0 {
		ttl = internal.DefaultInviteTTL
	}
	return &Service{
		repo:       repo,
		grants:     grants,
		identities: identities,
		resolver:   resolver,
		hasher:     hasher,
		bus:        bus,
		logger:     logger,
		ttl:        ttl,
		now:        time.Now,
	}
}

// CreateInvite authorizes the inviter against the target role, generates the
// single-use token and persists the pending invite. The returned token is
// handed to the creator exactly once.
func (s *Service) CreateInvite(ctx context.Context, inviterID string, dto CreateInviteDTO) (*CreatedInvite, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, inviterID)
	if err != nil {
		return nil, err
	}

	workspaceID, err := s.authorizeCreate(res, dto)
	if err != nil {
		s.logger.Warn("invite creation denied",
			"inviter_id", inviterID,
			"inviter_role", res.Role,
			"target_role", dto.TargetRole)
		return nil, err
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, internal.NewInternalError("could not generate invite token", err)
	}

	now := s.now()
	inv := &datamodel.Invite{
		ID:         uuid.NewString(),
		Email:      identity.NormalizeEmail(dto.Email),
		InvitedBy:  inviterID,
		TargetRole: dto.TargetRole,
		Token:      token,
		Status:     datamodel.StatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if workspaceID != "" {
		inv.WorkspaceID = &workspaceID
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		s.logger.Error("failed to create invite", "error", err, "inviter_id", inviterID)
		return nil, err
	}

	s.logger.Info("invite created",
		"invite_id", inv.ID,
		"target_role", inv.TargetRole,
		"workspace_id", workspaceID,
		"inviter_id", inviterID)

	s.bus.Publish(ctx, events.NewInviteCreatedEvent(inv.ID, inv.Email, inv.TargetRole, workspaceID, token, inv.ExpiresAt))

	return &CreatedInvite{
		ID:        inv.ID,
		Token:     token,
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// authorizeCreate returns the workspace the invite is scoped to, or an error
// when the inviter's resolution does not permit the target.
func (s *Service) authorizeCreate(res authz.Resolution, dto CreateInviteDTO) (string, error) {
	switch authz.Role(dto.TargetRole) {
	case authz.RolePlatformStaff:
		// Only a super_admin may mint platform staff, and only into the
		// reserved platform workspace.
		if res.Role != authz.RoleSuperAdmin {
			return "", internal.ErrForbidden
		}
		if dto.WorkspaceID != "" && dto.WorkspaceID != workspace.PlatformWorkspaceID {
			return "", internal.ErrForbidden
		}
		return workspace.PlatformWorkspaceID, nil

	case authz.RoleEmployee:
		switch res.Role {
		case authz.RoleAdmin:
			// Admins invite into their own workspace only; a supplied id is
			// cross-checked, never trusted.
			if dto.WorkspaceID != "" && dto.WorkspaceID != res.WorkspaceID {
				return "", internal.ErrForbidden
			}
			return res.WorkspaceID, nil
		case authz.RoleSuperAdmin:
			if dto.WorkspaceID == "" || dto.WorkspaceID == workspace.PlatformWorkspaceID {
				return "", internal.ErrForbidden
			}
			return dto.WorkspaceID, nil
		default:
			return "", internal.ErrForbidden
		}

	default:
		return "", internal.ErrForbidden
	}
}

// AcceptInvite is the concurrency-critical operation. Two concurrent calls
// on the same token, or on two tokens for the same email into different
// workspaces or roles, can never both succeed: the repository's conditional
// status update settles the token race, and its transaction re-checks role
// exclusion under a per-user lock before inserting the grant. No partial
// grant is ever observable.
func (s *Service) AcceptInvite(ctx context.Context, dto AcceptInviteDTO) (*AcceptResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.repo.GetByToken(ctx, dto.Token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		s.logger.Warn("invite acceptance with unknown token")
		return nil, internal.ErrInviteTokenInvalid
	}

	if inv.IsTerminal() {
		s.logger.Warn("invite acceptance on terminal invite", "invite_id", inv.ID, "status", inv.Status)
		return nil, terminalError(inv.Status)
	}

	now := s.now()
	if inv.ExpiredAt(now) {
		// Lazy expiry: settle the row on the way out. MarkExpired is
		// conditional on pending, so a concurrent acceptance that already
		// won is untouched.
		if err := s.repo.MarkExpired(ctx, inv.ID); err != nil {
			s.logger.Error("failed to mark invite expired", "error", err, "invite_id", inv.ID)
		}
		return nil, internal.ErrInviteExpired
	}

	if identity.NormalizeEmail(dto.Email) != identity.NormalizeEmail(inv.Email) {
		s.logger.Warn("invite acceptance email mismatch", "invite_id", inv.ID)
		return nil, internal.ErrInviteEmailMismatch
	}

	passwordHash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("could not hash password", err)
	}

	user, err := s.identities.FindOrCreate(ctx, inv.Email, passwordHash)
	if err != nil {
		return nil, err
	}

	grant, err := s.buildGrant(ctx, user.ID, inv, dto)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Accept(ctx, inv.ID, grant); err != nil {
		if internal.IsInvariantViolation(err) {
			s.logger.Error("invite acceptance blocked by role invariant",
				"invite_id", inv.ID,
				"user_id", user.ID,
				"target_role", inv.TargetRole,
				"error", err)
		}
		return nil, err
	}

	result := &AcceptResult{
		UserID: user.ID,
		Role:   inv.TargetRole,
	}
	if grant.WorkspaceID != nil {
		result.WorkspaceID = *grant.WorkspaceID
	}

	s.logger.Info("invite accepted",
		"invite_id", inv.ID,
		"user_id", user.ID,
		"role", result.Role,
		"workspace_id", result.WorkspaceID)

	s.bus.Publish(ctx, events.NewInviteAcceptedEvent(inv.ID, user.ID, result.Role, result.WorkspaceID))

	return result, nil
}

// buildGrant runs the invariant pre-checks and shapes the grant row. The
// checks here settle the common path with precise errors; the repository's
// in-transaction re-check settles the race window they leave open.
func (s *Service) buildGrant(ctx context.Context, userID string, inv *datamodel.Invite, dto AcceptInviteDTO) (Grant, error) {
	adminGrants, err := s.grants.GetAdminGrants(ctx, userID)
	if err != nil {
		return Grant{}, internal.ErrResolutionFailed.WithCause(err)
	}
	if len(adminGrants) > 0 {
		return Grant{}, internal.ErrDualRoleViolation
	}

	switch authz.Role(inv.TargetRole) {
	case authz.RoleEmployee:
		assignment, err := s.grants.GetEmployeeAssignment(ctx, userID)
		if err != nil {
			return Grant{}, internal.ErrResolutionFailed.WithCause(err)
		}
		if assignment != nil {
			return Grant{}, internal.ErrAlreadyEmployeeElsewhere
		}
		return Grant{
			UserID:      userID,
			Role:        authz.RoleEmployee,
			WorkspaceID: inv.WorkspaceID,
			Name:        dto.Name,
			Phone:       dto.Phone,
		}, nil

	case authz.RolePlatformStaff:
		// An employee becoming platform staff would hold two roles at once.
		assignment, err := s.grants.GetEmployeeAssignment(ctx, userID)
		if err != nil {
			return Grant{}, internal.ErrResolutionFailed.WithCause(err)
		}
		if assignment != nil {
			return Grant{}, internal.ErrDualRoleViolation
		}
		platformID := workspace.PlatformWorkspaceID
		return Grant{
			UserID:      userID,
			Role:        authz.RolePlatformStaff,
			WorkspaceID: &platformID,
		}, nil

	default:
		return Grant{}, internal.NewValidationError("unsupported invite target role", internal.ErrCodeInvalidRole)
	}
}

// RevokeInvite transitions pending → revoked. Only the original inviter or a
// super_admin may revoke.
func (s *Service) RevokeInvite(ctx context.Context, inviteID, byUserID string) error {
	inv, err := s.repo.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if inv == nil {
		return internal.ErrInviteTokenInvalid
	}

	if inv.InvitedBy != byUserID {
		res, err := s.resolver.Resolve(ctx, byUserID)
		if err != nil {
			return err
		}
		if res.Role != authz.RoleSuperAdmin {
			s.logger.Warn("invite revocation denied", "invite_id", inviteID, "by_user_id", byUserID)
			return internal.ErrForbidden
		}
	}

	revoked, err := s.repo.MarkRevoked(ctx, inviteID)
	if err != nil {
		s.logger.Error("failed to revoke invite", "error", err, "invite_id", inviteID)
		return err
	}
	if !revoked {
		return internal.ErrInviteNotPending
	}

	s.logger.Info("invite revoked", "invite_id", inviteID, "by_user_id", byUserID)
	s.bus.Publish(ctx, events.NewInviteRevokedEvent(inviteID, byUserID))
	return nil
}

// ListPending returns the open invites for a workspace, applying lazy expiry
// to any whose deadline passed. Access is scope-enforced against the caller.
func (s *Service) ListPending(ctx context.Context, callerID, workspaceID string) ([]*datamodel.Invite, error) {
	res, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !authz.EnforceScope(res, workspaceID, authz.AllowCrossWorkspace()).Allowed() {
		return nil, internal.ErrWorkspaceMismatch
	}
	if res.Role == authz.RoleEmployee {
		return nil, internal.ErrForbidden
	}

	invites, err := s.repo.ListPendingByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	open := invites[:0]
	for _, inv := range invites {
		if inv.ExpiredAt(now) {
			if err := s.repo.MarkExpired(ctx, inv.ID); err != nil {
				s.logger.Error("failed to mark invite expired", "error", err, "invite_id", inv.ID)
			}
			continue
		}
		open = append(open, inv)
	}
	return open, nil
}

func terminalError(status string) error {
	switch status {
	case datamodel.StatusAccepted:
		return internal.ErrInviteAlreadyUsed
	case datamodel.StatusRevoked:
		return internal.ErrInviteRevoked
	case datamodel.StatusExpired:
		return internal.ErrInviteExpired
	default:
		return internal.ErrInviteTokenInvalid
	}
}
