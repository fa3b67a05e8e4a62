package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/replybase/replybase/internal/authz"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/invite"
)

// Grant is the role binding an accepted invite materializes: an admin_grants
// row for platform_staff targets, an employee_assignments row for employee
// targets.
type Grant struct {
	UserID      string
	Role        authz.Role
	WorkspaceID *string
	Name        string
	Phone       string
}

// Repository owns invite rows and is the only writer of grant rows created
// from invites.
type Repository interface {
	Create(ctx context.Context, inv *datamodel.Invite) error
	GetByToken(ctx context.Context, token string) (*datamodel.Invite, error)
	GetByID(ctx context.Context, id string) (*datamodel.Invite, error)
	ListPendingByWorkspace(ctx context.Context, workspaceID string) ([]*datamodel.Invite, error)
	// MarkExpired transitions pending → expired. A row already terminal is
	// left untouched, so lazy expiry at read time is idempotent.
	MarkExpired(ctx context.Context, id string) error
	// MarkRevoked transitions pending → revoked and reports whether this
	// call performed the transition.
	MarkRevoked(ctx context.Context, id string) (bool, error)
	// Accept atomically transitions the invite out of pending and inserts
	// the grant in one transaction. The conditional status update ensures
	// only one caller wins a token; the grant tables' unique indexes ensure
	// the loser of an email-level race fails with ErrDualRoleViolation or
	// ErrAlreadyEmployeeElsewhere instead of creating a second binding.
	Accept(ctx context.Context, inviteID string, g Grant) error
}

// ServiceAPI is the invite lifecycle surface consumed by transport.
type ServiceAPI interface {
	CreateInvite(ctx context.Context, inviterID string, dto CreateInviteDTO) (*CreatedInvite, error)
	AcceptInvite(ctx context.Context, dto AcceptInviteDTO) (*AcceptResult, error)
	RevokeInvite(ctx context.Context, inviteID, byUserID string) error
	ListPending(ctx context.Context, callerID, workspaceID string) ([]*datamodel.Invite, error)
}

// CreatedInvite is returned to the creator exactly once; the token is never
// re-readable afterward.
type CreatedInvite struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type AcceptResult struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// tokenBytes gives 256 bits of entropy, double the required floor.
const tokenBytes = 32

// GenerateToken returns a cryptographically random single-use invite token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
