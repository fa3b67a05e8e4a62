package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeInviteCreated  = "invite.created"
	EventTypeInviteAccepted = "invite.accepted"
	EventTypeInviteRevoked  = "invite.revoked"
)

// InviteCreatedEvent announces a new pending invite to subscribers. The
// token rides along for in-process consumers but is excluded from
// serialization; the create response is the only place it ever leaves the
// process.
type InviteCreatedEvent struct {
	BaseEvent
	InviteID    string    `json:"invite_id"`
	Email       string    `json:"email"`
	TargetRole  string    `json:"target_role"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Token       string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewInviteCreatedEvent(inviteID, email, targetRole, workspaceID, token string, expiresAt time.Time) *InviteCreatedEvent {
	return &InviteCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeInviteCreated,
			Timestamp: time.Now(),
		},
		InviteID:    inviteID,
		Email:       email,
		TargetRole:  targetRole,
		WorkspaceID: workspaceID,
		Token:       token,
		ExpiresAt:   expiresAt,
	}
}

type InviteAcceptedEvent struct {
	BaseEvent
	InviteID    string `json:"invite_id"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

func NewInviteAcceptedEvent(inviteID, userID, role, workspaceID string) *InviteAcceptedEvent {
	return &InviteAcceptedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeInviteAccepted,
			Timestamp: time.Now(),
		},
		InviteID:    inviteID,
		UserID:      userID,
		Role:        role,
		WorkspaceID: workspaceID,
	}
}

type InviteRevokedEvent struct {
	BaseEvent
	InviteID  string `json:"invite_id"`
	RevokedBy string `json:"revoked_by"`
}

func NewInviteRevokedEvent(inviteID, revokedBy string) *InviteRevokedEvent {
	return &InviteRevokedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeInviteRevoked,
			Timestamp: time.Now(),
		},
		InviteID:  inviteID,
		RevokedBy: revokedBy,
	}
}
