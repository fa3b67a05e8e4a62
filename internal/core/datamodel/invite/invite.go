package invite

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRevoked  = "revoked"
	StatusExpired  = "expired"
)

// Invite is a single-use, time-bounded offer that produces a grant on
// acceptance. Status transitions are monotonic: once out of pending it never
// goes back, and the token unique index guarantees no token is ever reused,
// revoked invites included.
type Invite struct {
	ID          string     `gorm:"primaryKey;type:uuid"`
	WorkspaceID *string    `gorm:"column:workspace_id;type:uuid;index"`
	Email       string     `gorm:"column:email;not null;index"`
	InvitedBy   string     `gorm:"column:invited_by;type:uuid;not null"`
	TargetRole  string     `gorm:"column:target_role;not null"`
	Token       string     `gorm:"column:token;uniqueIndex;not null"`
	Status      string     `gorm:"column:status;not null;default:pending"`
	CreatedAt   time.Time  `gorm:"column:created_at;default:now()"`
	ExpiresAt   time.Time  `gorm:"column:expires_at;not null"`
	AcceptedAt  *time.Time `gorm:"column:accepted_at"`
}

func (Invite) TableName() string {
	return "invites"
}

func (i *Invite) IsTerminal() bool {
	return i.Status != StatusPending
}

func (i *Invite) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
