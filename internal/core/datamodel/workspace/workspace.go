package workspace

import "time"

// PlatformWorkspaceID is the single reserved workspace used only by
// platform_staff grants. It is seeded by migration and never reassigned.
const PlatformWorkspaceID = "00000000-0000-0000-0000-000000000001"

type Workspace struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	OwnerUserID string    `gorm:"column:owner_user_id;type:uuid;not null"`
	Name        string    `gorm:"column:name;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

func (Workspace) TableName() string {
	return "workspaces"
}
