package grant

import "time"

// AdminGrant binds a user to a workspace with an admin-side role.
// super_admin grants carry a NULL workspace id, platform_staff grants carry
// the reserved platform workspace id, admin grants carry the owned workspace.
// The composite unique index is the storage backstop for concurrent invite
// acceptance: the losing transaction's insert fails here.
type AdminGrant struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	UserID      string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_admin_grants_user_workspace"`
	WorkspaceID *string   `gorm:"column:workspace_id;type:uuid;uniqueIndex:idx_admin_grants_user_workspace"`
	Role        string    `gorm:"column:role;not null"`
	GrantedBy   *string   `gorm:"column:granted_by;type:uuid"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
}

func (AdminGrant) TableName() string {
	return "admin_grants"
}

// EmployeeAssignment binds a user to exactly one workspace as an employee.
// The unique index on user_id alone (not the pair) is what makes "one
// workspace per employee" hold under concurrent acceptance of two invites
// for the same email into different workspaces.
type EmployeeAssignment struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	UserID      string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_employee_assignments_user"`
	WorkspaceID string    `gorm:"column:workspace_id;type:uuid;not null"`
	Name        string    `gorm:"column:name"`
	Phone       string    `gorm:"column:phone"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

func (EmployeeAssignment) TableName() string {
	return "employee_assignments"
}
