package identity

import "time"

// RoleSuperAdmin is the only value ever stored in users.role. Every other
// role is derived from grant rows, never from the user record itself.
const RoleSuperAdmin = "super_admin"

type User struct {
	ID             string    `gorm:"primaryKey;type:uuid"`
	ExternalAuthID *string   `gorm:"column:external_auth_id;uniqueIndex"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	Role           *string   `gorm:"column:role"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsSuperAdmin() bool {
	return u.Role != nil && *u.Role == RoleSuperAdmin
}
