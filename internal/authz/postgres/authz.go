package postgres

import (
	"context"
	"errors"

	"github.com/replybase/replybase/internal/authz"
	"github.com/replybase/replybase/internal/core/datamodel/grant"
	"github.com/replybase/replybase/internal/core/datamodel/identity"
	"gorm.io/gorm"
)

// AuthzRepository implements the authz.Repository read-only view over the
// identity and grant tables.
type AuthzRepository struct {
	db *gorm.DB
}

func NewAuthzRepository(db *gorm.DB) authz.Repository {
	return &AuthzRepository{db: db}
}

func (r *AuthzRepository) GetUserRole(ctx context.Context, userID string) (*string, bool, error) {
	var user identity.User
	err := r.db.WithContext(ctx).
		Select("id", "role", "is_active").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !user.IsActive {
		return nil, false, nil
	}
	return user.Role, true, nil
}

func (r *AuthzRepository) GetAdminGrants(ctx context.Context, userID string) ([]grant.AdminGrant, error) {
	var grants []grant.AdminGrant
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&grants).Error
	return grants, err
}

func (r *AuthzRepository) GetEmployeeAssignment(ctx context.Context, userID string) (*grant.EmployeeAssignment, error) {
	var assignment grant.EmployeeAssignment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}
