package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/replybase/replybase/internal/core/datamodel/identity"
	identitysvc "github.com/replybase/replybase/internal/identity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) identitysvc.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	var user identity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	var user identity.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) SetExternalAuthID(ctx context.Context, userID, externalAuthID string) error {
	// Write-once: only a NULL link is ever updated.
	return r.db.WithContext(ctx).Model(&identity.User{}).
		Where("id = ? AND external_auth_id IS NULL", userID).
		Updates(map[string]interface{}{
			"external_auth_id": externalAuthID,
			"updated_at":       time.Now(),
		}).Error
}

func (r *UserRepository) Deactivate(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&identity.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}
