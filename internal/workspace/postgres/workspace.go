package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/replybase/replybase/internal/core/datamodel/grant"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/workspace"
	"github.com/replybase/replybase/internal/workspace"
	"gorm.io/gorm"
)

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) workspace.Repository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (*datamodel.Workspace, error) {
	var ws datamodel.Workspace
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

func (r *WorkspaceRepository) CreateWithOwner(ctx context.Context, ws *datamodel.Workspace, ownerGrant *grant.AdminGrant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ws).Error; err != nil {
			return err
		}
		return tx.Create(ownerGrant).Error
	})
}

func (r *WorkspaceRepository) ListEmployees(ctx context.Context, workspaceID string) ([]grant.EmployeeAssignment, error) {
	var employees []grant.EmployeeAssignment
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&employees).Error
	return employees, err
}

func (r *WorkspaceRepository) UpdateEmployeeProfile(ctx context.Context, workspaceID, userID string, fields workspace.ProfileFields) (bool, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if fields.Name != nil {
		updates["name"] = *fields.Name
	}
	if fields.Phone != nil {
		updates["phone"] = *fields.Phone
	}

	res := r.db.WithContext(ctx).Model(&grant.EmployeeAssignment{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *WorkspaceRepository) DeactivateEmployee(ctx context.Context, workspaceID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&grant.EmployeeAssignment{}).
		Where("workspace_id = ? AND user_id = ? AND is_active = true", workspaceID, userID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
