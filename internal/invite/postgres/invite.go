package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/authz"
	"github.com/replybase/replybase/internal/core/datamodel/grant"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/invite"
	"github.com/replybase/replybase/internal/invite"
	"gorm.io/gorm"
)

// InviteRepository implements invite.Repository with GORM. The acceptance
// transaction relies on three storage guarantees: the conditional UPDATE out
// of pending (one winner per token), a per-user lock serializing concurrent
// acceptances for the same account, and the grant tables' unique indexes
// (one role binding per user per table).
type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) invite.Repository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, inv *datamodel.Invite) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*datamodel.Invite, error) {
	var inv datamodel.Invite
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) GetByID(ctx context.Context, id string) (*datamodel.Invite, error) {
	var inv datamodel.Invite
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) ListPendingByWorkspace(ctx context.Context, workspaceID string) ([]*datamodel.Invite, error) {
	var invites []*datamodel.Invite
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND status = ?", workspaceID, datamodel.StatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

func (r *InviteRepository) MarkExpired(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&datamodel.Invite{}).
		Where("id = ? AND status = ?", id, datamodel.StatusPending).
		Update("status", datamodel.StatusExpired).Error
}

func (r *InviteRepository) MarkRevoked(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&datamodel.Invite{}).
		Where("id = ? AND status = ?", id, datamodel.StatusPending).
		Update("status", datamodel.StatusRevoked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *InviteRepository) Accept(ctx context.Context, inviteID string, g invite.Grant) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&datamodel.Invite{}).
			Where("id = ? AND status = ?", inviteID, datamodel.StatusPending).
			Updates(map[string]interface{}{
				"status":      datamodel.StatusAccepted,
				"accepted_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another caller already moved this token out of pending.
			return internal.ErrInviteAlreadyUsed
		}

		// The unique indexes only guard within a table. Two acceptances for
		// the same account targeting different roles would insert into
		// different tables, so the cross-table exclusion must be re-checked
		// here, serialized per user. Postgres takes a transaction-scoped
		// advisory lock; sqlite's single writer gives the same ordering in
		// the test suites.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", g.UserID).Error; err != nil {
				return err
			}
		}

		switch g.Role {
		case authz.RoleEmployee:
			var held int64
			if err := tx.Model(&grant.AdminGrant{}).Where("user_id = ?", g.UserID).Count(&held).Error; err != nil {
				return err
			}
			if held > 0 {
				return internal.ErrDualRoleViolation
			}
			assignment := &grant.EmployeeAssignment{
				ID:          uuid.NewString(),
				UserID:      g.UserID,
				WorkspaceID: derefWorkspace(g.WorkspaceID),
				Name:        g.Name,
				Phone:       g.Phone,
				IsActive:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(assignment).Error; err != nil {
				if isDuplicateKey(err) {
					return internal.ErrAlreadyEmployeeElsewhere.WithCause(err)
				}
				return err
			}
		case authz.RolePlatformStaff:
			var held int64
			if err := tx.Model(&grant.EmployeeAssignment{}).Where("user_id = ?", g.UserID).Count(&held).Error; err != nil {
				return err
			}
			if held > 0 {
				return internal.ErrDualRoleViolation
			}
			adminGrant := &grant.AdminGrant{
				ID:          uuid.NewString(),
				UserID:      g.UserID,
				WorkspaceID: g.WorkspaceID,
				Role:        string(authz.RolePlatformStaff),
				CreatedAt:   now,
			}
			if err := tx.Create(adminGrant).Error; err != nil {
				if isDuplicateKey(err) {
					return internal.ErrDualRoleViolation.WithCause(err)
				}
				return err
			}
		default:
			return internal.NewValidationError("unsupported grant role", internal.ErrCodeInvalidRole)
		}

		return nil
	})
}

func derefWorkspace(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

// isDuplicateKey matches unique-constraint violations across the drivers in
// use: gorm's translated error, postgres' 23505 message and sqlite's UNIQUE
// failure used by the test suites.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
