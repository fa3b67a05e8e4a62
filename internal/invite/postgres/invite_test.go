package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/authz"
	invitemodel "github.com/replybase/replybase/internal/core/datamodel/invite"
	"github.com/replybase/replybase/internal/invite"
	invitepostgres "github.com/replybase/replybase/internal/invite/postgres"
)

func TestInvitePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Invite Postgres Suite")
}

// SQLite-compatible models for testing

type SQLiteInvite struct {
	ID          string     `gorm:"primaryKey"`
	WorkspaceID *string    `gorm:"column:workspace_id;index"`
	Email       string     `gorm:"column:email;not null;index"`
	InvitedBy   string     `gorm:"column:invited_by;not null"`
	TargetRole  string     `gorm:"column:target_role;not null"`
	Token       string     `gorm:"column:token;uniqueIndex;not null"`
	Status      string     `gorm:"column:status;not null;default:pending"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	ExpiresAt   time.Time  `gorm:"column:expires_at"`
	AcceptedAt  *time.Time `gorm:"column:accepted_at"`
}

func (SQLiteInvite) TableName() string { return "invites" }

type SQLiteAdminGrant struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"column:user_id;not null;uniqueIndex:idx_admin_grants_user_workspace"`
	WorkspaceID *string   `gorm:"column:workspace_id;uniqueIndex:idx_admin_grants_user_workspace"`
	Role        string    `gorm:"column:role;not null"`
	GrantedBy   *string   `gorm:"column:granted_by"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (SQLiteAdminGrant) TableName() string { return "admin_grants" }

type SQLiteEmployeeAssignment struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"column:user_id;not null;uniqueIndex:idx_employee_assignments_user"`
	WorkspaceID string    `gorm:"column:workspace_id;not null"`
	Name        string    `gorm:"column:name"`
	Phone       string    `gorm:"column:phone"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (SQLiteEmployeeAssignment) TableName() string { return "employee_assignments" }

var _ = Describe("Invite PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo invite.Repository
		ctx  context.Context
	)

	const wsID = "11111111-0000-0000-0000-000000000001"

	newPendingInvite := func(token string) *invitemodel.Invite {
		ws := wsID
		return &invitemodel.Invite{
			ID:          "invite-" + token,
			WorkspaceID: &ws,
			Email:       token + "@acme.test",
			InvitedBy:   "admin-1",
			TargetRole:  string(authz.RoleEmployee),
			Token:       token,
			Status:      invitemodel.StatusPending,
			CreatedAt:   time.Now(),
			ExpiresAt:   time.Now().Add(24 * time.Hour),
		}
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteInvite{}, &SQLiteAdminGrant{}, &SQLiteEmployeeAssignment{})
		Expect(err).NotTo(HaveOccurred())

		repo = invitepostgres.NewInviteRepository(db)
		ctx = context.Background()
	})

	Describe("Create and lookup", func() {
		It("round-trips an invite by token", func() {
			inv := newPendingInvite("tok1")
			Expect(repo.Create(ctx, inv)).To(Succeed())

			found, err := repo.GetByToken(ctx, "tok1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.ID).To(Equal(inv.ID))
			Expect(found.Status).To(Equal(invitemodel.StatusPending))
		})

		It("returns nil for an unknown token", func() {
			found, err := repo.GetByToken(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})

		It("rejects a duplicate token", func() {
			Expect(repo.Create(ctx, newPendingInvite("dup"))).To(Succeed())
			second := newPendingInvite("dup")
			second.ID = "other-id"
			Expect(repo.Create(ctx, second)).NotTo(Succeed())
		})
	})

	Describe("Accept", func() {
		It("creates the employee assignment and settles the invite", func() {
			inv := newPendingInvite("tok2")
			Expect(repo.Create(ctx, inv)).To(Succeed())

			ws := wsID
			err := repo.Accept(ctx, inv.ID, invite.Grant{
				UserID:      "user-1",
				Role:        authz.RoleEmployee,
				WorkspaceID: &ws,
				Name:        "New Hire",
			})
			Expect(err).NotTo(HaveOccurred())

			found, _ := repo.GetByID(ctx, inv.ID)
			Expect(found.Status).To(Equal(invitemodel.StatusAccepted))
			Expect(found.AcceptedAt).NotTo(BeNil())

			var count int64
			db.Model(&SQLiteEmployeeAssignment{}).Where("user_id = ?", "user-1").Count(&count)
			Expect(count).To(Equal(int64(1)))
		})

		It("creates an admin grant for a platform staff target", func() {
			inv := newPendingInvite("tok3")
			inv.TargetRole = string(authz.RolePlatformStaff)
			Expect(repo.Create(ctx, inv)).To(Succeed())

			platformID := "00000000-0000-0000-0000-000000000001"
			err := repo.Accept(ctx, inv.ID, invite.Grant{
				UserID:      "user-2",
				Role:        authz.RolePlatformStaff,
				WorkspaceID: &platformID,
			})
			Expect(err).NotTo(HaveOccurred())

			var g SQLiteAdminGrant
			Expect(db.Where("user_id = ?", "user-2").First(&g).Error).To(Succeed())
			Expect(g.Role).To(Equal(string(authz.RolePlatformStaff)))
		})

		It("fails the second acceptance of the same invite", func() {
			inv := newPendingInvite("tok4")
			Expect(repo.Create(ctx, inv)).To(Succeed())

			ws := wsID
			g := invite.Grant{UserID: "user-3", Role: authz.RoleEmployee, WorkspaceID: &ws}
			Expect(repo.Accept(ctx, inv.ID, g)).To(Succeed())

			err := repo.Accept(ctx, inv.ID, g)
			Expect(errors.Is(err, internal.ErrInviteAlreadyUsed)).To(BeTrue())
		})

		It("rolls back the invite when the user is already an employee", func() {
			first := newPendingInvite("tok5")
			Expect(repo.Create(ctx, first)).To(Succeed())
			second := newPendingInvite("tok6")
			otherWS := "22222222-0000-0000-0000-000000000002"
			second.WorkspaceID = &otherWS
			Expect(repo.Create(ctx, second)).To(Succeed())

			ws := wsID
			Expect(repo.Accept(ctx, first.ID, invite.Grant{
				UserID: "user-4", Role: authz.RoleEmployee, WorkspaceID: &ws,
			})).To(Succeed())

			err := repo.Accept(ctx, second.ID, invite.Grant{
				UserID: "user-4", Role: authz.RoleEmployee, WorkspaceID: &otherWS,
			})
			Expect(errors.Is(err, internal.ErrAlreadyEmployeeElsewhere)).To(BeTrue())

			// the losing invite must still be pending after rollback
			found, _ := repo.GetByID(ctx, second.ID)
			Expect(found.Status).To(Equal(invitemodel.StatusPending))
		})

		It("refuses an employee assignment for a user holding an admin grant", func() {
			otherWS := "22222222-0000-0000-0000-000000000002"
			Expect(db.Create(&SQLiteAdminGrant{
				ID: "g1", UserID: "user-7", WorkspaceID: &otherWS, Role: "admin",
			}).Error).To(Succeed())

			inv := newPendingInvite("tokX")
			Expect(repo.Create(ctx, inv)).To(Succeed())

			ws := wsID
			err := repo.Accept(ctx, inv.ID, invite.Grant{
				UserID: "user-7", Role: authz.RoleEmployee, WorkspaceID: &ws,
			})
			Expect(errors.Is(err, internal.ErrDualRoleViolation)).To(BeTrue())

			// No cross-table dual role: the assignment must not exist and the
			// invite must roll back to pending.
			var count int64
			db.Model(&SQLiteEmployeeAssignment{}).Where("user_id = ?", "user-7").Count(&count)
			Expect(count).To(Equal(int64(0)))
			found, _ := repo.GetByID(ctx, inv.ID)
			Expect(found.Status).To(Equal(invitemodel.StatusPending))
		})

		It("refuses a platform staff grant for a user assigned as employee", func() {
			Expect(db.Create(&SQLiteEmployeeAssignment{
				ID: "a1", UserID: "user-8", WorkspaceID: wsID, IsActive: true,
			}).Error).To(Succeed())

			inv := newPendingInvite("tokY")
			inv.TargetRole = string(authz.RolePlatformStaff)
			Expect(repo.Create(ctx, inv)).To(Succeed())

			platformID := "00000000-0000-0000-0000-000000000001"
			err := repo.Accept(ctx, inv.ID, invite.Grant{
				UserID: "user-8", Role: authz.RolePlatformStaff, WorkspaceID: &platformID,
			})
			Expect(errors.Is(err, internal.ErrDualRoleViolation)).To(BeTrue())

			var count int64
			db.Model(&SQLiteAdminGrant{}).Where("user_id = ?", "user-8").Count(&count)
			Expect(count).To(Equal(int64(0)))
		})

		It("maps a duplicate admin grant to a dual role violation", func() {
			platformID := "00000000-0000-0000-0000-000000000001"
			Expect(db.Create(&SQLiteAdminGrant{
				ID: "g1", UserID: "user-5", WorkspaceID: &platformID, Role: "platform_staff",
			}).Error).To(Succeed())

			inv := newPendingInvite("tok7")
			inv.TargetRole = string(authz.RolePlatformStaff)
			Expect(repo.Create(ctx, inv)).To(Succeed())

			err := repo.Accept(ctx, inv.ID, invite.Grant{
				UserID: "user-5", Role: authz.RolePlatformStaff, WorkspaceID: &platformID,
			})
			Expect(errors.Is(err, internal.ErrDualRoleViolation)).To(BeTrue())
		})
	})

	Describe("MarkRevoked", func() {
		It("revokes a pending invite exactly once", func() {
			inv := newPendingInvite("tok8")
			Expect(repo.Create(ctx, inv)).To(Succeed())

			revoked, err := repo.MarkRevoked(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeTrue())

			revoked, err = repo.MarkRevoked(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeFalse())
		})
	})

	Describe("MarkExpired", func() {
		It("leaves a terminal invite untouched", func() {
			inv := newPendingInvite("tok9")
			Expect(repo.Create(ctx, inv)).To(Succeed())
			_, err := repo.MarkRevoked(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.MarkExpired(ctx, inv.ID)).To(Succeed())

			found, _ := repo.GetByID(ctx, inv.ID)
			Expect(found.Status).To(Equal(invitemodel.StatusRevoked))
		})
	})

	Describe("ListPendingByWorkspace", func() {
		It("returns only pending invites for the workspace", func() {
			a := newPendingInvite("tokA")
			b := newPendingInvite("tokB")
			c := newPendingInvite("tokC")
			otherWS := "33333333-0000-0000-0000-000000000003"
			c.WorkspaceID = &otherWS
			Expect(repo.Create(ctx, a)).To(Succeed())
			Expect(repo.Create(ctx, b)).To(Succeed())
			Expect(repo.Create(ctx, c)).To(Succeed())
			_, err := repo.MarkRevoked(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())

			invites, err := repo.ListPendingByWorkspace(ctx, wsID)
			Expect(err).NotTo(HaveOccurred())
			Expect(invites).To(HaveLen(1))
			Expect(invites[0].ID).To(Equal(a.ID))
		})
	})
})
