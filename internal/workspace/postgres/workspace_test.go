package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/replybase/replybase/internal/core/datamodel/grant"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/workspace"
	"github.com/replybase/replybase/internal/workspace"
	workspacepostgres "github.com/replybase/replybase/internal/workspace/postgres"
)

func TestWorkspacePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Workspace Postgres Suite")
}

// SQLite-compatible models for testing

type SQLiteWorkspace struct {
	ID          string    `gorm:"primaryKey"`
	OwnerUserID string    `gorm:"column:owner_user_id;not null"`
	Name        string    `gorm:"column:name;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (SQLiteWorkspace) TableName() string { return "workspaces" }

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

var _ = Describe("Workspace PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo workspace.Repository
		ctx  context.Context
	)

	const wsID = "11111111-0000-0000-0000-000000000001"

	seedAssignment := func(id, userID string, active bool) {
		Expect(db.Create(&SQLiteEmployeeAssignment{
			ID: id, UserID: userID, WorkspaceID: wsID, Name: "Employee " + id,
			IsActive: active, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteWorkspace{}, &SQLiteAdminGrant{}, &SQLiteEmployeeAssignment{})
		Expect(err).NotTo(HaveOccurred())

		repo = workspacepostgres.NewWorkspaceRepository(db)
		ctx = context.Background()
	})

	Describe("CreateWithOwner", func() {
		It("creates the workspace and its owner grant together", func() {
			ws := &datamodel.Workspace{ID: wsID, OwnerUserID: "owner-1", Name: "Acme Social", CreatedAt: time.Now(), UpdatedAt: time.Now()}
			wsRef := wsID
			ownerGrant := &grant.AdminGrant{ID: "g1", UserID: "owner-1", WorkspaceID: &wsRef, Role: "admin", CreatedAt: time.Now()}

			Expect(repo.CreateWithOwner(ctx, ws, ownerGrant)).To(Succeed())

			got, err := repo.GetByID(ctx, wsID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Acme Social"))

			var count int64
			Expect(db.Model(&SQLiteAdminGrant{}).Where("user_id = ?", "owner-1").Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("rolls back the workspace when the grant insert fails", func() {
			Expect(db.Create(&SQLiteAdminGrant{ID: "g1", UserID: "other", Role: "admin", CreatedAt: time.Now()}).Error).To(Succeed())

			ws := &datamodel.Workspace{ID: wsID, OwnerUserID: "owner-1", Name: "Acme Social", CreatedAt: time.Now(), UpdatedAt: time.Now()}
			wsRef := wsID
			ownerGrant := &grant.AdminGrant{ID: "g1", UserID: "owner-1", WorkspaceID: &wsRef, Role: "admin", CreatedAt: time.Now()}

			Expect(repo.CreateWithOwner(ctx, ws, ownerGrant)).NotTo(Succeed())

			got, err := repo.GetByID(ctx, wsID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})

	Describe("GetByID", func() {
		It("returns nil without error for an unknown workspace", func() {
			got, err := repo.GetByID(ctx, "unknown")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})

	Describe("ListEmployees", func() {
		It("lists only the workspace's assignments in creation order", func() {
			seedAssignment("a1", "u1", true)
			seedAssignment("a2", "u2", false)
			Expect(db.Create(&SQLiteEmployeeAssignment{
				ID: "a3", UserID: "u3", WorkspaceID: "other-ws", IsActive: true,
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
			}).Error).To(Succeed())

			employees, err := repo.ListEmployees(ctx, wsID)
			Expect(err).NotTo(HaveOccurred())
			Expect(employees).To(HaveLen(2))
			Expect(employees[0].UserID).To(Equal("u1"))
			Expect(employees[1].UserID).To(Equal("u2"))
		})
	})

	Describe("UpdateEmployeeProfile", func() {
		It("updates only the provided fields", func() {
			seedAssignment("a1", "u1", true)

			name := "Casey Lee"
			updated, err := repo.UpdateEmployeeProfile(ctx, wsID, "u1", workspace.ProfileFields{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeTrue())

			var row SQLiteEmployeeAssignment
			Expect(db.Where("user_id = ?", "u1").First(&row).Error).To(Succeed())
			Expect(row.Name).To(Equal("Casey Lee"))
			Expect(row.Phone).To(BeEmpty())
		})

		It("reports no match for a user outside the workspace", func() {
			seedAssignment("a1", "u1", true)

			name := "Casey Lee"
			updated, err := repo.UpdateEmployeeProfile(ctx, "other-ws", "u1", workspace.ProfileFields{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeFalse())
		})
	})

	Describe("DeactivateEmployee", func() {
		It("disables an active assignment exactly once", func() {
			seedAssignment("a1", "u1", true)

			done, err := repo.DeactivateEmployee(ctx, wsID, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())

			done, err = repo.DeactivateEmployee(ctx, wsID, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeFalse())
		})
	})
})
