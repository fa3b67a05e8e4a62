package authz_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/authz"
	"github.com/replybase/replybase/internal/core/datamodel/grant"
	"github.com/replybase/replybase/internal/core/datamodel/workspace"
)

func TestAuthz(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Authz Suite")
}

// mockAuthzRepository implements authz.Repository for testing
type mockAuthzRepository struct {
	roles       map[string]*string
	active      map[string]bool
	grants      map[string][]grant.AdminGrant
	assignments map[string]*grant.EmployeeAssignment

	userErr       error
	grantsErr     error
	assignmentErr error
}

func newMockAuthzRepository() *mockAuthzRepository {
	return &mockAuthzRepository{
		roles:       make(map[string]*string),
		active:      make(map[string]bool),
		grants:      make(map[string][]grant.AdminGrant),
		assignments: make(map[string]*grant.EmployeeAssignment),
	}
}

func (m *mockAuthzRepository) GetUserRole(_ context.Context, userID string) (*string, bool, error) {
	if m.userErr != nil {
		return nil, false, m.userErr
	}
	return m.roles[userID], m.active[userID], nil
}

func (m *mockAuthzRepository) GetAdminGrants(_ context.Context, userID string) ([]grant.AdminGrant, error) {
	if m.grantsErr != nil {
		return nil, m.grantsErr
	}
	return m.grants[userID], nil
}

func (m *mockAuthzRepository) GetEmployeeAssignment(_ context.Context, userID string) (*grant.EmployeeAssignment, error) {
	if m.assignmentErr != nil {
		return nil, m.assignmentErr
	}
	return m.assignments[userID], nil
}

func (m *mockAuthzRepository) addUser(userID string, role *string, active bool) {
	m.roles[userID] = role
	m.active[userID] = active
}

func strPtr(s string) *string { return &s }

var _ = Describe("Resolver", func() {
	var (
		repo     *mockAuthzRepository
		resolver *authz.Resolver
		ctx      context.Context
	)

	BeforeEach(func() {
		repo = newMockAuthzRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver = authz.NewResolver(repo, logger, 0)
		ctx = context.Background()
	})

	It("resolves the super_admin flag before any grant", func() {
		repo.addUser("u1", strPtr("super_admin"), true)
		wsID := "11111111-1111-1111-1111-111111111111"
		repo.grants["u1"] = []grant.AdminGrant{{UserID: "u1", WorkspaceID: &wsID, Role: "admin"}}

		res, err := resolver.Resolve(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Role).To(Equal(authz.RoleSuperAdmin))
		Expect(res.WorkspaceID).To(BeEmpty())
	})

	It("resolves a platform workspace grant as platform_staff", func() {
		repo.addUser("u2", nil, true)
		platformID := workspace.PlatformWorkspaceID
		repo.grants["u2"] = []grant.AdminGrant{{UserID: "u2", WorkspaceID: &platformID, Role: "platform_staff"}}

		res, err := resolver.Resolve(ctx, "u2")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Role).To(Equal(authz.RolePlatformStaff))
		Expect(res.WorkspaceID).To(Equal(workspace.PlatformWorkspaceID))
	})

	It("prefers the platform grant when tenant grants also exist", func() {
		repo.addUser("u3", nil, true)
		platformID := workspace.PlatformWorkspaceID
		wsID := "22222222-2222-2222-2222-222222222222"
		repo.grants["u3"] = []grant.AdminGrant{
			{UserID: "u3", WorkspaceID: &wsID, Role: "admin"},
			{UserID: "u3", WorkspaceID: &platformID, Role: "platform_staff"},
		}

		res, err := resolver.Resolve(ctx, "u3")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Role).To(Equal(authz.RolePlatformStaff))
	})

	It("resolves a tenant workspace grant as admin", func() {
		repo.addUser("u4", nil, true)
		wsID := "33333333-3333-3333-3333-333333333333"
		repo.grants["u4"] = []grant.AdminGrant{{UserID: "u4", WorkspaceID: &wsID, Role: "admin"}}

		res, err := resolver.Resolve(ctx, "u4")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Role).To(Equal(authz.RoleAdmin))
		Expect(res.WorkspaceID).To(Equal(wsID))
	})

	It("resolves an active assignment as employee", func() {
		repo.addUser("u5", nil, true)
		repo.assignments["u5"] = &grant.EmployeeAssignment{
			UserID:      "u5",
			WorkspaceID: "44444444-4444-4444-4444-444444444444",
			IsActive:    true,
		}

		res, err := resolver.Resolve(ctx, "u5")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Role).To(Equal(authz.RoleEmployee))
		Expect(res.WorkspaceID).To(Equal("44444444-4444-4444-4444-444444444444"))
	})

	It("returns no role for a deactivated assignment", func() {
		repo.addUser("u6", nil, true)
		repo.assignments["u6"] = &grant.EmployeeAssignment{
			UserID:      "u6",
			WorkspaceID: "44444444-4444-4444-4444-444444444444",
			IsActive:    false,
		}

		res, err := resolver.Resolve(ctx, "u6")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.HasRole()).To(BeFalse())
	})

	It("returns no role for an inactive user regardless of grants", func() {
		repo.addUser("u7", strPtr("super_admin"), false)

		res, err := resolver.Resolve(ctx, "u7")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.HasRole()).To(BeFalse())
	})

	It("returns no role for an unknown user without error", func() {
		res, err := resolver.Resolve(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.HasRole()).To(BeFalse())
	})

	It("returns no role for an empty principal id", func() {
		res, err := resolver.Resolve(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.HasRole()).To(BeFalse())
	})

	It("surfaces storage failure as a resolution error, not as no role", func() {
		repo.userErr = errors.New("connection refused")

		_, err := resolver.Resolve(ctx, "u8")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, internal.ErrResolutionFailed)).To(BeTrue())
	})

	It("surfaces grant read failure as a resolution error", func() {
		repo.addUser("u9", nil, true)
		repo.grantsErr = errors.New("timeout")

		_, err := resolver.Resolve(ctx, "u9")
		Expect(errors.Is(err, internal.ErrResolutionFailed)).To(BeTrue())
	})
})

var _ = Describe("EnforceScope", func() {
	wsA := "aaaaaaaa-0000-0000-0000-000000000001"
	wsB := "bbbbbbbb-0000-0000-0000-000000000002"

	It("allows an admin on their own workspace only", func() {
		res := authz.AdminResolution(wsA)
		Expect(authz.EnforceScope(res, wsA).Allowed()).To(BeTrue())
		Expect(authz.EnforceScope(res, wsB).Allowed()).To(BeFalse())
	})

	It("denies when the requested workspace is empty", func() {
		res := authz.AdminResolution(wsA)
		Expect(authz.EnforceScope(res, "").Allowed()).To(BeFalse())
	})

	It("uses exact id equality, never prefix matching", func() {
		res := authz.AdminResolution(wsA)
		Expect(authz.EnforceScope(res, wsA+"x").Allowed()).To(BeFalse())
		Expect(authz.EnforceScope(res, wsA[:len(wsA)-1]).Allowed()).To(BeFalse())
	})

	It("scopes an employee to their assigned workspace", func() {
		res := authz.EmployeeResolution(wsB)
		Expect(authz.EnforceScope(res, wsB).Allowed()).To(BeTrue())
		Expect(authz.EnforceScope(res, wsA).Allowed()).To(BeFalse())
	})

	It("scopes platform staff to the platform workspace", func() {
		res := authz.PlatformStaffResolution()
		Expect(authz.EnforceScope(res, workspace.PlatformWorkspaceID).Allowed()).To(BeTrue())
		Expect(authz.EnforceScope(res, wsA).Allowed()).To(BeFalse())
	})

	It("denies super_admin workspace-scoped access unless the route opts in", func() {
		res := authz.SuperAdminResolution()
		Expect(authz.EnforceScope(res, wsA).Allowed()).To(BeFalse())
		Expect(authz.EnforceScope(res, wsA, authz.AllowCrossWorkspace()).Allowed()).To(BeTrue())
		Expect(authz.EnforceScope(res, "").Allowed()).To(BeTrue())
	})

	It("denies everything for no role", func() {
		res := authz.NoRole()
		Expect(authz.EnforceScope(res, wsA).Allowed()).To(BeFalse())
		Expect(authz.EnforceScope(res, "").Allowed()).To(BeFalse())
	})
})

var _ = Describe("Gate", func() {
	var (
		repo *mockAuthzRepository
		gate *authz.Gate
		ctx  context.Context
	)

	wsID := "cccccccc-0000-0000-0000-000000000003"

	BeforeEach(func() {
		repo = newMockAuthzRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		gate = authz.NewGate(authz.NewResolver(repo, logger, 0), logger)
		ctx = context.Background()
	})

	It("allows a super_admin anywhere under /admin except /admin/support", func() {
		repo.addUser("sa", strPtr("super_admin"), true)

		decision, err := gate.Authorize(ctx, "sa", "/admin/workspaces")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateAllow))

		decision, err = gate.Authorize(ctx, "sa", "/admin/support/tickets")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateRedirect))
		Expect(decision.Target).To(Equal(authz.PathAdminHome))
	})

	It("allows platform staff only under /admin/support", func() {
		repo.addUser("ps", nil, true)
		platformID := workspace.PlatformWorkspaceID
		repo.grants["ps"] = []grant.AdminGrant{{UserID: "ps", WorkspaceID: &platformID}}

		decision, err := gate.Authorize(ctx, "ps", "/admin/support")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateAllow))

		decision, err = gate.Authorize(ctx, "ps", "/admin")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateRedirect))
		Expect(decision.Target).To(Equal(authz.PathSupportHome))
	})

	It("redirects an admin from admin-only paths to their dashboard", func() {
		repo.addUser("ad", nil, true)
		repo.grants["ad"] = []grant.AdminGrant{{UserID: "ad", WorkspaceID: &wsID}}

		decision, err := gate.Authorize(ctx, "ad", "/dashboard/inbox")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateAllow))

		decision, err = gate.Authorize(ctx, "ad", "/admin")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateRedirect))
		Expect(decision.Target).To(Equal(authz.PathDashboardHome))
	})

	It("redirects an employee everywhere outside their dashboard", func() {
		repo.addUser("em", nil, true)
		repo.assignments["em"] = &grant.EmployeeAssignment{UserID: "em", WorkspaceID: wsID, IsActive: true}

		decision, err := gate.Authorize(ctx, "em", "/employees/dashboard")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateAllow))

		decision, err = gate.Authorize(ctx, "em", "/dashboard")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateRedirect))
		Expect(decision.Target).To(Equal(authz.PathEmployeeDashboard))
	})

	It("treats a sibling path sharing the prefix as outside", func() {
		repo.addUser("ad2", nil, true)
		repo.grants["ad2"] = []grant.AdminGrant{{UserID: "ad2", WorkspaceID: &wsID}}

		decision, err := gate.Authorize(ctx, "ad2", "/dashboards")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateRedirect))
	})

	It("redirects a user with no role to login", func() {
		repo.addUser("nr", nil, true)

		decision, err := gate.Authorize(ctx, "nr", "/dashboard")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Action).To(Equal(authz.GateRedirect))
		Expect(decision.Target).To(Equal(authz.PathLogin))
	})

	It("propagates resolution failure instead of redirecting", func() {
		repo.userErr = errors.New("db down")

		_, err := gate.Authorize(ctx, "u", "/dashboard")
		Expect(errors.Is(err, internal.ErrResolutionFailed)).To(BeTrue())
	})
})
