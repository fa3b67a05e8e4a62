package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/replybase/replybase/internal"
)

// Route gate path table. The /admin/support subtree is carved out of the
// super_admin prefix and reserved for platform_staff.
const (
	PathLogin             = "/login"
	PathAdminHome         = "/admin"
	PathSupportHome       = "/admin/support"
	PathDashboardHome     = "/dashboard"
	PathEmployeeDashboard = "/employees/dashboard"
)

type GateAction int

const (
	GateRedirect GateAction = iota
	GateAllow
)

// GateDecision is the outcome of edge authorization for one request. On
// GateAllow the Resolution is carried along so handlers do not resolve twice.
type GateDecision struct {
	Action     GateAction
	Resolution Resolution
	Target     string
}

// Gate is the edge-level route authorizer. It resolves the principal once
// per request and checks the requested path against the role's permitted
// prefix set. A misrouted authenticated user is redirected to their own home
// rather than shown an error page; the check is advisory with respect to
// data access, which EnforceScope still guards on every resource path.
type Gate struct {
	resolver ResolverAPI
	logger   *slog.Logger
}

func NewGate(resolver ResolverAPI, logger *slog.Logger) *Gate {
	return &Gate{
		resolver: resolver,
		logger:   logger,
	}
}

// HomePath is the canonical landing path for a role.
func HomePath(role Role) string {
	switch role {
	case RoleSuperAdmin:
		return PathAdminHome
	case RolePlatformStaff:
		return PathSupportHome
	case RoleAdmin:
		return PathDashboardHome
	case RoleEmployee:
		return PathEmployeeDashboard
	default:
		return PathLogin
	}
}

// pathWithin reports whether path is prefix itself or a descendant of it.
// "/dashboards" is not within "/dashboard".
func pathWithin(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || path[len(prefix)] == '?'
}

func rolePermitsPath(role Role, path string) bool {
	switch role {
	case RoleSuperAdmin:
		return pathWithin(path, PathAdminHome) && !pathWithin(path, PathSupportHome)
	case RolePlatformStaff:
		return pathWithin(path, PathSupportHome)
	case RoleAdmin:
		return pathWithin(path, PathDashboardHome)
	case RoleEmployee:
		return pathWithin(path, PathEmployeeDashboard)
	default:
		return false
	}
}

// Authorize resolves userID and decides whether the path is allowed for the
// resolved role. NoRole always redirects to login. A transient resolution
// failure is returned as an error: the caller must not fall back to allowing
// the request, nor treat it as NoRole.
func (g *Gate) Authorize(ctx context.Context, userID, path string) (GateDecision, error) {
	res, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		return GateDecision{}, err
	}

	if !res.HasRole() {
		return GateDecision{Action: GateRedirect, Target: PathLogin}, nil
	}

	if rolePermitsPath(res.Role, path) {
		return GateDecision{Action: GateAllow, Resolution: res}, nil
	}

	g.logger.Warn("route outside role prefix, redirecting to home",
		"user_id", userID,
		"role", res.Role,
		"path", path)
	return GateDecision{Action: GateRedirect, Resolution: res, Target: HomePath(res.Role)}, nil
}

// Middleware enforces the gate on every request before handler dispatch. The
// principal id must already be in the request context (auth middleware runs
// first). Transient resolution failures render 503, never a pass-through.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := internal.UserIDFromContext(r.Context())

		decision, err := g.Authorize(r.Context(), userID, r.URL.Path)
		if err != nil {
			g.logger.Error("route gate resolution failed", "error", err, "user_id", userID, "path", r.URL.Path)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}

		if decision.Action == GateRedirect {
			http.Redirect(w, r, decision.Target, http.StatusFound)
			return
		}

		ctx := ContextWithResolution(r.Context(), decision.Resolution)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
