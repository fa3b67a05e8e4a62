package authz

// Decision is the outcome of a workspace scope check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool {
	return d == Allow
}

type scopeConfig struct {
	allowCrossWorkspace bool
}

type ScopeOption func(*scopeConfig)

// AllowCrossWorkspace marks an endpoint as explicitly permitting super_admin
// reads across workspaces. It is set per-route, never defaulted on, so
// cross-tenant access stays documented at the call site.
func AllowCrossWorkspace() ScopeOption {
	return func(c *scopeConfig) {
		c.allowCrossWorkspace = true
	}
}

// EnforceScope compares a resolved role binding against the workspace a
// request targets. Matching is exact UUID string equality; there is no
// prefix or wildcard form. Every data-access path must run this even when
// the route gate already allowed the route, because a valid route can still
// reference another tenant's resource id.
func EnforceScope(res Resolution, requestedWorkspaceID string, opts ...ScopeOption) Decision {
	var cfg scopeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	switch res.Role {
	case RoleSuperAdmin:
		if requestedWorkspaceID == "" || cfg.allowCrossWorkspace {
			return Allow
		}
		return Deny
	case RolePlatformStaff, RoleAdmin, RoleEmployee:
		if requestedWorkspaceID != "" && requestedWorkspaceID == res.WorkspaceID {
			return Allow
		}
		return Deny
	default:
		return Deny
	}
}
