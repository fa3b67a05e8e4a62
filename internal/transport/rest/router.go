package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/replybase/replybase/internal/auth"
	"github.com/replybase/replybase/internal/authz"
	"github.com/replybase/replybase/internal/invite"
	"github.com/replybase/replybase/internal/transport/middleware"
	"github.com/replybase/replybase/internal/transport/swagger"
	"github.com/replybase/replybase/internal/user"
	"github.com/replybase/replybase/internal/workspace"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Workspace *workspace.Handler
	Invite    *invite.Handler
	Gate      *authz.Gate
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Public self-serve signup: creates the user, the workspace and the
		// owning admin grant in one shot.
		if h.Workspace != nil {
			r.Post("/signup", h.Workspace.Signup)
		}

		// Public invite acceptance: the token is the credential here, no
		// session required.
		if h.Invite != nil {
			r.Post("/invites/accept", h.Invite.AcceptInvite)
		}

		if h.Auth != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)

				// Current user with resolved role
				if h.User != nil {
					pr.Get("/users/me", h.User.GetCurrentUser)
				}

				// Invite lifecycle management
				if h.Invite != nil {
					pr.Route("/invites", func(ir chi.Router) {
						ir.Post("/", h.Invite.CreateInvite)      // POST /invites
						ir.Get("/", h.Invite.ListPending)        // GET /invites?workspace_id=
						ir.Delete("/{id}", h.Invite.RevokeInvite) // DELETE /invites/:id
					})
				}

				// Workspace and employee management
				if h.Workspace != nil {
					pr.Route("/workspaces", func(wr chi.Router) {
						wr.Get("/{id}", h.Workspace.GetWorkspace)
						wr.Get("/{id}/employees", h.Workspace.ListEmployees)
						wr.Patch("/{id}/employees/{userID}", h.Workspace.UpdateEmployee)
						wr.Delete("/{id}/employees/{userID}", h.Workspace.DeactivateEmployee)
					})
				}
			})
		}
	})

	// App shell routes. The gate resolves the principal's role and either
	// serves the shell or redirects to the role's home path. Unauthorized
	// page requests are steered, not denied; data access stays behind the
	// API scope checks above.
	if h.Auth != nil && h.Gate != nil {
		shell := appShellHandler()

		router.Get(authz.PathLogin, loginShellHandler())

		router.Group(func(gr chi.Router) {
			gr.Use(h.Auth.AuthMiddleware)
			gr.Use(h.Gate.Middleware)

			gr.Get(authz.PathAdminHome, shell)
			gr.Get(authz.PathAdminHome+"/*", shell)
			gr.Get(authz.PathDashboardHome, shell)
			gr.Get(authz.PathDashboardHome+"/*", shell)
			gr.Get(authz.PathEmployeeDashboard, shell)
			gr.Get(authz.PathEmployeeDashboard+"/*", shell)
		})
	}
}

// appShellHandler serves the landing payload for a gated page request. The
// resolution placed in context by the gate tells the client which shell to
// render.
func appShellHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := authz.ResolutionFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"role":"` + string(res.Role) + `","path":"` + r.URL.Path + `"}`))
	}
}

func loginShellHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page":"login"}`))
	}
}
