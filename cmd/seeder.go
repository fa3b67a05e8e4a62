package cmd

import (
	"fmt"
	"log"

	datamodel "github.com/replybase/replybase/internal/core/datamodel/workspace"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a super admin, the platform workspace and a demo tenant for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"invites", "employee_assignments", "admin_grants", "workspaces", "users"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		// Operator account plus a platform_staff support account tied to the
		// reserved platform workspace.
		superEmail := "root@replybase.dev"
		var exists int
		if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", superEmail).Scan(&exists); err != nil {
			superID := uuid.NewString()
			if _, err := db.Exec(
				"INSERT INTO users (id, email, password_hash, role, is_active, created_at, updated_at) VALUES ($1, $2, $3, 'super_admin', true, now(), now())",
				superID, superEmail, string(hash)); err != nil {
				log.Fatalf("failed to insert super admin: %v", err)
			}
			fmt.Println("Seeded super admin:", superEmail)
		} else {
			fmt.Println("super admin already exists; skipping")
		}

		staffEmail := "support@replybase.dev"
		if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", staffEmail).Scan(&exists); err != nil {
			staffID := uuid.NewString()
			if _, err := db.Exec(
				"INSERT INTO users (id, email, password_hash, is_active, created_at, updated_at) VALUES ($1, $2, $3, true, now(), now())",
				staffID, staffEmail, string(hash)); err != nil {
				log.Fatalf("failed to insert support user: %v", err)
			}
			if _, err := db.Exec(
				"INSERT INTO admin_grants (id, user_id, workspace_id, role, created_at) VALUES ($1, $2, $3, 'platform_staff', now())",
				uuid.NewString(), staffID, datamodel.PlatformWorkspaceID); err != nil {
				log.Fatalf("failed to insert platform staff grant: %v", err)
			}
			fmt.Println("Seeded platform staff:", staffEmail)
		} else {
			fmt.Println("platform staff already exists; skipping")
		}

		// Demo tenant: an admin owning their own workspace.
		adminEmail := "owner@acme.test"
		if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", adminEmail).Scan(&exists); err != nil {
			adminID := uuid.NewString()
			workspaceID := uuid.NewString()

			if _, err := db.Exec(
				"INSERT INTO users (id, email, password_hash, is_active, created_at, updated_at) VALUES ($1, $2, $3, true, now(), now())",
				adminID, adminEmail, string(hash)); err != nil {
				log.Fatalf("failed to insert demo admin: %v", err)
			}
			if _, err := db.Exec(
				"INSERT INTO workspaces (id, owner_user_id, name, created_at, updated_at) VALUES ($1, $2, 'Acme Social', now(), now())",
				workspaceID, adminID); err != nil {
				log.Fatalf("failed to insert demo workspace: %v", err)
			}
			if _, err := db.Exec(
				"INSERT INTO admin_grants (id, user_id, workspace_id, role, created_at) VALUES ($1, $2, $3, 'admin', now())",
				uuid.NewString(), adminID, workspaceID); err != nil {
				log.Fatalf("failed to insert demo admin grant: %v", err)
			}
			fmt.Println("Seeded demo tenant:", adminEmail)
		} else {
			fmt.Println("demo admin already exists; skipping")
		}

		fmt.Println("Seeding complete. All seeded accounts use password:", password)
	},
}
