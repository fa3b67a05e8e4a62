package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/auth"
	authpostgres "github.com/replybase/replybase/internal/auth/postgres"
	"github.com/replybase/replybase/internal/authz"
	authzpostgres "github.com/replybase/replybase/internal/authz/postgres"
	"github.com/replybase/replybase/internal/core/events"
	"github.com/replybase/replybase/internal/identity"
	identitypostgres "github.com/replybase/replybase/internal/identity/postgres"
	"github.com/replybase/replybase/internal/invite"
	invitepostgres "github.com/replybase/replybase/internal/invite/postgres"
	"github.com/replybase/replybase/internal/notifier"
	"github.com/replybase/replybase/internal/transport/rest"
	"github.com/replybase/replybase/internal/user"
	"github.com/replybase/replybase/internal/workspace"
	workspacepostgres "github.com/replybase/replybase/internal/workspace/postgres"
	"github.com/replybase/replybase/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Notifier *notifier.Notifier
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Notifier.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm over pgx pool: %w", err)
	}

	// Event bus and outbound notifications
	bus := events.NewEventBus(lg)
	notif := notifier.New(notifier.Config{
		WebhookURL:     config.Notifier.WebhookURL,
		APIKey:         config.Notifier.APIKey,
		MaxWorkers:     config.Notifier.MaxWorkers,
		JobQueueSize:   config.Notifier.JobQueueSize,
		WorkerPoolSize: config.Notifier.WorkerPoolSize,
	}, lg)
	notif.Subscribe(bus)

	// Repositories
	authRepo := authpostgres.NewRepository(gormDB)
	authzRepo := authzpostgres.NewAuthzRepository(gormDB)
	identityRepo := identitypostgres.NewUserRepository(gormDB)
	inviteRepo := invitepostgres.NewInviteRepository(gormDB)
	workspaceRepo := workspacepostgres.NewWorkspaceRepository(gormDB)

	// Services
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
	)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	identityService := identity.NewService(identityRepo, lg)
	resolver := authz.NewResolver(authzRepo, lg, config.Security.EffectiveResolveTimeout())
	workspaceService := workspace.NewService(workspaceRepo, identityService, resolver, authService, lg)
	inviteService := invite.NewService(inviteRepo, authzRepo, identityService, resolver, authService, bus, lg, config.Invites.EffectiveTTL())
	userService := user.NewService(identityService, resolver)

	// HTTP wiring
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:      auth.NewHandler(authService),
		User:      user.NewHandler(userService),
		Workspace: workspace.NewHandler(workspaceService),
		Invite:    invite.NewHandler(inviteService),
		Gate:      authz.NewGate(resolver, lg),
	}, lg)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Router:   router,
		Notifier: notif,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
