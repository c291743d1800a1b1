// This is the main entry point of the opledger service.
// It loads configuration, opens the database, wires services and handlers,
// and exposes them through a small CLI: `serve`, `migrate` and `create-admin`.
//
// @title Opledger API
// @version 1.0
// @description Authenticated per-user operation ledger.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/user/opledger-go/auth"
	"github.com/user/opledger-go/config"
	"github.com/user/opledger-go/db"
	"github.com/user/opledger-go/feed"
	"github.com/user/opledger-go/logging"
	"github.com/user/opledger-go/operations"
	"github.com/user/opledger-go/server"
	"github.com/user/opledger-go/users"
)

func main() {
	// .env is optional; in production variables are set directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: error loading .env file: %v", err)
	}

	app := &cli.App{
		Name:    "opledger",
		Usage:   "authenticated per-user operation ledger",
		Version: server.Version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "roll migrations back instead of applying them"},
					&cli.IntFlag{Name: "steps", Usage: "number of migrations to roll back with --down (0 = all)"},
				},
				Action: migrateCmd,
			},
			{
				Name:      "create-admin",
				Usage:     "create an account with the admin role",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"ADMIN_PASSWORD"}, Required: true},
				},
				Action: createAdmin,
			},
		},
		// Running the binary without a command starts the server.
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// bootstrap loads configuration and builds the logger shared by every command.
func bootstrap() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// newAuthService builds the auth service over the given credential store.
func newAuthService(cfg *config.AppConfig, store auth.Store, logger *zap.Logger) (*auth.AuthService, *auth.TokenManager, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, nil, err
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	policy := auth.NewCredentialPolicy(*cfg.Policy)
	return auth.NewAuthService(store, hasher, tokens, policy, logger), tokens, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(cfg.Database, logger); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(c.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := auth.NewPostgresStore(pool)
	authService, tokens, err := newAuthService(cfg, store, logger)
	if err != nil {
		return err
	}

	broadcaster := feed.NewBroadcaster(feed.DefaultBuffer, logger)
	operationService := operations.NewOperationService(operations.NewPostgresLedger(pool), broadcaster, logger)
	userService := users.NewUserService(store, operationService)

	router := server.NewRouter(server.Deps{
		Config:     cfg.Server,
		Logger:     logger,
		Tokens:     tokens,
		Users:      store,
		Auth:       auth.NewHandlers(authService, logger),
		Operations: operations.NewHandlers(operationService, broadcaster, cfg.Server.StreamHeartbeat, logger),
		Profiles:   users.NewUserHandlers(userService, logger),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	// No WriteTimeout: the operation stream is long-lived. Ordinary routes are
	// bounded by the router's timeout middleware instead.
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("version", server.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("server shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Open streams only end when their channel closes; Shutdown would otherwise wait for them.
	broadcaster.Close()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func migrateCmd(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if c.Bool("down") {
		if err := db.RollbackMigrations(cfg.Database, c.Int("steps"), logger); err != nil {
			return err
		}
		logger.Info("migrations rolled back", zap.Int("steps", c.Int("steps")))
		return nil
	}
	return db.RunMigrations(cfg.Database, logger)
}

func createAdmin(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pool, err := db.NewPool(c.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	authService, _, err := newAuthService(cfg, auth.NewPostgresStore(pool), logger)
	if err != nil {
		return err
	}

	user, err := authService.CreateAdmin(c.Context, c.String("username"), c.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created admin %q with id %d\n", user.Username, user.ID)
	return nil
}
