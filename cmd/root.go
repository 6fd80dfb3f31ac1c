package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/core/config"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/core/container"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/core/logger"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/core/routes"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/database"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/storage/memory"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		migrationDir, _ := cmd.Flags().GetString("dir")

		log := logger.NewLogger()
		defer log.Sync()

		if err := database.RunMigrations(cfg.DatabaseURL, migrationDir, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		return nil
	},
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _ := cmd.Flags().GetString("store")
		migrate, _ := cmd.Flags().GetBool("migrate")
		migrationDir, _ := cmd.Flags().GetString("dir")
		return serve(cmd.Context(), store, migrate, migrationDir)
	},
}

func serve(ctx context.Context, store string, migrate bool, migrationDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger()
	defer log.Sync()

	if err := security.SetJWTSecret(cfg.JWTSecret); err != nil {
		return err
	}

	var stores container.Stores
	switch store {
	case "postgres":
		if migrate {
			if err := database.RunMigrations(cfg.DatabaseURL, migrationDir, log); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
		db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("Connected to the database")
		stores = container.PostgresStores(db)
	case "memory":
		mem := memory.NewStore()
		if err := seedAdmin(ctx, mem, cfg.AdminPassword, log); err != nil {
			return err
		}
		log.Warn("Running with the in-memory store, data is lost on exit")
		stores = container.MemoryStores(mem)
	default:
		return fmt.Errorf("unknown store %q, expected postgres or memory", store)
	}

	app, err := container.NewAppContainer(ctx, cfg, stores, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("Shutdown incomplete", zap.Error(err))
		}
	}()

	app.Notifier.Start(ctx)

	server := &http.Server{
		Addr:              cfg.AppHost,
		Handler:           routes.NewRouter(app, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", cfg.AppHost))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedAdmin creates an admin account so a fresh in-memory instance can be logged into.
func seedAdmin(ctx context.Context, store *memory.Store, password string, log *zap.Logger) error {
	if password == "" {
		log.Warn("ADMIN_PASSWORD not set, the in-memory store starts without users")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = store.InsertUser(ctx, &models.User{
		Username:     "admin",
		Fullname:     "Administrator",
		PasswordHash: string(hash),
		Role:         roles.Admin.String(),
	})
	return err
}

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:          "partsroom",
		Short:        "Facilities parts room tracker",
		SilenceUsage: true,
	}
	MigrateCmd.Flags().String("dir", "./migrations", "Directory containing the migration files")
	ServeCmd.Flags().String("store", "postgres", "Storage backend: postgres or memory")
	ServeCmd.Flags().Bool("migrate", false, "Apply migrations before serving (postgres only)")
	ServeCmd.Flags().String("dir", "./migrations", "Directory containing the migration files")
	rootCmd.AddCommand(MigrateCmd, ServeCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
