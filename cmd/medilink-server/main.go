package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medilink/medilink/internal/config"
	"github.com/medilink/medilink/internal/domain/admin"
	"github.com/medilink/medilink/internal/domain/lab"
	"github.com/medilink/medilink/internal/domain/patient"
	"github.com/medilink/medilink/internal/domain/prescription"
	"github.com/medilink/medilink/internal/domain/user"
	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/blobstore"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/idcard"
	"github.com/medilink/medilink/internal/platform/middleware"
	"github.com/medilink/medilink/internal/platform/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medilink-server",
		Short: "MediLink clinic record-keeping API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MediLink API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = web.ErrorHandler(logger, !cfg.IsProduction())

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	// Report uploads get a bigger budget than the default JSON bodies.
	e.Use(middleware.BodyLimit(6*1024*1024, map[string]int64{
		"/api/lab": 11 * 1024 * 1024,
	}))

	// Platform pieces
	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	blobs := blobstore.NewPGBlobStore(pool)
	cards := idcard.NewGenerator()

	// Repositories
	userRepo := user.NewRepo(pool)
	patientRepo := patient.NewRepo(pool)
	testRepo := lab.NewTestRepo(pool)
	reportRepo := lab.NewReportRepo(pool)
	rxRepo := prescription.NewRepo(pool)
	statusRepo := prescription.NewStatusRepo(pool)

	// Services
	userSvc := user.NewService(userRepo, issuer)
	patientSvc := patient.NewService(patientRepo, userSvc, blobs, cards, logger)
	labSvc := lab.NewService(testRepo, reportRepo, patientRepo, blobs, logger)
	rxSvc := prescription.NewService(rxRepo, statusRepo, patientRepo, logger)
	adminSvc := admin.NewService(admin.NewStatsRepo(pool), userRepo, patientRepo, reportRepo, rxRepo)

	authMW := auth.Middleware(issuer, userSvc)

	// Routes
	e.GET("/health", db.HealthHandler(pool))
	blobstore.NewHandler(blobs).RegisterRoutes(e)

	api := e.Group("/api")
	user.NewHandler(userSvc).RegisterRoutes(api, authMW)
	patient.NewHandler(patientSvc).RegisterRoutes(api, authMW)
	lab.NewHandler(labSvc).RegisterRoutes(api, authMW)
	prescription.NewHandler(rxSvc).RegisterRoutes(api, authMW)
	admin.NewHandler(adminSvc).RegisterRoutes(api, authMW)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
