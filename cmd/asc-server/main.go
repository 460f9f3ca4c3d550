package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/asc/asc/internal/config"
	"github.com/asc/asc/internal/domain/cases"
	"github.com/asc/asc/internal/domain/catalog"
	"github.com/asc/asc/internal/domain/inventory"
	"github.com/asc/asc/internal/domain/prefcard"
	"github.com/asc/asc/internal/domain/readiness"
	"github.com/asc/asc/internal/platform/auth"
	"github.com/asc/asc/internal/platform/db"
	"github.com/asc/asc/internal/platform/middleware"
)

// requirementResolverAdapter adapts the preference card service to the
// readiness.RequirementResolver interface, avoiding circular imports
// between the readiness and prefcard packages.
type requirementResolverAdapter struct {
	cases cases.Repository
	cards *prefcard.Service
}

// ResolveRequirements implements readiness.RequirementResolver. A case
// with no linked card has an empty requirement set.
func (a *requirementResolverAdapter) ResolveRequirements(ctx context.Context, caseID uuid.UUID) ([]readiness.Requirement, error) {
	sc, err := a.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if sc.PreferenceCardID == nil {
		return nil, nil
	}
	resolved, err := a.cards.Resolve(ctx, *sc.PreferenceCardID)
	if err != nil {
		return nil, err
	}
	reqs := make([]readiness.Requirement, 0, len(resolved))
	for _, r := range resolved {
		reqs = append(reqs, readiness.Requirement{
			CatalogID:              r.CatalogID,
			CatalogName:            r.CatalogName,
			Quantity:               r.Quantity,
			RequiresSterility:      r.RequiresSterility,
			RequiresLotTracking:    r.RequiresLotTracking,
			RequiresSerialTracking: r.RequiresSerialTracking,
			Criticality:            r.Criticality,
			ReadinessRequired:      r.ReadinessRequired,
		})
	}
	return reqs, nil
}

// instanceSourceAdapter adapts the inventory repository to
// readiness.InstanceSource.
type instanceSourceAdapter struct {
	repo inventory.Repository
}

func (a *instanceSourceAdapter) ListInstances(ctx context.Context, facilityID uuid.UUID, catalogIDs []uuid.UUID) ([]*inventory.InventoryInstance, error) {
	return a.repo.ListByFacility(ctx, facilityID, catalogIDs)
}

func (a *instanceSourceAdapter) GetInstance(ctx context.Context, id uuid.UUID) (*inventory.InventoryInstance, error) {
	return a.repo.GetByID(ctx, id)
}

func (a *instanceSourceAdapter) LastMutationAt(ctx context.Context, facilityID uuid.UUID) (*time.Time, error) {
	return a.repo.LastMutationAt(ctx, facilityID)
}

// instanceReserverAdapter adapts the inventory repository to
// readiness.InstanceReserver and writes the matching audit events so
// verification shows up in the instance's event trail.
type instanceReserverAdapter struct {
	repo inventory.Repository
}

func (a *instanceReserverAdapter) Reserve(ctx context.Context, instanceID, caseID, userID uuid.UUID, verifiedAt time.Time) (bool, error) {
	ok, err := a.repo.Reserve(ctx, instanceID, caseID, userID, verifiedAt)
	if err != nil || !ok {
		return ok, err
	}
	if err := a.repo.AddEvent(ctx, &inventory.InventoryEvent{
		InstanceID: instanceID,
		EventType:  inventory.EventVerified,
		CaseID:     &caseID,
		RecordedBy: &userID,
	}); err != nil {
		return true, err
	}
	return true, nil
}

func (a *instanceReserverAdapter) Release(ctx context.Context, instanceID, caseID uuid.UUID) (bool, error) {
	ok, err := a.repo.Release(ctx, instanceID, caseID)
	if err != nil || !ok {
		return ok, err
	}
	if err := a.repo.AddEvent(ctx, &inventory.InventoryEvent{
		InstanceID: instanceID,
		EventType:  inventory.EventReleased,
		CaseID:     &caseID,
	}); err != nil {
		return true, err
	}
	return true, nil
}

// caseSourceAdapter adapts the case repository to readiness.CaseSource.
type caseSourceAdapter struct {
	repo cases.Repository
}

func toCaseInfo(sc *cases.SurgicalCase) *readiness.CaseInfo {
	return &readiness.CaseInfo{
		ID:            sc.ID,
		FacilityID:    sc.FacilityID,
		Status:        sc.Status,
		ScheduledDate: sc.ScheduledDate,
		Active:        sc.Active(),
	}
}

func (a *caseSourceAdapter) GetCase(ctx context.Context, id uuid.UUID) (*readiness.CaseInfo, error) {
	sc, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCaseInfo(sc), nil
}

func (a *caseSourceAdapter) ListScheduled(ctx context.Context, facilityID uuid.UUID, date time.Time) ([]*readiness.CaseInfo, error) {
	scheduled, err := a.repo.ListScheduled(ctx, facilityID, date)
	if err != nil {
		return nil, err
	}
	infos := make([]*readiness.CaseInfo, 0, len(scheduled))
	for _, sc := range scheduled {
		infos = append(infos, toCaseInfo(sc))
	}
	return infos, nil
}

func (a *caseSourceAdapter) LastMutationAt(ctx context.Context, facilityID uuid.UUID, date time.Time) (*time.Time, error) {
	return a.repo.LastMutationAt(ctx, facilityID, date)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "asc-server",
		Short: "ASC inventory and case readiness API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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
			schema, _ := cmd.Flags().GetString("schema")
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

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Use Atlas CLI for migration rollback: atlas schema apply --dir migrations/")
			return nil
		},
	})

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

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

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, ""); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully. Run migrations with: asc-server migrate up --schema tenant_" + name)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// Tenant middleware
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Catalog domain
	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogSvc)
	catalogHandler.RegisterRoutes(apiV1)

	// Inventory domain
	inventoryRepo := inventory.NewRepoPG(pool)
	inventorySvc := inventory.NewService(inventoryRepo, catalogRepo, inventory.RiskDefaults{
		WarningDays: cfg.RiskWarningDays,
		OrangeDays:  cfg.RiskOrangeDays,
	})
	inventoryHandler := inventory.NewHandler(inventorySvc)
	inventoryHandler.RegisterRoutes(apiV1)

	// Cases domain. Cancelling a case releases its reservations.
	caseRepo := cases.NewRepoPG(pool)
	caseSvc := cases.NewService(caseRepo, inventoryRepo)
	caseHandler := cases.NewHandler(caseSvc)
	caseHandler.RegisterRoutes(apiV1)

	// Preference card domain
	cardRepo := prefcard.NewRepoPG(pool)
	cardSvc := prefcard.NewService(cardRepo, catalogRepo)
	cardHandler := prefcard.NewHandler(cardSvc)
	cardHandler.RegisterRoutes(apiV1)

	// Readiness engine
	attestationRepo := readiness.NewAttestationRepoPG(pool)
	readinessSvc := readiness.NewService(
		attestationRepo,
		&requirementResolverAdapter{cases: caseRepo, cards: cardSvc},
		&instanceSourceAdapter{repo: inventoryRepo},
		&instanceReserverAdapter{repo: inventoryRepo},
		&caseSourceAdapter{repo: caseRepo},
		readiness.Config{
			Policy: readiness.VerifyPolicy{
				Mode:            cfg.VerifyPolicyMode,
				FreshnessWindow: cfg.FreshnessWindow(),
			},
			RollupCacheTTL: cfg.RollupCacheTTL(),
		},
	)
	readinessHandler := readiness.NewHandler(readinessSvc)
	readinessHandler.RegisterRoutes(apiV1)

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
