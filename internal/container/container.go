package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/ocop-products/app/db"
	"github.com/FACorreiaa/ocop-products/app/observability/metrics"
	"github.com/FACorreiaa/ocop-products/config"
	"github.com/FACorreiaa/ocop-products/internal/api/auth"
	"github.com/FACorreiaa/ocop-products/internal/api/dashboard"
	"github.com/FACorreiaa/ocop-products/internal/api/export"
	"github.com/FACorreiaa/ocop-products/internal/api/product"
	"github.com/FACorreiaa/ocop-products/internal/api/user"
	"github.com/FACorreiaa/ocop-products/pkg/password"
	"github.com/FACorreiaa/ocop-products/pkg/token"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	AuthService      auth.AuthService
	Gate             *auth.Gate
	AuthHandler      *auth.AuthHandler
	UserHandler      *user.HandlerImpl
	ProductHandler   *product.HandlerImpl
	DashboardHandler *dashboard.HandlerImpl
	ExportHandler    *export.HandlerImpl
}

// NewContainer opens the connection pool and wires every component on top of it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	maxWait := time.Duration(cfg.Repositories.Postgres.MAXCONWAITINGTIME) * time.Second
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, maxWait, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c, err := Build(cfg, database.Instrument(pool, metrics.Get()), logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	c.Pool = pool
	return c, nil
}

// Build wires repositories, services and handlers over q.
func Build(cfg *config.Config, q database.Querier, logger *slog.Logger) (*Container, error) {
	tokens, err := token.NewManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	hasher := password.NewHasher(cfg.Auth.BcryptCost)

	// Initialize repositories
	authRepo := auth.NewPostgresAuthRepo(q, logger)
	userRepo := user.NewPostgresUserRepo(q, logger)
	productRepo := product.NewPostgresProductRepo(q, logger)
	dashboardRepo := dashboard.NewPostgresDashboardRepo(q, logger)

	// Initialize services
	authService := auth.NewAuthService(authRepo, hasher, tokens, cfg.Auth.ResetTokenTTL, logger)
	userService := user.NewUserService(userRepo, logger)
	productService := product.NewProductService(productRepo, logger)
	dashboardService := dashboard.NewDashboardService(dashboardRepo, cfg.Cache.DashboardTTL, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		AuthService:      authService,
		Gate:             auth.NewGate(tokens, authRepo, logger),
		AuthHandler:      auth.NewAuthHandler(authService, logger, cfg.Auth.ExposeResetToken),
		UserHandler:      user.NewHandlerImpl(userService, logger),
		ProductHandler:   product.NewHandlerImpl(productService, logger),
		DashboardHandler: dashboard.NewHandlerImpl(dashboardService, logger),
		ExportHandler:    export.NewHandlerImpl(productService, userService, dashboardService, logger),
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
