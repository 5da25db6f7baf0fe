package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/enrollment/internal/app/controllers"
	appMigrations "github.com/yigit/enrollment/internal/app/migrations"
	appRepos "github.com/yigit/enrollment/internal/app/repositories"
	appRoutes "github.com/yigit/enrollment/internal/app/routes"
	appServices "github.com/yigit/enrollment/internal/app/services"
	"github.com/yigit/enrollment/internal/config"
	"github.com/yigit/enrollment/internal/db"
	appMiddleware "github.com/yigit/enrollment/internal/middleware"
	pkgAuth "github.com/yigit/enrollment/internal/pkg/auth"
	"github.com/yigit/enrollment/internal/pkg/cache"
	"github.com/yigit/enrollment/internal/pkg/helpers"
	"github.com/yigit/enrollment/internal/pkg/logger"
	"github.com/yigit/enrollment/internal/pkg/validation"
)

// DefaultConfigPath is used when no --config flag is given
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Gateway           appRepos.Gateway
	Cache             cache.Store
	EnrollmentService appServices.EnrollmentService
	OfferingService   appServices.OfferingService
	JWTService        *pkgAuth.JWTService
	AuthMiddleware    *appMiddleware.AuthMiddleware
	Controllers       appRoutes.Controllers
	Logger            zerolog.Logger
}

// Close releases the database and cache connections
func (d *Dependencies) Close() error {
	var err error
	if d.Cache != nil {
		err = errors.Join(err, d.Cache.Close())
	}
	if d.Gateway != nil {
		err = errors.Join(err, d.Gateway.Close())
	}
	return err
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// OpenGateway connects to the configured database and applies pending migrations.
func OpenGateway(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.Gateway, error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case config.DriverSQLite:
		lgr.Info().Str("path", cfg.Database.SQLitePath).Msg("Opening SQLite database...")
		gw, err := appRepos.OpenSQLiteGateway(ctx, cfg.Database.SQLitePath)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to open SQLite database")
			return nil, err
		}
		lgr.Info().Msg("SQLite database ready.")
		return gw, nil

	case config.DriverPostgres:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		lgr.Info().Msg("Running database migrations...")
		if err := appMigrations.NewMigrator(database.Pool).Migrate(ctx); err != nil {
			database.Close()
			lgr.Error().Err(err).Msg("Database migration error")
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")
		return appRepos.NewPostgresGateway(database), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// OpenCache builds the configured cache store. An unreachable Redis is not
// fatal: reads fall back to the database until it comes back.
func OpenCache(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) cache.Store {
	switch strings.ToLower(cfg.Cache.Driver) {
	case config.CacheRedis:
		store := cache.NewRedisStore(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddr,
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			OpTimeout: cfg.Cache.OpTimeout,
		})
		if err := store.Ping(ctx); err != nil {
			lgr.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("Redis not reachable, serving from the database until it is")
		} else {
			lgr.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Redis cache connected")
		}
		return store
	case config.CacheMemory:
		lgr.Info().Msg("Using in-process memory cache")
		return cache.NewMemoryStore()
	default:
		lgr.Info().Msg("Cache disabled")
		return cache.Disabled{}
	}
}

// BuildDependencies initializes application services and controllers.
func BuildDependencies(cfg *config.Config, gateway appRepos.Gateway, store cache.Store, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{
		Gateway: gateway,
		Cache:   store,
		Logger:  lgr,
	}

	offeringCache := appServices.NewOfferingCache(store, appServices.OfferingCacheConfig{
		KeyPrefix:      cfg.Cache.KeyPrefix,
		SnapshotTTL:    cfg.Cache.SnapshotTTL,
		LastVisitedTTL: cfg.Cache.LastVisitedTTL,
	}, logger.Component("offering_cache"))
	ledger := appServices.NewCapacityLedger(cfg.Enrollment.CountPendingAtCreation)

	deps.EnrollmentService = appServices.NewEnrollmentService(
		gateway,
		ledger,
		offeringCache,
		appServices.EnrollmentConfig{ConflictRetries: cfg.Enrollment.ConflictRetries},
		logger.Component("enrollment_service"),
	)
	deps.OfferingService = appServices.NewOfferingService(gateway, ledger, offeringCache, logger.Component("offering_service"))

	deps.JWTService = NewJWTService(cfg)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Offering:      appControllers.NewOfferingController(deps.OfferingService),
		Enrollment:    appControllers.NewEnrollmentController(deps.EnrollmentService),
		AdminOffering: appControllers.NewAdminOfferingController(deps.OfferingService, deps.EnrollmentService),
	}

	return deps
}

// NewJWTService builds the token service from the jwt config section
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	production := strings.ToLower(cfg.Server.Mode) == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.RegisterWith(binding.Validator.Engine()); err != nil {
		lgr.Warn().Err(err).Msg("Custom validation rules not registered with the request binder")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.Timeout(cfg.Server.RequestTimeout),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, production)

	return router
}
