// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	aiapp "github.com/nutriplan/planner/internal/application/ai"
	"github.com/nutriplan/planner/internal/application/moderation"
	planapp "github.com/nutriplan/planner/internal/application/plan"
	"github.com/nutriplan/planner/internal/application/prompt"
	aiinfra "github.com/nutriplan/planner/internal/infrastructure/ai"
	"github.com/nutriplan/planner/internal/infrastructure/config"
	"github.com/nutriplan/planner/internal/infrastructure/messaging"
	"github.com/nutriplan/planner/internal/infrastructure/monitoring"
	gormRepo "github.com/nutriplan/planner/internal/infrastructure/persistence/gorm"
	"github.com/nutriplan/planner/internal/infrastructure/persistence/memory"
	"github.com/nutriplan/planner/internal/infrastructure/persistence/migrations"
	"github.com/nutriplan/planner/internal/infrastructure/persistence/postgres"
	redisCache "github.com/nutriplan/planner/internal/infrastructure/persistence/redis"
	"github.com/nutriplan/planner/internal/infrastructure/persistence/sqlite"
	"github.com/nutriplan/planner/internal/ports/inbound"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/nutriplan/planner/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath names the config file to load. Empty searches the default paths.
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	TelemetryModule,

	// Repository modules
	RepositoryModule,

	// Model modules
	AIModule,

	// Service modules
	ServiceModule,

	// Event modules
	EventModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	NewDatabase,
)

// NewDatabase opens the configured database and brings its schema up to date.
// SQLite is migrated from the models; PostgreSQL runs the embedded migrations.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return cm.Close() }})

		if cfg.Database.AutoMigrate {
			if err := migrateUp(cm, cfg, log); err != nil {
				return nil, err
			}
		}
		return cm.GetDB(), nil

	default:
		db, err := sqlite.SetupDatabase(cfg.Database.Path,
			gormRepo.NewLogger(log, cfg.Database.LogLevel, cfg.Database.SlowQueryThreshold))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}})

		if cfg.Database.Seed {
			if err := sqlite.SeedDatabase(db); err != nil {
				log.Warn("Failed to seed database", zap.Error(err))
			}
		}

		log.Debug("Connected to SQLite database", zap.String("path", cfg.Database.Path))
		return db, nil
	}
}

// migrateUp leaves the Migrator open since closing it would close the
// shared pool
func migrateUp(cm *postgres.ConnectionManager, cfg *config.Config, log *zap.Logger) error {
	m, err := migrations.New(cm.SQLDB(), cfg.Database.Database, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return m.Up(ctx)
}

// CacheModule provides the style sample cache
var CacheModule = fx.Provide(
	NewSampleCache,
)

// NewSampleCache uses Redis when a host is configured and an in-process
// cache otherwise. An unreachable Redis falls back to memory.
func NewSampleCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) outbound.SampleCache {
	addr := cfg.RedisAddr()
	if addr == "" {
		log.Debug("Using in-memory sample cache")
		return memory.NewSampleCache(cfg.Redis.SampleTTL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := redisCache.NewClient(ctx, redisCache.Config{
		Addr:         addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory sample cache", zap.String("addr", addr), zap.Error(err))
		return memory.NewSampleCache(cfg.Redis.SampleTTL)
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})

	return redisCache.NewSampleCache(client, cfg.Redis.SampleTTL, log)
}

// TelemetryModule provides metrics and tracing
var TelemetryModule = fx.Provide(
	fx.Annotate(
		monitoring.NewMetricsCollector,
		fx.As(fx.Self()),
		fx.As(new(outbound.PipelineMetrics)),
	),
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			Endpoint:       cfg.Monitoring.OTLPEndpoint,
			Insecure:       cfg.Monitoring.OTLPInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	// Recipe catalog
	fx.Annotate(
		gormRepo.NewRecipeRepository,
		fx.As(new(outbound.RecipeCatalog)),
	),

	// Plan repository
	fx.Annotate(
		gormRepo.NewPlanRepository,
		fx.As(new(outbound.PlanRepository)),
	),

	// Consumer profiles
	fx.Annotate(
		gormRepo.NewUserRepository,
		fx.As(fx.Self()),
		fx.As(new(outbound.ProfileSupplier)),
	),
)

// AIModule provides the text model provider chain
var AIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) ([]outbound.TextModel, error) {
		return aiinfra.BuildProviders(context.Background(), cfg.AI, log)
	},
	func(lc fx.Lifecycle, providers []outbound.TextModel, cfg *config.Config, metrics outbound.PipelineMetrics, log *zap.Logger) *aiapp.Service {
		svc := aiapp.NewService(providers, aiapp.Options{
			Defaults:          tuning(cfg.AI),
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			Burst:             cfg.AI.Burst,
		}, metrics, log)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return svc.Close() }})
		return svc
	},
	aiinfra.NewHealthChecker,
)

func tuning(ai config.AIConfig) aiapp.Defaults {
	temp := float32(ai.Temperature)
	return aiapp.Defaults{
		Model:           ai.Model,
		Temperature:     &temp,
		MaxOutputTokens: int32(ai.MaxOutputTokens),
	}
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	prompt.NewCompiler,

	// Plan service
	fx.Annotate(
		func(
			profiles outbound.ProfileSupplier,
			catalog outbound.RecipeCatalog,
			plans outbound.PlanRepository,
			sampleCache outbound.SampleCache,
			model *aiapp.Service,
			compiler *prompt.Compiler,
			events outbound.EventPublisher,
			metrics outbound.PipelineMetrics,
			cfg *config.Config,
			log *zap.Logger,
		) *planapp.Service {
			return planapp.NewService(profiles, catalog, plans, sampleCache, model, compiler, events, metrics,
				planapp.Options{SampleSize: cfg.Planner.SampleSize}, log)
		},
		fx.As(new(inbound.PlanService)),
	),

	// Moderation service
	fx.Annotate(
		moderation.NewService,
		fx.As(new(inbound.ModerationService)),
	),
)

// EventModule provides event handling
var EventModule = fx.Provide(
	fx.Annotate(
		messaging.NewEventDispatcher,
		fx.As(fx.Self()),
		fx.As(new(outbound.EventPublisher)),
	),
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks watches the config file for model tuning changes
// and flushes telemetry on shutdown
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	path ConfigPath,
	cfg *config.Config,
	log *zap.Logger,
	aiService *aiapp.Service,
	metrics *monitoring.MetricsCollector,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Debug("Starting NutriPlan",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			watching, err := config.WatchModelTuning(string(path), log, func(ai config.AIConfig) {
				aiService.UpdateDefaults(tuning(ai))
			})
			if err != nil {
				log.Warn("Model tuning reload disabled", zap.Error(err))
			} else if watching {
				log.Debug("Watching config file for model tuning changes")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cfg.Monitoring.EnableMetrics {
				_ = metrics.Push(ctx, cfg.Monitoring.PushgatewayURL, cfg.App.Name)
			}

			// Sync logger
			_ = log.Sync()
			return nil
		},
	})
}
