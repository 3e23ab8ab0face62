// Package container provides dependency injection using Uber FX
package container

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/platewise/v2/internal/application/planner"
	"github.com/platewise/v2/internal/infrastructure/ai/openai"
	"github.com/platewise/v2/internal/infrastructure/cache"
	"github.com/platewise/v2/internal/infrastructure/config"
	"github.com/platewise/v2/internal/infrastructure/http/apiserver"
	"github.com/platewise/v2/internal/infrastructure/monitoring"
	"github.com/platewise/v2/internal/ports/inbound"
	"github.com/platewise/v2/internal/ports/outbound"
	"github.com/platewise/v2/pkg/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	CacheModule,
	MetricsModule,

	// AI provider
	AIModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
		})
	},
)

// CacheModule provides the cache repository and the plan cache built on it.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, error) {
		if !cfg.Features.UseRedisCache {
			log.Info("Using in-memory cache")
			return cache.NewLocalRepository(), nil
		}

		repo, err := cache.NewRedisRepository(context.Background(), cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			Database:     cfg.Redis.Database,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		}, log)
		if err != nil {
			return nil, err
		}

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return repo.Close()
			},
		})
		return repo, nil
	},

	// Plan cache is optional; the planner treats a nil cache as disabled.
	func(cfg *config.Config, repo outbound.CacheRepository, log *zap.Logger) planner.PlanCache {
		if !cfg.Features.EnablePlanCache {
			return nil
		}
		return cache.NewPlanCache(repo, cfg.AI.CacheTTL, log)
	},
)

// MetricsModule provides the Prometheus registry and pipeline metrics.
var MetricsModule = fx.Provide(
	prometheus.NewRegistry,
	func(reg *prometheus.Registry) prometheus.Gatherer {
		return reg
	},
	func(reg *prometheus.Registry) *monitoring.PipelineMetrics {
		return monitoring.NewPipelineMetrics(reg)
	},
)

// AIModule provides the text generation client.
var AIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.TextGenerator {
		return openai.NewClient(openai.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Timeout: cfg.AI.Timeout,
		}, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		cfg *config.Config,
		textGen outbound.TextGenerator,
		planCache planner.PlanCache,
		metrics *monitoring.PipelineMetrics,
		log *zap.Logger,
	) (inbound.PlanService, error) {
		return planner.NewService(planner.Config{
			Strategy:       planner.Strategy(cfg.AI.Strategy),
			Model:          cfg.AI.Model,
			FallbackModel:  cfg.AI.FallbackModel,
			Temperature:    cfg.AI.Temperature,
			MaxTokens:      cfg.AI.MaxTokens,
			Stream:         cfg.AI.Stream,
			Timeout:        cfg.AI.Timeout,
			InterCallDelay: cfg.AI.InterCallDelay,
			CalorieDelta:   cfg.AI.CalorieDelta,
		}, textGen, planCache, metrics, log)
	},
)

// HTTPModule provides the HTTP server
var HTTPModule = fx.Provide(
	apiserver.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Platewise application",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := server.Start(); err != nil {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Platewise application")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()

			return nil
		},
	})
}
