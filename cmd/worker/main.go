package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/01101001raj/dms-backend/internal/catalog"
	"github.com/01101001raj/dms-backend/internal/cron"
	"github.com/01101001raj/dms-backend/internal/notifications"
	"github.com/01101001raj/dms-backend/internal/orders"
	"github.com/01101001raj/dms-backend/internal/schemes"
	"github.com/01101001raj/dms-backend/pkg/config"
	"github.com/01101001raj/dms-backend/pkg/db"
	"github.com/01101001raj/dms-backend/pkg/logger"
	"github.com/01101001raj/dms-backend/pkg/metrics"
	"github.com/01101001raj/dms-backend/pkg/migrate"
	"github.com/01101001raj/dms-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	ordersRepo := orders.NewRepository(dbClient.DB())

	var schemeCache *schemes.Cache
	if cfg.Schemes.CacheTTL > 0 {
		schemeCache, err = schemes.NewCache(redisClient, cfg.Schemes.CacheTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create scheme cache", err)
			os.Exit(1)
		}
	}
	schemesSvc, err := schemes.NewService(
		schemes.NewRepository(dbClient.DB()),
		schemeCache,
		catalogRepo,
		notifications.NewRepository(dbClient.DB()),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheme service", err)
		os.Exit(1)
	}

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	lock, err := cron.NewRedisLock(redisClient, lockKey(redisClient, cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	auditJob, err := cron.NewTotalsAuditJob(cron.TotalsAuditJobParams{
		Logger:  logg,
		Orders:  ordersRepo,
		Catalog: catalogSvc,
		Metrics: engineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create totals audit job", err)
		os.Exit(1)
	}

	warmJob, err := cron.NewSchemeCacheWarmJob(cron.SchemeCacheWarmJobParams{
		Logger:  logg,
		Schemes: schemesSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheme cache warm job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(warmJob, auditJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

func lockKey(client *redis.Client, env string) string {
	if env == "" {
		env = "local"
	}
	return client.LockKey("worker", fmt.Sprintf("env-%s", env))
}
