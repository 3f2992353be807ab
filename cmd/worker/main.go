package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/refunds"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
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
	requireResource(logg, "database", err)

	requireResource(logg, "dev migrations", migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(logg, "pubsub", err)

	defer func() {
		if err := multierr.Combine(pubsubClient.Close(), redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	requireResource(logg, "event registry", err)

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(logg, "idempotency manager", err)

	notifier, err := notifications.NewEmailNotifier(notifications.NewMailer(cfg.Mail, logg), cfg.Mail)
	requireResource(logg, "email notifier", err)

	notificationConsumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Subscription: pubsubClient.NotificationSubscription(),
		Decoder:      eventRegistry,
		Idempotency:  manager,
		Orders:       orders.NewRepository(dbClient.DB()),
		Refunds:      refunds.NewRepository(dbClient.DB()),
		Deliveries:   notifications.NewRepository(dbClient.DB()),
		Notifier:     notifier,
		Metrics:      metrics.NewStorefront(prometheus.DefaultRegisterer),
		Logger:       logg,
	})
	requireResource(logg, "notification consumer", err)

	service, err := NewService(ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		PubSub:       pubsubClient,
		Notification: notificationConsumer,
	})
	requireResource(logg, "worker service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"instance":     instance.GetID(),
		"subscription": cfg.PubSub.NotificationSubscription,
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to bootstrap "+resource, err)
	os.Exit(1)
}
