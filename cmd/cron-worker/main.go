package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/checkout"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/cron"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/inspections"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/notifications"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/payments"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/providers"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/metrics"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/redis"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	_, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	checkoutRepo := checkout.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)

	paymentsService, err := payments.NewService(paymentsRepo, payments.NewStripeIntentClient(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), outboxService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	inspectionsService, err := inspections.NewService(inspections.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create inspections service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		checkoutRepo,
		providers.NewRepository(gormDB),
		paymentsService,
		paymentsRepo,
		inspectionsService,
		redisClient,
		outboxService,
		dbClient,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewCheckoutSweepJob(logg, checkoutService)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout sweep job", err)
		os.Exit(1)
	}

	reminderJob, err := cron.NewReminderDispatchJob(cron.ReminderDispatchJobParams{
		Logger:   logg,
		Repo:     checkoutRepo,
		Notifier: notificationsService,
		Emitter:  outboxService,
		Tx:       dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder dispatch job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewNotificationRetentionJob(logg, notifications.NewRepository(gormDB), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, reminderJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down gracefully")
}
