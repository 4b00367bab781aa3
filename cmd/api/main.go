package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/controllers"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/routes"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/analytics"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/bids"
	checkoutsvc "github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/checkout"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/inspections"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/jobs"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/media"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/notifications"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/payments"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/posintegrations"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/providers"
	stripewebhook "github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/webhooks/stripe"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/clover"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/metrics"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/migrate"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/redis"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/square"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/storage/gcs"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	_, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	var squareClient posintegrations.SquareAPI
	if cfg.Square.AccessToken != "" {
		client, err := square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap square", err)
			os.Exit(1)
		}
		squareClient = client
	}

	var cloverClient posintegrations.CloverAPI
	if cfg.Clover.APIToken != "" {
		client, err := clover.NewClient(cfg.Clover, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap clover", err)
			os.Exit(1)
		}
		cloverClient = client
	}

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	providersRepo := providers.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)

	providersService, err := providers.NewService(providersRepo)
	requireService(logg, "providers", err)

	bidsService, err := bids.NewService(bids.NewRepository(gormDB), providersRepo, outboxService, dbClient)
	requireService(logg, "bids", err)

	jobsService, err := jobs.NewService(jobs.NewRepository(gormDB), providersRepo, outboxService, dbClient)
	requireService(logg, "jobs", err)

	inspectionsService, err := inspections.NewService(inspections.NewRepository(gormDB))
	requireService(logg, "inspections", err)

	paymentsService, err := payments.NewService(paymentsRepo, payments.NewStripeIntentClient(), logg)
	requireService(logg, "payments", err)

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), outboxService, dbClient)
	requireService(logg, "notifications", err)

	checkoutService, err := checkoutsvc.NewService(
		checkoutsvc.NewRepository(gormDB),
		providersRepo,
		paymentsService,
		paymentsRepo,
		inspectionsService,
		redisClient,
		outboxService,
		dbClient,
		cfg.Checkout,
		logg,
	)
	requireService(logg, "checkout", err)

	posService, err := posintegrations.NewService(posintegrations.NewRepository(gormDB), squareClient, cloverClient, logg)
	requireService(logg, "posintegrations", err)

	mediaService, err := media.NewService(media.NewRepository(gormDB), gcsClient, cfg.GCS.BucketName, cfg.GCS.UploadURLExpiry, cfg.GCS.DownloadURLExpiry)
	requireService(logg, "media", err)

	analyticsService, err := analytics.NewService(analytics.NewRepository(gormDB))
	requireService(logg, "analytics", err)

	webhookHandler, err := stripewebhook.NewHandler(cfg.Stripe.Secret, paymentsService, checkoutService, redisClient, logg)
	requireService(logg, "stripe webhook", err)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(routes.RouterParams{
		Config:      cfg,
		Logger:      logg,
		Redis:       redisClient,
		HTTPMetrics: httpMetrics,
		HealthPingers: map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
			"gcs":      gcsClient,
		},
		Providers:       providersService,
		Bids:            bidsService,
		Jobs:            jobsService,
		Inspections:     inspectionsService,
		Checkout:        checkoutService,
		Payments:        paymentsService,
		POSIntegrations: posService,
		Media:           mediaService,
		Analytics:       analyticsService,
		Notifications:   notificationsService,
		StripeWebhook:   webhookHandler,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name+" service", err)
		os.Exit(1)
	}
}
