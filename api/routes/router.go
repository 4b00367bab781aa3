package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/controllers"
	webhookcontrollers "github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/controllers/webhooks"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/middleware"
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
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/metrics"
	pkgredis "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         pkgredis.IdempotencyStore
	HTTPMetrics   *metrics.HTTPMetrics
	HealthPingers map[string]controllers.Pinger

	Providers       providers.Service
	Bids            bids.Service
	Jobs            jobs.Service
	Inspections     inspections.Service
	Checkout        checkoutsvc.Service
	Payments        payments.Service
	POSIntegrations posintegrations.Service
	Media           media.Service
	Analytics       analytics.Service
	Notifications   notifications.Service
	StripeWebhook   webhookcontrollers.StripeHandler
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.HealthPingers))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhook, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/providers", func(r chi.Router) {
			r.Get("/me", controllers.GetProviderProfile(p.Providers, logg))
			r.Put("/me", controllers.UpdateProviderProfile(p.Providers, logg))
			r.Get("/me/offerings", controllers.ListOfferings(p.Providers, logg))
			r.Post("/me/offerings", controllers.SaveOffering(p.Providers, logg))
		})

		r.Route("/bids", func(r chi.Router) {
			r.Post("/", controllers.SubmitBid(p.Bids, logg))
			r.Put("/", controllers.UpdateBid(p.Bids, logg))
			r.Get("/mine", controllers.ListMyBids(p.Bids, logg))
			r.Get("/jobs/{jobID}/stats", controllers.BidStats(p.Bids, logg))
			r.Post("/classify", controllers.ClassifyBid(p.Bids, logg))
			r.Post("/batch-quote", controllers.BatchQuote(p.Bids, logg))
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", controllers.ListJobs(p.Jobs, logg))
			r.Get("/{jobID}", controllers.GetJob(p.Jobs, logg))
			r.Post("/{jobID}/start", controllers.StartJob(p.Jobs, logg))
			r.Post("/{jobID}/complete", controllers.CompleteJob(p.Jobs, logg))
			r.Post("/{jobID}/schedule", controllers.ScheduleJob(p.Jobs, logg))
			r.Post("/{jobID}/transfer", controllers.AdvanceTransfer(p.Jobs, logg))
			r.Post("/{jobID}/evidence", controllers.SaveEvidence(p.Jobs, logg))
			r.Post("/{jobID}/key-exchange", controllers.RecordKeyExchange(p.Jobs, logg))
		})

		r.Route("/destinations", func(r chi.Router) {
			r.Get("/", controllers.ListDestinations(p.Jobs, logg))
			r.Post("/{taskID}/advance", controllers.AdvanceDestination(p.Jobs, logg))
		})

		r.Route("/inspections", func(r chi.Router) {
			r.Get("/template", controllers.GetInspectionTemplate(p.Inspections, logg))
			r.Post("/", controllers.RecordInspection(p.Inspections, logg))
		})
		r.Get("/vehicles/{vehicleID}/inspections", controllers.ListVehicleInspections(p.Inspections, logg))

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Post("/", controllers.StartCheckout(p.Checkout, logg))
			r.Get("/{sessionID}", controllers.GetCheckoutSession(p.Checkout, logg))
			r.Post("/{sessionID}/lookup", controllers.LookupCustomer(p.Checkout, logg))
			r.Post("/{sessionID}/verify", controllers.VerifyCustomer(p.Checkout, logg))
			r.Post("/{sessionID}/resume", controllers.ResumeJob(p.Checkout, logg))
			r.Post("/{sessionID}/vehicle", controllers.SelectVehicle(p.Checkout, logg))
			r.Post("/{sessionID}/service", controllers.EnterService(p.Checkout, logg))
			r.Post("/{sessionID}/authorize", controllers.AuthorizeCheckout(p.Checkout, logg))
			r.Post("/{sessionID}/confirm", controllers.ConfirmCheckoutPayment(p.Checkout, logg))
			r.Post("/{sessionID}/receipt", controllers.SendReceipt(p.Checkout, logg))
			r.Post("/{sessionID}/reminder", controllers.ScheduleReminder(p.Checkout, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.ListPayments(p.Payments, logg))
			r.Post("/intents", controllers.CreatePaymentIntent(p.Payments, logg))
			r.Post("/pos", controllers.RecordPOSPayment(p.Payments, logg))
			r.Get("/{paymentID}", controllers.GetPayment(p.Payments, logg))
			r.Post("/{paymentID}/verify", controllers.VerifyPaymentIntent(p.Payments, logg))
		})

		r.Route("/pos", func(r chi.Router) {
			r.Get("/connections", controllers.POSStatus(p.POSIntegrations, logg))
			r.Post("/connections", controllers.ConnectPOS(p.POSIntegrations, logg))
			r.Delete("/connections/{vendor}", controllers.DisconnectPOS(p.POSIntegrations, logg))
			r.Post("/connections/{vendor}/sync", controllers.SyncPOS(p.POSIntegrations, logg))
			r.Get("/transactions", controllers.ListPOSTransactions(p.POSIntegrations, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/presign", controllers.PresignMediaUpload(p.Media, logg))
			r.Post("/{mediaID}/confirm", controllers.ConfirmMediaUpload(p.Media, logg))
			r.Get("/{mediaID}/download", controllers.MediaDownloadURL(p.Media, logg))
		})

		r.Get("/analytics/summary", controllers.AnalyticsSummary(p.Analytics, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			r.Get("/preferences", controllers.ListNotificationPreferences(p.Notifications, logg))
			r.Put("/preferences", controllers.UpdateNotificationPreference(p.Notifications, logg))
			r.Post("/devices", controllers.RegisterPushDevice(p.Notifications, logg))
		})
	})

	return r
}
