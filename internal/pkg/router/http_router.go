package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/lwas/economy/app/controllers"
	"github.com/lwas/economy/app/models"
	"github.com/lwas/economy/internal/pkg/billing"
	"github.com/lwas/economy/internal/pkg/cache"
	"github.com/lwas/economy/internal/pkg/env"
	"github.com/lwas/economy/internal/pkg/paypal"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Shared pipeline state: one ledger and one registry across providers,
	// owned here and handed to the dispatchers.
	ledger := billing.NewIdempotencyLedger(cache.GetClient())
	registry := billing.NewSubscriptionRegistry()
	audit := billing.NewLogAuditSink()

	stripeDispatcher := billing.NewStripeDispatcher(
		env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		ledger,
		registry,
		audit,
	)

	paypalClient := paypal.NewClientFromEnv()
	paypalDispatcher := billing.NewDispatcher(
		models.BillingProviderPayPal,
		paypal.NewWebhookVerifier(paypalClient),
		billing.ParsePayPalEvent,
		ledger,
		billing.PayPalHandlers(registry),
		audit,
	)

	controllers.InitializeWebhookController(
		stripeDispatcher,
		paypalDispatcher,
		billing.NewStripeClientFromEnv(),
		registry,
	)

	app.Get("/health", controllers.HandleHealth)

	stripeGroup := app.Group("/stripe", limiter.New())
	stripeGroup.Post("/webhook", controllers.HandleStripeWebhook)
	stripeGroup.Post("/portal", controllers.HandleStripePortalSession)

	paypalGroup := app.Group("/paypal", limiter.New())
	paypalGroup.Post("/webhook", controllers.HandlePayPalWebhook)

	h.registerAdminRoutes(app)
}

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminAuth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASS", "test"),
		},
	})
	adminGroup := app.Group("/admin", adminAuth)
	adminGroup.Get("/counters", controllers.HandleWebhookCounters)
	adminGroup.Get("/subscriptions/:key", controllers.HandleSubscriptionLookup)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
