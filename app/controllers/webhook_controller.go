package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/lwas/economy/internal/pkg/billing"
)

var (
	stripeDispatcher *billing.Dispatcher
	paypalDispatcher *billing.Dispatcher
	stripeClient     *billing.StripeClient
	registry         billing.SubscriptionRegistry
	validate         = validator.New()
)

// InitializeWebhookController wires the controller package with the shared
// pipeline instances built at startup.
func InitializeWebhookController(stripe, paypal *billing.Dispatcher, client *billing.StripeClient, reg billing.SubscriptionRegistry) {
	stripeDispatcher = stripe
	paypalDispatcher = paypal
	stripeClient = client
	registry = reg
}

// HandleStripeWebhook receives Stripe event notifications.
func HandleStripeWebhook(c *fiber.Ctx) error {
	return handleWebhook(c, stripeDispatcher)
}

// HandlePayPalWebhook receives PayPal event notifications through the same
// verify, dedup, route, record pipeline as Stripe.
func HandlePayPalWebhook(c *fiber.Ctx) error {
	return handleWebhook(c, paypalDispatcher)
}

func handleWebhook(c *fiber.Ctx, dispatcher *billing.Dispatcher) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result := dispatcher.Dispatch(ctx, requestHeaders(c), rawBody)
	switch result.State {
	case billing.StateRejected:
		if errors.Is(result.Err, billing.ErrMissingSignatureHeader) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_signature"})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	case billing.StateMalformed:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	case billing.StateDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	case billing.StateFailed:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": result.Err.Error()})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}

// PortalSessionRequest is the inbound body for portal session creation.
type PortalSessionRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	ReturnURL  string `json:"return_url" validate:"omitempty,url"`
}

// HandleStripePortalSession creates a customer billing portal session.
func HandleStripePortalSession(c *fiber.Ctx) error {
	var req PortalSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	session, err := stripeClient.CreatePortalSession(ctx, req.CustomerID, req.ReturnURL)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "portal_session_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": session.URL})
}
