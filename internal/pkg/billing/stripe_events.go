package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lwas/economy/app/models"
)

// Stripe event types driving the subscription lifecycle.
const (
	StripeEventCheckoutCompleted   = "checkout.session.completed"
	StripeEventInvoicePaid         = "invoice.paid"
	StripeEventPaymentFailed       = "invoice.payment_failed"
	StripeEventSubscriptionDeleted = "customer.subscription.deleted"
)

const stripeSignatureHeader = "Stripe-Signature"

type stripeVerifier struct {
	secret string
}

// NewStripeVerifier verifies the Stripe-Signature header against the webhook
// signing secret.
func NewStripeVerifier(secret string) Verifier {
	return stripeVerifier{secret: secret}
}

func (v stripeVerifier) Verify(_ context.Context, headers http.Header, body []byte, now time.Time) error {
	return VerifyStripeWebhookSignature(body, headers.Get(stripeSignatureHeader), v.secret, now)
}

// ParseStripeEvent decodes the Stripe wire envelope. The nested object is kept
// raw and decoded per type inside the matching handler.
func ParseStripeEvent(body []byte) (*Event, error) {
	var raw struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Created int64  `json:"created"`
		Data    struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
		Livemode bool `json:"livemode"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid stripe event: %w", err)
	}
	if strings.TrimSpace(raw.ID) == "" || strings.TrimSpace(raw.Type) == "" {
		return nil, fmt.Errorf("stripe event missing id or type")
	}
	return &Event{
		ID:      raw.ID,
		Type:    raw.Type,
		Created: time.Unix(raw.Created, 0),
		Object:  raw.Data.Object,
	}, nil
}

// checkoutSession is the per-type payload decoded lazily inside the
// checkout-completed branch.
type checkoutSession struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	CustomerEmail string            `json:"customer_email"`
	Subscription  string            `json:"subscription"`
	AmountTotal   *int64            `json:"amount_total"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

// StripeHandlers builds the fixed handler table for the Stripe dispatcher.
func StripeHandlers(registry SubscriptionRegistry) map[string]HandlerFunc {
	return map[string]HandlerFunc{
		StripeEventCheckoutCompleted:   handleCheckoutCompleted(registry),
		StripeEventInvoicePaid:         handleInvoicePaid,
		StripeEventPaymentFailed:       handlePaymentFailed,
		StripeEventSubscriptionDeleted: handleSubscriptionDeleted(registry),
	}
}

func handleCheckoutCompleted(registry SubscriptionRegistry) HandlerFunc {
	return func(_ context.Context, ev *Event) (*OutcomeDetail, error) {
		var session checkoutSession
		if err := json.Unmarshal(ev.Object, &session); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session: %w", err)
		}

		email := strings.TrimSpace(session.CustomerEmail)
		if email == "" {
			return nil, fmt.Errorf("checkout session %s has no customer email", session.ID)
		}
		planCode := session.Metadata["plan"]
		if planCode == "" {
			planCode = "pro_monthly"
		}

		sub := registry.Activate(email, session.Customer, session.Subscription, planCode)
		return &OutcomeDetail{
			CustomerKey:    email,
			SubscriptionID: sub.ProviderSubscriptionID,
			PlanCode:       sub.PlanCode,
			AmountCents:    session.AmountTotal,
		}, nil
	}
}

func handleInvoicePaid(_ context.Context, ev *Event) (*OutcomeDetail, error) {
	var invoice struct {
		CustomerEmail string `json:"customer_email"`
		AmountPaid    *int64 `json:"amount_paid"`
	}
	if err := json.Unmarshal(ev.Object, &invoice); err != nil {
		return nil, fmt.Errorf("failed to parse invoice: %w", err)
	}
	// A paid invoice does not change subscription status in the minimal model.
	return &OutcomeDetail{CustomerKey: invoice.CustomerEmail, AmountCents: invoice.AmountPaid}, nil
}

func handlePaymentFailed(_ context.Context, ev *Event) (*OutcomeDetail, error) {
	var invoice struct {
		CustomerEmail string `json:"customer_email"`
	}
	if err := json.Unmarshal(ev.Object, &invoice); err != nil {
		return nil, fmt.Errorf("failed to parse invoice: %w", err)
	}
	// TODO: notify the customer once the mail subsystem exists.
	return &OutcomeDetail{CustomerKey: invoice.CustomerEmail}, nil
}

func handleSubscriptionDeleted(registry SubscriptionRegistry) HandlerFunc {
	return func(_ context.Context, ev *Event) (*OutcomeDetail, error) {
		var sub struct {
			ID            string `json:"id"`
			CustomerEmail string `json:"customer_email"`
		}
		if err := json.Unmarshal(ev.Object, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		email := strings.TrimSpace(sub.CustomerEmail)
		if email == "" {
			return nil, nil
		}
		registry.Cancel(email)
		return &OutcomeDetail{CustomerKey: email, SubscriptionID: sub.ID}, nil
	}
}

// NewStripeDispatcher wires the full Stripe pipeline.
func NewStripeDispatcher(webhookSecret string, ledger *IdempotencyLedger, registry SubscriptionRegistry, audit AuditSink) *Dispatcher {
	return NewDispatcher(
		models.BillingProviderStripe,
		NewStripeVerifier(webhookSecret),
		ParseStripeEvent,
		ledger,
		StripeHandlers(registry),
		audit,
	)
}
