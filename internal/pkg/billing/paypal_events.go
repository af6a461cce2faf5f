package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PayPal event types driving the subscription lifecycle.
const (
	PayPalEventCaptureCompleted      = "PAYMENT.CAPTURE.COMPLETED"
	PayPalEventSubscriptionCreated   = "BILLING.SUBSCRIPTION.CREATED"
	PayPalEventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
)

// ParsePayPalEvent decodes the PayPal wire envelope into the common envelope.
func ParsePayPalEvent(body []byte) (*Event, error) {
	var raw struct {
		ID           string          `json:"id"`
		EventType    string          `json:"event_type"`
		CreateTime   string          `json:"create_time"`
		ResourceType string          `json:"resource_type"`
		Resource     json.RawMessage `json:"resource"`
		Summary      string          `json:"summary"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid paypal event: %w", err)
	}
	if strings.TrimSpace(raw.ID) == "" || strings.TrimSpace(raw.EventType) == "" {
		return nil, fmt.Errorf("paypal event missing id or event_type")
	}
	created, err := time.Parse(time.RFC3339, raw.CreateTime)
	if err != nil {
		created = time.Time{}
	}
	return &Event{
		ID:      raw.ID,
		Type:    raw.EventType,
		Created: created,
		Object:  raw.Resource,
	}, nil
}

// PayPalHandlers builds the fixed handler table for the PayPal dispatcher. The
// lifecycle semantics mirror the Stripe table: created activates, cancelled
// cancels, captures are audit-only.
func PayPalHandlers(registry SubscriptionRegistry) map[string]HandlerFunc {
	return map[string]HandlerFunc{
		PayPalEventCaptureCompleted:      handlePayPalCaptureCompleted,
		PayPalEventSubscriptionCreated:   handlePayPalSubscriptionCreated(registry),
		PayPalEventSubscriptionCancelled: handlePayPalSubscriptionCancelled(registry),
	}
}

type paypalSubscriptionResource struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Subscriber struct {
		EmailAddress string `json:"email_address"`
		PayerID      string `json:"payer_id"`
	} `json:"subscriber"`
}

func handlePayPalCaptureCompleted(_ context.Context, ev *Event) (*OutcomeDetail, error) {
	var capture struct {
		Amount struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
		Payee struct {
			EmailAddress string `json:"email_address"`
		} `json:"payee"`
	}
	if err := json.Unmarshal(ev.Object, &capture); err != nil {
		return nil, fmt.Errorf("failed to parse capture: %w", err)
	}
	// Captures confirm money movement but carry no subscription transition.
	return &OutcomeDetail{AmountCents: parseAmountCents(capture.Amount.Value)}, nil
}

func handlePayPalSubscriptionCreated(registry SubscriptionRegistry) HandlerFunc {
	return func(_ context.Context, ev *Event) (*OutcomeDetail, error) {
		var res paypalSubscriptionResource
		if err := json.Unmarshal(ev.Object, &res); err != nil {
			return nil, fmt.Errorf("failed to parse subscription resource: %w", err)
		}
		email := strings.TrimSpace(res.Subscriber.EmailAddress)
		if email == "" {
			return nil, fmt.Errorf("paypal subscription %s has no subscriber email", res.ID)
		}
		sub := registry.Activate(email, res.Subscriber.PayerID, res.ID, res.PlanID)
		return &OutcomeDetail{
			CustomerKey:    email,
			SubscriptionID: sub.ProviderSubscriptionID,
			PlanCode:       sub.PlanCode,
		}, nil
	}
}

func handlePayPalSubscriptionCancelled(registry SubscriptionRegistry) HandlerFunc {
	return func(_ context.Context, ev *Event) (*OutcomeDetail, error) {
		var res paypalSubscriptionResource
		if err := json.Unmarshal(ev.Object, &res); err != nil {
			return nil, fmt.Errorf("failed to parse subscription resource: %w", err)
		}
		email := strings.TrimSpace(res.Subscriber.EmailAddress)
		if email == "" {
			return nil, nil
		}
		registry.Cancel(email)
		return &OutcomeDetail{CustomerKey: email, SubscriptionID: res.ID}, nil
	}
}

// parseAmountCents converts PayPal's decimal string amounts ("12.34") to
// cents; malformed amounts yield nil rather than failing the event.
func parseAmountCents(value string) *int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.SplitN(value, ".", 2)
	var whole, frac int64
	if _, err := fmt.Sscanf(parts[0], "%d", &whole); err != nil {
		return nil
	}
	if len(parts) == 2 {
		f := parts[1]
		if len(f) > 2 {
			f = f[:2]
		}
		for len(f) < 2 {
			f += "0"
		}
		if _, err := fmt.Sscanf(f, "%d", &frac); err != nil {
			return nil
		}
	}
	cents := whole*100 + frac
	return &cents
}
