package billing

import (
	"context"
	"testing"

	"github.com/lwas/economy/app/models"
)

func TestParsePayPalEvent(t *testing.T) {
	raw := []byte(`{
		"id": "WH-1",
		"event_type": "BILLING.SUBSCRIPTION.CREATED",
		"create_time": "2026-08-29T10:00:00Z",
		"resource_type": "subscription",
		"resource": {"id": "I-1", "plan_id": "P-1"},
		"summary": "A billing subscription was created."
	}`)

	ev, err := ParsePayPalEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.ID != "WH-1" || ev.Type != PayPalEventSubscriptionCreated {
		t.Fatalf("unexpected envelope: %+v", ev)
	}

	if _, err := ParsePayPalEvent([]byte(`{"event_type":"X"}`)); err == nil {
		t.Fatalf("expected missing id to fail")
	}
}

func TestPayPalSubscriptionLifecycle(t *testing.T) {
	registry := NewSubscriptionRegistry()
	handlers := PayPalHandlers(registry)

	created := &Event{
		ID:     "WH-1",
		Type:   PayPalEventSubscriptionCreated,
		Object: []byte(`{"id":"I-1","plan_id":"P-unmapped","subscriber":{"email_address":"b@x.com","payer_id":"payer_1"}}`),
	}
	detail, err := handlers[PayPalEventSubscriptionCreated](context.Background(), created)
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if detail.CustomerKey != "b@x.com" || detail.SubscriptionID != "I-1" {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	sub, ok := registry.Get("b@x.com")
	if !ok {
		t.Fatalf("expected subscription to be activated")
	}
	// Provider plan ids are not in the enumerated code table: soft-fail to free.
	if sub.Plan.Tier != models.PlanTierFree {
		t.Fatalf("expected unmapped plan id to resolve to free, got %+v", sub.Plan)
	}

	cancelled := &Event{
		ID:     "WH-2",
		Type:   PayPalEventSubscriptionCancelled,
		Object: []byte(`{"id":"I-1","subscriber":{"email_address":"b@x.com"}}`),
	}
	if _, err := handlers[PayPalEventSubscriptionCancelled](context.Background(), cancelled); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	sub, _ = registry.Get("b@x.com")
	if sub.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected canceled status, got %q", sub.Status)
	}
}

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantNil bool
	}{
		{in: "12.34", want: 1234},
		{in: "12", want: 1200},
		{in: "0.5", want: 50},
		{in: "", wantNil: true},
		{in: "abc", wantNil: true},
	}
	for _, tt := range tests {
		got := parseAmountCents(tt.in)
		if tt.wantNil {
			if got != nil {
				t.Fatalf("parseAmountCents(%q) = %v, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Fatalf("parseAmountCents(%q) = %v, want %d", tt.in, got, tt.want)
		}
	}
}
