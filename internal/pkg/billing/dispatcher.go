package billing

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/lwas/economy/app/models"
	"github.com/lwas/economy/internal/pkg/metrics/counter"
)

// Verifier validates incoming webhook authenticity for a provider.
type Verifier interface {
	Verify(ctx context.Context, headers http.Header, body []byte, now time.Time) error
}

// Event is the minimally-typed envelope shared by all providers. The payload
// object stays raw and is decoded per event type inside the matching handler.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Object  json.RawMessage
}

// ParseFunc decodes a provider wire payload into the common envelope.
type ParseFunc func(body []byte) (*Event, error)

// OutcomeDetail identifies the mutation a handler performed, for the ledger
// entry and the audit record.
type OutcomeDetail struct {
	CustomerKey    string
	SubscriptionID string
	PlanCode       string
	AmountCents    *int64
}

// HandlerFunc applies one event type. A nil detail means the handler completed
// without touching the registry.
type HandlerFunc func(ctx context.Context, ev *Event) (*OutcomeDetail, error)

// DispatchState is the terminal state of one delivery.
type DispatchState int

const (
	StateRejected  DispatchState = iota // verification failed, nothing executed
	StateMalformed                      // body did not parse into an event
	StateDuplicate                      // ledger already holds this event id
	StateCompleted                      // handler ran (or no-op) successfully
	StateFailed                         // handler failed, recorded in ledger
)

// DispatchResult is what the transport layer maps onto an HTTP response.
type DispatchResult struct {
	State     DispatchState
	EventID   string
	EventType string
	Err       error
}

// Dispatcher drives the pipeline for one provider:
// verify -> parse -> claim -> route -> record.
type Dispatcher struct {
	provider string
	verifier Verifier
	parse    ParseFunc
	ledger   *IdempotencyLedger
	handlers map[string]HandlerFunc
	audit    AuditSink
	now      func() time.Time
}

func NewDispatcher(provider string, verifier Verifier, parse ParseFunc, ledger *IdempotencyLedger, handlers map[string]HandlerFunc, audit AuditSink) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		verifier: verifier,
		parse:    parse,
		ledger:   ledger,
		handlers: handlers,
		audit:    audit,
		now:      time.Now,
	}
}

// Dispatch processes one raw delivery. Verification failures are terminal
// before any state is touched; every verified non-duplicate event gets exactly
// one ledger finalize, success or failure.
func (d *Dispatcher) Dispatch(ctx context.Context, headers http.Header, body []byte) DispatchResult {
	if err := d.verifier.Verify(ctx, headers, body, d.now()); err != nil {
		log.Printf("[WEBHOOK] %s signature verification failed: %v", d.provider, err)
		_ = counter.AddWebhookOutcome(d.provider, "rejected")
		return DispatchResult{State: StateRejected, Err: err}
	}

	ev, err := d.parse(body)
	if err != nil {
		log.Printf("[WEBHOOK] %s event parse failed: %v", d.provider, err)
		_ = counter.AddWebhookOutcome(d.provider, "malformed")
		return DispatchResult{State: StateMalformed, Err: err}
	}

	log.Printf("[WEBHOOK] %s received %s (%s)", d.provider, ev.Type, ev.ID)

	if !d.ledger.Claim(ctx, ev.ID) {
		log.Printf("[WEBHOOK] %s event %s already processed", d.provider, ev.ID)
		_ = counter.AddWebhookOutcome(d.provider, "duplicate")
		return DispatchResult{State: StateDuplicate, EventID: ev.ID, EventType: ev.Type}
	}

	handler, ok := d.handlers[ev.Type]
	if !ok {
		// Unknown event types are not errors: providers add types over time.
		handler = func(context.Context, *Event) (*OutcomeDetail, error) { return nil, nil }
		log.Printf("[WEBHOOK] %s unhandled event type %s", d.provider, ev.Type)
	}

	detail, handlerErr := handler(ctx, ev)
	if detail == nil {
		detail = &OutcomeDetail{}
	}

	d.audit.Record(AuditEntry{
		Timestamp:   d.now().UTC().Format(time.RFC3339),
		EventType:   ev.Type,
		CustomerKey: detail.CustomerKey,
		AmountCents: detail.AmountCents,
	})

	outcome := models.EventOutcome{
		Status:         models.OutcomeSuccess,
		CustomerKey:    detail.CustomerKey,
		SubscriptionID: detail.SubscriptionID,
		PlanCode:       detail.PlanCode,
	}
	if handlerErr != nil {
		outcome = models.EventOutcome{Status: models.OutcomeFailed, Error: handlerErr.Error()}
	}
	d.ledger.MarkProcessed(ctx, ev.ID, outcome)

	if handlerErr != nil {
		log.Printf("[WEBHOOK] %s handler for %s failed: %v", d.provider, ev.Type, handlerErr)
		_ = counter.AddWebhookOutcome(d.provider, "failed")
		return DispatchResult{State: StateFailed, EventID: ev.ID, EventType: ev.Type, Err: handlerErr}
	}

	_ = counter.AddWebhookOutcome(d.provider, "success")
	return DispatchResult{State: StateCompleted, EventID: ev.ID, EventType: ev.Type}
}
