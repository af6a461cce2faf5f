package models

import "time"

const (
	OutcomePending = "pending"
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// EventOutcome records what processing an event did. Success outcomes carry
// the identifying data of the actual mutation so a ledger entry can be traced
// back to the subscription it touched.
type EventOutcome struct {
	Status         string `json:"status"`
	CustomerKey    string `json:"customer_key,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	PlanCode       string `json:"plan_code,omitempty"`
	Error          string `json:"error,omitempty"`
}

// LedgerEntry is the idempotency record for a processed webhook event. At most
// one entry exists per event id; re-deliveries are detected by presence, never
// by content comparison.
type LedgerEntry struct {
	EventID     string       `json:"event_id"`
	ProcessedAt time.Time    `json:"processed_at"`
	Outcome     EventOutcome `json:"outcome"`
}
