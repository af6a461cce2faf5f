package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment provider constants used across billing-related models.
const (
	BillingProviderStripe = "stripe"
	BillingProviderPayPal = "paypal"
)

const (
	BillingIntervalMonth   = "month"
	BillingIntervalYear    = "year"
	BillingIntervalUnknown = "unknown"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusUnpaid   = "unpaid"
)

const (
	PlanTierFree       = "free"
	PlanTierPro        = "pro"
	PlanTierEnterprise = "enterprise"
)

// Plan is the internal plan a provider plan code resolves to.
type Plan struct {
	Tier     string `json:"tier"`
	Interval string `json:"interval"`
}

// FreePlan is the default plan for unrecognized plan codes.
func FreePlan() Plan {
	return Plan{Tier: PlanTierFree, Interval: BillingIntervalUnknown}
}

// UserSubscription is the commercial state held per customer key. Exactly one
// record exists per key; a new activation replaces the prior record.
type UserSubscription struct {
	ID                     uuid.UUID  `json:"id"`
	CustomerKey            string     `json:"customer_key"`
	ProviderCustomerID     string     `json:"provider_customer_id,omitempty"`
	ProviderSubscriptionID string     `json:"provider_subscription_id,omitempty"`
	PlanCode               string     `json:"plan_code"`
	Plan                   Plan       `json:"plan"`
	Status                 string     `json:"status"`
	ActivatedAt            time.Time  `json:"activated_at"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty"`
}
