package billing

import (
	"strings"

	"github.com/lwas/economy/app/models"
)

// planCodes enumerates the provider plan codes sold through checkout.
// Unrecognized codes intentionally resolve to the free plan: provider payloads
// are external input and an unknown code must never reject an otherwise valid
// event.
var planCodes = map[string]models.Plan{
	"pro_monthly":        {Tier: models.PlanTierPro, Interval: models.BillingIntervalMonth},
	"pro_annual":         {Tier: models.PlanTierPro, Interval: models.BillingIntervalYear},
	"enterprise_monthly": {Tier: models.PlanTierEnterprise, Interval: models.BillingIntervalMonth},
	"enterprise_annual":  {Tier: models.PlanTierEnterprise, Interval: models.BillingIntervalYear},
}

// PlanFromCode maps an opaque provider plan code to an internal plan.
func PlanFromCode(code string) models.Plan {
	if plan, ok := planCodes[strings.ToLower(strings.TrimSpace(code))]; ok {
		return plan
	}
	return models.FreePlan()
}

func planRank(tier string) int {
	switch tier {
	case models.PlanTierEnterprise:
		return 2
	case models.PlanTierPro:
		return 1
	default:
		return 0
	}
}

// IsEntitlingStatus reports whether a subscription status still grants access.
func IsEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}
