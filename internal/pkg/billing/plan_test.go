package billing

import (
	"testing"

	"github.com/lwas/economy/app/models"
)

func TestPlanFromCode(t *testing.T) {
	tests := []struct {
		in           string
		wantTier     string
		wantInterval string
	}{
		{in: "pro_monthly", wantTier: models.PlanTierPro, wantInterval: models.BillingIntervalMonth},
		{in: "pro_annual", wantTier: models.PlanTierPro, wantInterval: models.BillingIntervalYear},
		{in: "enterprise_monthly", wantTier: models.PlanTierEnterprise, wantInterval: models.BillingIntervalMonth},
		{in: "enterprise_annual", wantTier: models.PlanTierEnterprise, wantInterval: models.BillingIntervalYear},
		{in: "PRO_MONTHLY", wantTier: models.PlanTierPro, wantInterval: models.BillingIntervalMonth},
		{in: "something_else", wantTier: models.PlanTierFree, wantInterval: models.BillingIntervalUnknown},
		{in: "", wantTier: models.PlanTierFree, wantInterval: models.BillingIntervalUnknown},
	}

	for _, tt := range tests {
		got := PlanFromCode(tt.in)
		if got.Tier != tt.wantTier || got.Interval != tt.wantInterval {
			t.Fatalf("PlanFromCode(%q) = %+v, want tier=%q interval=%q", tt.in, got, tt.wantTier, tt.wantInterval)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if planRank(models.PlanTierFree) >= planRank(models.PlanTierPro) {
		t.Fatalf("expected pro to outrank free")
	}
	if planRank(models.PlanTierPro) >= planRank(models.PlanTierEnterprise) {
		t.Fatalf("expected enterprise to outrank pro")
	}
}

func TestIsEntitlingStatus(t *testing.T) {
	for _, status := range []string{"active", "trialing", "past_due"} {
		if !IsEntitlingStatus(status) {
			t.Fatalf("expected status %q to be entitling", status)
		}
	}
	for _, status := range []string{"canceled", "unpaid", ""} {
		if IsEntitlingStatus(status) {
			t.Fatalf("expected status %q to be non-entitling", status)
		}
	}
}
