package counter

import (
	"context"
	"strconv"

	"github.com/lwas/economy/internal/pkg/cache"
)

const (
	webhookOutcomesKey    = "webhook:counters:outcomes"
	storageDegradationKey = "webhook:counters:degradation"
)

// AddWebhookOutcome increments the per-provider outcome counter in Redis.
// Counters are best-effort: without a shared store this is a no-op.
func AddWebhookOutcome(provider, outcome string) error {
	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}
	return rdb.HIncrBy(context.Background(), webhookOutcomesKey, provider+":"+outcome, 1).Err()
}

// AddStorageDegradation counts shared-store outages per component. This is the
// counter a monitoring system should alert on: while it climbs, idempotency
// runs on weaker in-process guarantees.
func AddStorageDegradation(component string) error {
	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}
	return rdb.HIncrBy(context.Background(), storageDegradationKey, component, 1).Err()
}

// Snapshot returns the current outcome and degradation counters.
func Snapshot() (map[string]int64, error) {
	rdb := cache.GetClient()
	if rdb == nil {
		return map[string]int64{}, nil
	}
	ctx := context.Background()

	out := make(map[string]int64)
	for key, prefix := range map[string]string{
		webhookOutcomesKey:    "outcome:",
		storageDegradationKey: "degradation:",
	} {
		fields, err := rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		for field, raw := range fields {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				out[prefix+field] = n
			}
		}
	}
	return out, nil
}
