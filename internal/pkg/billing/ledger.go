package billing

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/lwas/economy/app/models"
	"github.com/lwas/economy/internal/pkg/metrics/counter"
	"github.com/redis/go-redis/v9"
)

const (
	ledgerKeyPrefix = "event:"

	// LedgerRetention bounds ledger growth; redelivery of an event older than
	// this is applied again, which matches provider retry windows.
	LedgerRetention = 24 * time.Hour

	// claimTTL bounds how long a crashed in-flight claim can block redelivery
	// before the provider retry gets through again.
	claimTTL = 5 * time.Minute
)

// IdempotencyLedger records which event ids have been applied. It is backed by
// the shared Redis store; when the store is unreachable or unconfigured it
// degrades to an in-process map that does not survive restarts. That weaker
// guarantee under storage outage is deliberate: favoring re-processing over
// refusing deliveries.
type IdempotencyLedger struct {
	rdb *redis.Client

	mu       sync.RWMutex
	fallback map[string]models.LedgerEntry

	now func() time.Time
}

func NewIdempotencyLedger(rdb *redis.Client) *IdempotencyLedger {
	return &IdempotencyLedger{
		rdb:      rdb,
		fallback: make(map[string]models.LedgerEntry),
		now:      time.Now,
	}
}

// Claim atomically registers intent to process an event and reports whether
// this caller is the first to do so. The atomic set-if-absent is the single
// dedup primitive, so two concurrent deliveries of the same id can never both
// run a handler.
func (l *IdempotencyLedger) Claim(ctx context.Context, eventID string) bool {
	entry := models.LedgerEntry{
		EventID:     eventID,
		ProcessedAt: l.now(),
		Outcome:     models.EventOutcome{Status: models.OutcomePending},
	}

	if l.rdb != nil {
		payload, _ := json.Marshal(entry)
		first, err := l.rdb.SetNX(ctx, ledgerKeyPrefix+eventID, payload, claimTTL).Result()
		if err == nil {
			return first
		}
		l.degraded("claim", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()
	if existing, ok := l.fallback[eventID]; ok && !l.expiredLocked(existing) {
		return false
	}
	l.fallback[eventID] = entry
	return true
}

// IsProcessed reports whether a ledger entry exists for the event id. Store
// unavailability degrades to the in-process view (fail-open).
func (l *IdempotencyLedger) IsProcessed(ctx context.Context, eventID string) bool {
	if l.rdb != nil {
		exists, err := l.rdb.Exists(ctx, ledgerKeyPrefix+eventID).Result()
		if err == nil {
			return exists > 0
		}
		l.degraded("lookup", err)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.fallback[eventID]
	return ok && !l.expiredLocked(entry)
}

// MarkProcessed finalizes the ledger entry for an event with its outcome,
// extending retention to the full window. It is called exactly once per
// non-duplicate event regardless of handler success or failure, so failed
// events are still deduplicated on redelivery.
func (l *IdempotencyLedger) MarkProcessed(ctx context.Context, eventID string, outcome models.EventOutcome) {
	entry := models.LedgerEntry{
		EventID:     eventID,
		ProcessedAt: l.now(),
		Outcome:     outcome,
	}

	if l.rdb != nil {
		payload, _ := json.Marshal(entry)
		err := l.rdb.Set(ctx, ledgerKeyPrefix+eventID, payload, LedgerRetention).Err()
		if err == nil {
			return
		}
		l.degraded("write", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()
	l.fallback[eventID] = entry
}

// Entry returns the stored ledger entry for an event id, if any.
func (l *IdempotencyLedger) Entry(ctx context.Context, eventID string) (*models.LedgerEntry, bool) {
	if l.rdb != nil {
		raw, err := l.rdb.Get(ctx, ledgerKeyPrefix+eventID).Result()
		if err == nil {
			var entry models.LedgerEntry
			if jsonErr := json.Unmarshal([]byte(raw), &entry); jsonErr == nil {
				return &entry, true
			}
			return nil, false
		}
		if err == redis.Nil {
			return nil, false
		}
		l.degraded("read", err)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.fallback[eventID]
	if !ok || l.expiredLocked(entry) {
		return nil, false
	}
	return &entry, true
}

func (l *IdempotencyLedger) expiredLocked(entry models.LedgerEntry) bool {
	return l.now().Sub(entry.ProcessedAt) > LedgerRetention
}

// sweepLocked drops expired fallback entries so the weaker store honors the
// same bounded-retention policy as Redis TTLs.
func (l *IdempotencyLedger) sweepLocked() {
	for id, entry := range l.fallback {
		if l.expiredLocked(entry) {
			delete(l.fallback, id)
		}
	}
}

// degraded is the alertable condition from the error taxonomy: idempotency is
// running on weaker in-process guarantees.
func (l *IdempotencyLedger) degraded(op string, err error) {
	log.Printf("[LEDGER] shared store unavailable during %s, using in-process fallback: %v", op, err)
	_ = counter.AddStorageDegradation("ledger")
}
