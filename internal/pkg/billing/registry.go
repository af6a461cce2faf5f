package billing

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lwas/economy/app/models"
)

// SubscriptionRegistry holds the current subscription per customer key. It is
// an interface so a persistent implementation can replace the in-memory one
// without touching the dispatcher.
type SubscriptionRegistry interface {
	Activate(customerKey, providerCustomerID, providerSubscriptionID, planCode string) *models.UserSubscription
	Get(customerKey string) (*models.UserSubscription, bool)
	Cancel(customerKey string) bool
}

type memoryRegistry struct {
	mu   sync.RWMutex
	subs map[string]models.UserSubscription
}

// NewSubscriptionRegistry creates the in-memory registry. All writes serialize
// on a single lock; reads proceed concurrently.
func NewSubscriptionRegistry() SubscriptionRegistry {
	return &memoryRegistry{subs: make(map[string]models.UserSubscription)}
}

// Activate creates or replaces the subscription record for a customer key.
// The plan code is resolved through the enumerated lookup table; unknown codes
// soft-fail to the free plan.
func (r *memoryRegistry) Activate(customerKey, providerCustomerID, providerSubscriptionID, planCode string) *models.UserSubscription {
	sub := models.UserSubscription{
		ID:                     uuid.New(),
		CustomerKey:            customerKey,
		ProviderCustomerID:     providerCustomerID,
		ProviderSubscriptionID: providerSubscriptionID,
		PlanCode:               planCode,
		Plan:                   PlanFromCode(planCode),
		Status:                 models.SubscriptionStatusActive,
		ActivatedAt:            time.Now(),
	}

	r.mu.Lock()
	r.subs[customerKey] = sub
	r.mu.Unlock()

	return &sub
}

func (r *memoryRegistry) Get(customerKey string) (*models.UserSubscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[customerKey]
	if !ok {
		return nil, false
	}
	return &sub, true
}

// Cancel transitions the subscription to canceled. Missing keys are a no-op,
// never an error; calling twice yields the same end state.
func (r *memoryRegistry) Cancel(customerKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[customerKey]
	if !ok {
		return false
	}
	sub.Status = models.SubscriptionStatusCanceled
	r.subs[customerKey] = sub
	return true
}
