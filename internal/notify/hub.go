// Package notify fans newly created notifications out to live subscribers
// inside the process.
package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
)

const bufferSize = 32

// Subscription receives notifications until it is cancelled
type Subscription struct {
	ID       string
	TenantID string // empty receives every notification
	C        <-chan *domain.Notification

	ch chan *domain.Notification
}

// Hub tracks subscribers. Publish never blocks: a subscriber whose buffer is
// full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: map[string]*Subscription{}, logger: logger}
}

// Subscribe registers a subscriber for one tenant, or for all tenants when
// tenantID is empty. The returned func unregisters it and closes C.
func (h *Hub) Subscribe(tenantID string) (*Subscription, func()) {
	ch := make(chan *domain.Notification, bufferSize)
	sub := &Subscription{ID: uuid.NewString(), TenantID: tenantID, C: ch, ch: ch}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	metrics.IncrementSubscribers()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub.ID)
			close(sub.ch)
			h.mu.Unlock()
			metrics.DecrementSubscribers()
		})
	}
	return sub, cancel
}

// Publish delivers n to its tenant's subscribers and to catch-all subscribers
func (h *Hub) Publish(n *domain.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.TenantID != "" && sub.TenantID != n.TenantID {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			h.logger.Warn("notification subscriber lagging, message dropped",
				slog.String("subscriber_id", sub.ID),
				slog.String("notification_id", n.ID),
			)
		}
	}
}

// Count returns the number of live subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
