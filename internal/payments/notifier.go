package payments

import (
	"sync"

	"courtside/pkg/logger"
)

const subscriberBuffer = 8

// Notifier fans payment transition events out to realtime subscribers, one
// subscription per payment id. Delivery is best effort: a subscriber that
// stopped draining its channel is skipped, never blocked on. The database is
// the source of truth; the stream is only a hint to re-fetch.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string]map[chan TransitionEvent]struct{}
	log  *logger.Logger
}

// NewNotifier creates a payment transition notifier
func NewNotifier(log *logger.Logger) *Notifier {
	return &Notifier{
		subs: make(map[string]map[chan TransitionEvent]struct{}),
		log:  log,
	}
}

// Subscribe registers interest in one payment's transitions. The caller must
// call Unsubscribe with the returned channel when done.
func (n *Notifier) Subscribe(paymentID string) chan TransitionEvent {
	ch := make(chan TransitionEvent, subscriberBuffer)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs[paymentID] == nil {
		n.subs[paymentID] = make(map[chan TransitionEvent]struct{})
	}
	n.subs[paymentID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (n *Notifier) Unsubscribe(paymentID string, ch chan TransitionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	set, ok := n.subs[paymentID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(n.subs, paymentID)
	}
	close(ch)
}

// Publish delivers an event to every subscriber of the payment. Slow
// subscribers with a full buffer are dropped from this event.
func (n *Notifier) Publish(event TransitionEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.subs[event.PaymentID] {
		select {
		case ch <- event:
		default:
			if n.log != nil {
				n.log.Warn("dropping payment event for slow subscriber",
					"payment_id", event.PaymentID,
					"status", event.Status)
			}
		}
	}
}

// SubscriberCount reports the number of live subscriptions for a payment
func (n *Notifier) SubscriberCount(paymentID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[paymentID])
}
