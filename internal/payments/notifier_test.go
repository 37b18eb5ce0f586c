package payments

import (
	"testing"
	"time"

	"courtside/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishToSubscriber(t *testing.T) {
	n := NewNotifier(logger.GetDefault())

	ch := n.Subscribe("pay-1")
	defer n.Unsubscribe("pay-1", ch)

	n.Publish(TransitionEvent{PaymentID: "pay-1", Status: "SUCCESS"})

	select {
	case event := <-ch:
		assert.Equal(t, "SUCCESS", event.Status)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestNotifier_PublishIsScopedToPayment(t *testing.T) {
	n := NewNotifier(logger.GetDefault())

	ch := n.Subscribe("pay-1")
	defer n.Unsubscribe("pay-1", ch)

	n.Publish(TransitionEvent{PaymentID: "pay-2", Status: "SUCCESS"})

	select {
	case <-ch:
		t.Fatal("event for another payment must not be delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	n := NewNotifier(logger.GetDefault())

	ch := n.Subscribe("pay-1")
	require.Equal(t, 1, n.SubscriberCount("pay-1"))

	n.Unsubscribe("pay-1", ch)
	assert.Equal(t, 0, n.SubscriberCount("pay-1"))

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is a no-op, not a double close
	n.Unsubscribe("pay-1", ch)
}

func TestNotifier_SlowSubscriberNeverBlocksPublish(t *testing.T) {
	n := NewNotifier(logger.GetDefault())

	ch := n.Subscribe("pay-1")
	defer n.Unsubscribe("pay-1", ch)

	// Overfill the buffer without draining; Publish must drop, not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+5; i++ {
			n.Publish(TransitionEvent{PaymentID: "pay-1", Status: "PENDING"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestNotifier_MultipleSubscribers(t *testing.T) {
	n := NewNotifier(logger.GetDefault())

	a := n.Subscribe("pay-1")
	b := n.Subscribe("pay-1")
	defer n.Unsubscribe("pay-1", a)
	defer n.Unsubscribe("pay-1", b)

	require.Equal(t, 2, n.SubscriberCount("pay-1"))

	n.Publish(TransitionEvent{PaymentID: "pay-1", Status: "FAILED"})
	assert.Equal(t, "FAILED", (<-a).Status)
	assert.Equal(t, "FAILED", (<-b).Status)
}
