package notify

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (f *fakeConn) Send(event interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write failed")
	}
	f.events = append(f.events, event.(Event))
	return nil
}

func (f *fakeConn) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, b := &fakeConn{}, &fakeConn{}

	hub.Subscribe(7, a)
	hub.Subscribe(7, b)

	event := Event{Type: "payment_status", PaymentID: 7, Status: "SUCCESS", BookingID: 42}
	hub.Publish(7, event)

	assert.Equal(t, []Event{event}, a.received())
	assert.Equal(t, []Event{event}, b.received())
}

func TestHub_PublishClearsSubscription(t *testing.T) {
	hub := NewHub()
	c := &fakeConn{}

	hub.Subscribe(7, c)
	hub.Publish(7, Event{PaymentID: 7, Status: "SUCCESS"})
	assert.Equal(t, 0, hub.SubscriberCount(7))

	// second publish is a no-op for the old subscriber
	hub.Publish(7, Event{PaymentID: 7, Status: "FAILED"})
	assert.Len(t, c.received(), 1)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	c := &fakeConn{}

	hub.Subscribe(7, c)
	hub.Unsubscribe(7, c)
	hub.Publish(7, Event{PaymentID: 7, Status: "SUCCESS"})

	assert.Empty(t, c.received())
}

func TestHub_DropRemovesFromAllSubscriptions(t *testing.T) {
	hub := NewHub()
	c, other := &fakeConn{}, &fakeConn{}

	hub.Subscribe(1, c)
	hub.Subscribe(2, c)
	hub.Subscribe(2, other)
	hub.Drop(c)

	assert.Equal(t, 0, hub.SubscriberCount(1))
	assert.Equal(t, 1, hub.SubscriberCount(2))

	hub.Publish(2, Event{PaymentID: 2, Status: "SUCCESS"})
	assert.Empty(t, c.received())
	assert.Len(t, other.received(), 1)
}

func TestHub_FailedSendDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	bad := &fakeConn{fail: true}
	good := &fakeConn{}

	hub.Subscribe(7, bad)
	hub.Subscribe(7, good)
	hub.Publish(7, Event{PaymentID: 7, Status: "EXPIRED"})

	assert.Len(t, good.received(), 1)
}
