package notify

import (
	"log"
	"sync"
)

// Event is the terminal payment-status push delivered to subscribers.
type Event struct {
	Type      string `json:"type"` // always "payment_status"
	PaymentID int64  `json:"paymentId"`
	Status    string `json:"status"`
	BookingID int64  `json:"bookingId"`
	Message   string `json:"message"`
}

// Conn is one live client connection. The WebSocket transport implements it;
// the hub never imports the transport.
type Conn interface {
	Send(event interface{}) error
}

// Notifier is the narrow surface the payment layer depends on, inverting the
// dependency so the orchestrator never imports the hub's registry types.
type Notifier interface {
	Publish(paymentID int64, event Event)
}

// Hub maps paymentID to the set of connections awaiting its terminal state.
// The lifecycle is single-shot: after one terminal event the subscription is
// cleared.
type Hub struct {
	mu   sync.Mutex
	subs map[int64]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[Conn]struct{})}
}

func (h *Hub) Subscribe(paymentID int64, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[paymentID] == nil {
		h.subs[paymentID] = make(map[Conn]struct{})
	}
	h.subs[paymentID][c] = struct{}{}
}

func (h *Hub) Unsubscribe(paymentID int64, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subs[paymentID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.subs, paymentID)
		}
	}
}

// Drop removes the connection from every subscription it holds. A dropped
// connection is not treated as a payment cancellation; the client can
// resubscribe, and the expiry sweep remains the safety net.
func (h *Hub) Drop(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for paymentID, conns := range h.subs {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.subs, paymentID)
		}
	}
}

// Publish pushes the event to every subscriber of the payment and clears the
// subscription.
func (h *Hub) Publish(paymentID int64, event Event) {
	h.mu.Lock()
	conns := h.subs[paymentID]
	delete(h.subs, paymentID)
	h.mu.Unlock()

	for c := range conns {
		if err := c.Send(event); err != nil {
			log.Printf("notify push to subscriber of payment %d failed: %v", paymentID, err)
		}
	}
}

// SubscriberCount is used by tests and diagnostics.
func (h *Hub) SubscriberCount(paymentID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[paymentID])
}

var _ Notifier = (*Hub)(nil)
