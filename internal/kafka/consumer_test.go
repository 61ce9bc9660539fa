package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeLifecycleEvent(t *testing.T) {
	event, err := decodeLifecycleEvent([]byte(`{
		"type": "payment_succeeded",
		"booking_id": 42,
		"payment_id": 7,
		"sub_court_id": 3,
		"date": "2025-03-03",
		"start_time": "10:00",
		"end_time": "12:00",
		"status": "CONFIRMED",
		"guest_email": "guest@example.com"
	}`))

	assert.NoError(t, err)
	assert.Equal(t, "payment_succeeded", event.Type)
	assert.Equal(t, int64(42), event.BookingID)
	assert.Equal(t, int64(7), event.PaymentID)
	assert.Equal(t, "guest@example.com", event.GuestEmail)
}

func TestDecodeLifecycleEvent_Malformed(t *testing.T) {
	_, err := decodeLifecycleEvent([]byte(`not json`))
	assert.Error(t, err)
}
