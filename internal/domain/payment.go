package domain

import (
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether the status is absorbing.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

type Payment struct {
	ID              int64
	BookingID       int64
	AppTransID      string // gateway idempotency key, unique
	Amount          int64
	Status          PaymentStatus
	ProviderTransID string
	OrderURL        string
	CallbackPayload string // raw payload stored for audit
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppTransID derives the gateway idempotency key for a payment attempt. The
// yymmdd prefix keeps keys unique per calendar day so a retried order after
// midnight cannot collide with a stale provider-side record; the attempt
// counter keeps a retry after a FAILED payment from colliding with the
// terminal row still occupying the key for that day.
func AppTransID(bookingID int64, now time.Time, attempt int) string {
	if attempt <= 1 {
		return fmt.Sprintf("%s_%d", now.Format("060102"), bookingID)
	}
	return fmt.Sprintf("%s_%d_%d", now.Format("060102"), bookingID, attempt)
}
