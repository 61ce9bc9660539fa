package reservation

import (
	"time"

	"github.com/tuannda91/courtbook/internal/domain"
	"github.com/tuannda91/courtbook/internal/kafka"
)

func kafkaEvent(eventType string, booking *domain.Booking, paymentID int64, now time.Time) kafka.LifecycleEvent {
	return kafka.LifecycleEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		PaymentID:  paymentID,
		SubCourtID: booking.SubCourtID,
		Date:       booking.Date,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		Status:     string(booking.Status),
		GuestEmail: booking.GuestEmail,
		OccurredAt: now,
	}
}

var _ ReservationUseCase = (*ReservationService)(nil)
