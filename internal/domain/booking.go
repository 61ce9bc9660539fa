package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// Terminal reports whether no further status transition is permitted.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

type Booking struct {
	ID         int64
	SubCourtID int64
	Date       string // 2006-01-02
	StartTime  string // HH:MM, zero-padded
	EndTime    string // HH:MM, zero-padded
	TotalPrice int64
	Status     BookingStatus
	GroupID    *uuid.UUID
	GuestName  string
	GuestPhone string
	GuestEmail string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overlaps reports whether [start, end) intersects the booking interval.
// Zero-padded HH:MM strings compare correctly as text.
func (b *Booking) Overlaps(start, end string) bool {
	return b.StartTime < end && b.EndTime > start
}

// EndsBefore reports whether the booking's date+endTime is strictly before t
// when evaluated in loc.
func (b *Booking) EndsBefore(t time.Time, loc *time.Location) (bool, error) {
	end, err := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %s", b.Date, b.EndTime), loc)
	if err != nil {
		return false, err
	}
	return end.Before(t), nil
}
