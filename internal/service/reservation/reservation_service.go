package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tuannda91/courtbook/internal/domain"
	"github.com/tuannda91/courtbook/internal/gateway"
	"github.com/tuannda91/courtbook/internal/lock"
	"github.com/tuannda91/courtbook/internal/notify"
	"github.com/tuannda91/courtbook/internal/repository"
	"github.com/tuannda91/courtbook/internal/service/availability"
)

// Callback ack codes as the gateway defines them; the callback endpoint never
// speaks the standard API envelope.
const (
	AckSuccess = 1
	AckFailure = -1
)

const minDurationMinutes = 60

type ReservationUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CreateGroupBooking(ctx context.Context, inputs []CreateBookingInput) ([]*domain.Booking, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id int64) (*domain.Booking, error)
	CreatePayment(ctx context.Context, bookingID int64) (*PaymentArtifact, error)
	HandleCallback(ctx context.Context, data, mac string) (int, string)
	QueryStatus(ctx context.Context, paymentID int64) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (*domain.Payment, error)
	GetPaymentForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	ExpireStalePayments(ctx context.Context) (int, error)
	CompleteFinishedBookings(ctx context.Context) (int64, error)
}

type CreateBookingInput struct {
	SubCourtID int64  `json:"sub_court_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	GuestName  string `json:"guest_name"`
	GuestPhone string `json:"guest_phone"`
	GuestEmail string `json:"guest_email"`
}

// PaymentArtifact is what the client needs to pay: the hosted-checkout URL
// and the moment the underlying slot lock lapses.
type PaymentArtifact struct {
	PaymentID  int64     `json:"payment_id"`
	BookingID  int64     `json:"booking_id"`
	AppTransID string    `json:"app_trans_id"`
	Amount     int64     `json:"amount"`
	OrderURL   string    `json:"order_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// GridSource prices bookings from an uncached grid.
type GridSource interface {
	FreshGrid(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error)
}

// GridInvalidator drops cached grids after availability changes.
type GridInvalidator interface {
	InvalidateGrid(ctx context.Context, subCourtID int64, date string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ReservationService struct {
	bookings repository.BookingRepository
	payments repository.PaymentRepository
	courts   repository.CourtRepository
	grids    GridSource
	locks    lock.SlotLockManager
	gw       gateway.Gateway
	notifier notify.Notifier
	producer Producer
	cache    GridInvalidator

	lifecycleTopic     string
	notificationsTopic string
	lockTTL            time.Duration
	expiryBuffer       time.Duration
	loc                *time.Location
	now                func() time.Time
}

type ReservationServiceOption func(*ReservationService)

func WithTopics(lifecycle, notifications string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.lifecycleTopic = lifecycle
		s.notificationsTopic = notifications
	}
}

func WithGridInvalidator(cache GridInvalidator) ReservationServiceOption {
	return func(s *ReservationService) {
		s.cache = cache
	}
}

func WithClock(now func() time.Time) ReservationServiceOption {
	return func(s *ReservationService) {
		s.now = now
	}
}

func NewReservationService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	courts repository.CourtRepository,
	grids GridSource,
	locks lock.SlotLockManager,
	gw gateway.Gateway,
	notifier notify.Notifier,
	producer Producer,
	lockTTL, expiryBuffer time.Duration,
	loc *time.Location,
	opts ...ReservationServiceOption,
) *ReservationService {
	service := &ReservationService{
		bookings:     bookings,
		payments:     payments,
		courts:       courts,
		grids:        grids,
		locks:        locks,
		gw:           gw,
		notifier:     notifier,
		producer:     producer,
		lockTTL:      lockTTL,
		expiryBuffer: expiryBuffer,
		loc:          loc,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *ReservationService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	booking, err := s.validateAndPrice(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.invalidateGrid(ctx, booking.SubCourtID, booking.Date)
	s.publish(ctx, "booking_created", booking, 0)
	return booking, nil
}

// CreateGroupBooking persists sibling bookings atomically under one group
// id. Validation and overlap checks run per booking before the single
// transaction commits them all.
func (s *ReservationService) CreateGroupBooking(ctx context.Context, inputs []CreateBookingInput) ([]*domain.Booking, error) {
	if len(inputs) == 0 {
		return nil, validationError("at least one booking is required")
	}

	bookings := make([]*domain.Booking, 0, len(inputs))
	for _, input := range inputs {
		booking, err := s.validateAndPrice(ctx, input)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := s.bookings.CreateGroup(ctx, bookings, uuid.New()); err != nil {
		return nil, err
	}

	for _, booking := range bookings {
		s.invalidateGrid(ctx, booking.SubCourtID, booking.Date)
		s.publish(ctx, "booking_created", booking, 0)
	}
	return bookings, nil
}

func (s *ReservationService) validateAndPrice(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if _, err := availability.ParseDate(input.Date); err != nil {
		return nil, validationError(err.Error())
	}
	startMin, err := availability.ParseHHMM(input.StartTime)
	if err != nil {
		return nil, validationError(err.Error())
	}
	endMin, err := availability.ParseHHMM(input.EndTime)
	if err != nil {
		return nil, validationError(err.Error())
	}
	if startMin%availability.SlotMinutes != 0 || endMin%availability.SlotMinutes != 0 {
		return nil, validationError("times must align to 30-minute steps")
	}
	if endMin-startMin < minDurationMinutes {
		return nil, validationError("booking must be at least 1 hour")
	}
	if input.GuestName == "" || input.GuestPhone == "" {
		return nil, validationError("guest name and phone are required")
	}

	court, err := s.courts.GetSubCourt(ctx, input.SubCourtID)
	if err != nil {
		if errors.Is(err, repository.ErrSubCourtNotFound) {
			return nil, notFoundError("sub-court not found")
		}
		return nil, err
	}
	if !court.Active {
		return nil, validationError("sub-court is not active")
	}

	overlapping, err := s.bookings.Overlapping(ctx, court.ID, input.Date, input.StartTime, input.EndTime, 0)
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, ErrSlotConflict
	}

	grid, err := s.grids.FreshGrid(ctx, court.ID, input.Date)
	if err != nil {
		return nil, err
	}
	if !availability.RangeAvailable(grid, input.StartTime, input.EndTime) {
		return nil, ErrSlotConflict
	}
	total, err := availability.TotalPrice(grid, input.StartTime, input.EndTime)
	if err != nil {
		return nil, validationError(err.Error())
	}

	return &domain.Booking{
		SubCourtID: court.ID,
		Date:       input.Date,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		TotalPrice: total,
		GuestName:  input.GuestName,
		GuestPhone: input.GuestPhone,
		GuestEmail: input.GuestEmail,
	}, nil
}

func (s *ReservationService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, notFoundError("booking not found")
	}
	return booking, err
}

func (s *ReservationService) CancelBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, ErrNotCancelable
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}

	// a pending payment dies with its booking
	if pending, err := s.payments.FindForBooking(ctx, id, domain.PaymentStatusPending); err == nil && pending != nil {
		if _, err := s.payments.UpdateStatus(ctx, pending.ID, domain.PaymentStatusCancelled); err != nil {
			log.Printf("cancel payment %d for booking %d: %v", pending.ID, id, err)
		} else {
			s.notify(pending.ID, updated, domain.PaymentStatusCancelled, "payment cancelled with booking")
		}
	}
	s.releaseLock(ctx, updated)
	s.invalidateGrid(ctx, updated.SubCourtID, updated.Date)
	s.publish(ctx, "booking_cancelled", updated, 0)
	return updated, nil
}

func (s *ReservationService) CreatePayment(ctx context.Context, bookingID int64) (*PaymentArtifact, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, ErrNotPayable
	}

	if success, err := s.payments.FindForBooking(ctx, bookingID, domain.PaymentStatusSuccess); err != nil {
		return nil, err
	} else if success != nil {
		return nil, ErrAlreadyPaid
	}

	// resume-in-progress: an existing pending payment keeps its artifact, no
	// second gateway order
	if pending, err := s.payments.FindForBooking(ctx, bookingID, domain.PaymentStatusPending); err != nil {
		return nil, err
	} else if pending != nil {
		return s.artifact(pending, booking), nil
	}

	// prior FAILED attempts still occupy their app_trans_id; the attempt
	// ordinal keeps a same-day retry off the unique column
	attempts, err := s.payments.CountForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	key := lock.SlotKey(booking.SubCourtID, booking.Date, booking.StartTime, booking.EndTime)
	holder := strconv.FormatInt(booking.ID, 10)
	acquired, err := s.locks.Acquire(ctx, key, holder, s.lockTTL)
	if err != nil {
		// store unreachable reads as "not acquired", never as a free pass
		return nil, fmt.Errorf("slot lock unavailable: %w", err)
	}
	if !acquired {
		current, err := s.locks.Holder(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("slot lock unavailable: %w", err)
		}
		if current != holder {
			return nil, ErrLockHeld
		}
		// held by this booking from an earlier attempt: re-arm the TTL and proceed
		if _, err := s.locks.Extend(ctx, key, holder, s.lockTTL); err != nil {
			log.Printf("extend lock %s: %v", key, err)
		}
	}

	payment := &domain.Payment{
		BookingID:  booking.ID,
		AppTransID: domain.AppTransID(booking.ID, s.now(), attempts+1),
		Amount:     booking.TotalPrice,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if _, rerr := s.locks.Release(ctx, key, holder); rerr != nil {
			log.Printf("release lock %s after payment insert failure: %v", key, rerr)
		}
		return nil, err
	}

	order, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		AppTransID:  payment.AppTransID,
		Amount:      payment.Amount,
		Description: fmt.Sprintf("court booking #%d %s %s-%s", booking.ID, booking.Date, booking.StartTime, booking.EndTime),
		Metadata:    map[string]string{"booking_id": strconv.FormatInt(booking.ID, 10)},
	})
	if err != nil {
		// unwind both sides; the lock must never outlive its pending payment
		if derr := s.payments.Delete(ctx, payment.ID); derr != nil {
			log.Printf("rollback payment %d: %v", payment.ID, derr)
		}
		if _, rerr := s.locks.Release(ctx, key, holder); rerr != nil {
			log.Printf("release lock %s after gateway failure: %v", key, rerr)
		}
		return nil, gatewayError(err.Error())
	}

	// the order exists at the gateway now, so a persistence hiccup must not
	// fail the request; the artifact carries the URL either way
	payment.OrderURL = order.OrderURL
	if err := s.payments.SetOrderURL(ctx, payment.ID, order.OrderURL); err != nil {
		log.Printf("persist order url for payment %d: %v", payment.ID, err)
	}

	return s.artifact(payment, booking), nil
}

func (s *ReservationService) artifact(payment *domain.Payment, booking *domain.Booking) *PaymentArtifact {
	expiresAt := payment.CreatedAt.Add(s.lockTTL)
	if payment.CreatedAt.IsZero() {
		expiresAt = s.now().Add(s.lockTTL)
	}
	return &PaymentArtifact{
		PaymentID:  payment.ID,
		BookingID:  booking.ID,
		AppTransID: payment.AppTransID,
		Amount:     payment.Amount,
		OrderURL:   payment.OrderURL,
		ExpiresAt:  expiresAt,
	}
}

// HandleCallback processes an at-least-once gateway callback. The returned
// pair is the gateway ack (code, message); internal failures still ack with
// the gateway's failure code and zero state change.
func (s *ReservationService) HandleCallback(ctx context.Context, data, mac string) (int, string) {
	if !s.gw.VerifyCallback(data, mac) {
		log.Printf("callback rejected: signature mismatch")
		return AckFailure, "invalid signature"
	}

	cb, err := s.gw.DecodeCallback(data)
	if err != nil {
		log.Printf("callback rejected: %v", err)
		return AckFailure, "malformed callback"
	}

	payment, err := s.payments.GetByAppTransID(ctx, cb.AppTransID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			log.Printf("callback for unknown app_trans_id %s", cb.AppTransID)
			return AckFailure, "payment not found"
		}
		log.Printf("callback lookup %s: %v", cb.AppTransID, err)
		return AckFailure, "internal error"
	}

	if payment.Status.Terminal() {
		return AckSuccess, "already processed"
	}

	if cb.Type != gateway.CallbackTypePayment {
		if err := s.markFailed(ctx, payment, "payment failed at gateway"); err != nil {
			log.Printf("callback mark failed %d: %v", payment.ID, err)
			return AckFailure, "internal error"
		}
		return AckSuccess, "acknowledged"
	}

	if err := s.confirm(ctx, payment, cb.ProviderTransID, data); err != nil {
		log.Printf("callback confirm %d: %v", payment.ID, err)
		return AckFailure, "internal error"
	}
	return AckSuccess, "success"
}

// QueryStatus returns the cached state for a terminal payment and re-queries
// the gateway for a pending one, converging on the callback transition logic.
func (s *ReservationService) QueryStatus(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return payment, nil
	}

	result, err := s.gw.QueryOrder(ctx, payment.AppTransID)
	if err != nil {
		return nil, gatewayError(err.Error())
	}

	switch result.Status {
	case gateway.StatusSuccess:
		if err := s.confirm(ctx, payment, result.ProviderTransID, ""); err != nil {
			return nil, err
		}
	case gateway.StatusFailed:
		if err := s.markFailed(ctx, payment, "payment failed at gateway"); err != nil {
			return nil, err
		}
	case gateway.StatusProcessing:
		return payment, nil
	}
	return s.GetPayment(ctx, paymentID)
}

func (s *ReservationService) GetPayment(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, notFoundError("payment not found")
	}
	return payment, err
}

func (s *ReservationService) GetPaymentForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	payment, err := s.payments.GetByBookingID(ctx, bookingID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, notFoundError("payment not found")
	}
	return payment, err
}

// confirm is the single success transition shared by callback and query
// paths: payment SUCCESS + booking CONFIRMED in one transaction, lock
// release, fan-out, lifecycle event.
func (s *ReservationService) confirm(ctx context.Context, payment *domain.Payment, providerTransID, rawPayload string) error {
	transitioned, err := s.payments.ConfirmWithBooking(ctx, payment.ID, providerTransID, rawPayload)
	if err != nil {
		return err
	}
	if !transitioned {
		return nil // lost the race to a concurrent callback; nothing to redo
	}

	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return err
	}

	s.releaseLock(ctx, booking)
	s.invalidateGrid(ctx, booking.SubCourtID, booking.Date)
	s.notify(payment.ID, booking, domain.PaymentStatusSuccess, "payment successful")
	s.publish(ctx, "payment_succeeded", booking, payment.ID)
	return nil
}

func (s *ReservationService) markFailed(ctx context.Context, payment *domain.Payment, message string) error {
	updated, err := s.payments.UpdateStatus(ctx, payment.ID, domain.PaymentStatusFailed)
	if err != nil {
		return err
	}

	booking, err := s.bookings.GetByID(ctx, updated.BookingID)
	if err != nil {
		return err
	}

	// booking stays PENDING so the guest may retry, but FAILED is terminal
	// and the slot lock goes with it
	s.releaseLock(ctx, booking)
	s.notify(updated.ID, booking, domain.PaymentStatusFailed, message)
	s.publish(ctx, "payment_failed", booking, updated.ID)
	return nil
}

// ExpireStalePayments is the reconciliation safety net for abandoned flows:
// PENDING payments older than lockTTL+buffer expire and cancel their
// bookings. The cutoff exceeds any plausible gateway round trip; the narrow
// race against a callback in flight is accepted and bounded.
func (s *ReservationService) ExpireStalePayments(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-(s.lockTTL + s.expiryBuffer))
	pairs, err := s.payments.ExpireStaleWithBookings(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, pair := range pairs {
		booking := pair.Booking
		s.releaseLock(ctx, &booking)
		s.invalidateGrid(ctx, booking.SubCourtID, booking.Date)
		s.notify(pair.Payment.ID, &booking, domain.PaymentStatusExpired, "payment window expired")
		s.publish(ctx, "payment_expired", &booking, pair.Payment.ID)
	}
	return len(pairs), nil
}

// CompleteFinishedBookings moves confirmed bookings whose end time has
// passed (in the venue timezone) to COMPLETED.
func (s *ReservationService) CompleteFinishedBookings(ctx context.Context) (int64, error) {
	return s.bookings.CompleteFinished(ctx, s.now().In(s.loc))
}

// releaseLock is best-effort: the lock's own TTL is the second safety net.
func (s *ReservationService) releaseLock(ctx context.Context, booking *domain.Booking) {
	key := lock.SlotKey(booking.SubCourtID, booking.Date, booking.StartTime, booking.EndTime)
	holder := strconv.FormatInt(booking.ID, 10)
	if _, err := s.locks.Release(ctx, key, holder); err != nil {
		log.Printf("release lock %s: %v", key, err)
	}
}

func (s *ReservationService) invalidateGrid(ctx context.Context, subCourtID int64, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateGrid(ctx, subCourtID, date); err != nil {
		log.Printf("invalidate grid %d/%s: %v", subCourtID, date, err)
	}
}

func (s *ReservationService) notify(paymentID int64, booking *domain.Booking, status domain.PaymentStatus, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(paymentID, notify.Event{
		Type:      "payment_status",
		PaymentID: paymentID,
		Status:    string(status),
		BookingID: booking.ID,
		Message:   message,
	})
}

func (s *ReservationService) publish(ctx context.Context, eventType string, booking *domain.Booking, paymentID int64) {
	if s.producer == nil || s.lifecycleTopic == "" {
		return
	}
	event := kafkaEvent(eventType, booking, paymentID, s.now())
	key := strconv.FormatInt(booking.ID, 10)
	if err := s.producer.Publish(ctx, s.lifecycleTopic, key, event); err != nil {
		log.Printf("publish %s for booking %d: %v", eventType, booking.ID, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			log.Printf("publish %s notification for booking %d: %v", eventType, booking.ID, err)
		}
	}
}
