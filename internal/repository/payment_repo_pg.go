package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuannda91/courtbook/internal/domain"
)

var ErrPaymentNotFound = errors.New("payment not found")

// StalePair is one expiry-sweep casualty: the expired payment and the
// booking that was cancelled with it.
type StalePair struct {
	Payment domain.Payment
	Booking domain.Booking
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByAppTransID(ctx context.Context, appTransID string) (*domain.Payment, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	FindForBooking(ctx context.Context, bookingID int64, status domain.PaymentStatus) (*domain.Payment, error)
	CountForBooking(ctx context.Context, bookingID int64) (int, error)
	UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Payment, error)
	SetOrderURL(ctx context.Context, id int64, orderURL string) error
	Delete(ctx context.Context, id int64) error
	ConfirmWithBooking(ctx context.Context, paymentID int64, providerTransID, rawPayload string) (bool, error)
	ExpireStaleWithBookings(ctx context.Context, cutoff time.Time) ([]StalePair, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, app_trans_id, amount, status, provider_trans_id, order_url, callback_payload, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.AppTransID, &p.Amount, &p.Status, &p.ProviderTransID, &p.OrderURL, &p.CallbackPayload, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	payment.Status = domain.PaymentStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO payments (booking_id, app_trans_id, amount, status, provider_trans_id, order_url, callback_payload)
		VALUES ($1, $2, $3, $4, '', $5, '')
		RETURNING id, created_at, updated_at`,
		payment.BookingID, payment.AppTransID, payment.Amount, payment.Status, payment.OrderURL).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
}

func (r *PGPaymentRepository) GetByAppTransID(ctx context.Context, appTransID string) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE app_trans_id=$1`, appTransID))
}

func (r *PGPaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 ORDER BY created_at DESC LIMIT 1`, bookingID))
}

func (r *PGPaymentRepository) FindForBooking(ctx context.Context, bookingID int64, status domain.PaymentStatus) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 AND status=$2 ORDER BY created_at DESC LIMIT 1`, bookingID, status))
	if errors.Is(err, ErrPaymentNotFound) {
		return nil, nil
	}
	return p, err
}

// CountForBooking returns how many payment attempts exist for a booking,
// terminal rows included. Feeds the attempt ordinal in app_trans_id.
func (r *PGPaymentRepository) CountForBooking(ctx context.Context, bookingID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM payments WHERE booking_id=$1`, bookingID).Scan(&n)
	return n, err
}

func (r *PGPaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `UPDATE payments SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+paymentColumns, status, id))
}

// SetOrderURL records the payable artifact once the gateway accepts the order.
func (r *PGPaymentRepository) SetOrderURL(ctx context.Context, id int64, orderURL string) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET order_url=$1, updated_at=now() WHERE id=$2`, orderURL, id)
	return err
}

// Delete removes a pending payment row. Used only as the local rollback when
// the gateway rejects order creation.
func (r *PGPaymentRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id=$1 AND status=$2`, id, domain.PaymentStatusPending)
	return err
}

// ConfirmWithBooking marks the payment SUCCESS and its booking CONFIRMED in
// one transaction. The status=PENDING guard makes concurrent callbacks
// converge: only the first caller observes transitioned=true.
func (r *PGPaymentRepository) ConfirmWithBooking(ctx context.Context, paymentID int64, providerTransID, rawPayload string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var bookingID int64
	err = tx.QueryRow(ctx, `UPDATE payments SET status=$1, provider_trans_id=$2, callback_payload=$3, updated_at=now()
		WHERE id=$4 AND status=$5 RETURNING booking_id`,
		domain.PaymentStatusSuccess, providerTransID, rawPayload, paymentID, domain.PaymentStatusPending).Scan(&bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		domain.BookingStatusConfirmed, bookingID, domain.BookingStatusPending); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ExpireStaleWithBookings expires PENDING payments created before cutoff and
// cancels their bookings, all in one transaction, returning the affected
// pairs so the caller can release locks and notify subscribers.
func (r *PGPaymentRepository) ExpireStaleWithBookings(ctx context.Context, cutoff time.Time) ([]StalePair, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `UPDATE payments SET status=$1, updated_at=now()
		WHERE status=$2 AND created_at <= $3 RETURNING `+paymentColumns,
		domain.PaymentStatusExpired, domain.PaymentStatusPending, cutoff)
	if err != nil {
		return nil, err
	}

	var expired []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pairs := make([]StalePair, 0, len(expired))
	for _, p := range expired {
		b, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now()
			WHERE id=$2 AND status=$3 RETURNING `+bookingColumns,
			domain.BookingStatusCancelled, p.BookingID, domain.BookingStatusPending))
		if err != nil {
			if errors.Is(err, ErrBookingNotFound) {
				// booking already left PENDING through another path
				continue
			}
			return nil, err
		}
		pairs = append(pairs, StalePair{Payment: p, Booking: *b})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return pairs, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
