package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuannda91/courtbook/internal/domain"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	CreateGroup(ctx context.Context, bookings []*domain.Booking, groupID uuid.UUID) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
	Overlapping(ctx context.Context, subCourtID int64, date, start, end string, excludeID int64) (bool, error)
	ListForDate(ctx context.Context, subCourtID int64, date string) ([]domain.Booking, error)
	CompleteFinished(ctx context.Context, localNow time.Time) (int64, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, sub_court_id, date, start_time, end_time, total_price, status, group_id, guest_name, guest_phone, guest_email, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.SubCourtID, &b.Date, &b.StartTime, &b.EndTime, &b.TotalPrice, &b.Status, &b.GroupID, &b.GuestName, &b.GuestPhone, &b.GuestEmail, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (sub_court_id, date, start_time, end_time, total_price, status, group_id, guest_name, guest_phone, guest_email)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		booking.SubCourtID, booking.Date, booking.StartTime, booking.EndTime, booking.TotalPrice, booking.Status, booking.GroupID, booking.GuestName, booking.GuestPhone, booking.GuestEmail).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

// CreateGroup inserts sibling bookings sharing one group id in a single
// transaction, so a multi-court reservation is all-or-nothing.
func (r *PGBookingRepository) CreateGroup(ctx context.Context, bookings []*domain.Booking, groupID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, booking := range bookings {
		booking.Status = domain.BookingStatusPending
		booking.GroupID = &groupID
		if err := tx.QueryRow(ctx, `INSERT INTO bookings (sub_court_id, date, start_time, end_time, total_price, status, group_id, guest_name, guest_phone, guest_email)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at`,
			booking.SubCourtID, booking.Date, booking.StartTime, booking.EndTime, booking.TotalPrice, booking.Status, booking.GroupID, booking.GuestName, booking.GuestPhone, booking.GuestEmail).
			Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, status, id))
}

// Overlapping is the authoritative consistency check: the interval-overlap
// test against every PENDING or CONFIRMED booking on the same sub-court and
// date. Zero-padded HH:MM strings compare correctly as text.
func (r *PGBookingRepository) Overlapping(ctx context.Context, subCourtID int64, date, start, end string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE sub_court_id=$1 AND date=$2
		  AND status IN ($3, $4)
		  AND start_time < $5 AND end_time > $6
		  AND id <> $7)`,
		subCourtID, date, domain.BookingStatusPending, domain.BookingStatusConfirmed, end, start, excludeID).Scan(&exists)
	return exists, err
}

func (r *PGBookingRepository) ListForDate(ctx context.Context, subCourtID int64, date string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE sub_court_id=$1 AND date=$2 AND status IN ($3, $4) ORDER BY start_time`,
		subCourtID, date, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CompleteFinished moves CONFIRMED bookings whose date+endTime has passed to
// COMPLETED in one statement. localNow must already be in the venue timezone;
// the comparison is against the naive local timestamp.
func (r *PGBookingRepository) CompleteFinished(ctx context.Context, localNow time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE status=$2 AND (date || ' ' || end_time)::timestamp < $3::timestamp`,
		domain.BookingStatusCompleted, domain.BookingStatusConfirmed, localNow.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
