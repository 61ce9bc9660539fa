package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuannda91/courtbook/internal/domain"
)

var ErrSubCourtNotFound = errors.New("sub-court not found")

type CourtRepository interface {
	GetSubCourt(ctx context.Context, id int64) (*domain.SubCourt, error)
	ScheduleFor(ctx context.Context, subCourtID int64, weekday int) (*domain.CourtSchedule, error)
	ListClosures(ctx context.Context, subCourtID int64, date string) ([]domain.Closure, error)
	ListActivePricingRules(ctx context.Context) ([]domain.PricingRule, error)
	HolidayMultiplier(ctx context.Context, date string) (float64, bool, error)
}

type PGCourtRepository struct {
	db *pgxpool.Pool
}

func NewCourtRepository(db *pgxpool.Pool) CourtRepository {
	return &PGCourtRepository{db: db}
}

func (r *PGCourtRepository) GetSubCourt(ctx context.Context, id int64) (*domain.SubCourt, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, active, created_at, updated_at FROM sub_courts WHERE id=$1`, id)
	var c domain.SubCourt
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubCourtNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGCourtRepository) ScheduleFor(ctx context.Context, subCourtID int64, weekday int) (*domain.CourtSchedule, error) {
	row := r.db.QueryRow(ctx, `SELECT id, sub_court_id, weekday, open_time, close_time FROM court_schedules WHERE sub_court_id=$1 AND weekday=$2`, subCourtID, weekday)
	var s domain.CourtSchedule
	if err := row.Scan(&s.ID, &s.SubCourtID, &s.Weekday, &s.OpenTime, &s.CloseTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGCourtRepository) ListClosures(ctx context.Context, subCourtID int64, date string) ([]domain.Closure, error) {
	rows, err := r.db.Query(ctx, `SELECT id, sub_court_id, date, start_time, end_time, reason FROM closures WHERE sub_court_id=$1 AND date=$2`, subCourtID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closures := make([]domain.Closure, 0)
	for rows.Next() {
		var c domain.Closure
		if err := rows.Scan(&c.ID, &c.SubCourtID, &c.Date, &c.StartTime, &c.EndTime, &c.Reason); err != nil {
			return nil, err
		}
		closures = append(closures, c)
	}
	return closures, rows.Err()
}

func (r *PGCourtRepository) ListActivePricingRules(ctx context.Context) ([]domain.PricingRule, error) {
	rows, err := r.db.Query(ctx, `SELECT id, day_type, start_time, end_time, price_per_hour, active FROM pricing_rules WHERE active ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]domain.PricingRule, 0)
	for rows.Next() {
		var p domain.PricingRule
		if err := rows.Scan(&p.ID, &p.DayType, &p.StartTime, &p.EndTime, &p.PricePerHour, &p.Active); err != nil {
			return nil, err
		}
		rules = append(rules, p)
	}
	return rules, rows.Err()
}

// HolidayMultiplier returns the price multiplier for a date and whether the
// date is a listed holiday. Dates without an entry use 1.0.
func (r *PGCourtRepository) HolidayMultiplier(ctx context.Context, date string) (float64, bool, error) {
	var m float64
	err := r.db.QueryRow(ctx, `SELECT multiplier FROM holiday_multipliers WHERE date=$1`, date).Scan(&m)
	if errors.Is(err, pgx.ErrNoRows) {
		return 1.0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return m, true, nil
}

var _ CourtRepository = (*PGCourtRepository)(nil)
