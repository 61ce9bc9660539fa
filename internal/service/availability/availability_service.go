package availability

import (
	"context"

	"github.com/tuannda91/courtbook/internal/domain"
	"github.com/tuannda91/courtbook/internal/repository"
)

type AvailabilityUseCase interface {
	DayGrid(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error)
}

type GridCache interface {
	GetGrid(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error)
	SetGrid(ctx context.Context, subCourtID int64, date string, slots []domain.Slot) error
	InvalidateGrid(ctx context.Context, subCourtID int64, date string) error
}

type AvailabilityService struct {
	courts   repository.CourtRepository
	bookings repository.BookingRepository
	cache    GridCache
}

func NewAvailabilityService(courts repository.CourtRepository, bookings repository.BookingRepository, cache GridCache) *AvailabilityService {
	return &AvailabilityService{courts: courts, bookings: bookings, cache: cache}
}

// DayGrid computes the slot grid for one sub-court and date. The cached
// projection is short-lived; the grid is a convenience view, never the
// consistency check for booking creation.
func (s *AvailabilityService) DayGrid(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetGrid(ctx, subCourtID, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	grid, err := s.buildFresh(ctx, subCourtID, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetGrid(ctx, subCourtID, date, grid)
	}
	return grid, nil
}

// FreshGrid bypasses the cache. Booking creation prices from this one so a
// just-expired cache entry cannot skew the total.
func (s *AvailabilityService) FreshGrid(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error) {
	return s.buildFresh(ctx, subCourtID, date)
}

func (s *AvailabilityService) buildFresh(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error) {
	court, err := s.courts.GetSubCourt(ctx, subCourtID)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	schedule, err := s.courts.ScheduleFor(ctx, court.ID, int(parsed.Weekday()))
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return []domain.Slot{}, nil // closed that weekday
	}

	multiplier, isHoliday, err := s.courts.HolidayMultiplier(ctx, date)
	if err != nil {
		return nil, err
	}
	dayType, err := DayTypeFor(date, isHoliday)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListForDate(ctx, court.ID, date)
	if err != nil {
		return nil, err
	}
	closures, err := s.courts.ListClosures(ctx, court.ID, date)
	if err != nil {
		return nil, err
	}
	rules, err := s.courts.ListActivePricingRules(ctx)
	if err != nil {
		return nil, err
	}

	return BuildGrid(GridInputs{
		OpenTime:   schedule.OpenTime,
		CloseTime:  schedule.CloseTime,
		DayType:    dayType,
		Multiplier: multiplier,
		Bookings:   bookings,
		Closures:   closures,
		Rules:      rules,
	})
}

var _ AvailabilityUseCase = (*AvailabilityService)(nil)
