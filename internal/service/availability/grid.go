package availability

import (
	"fmt"
	"math"
	"time"

	"github.com/tuannda91/courtbook/internal/domain"
)

// SlotMinutes is the fixed grid step.
const SlotMinutes = 30

// ParseHHMM converts a zero-padded HH:MM string to minutes from midnight.
func ParseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatHHMM converts minutes from midnight to a zero-padded HH:MM string.
func FormatHHMM(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// ParseDate validates a 2006-01-02 date string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// DayTypeFor resolves the pricing day type with precedence
// holiday > weekend > weekday.
func DayTypeFor(date string, isHoliday bool) (domain.DayType, error) {
	if isHoliday {
		return domain.DayTypeHoliday, nil
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return domain.DayTypeWeekend, nil
	}
	return domain.DayTypeWeekday, nil
}

// GridInputs are everything the calculator needs for one sub-court and date.
// The projection is pure: same inputs, same grid.
type GridInputs struct {
	OpenTime   string
	CloseTime  string
	DayType    domain.DayType
	Multiplier float64
	Bookings   []domain.Booking
	Closures   []domain.Closure
	Rules      []domain.PricingRule
}

// BuildGrid produces the 30-minute slot grid between opening and closing
// time. A slot is unavailable when it overlaps any non-cancelled booking or
// closure (a closure without time bounds blacks out the whole day). Price is
// the matching rule's pricePerHour/2 scaled by the holiday multiplier and
// rounded to the nearest integer unit; a pricing gap yields 0, not an error.
func BuildGrid(in GridInputs) ([]domain.Slot, error) {
	openMin, err := ParseHHMM(in.OpenTime)
	if err != nil {
		return nil, err
	}
	closeMin, err := ParseHHMM(in.CloseTime)
	if err != nil {
		return nil, err
	}

	multiplier := in.Multiplier
	if multiplier == 0 {
		multiplier = 1.0
	}

	slots := make([]domain.Slot, 0, (closeMin-openMin)/SlotMinutes)
	for start := openMin; start+SlotMinutes <= closeMin; start += SlotMinutes {
		end := start + SlotMinutes
		slot := domain.Slot{
			StartTime: FormatHHMM(start),
			EndTime:   FormatHHMM(end),
			Available: true,
		}

		for _, b := range in.Bookings {
			if b.Overlaps(slot.StartTime, slot.EndTime) {
				slot.Available = false
				break
			}
		}
		if slot.Available {
			for _, c := range in.Closures {
				if closureCovers(c, slot.StartTime, slot.EndTime) {
					slot.Available = false
					break
				}
			}
		}

		if rule := matchRule(in.Rules, in.DayType, slot.StartTime, slot.EndTime); rule != nil {
			slot.Price = int64(math.Round(float64(rule.PricePerHour) / 2 * multiplier))
		}

		slots = append(slots, slot)
	}
	return slots, nil
}

func closureCovers(c domain.Closure, start, end string) bool {
	if c.StartTime == nil || c.EndTime == nil {
		return true // full-day closure
	}
	return *c.StartTime < end && *c.EndTime > start
}

func matchRule(rules []domain.PricingRule, dayType domain.DayType, start, end string) *domain.PricingRule {
	for i := range rules {
		r := &rules[i]
		if !r.Active || r.DayType != dayType {
			continue
		}
		if start >= r.StartTime && end <= r.EndTime {
			return r
		}
	}
	return nil
}

// TotalPrice sums per-slot prices over [start, end). It fails if any
// 30-minute sub-interval falls outside the grid, which means the range is
// outside opening hours.
func TotalPrice(grid []domain.Slot, start, end string) (int64, error) {
	var total int64
	covered := 0
	for _, s := range grid {
		if s.StartTime >= start && s.EndTime <= end {
			total += s.Price
			covered++
		}
	}

	startMin, err := ParseHHMM(start)
	if err != nil {
		return 0, err
	}
	endMin, err := ParseHHMM(end)
	if err != nil {
		return 0, err
	}
	if covered != (endMin-startMin)/SlotMinutes {
		return 0, fmt.Errorf("range %s-%s is outside opening hours", start, end)
	}
	return total, nil
}

// RangeAvailable reports whether every slot in [start, end) is free.
func RangeAvailable(grid []domain.Slot, start, end string) bool {
	for _, s := range grid {
		if s.StartTime >= start && s.EndTime <= end && !s.Available {
			return false
		}
	}
	return true
}
