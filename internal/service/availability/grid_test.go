package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tuannda91/courtbook/internal/domain"
)

func weekdayRules() []domain.PricingRule {
	return []domain.PricingRule{
		{ID: 1, DayType: domain.DayTypeWeekday, StartTime: "06:00", EndTime: "17:00", PricePerHour: 70000, Active: true},
		{ID: 2, DayType: domain.DayTypeWeekday, StartTime: "17:00", EndTime: "22:00", PricePerHour: 100000, Active: true},
		{ID: 3, DayType: domain.DayTypeWeekend, StartTime: "06:00", EndTime: "22:00", PricePerHour: 120000, Active: true},
	}
}

func TestParseHHMM(t *testing.T) {
	min, err := ParseHHMM("10:30")
	assert.NoError(t, err)
	assert.Equal(t, 630, min)

	_, err = ParseHHMM("25:00")
	assert.Error(t, err)

	_, err = ParseHHMM("9:00")
	assert.Error(t, err)
}

func TestFormatHHMM(t *testing.T) {
	assert.Equal(t, "09:00", FormatHHMM(540))
	assert.Equal(t, "23:30", FormatHHMM(1410))
}

func TestDayTypeFor_Precedence(t *testing.T) {
	// 2025-03-03 is a Monday, 2025-03-01 a Saturday
	dt, err := DayTypeFor("2025-03-03", false)
	assert.NoError(t, err)
	assert.Equal(t, domain.DayTypeWeekday, dt)

	dt, err = DayTypeFor("2025-03-01", false)
	assert.NoError(t, err)
	assert.Equal(t, domain.DayTypeWeekend, dt)

	// holiday wins over weekend
	dt, err = DayTypeFor("2025-03-01", true)
	assert.NoError(t, err)
	assert.Equal(t, domain.DayTypeHoliday, dt)
}

func TestBuildGrid_PricesAndStep(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:   "06:00",
		CloseTime:  "22:00",
		DayType:    domain.DayTypeWeekday,
		Multiplier: 1.0,
		Rules:      weekdayRules(),
	})

	assert.NoError(t, err)
	assert.Len(t, grid, 32)
	assert.Equal(t, "06:00", grid[0].StartTime)
	assert.Equal(t, "06:30", grid[0].EndTime)
	assert.Equal(t, int64(35000), grid[0].Price)
	assert.True(t, grid[0].Available)

	// evening rule applies after 17:00
	last := grid[len(grid)-1]
	assert.Equal(t, "21:30", last.StartTime)
	assert.Equal(t, int64(50000), last.Price)
}

func TestBuildGrid_BookingBlocksSlots(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:  "10:00",
		CloseTime: "12:00",
		DayType:   domain.DayTypeWeekday,
		Rules:     weekdayRules(),
		Bookings: []domain.Booking{
			{StartTime: "10:00", EndTime: "11:00", Status: domain.BookingStatusPending},
		},
	})

	assert.NoError(t, err)
	assert.Len(t, grid, 4)
	assert.False(t, grid[0].Available) // 10:00-10:30
	assert.False(t, grid[1].Available) // 10:30-11:00
	assert.True(t, grid[2].Available)  // 11:00-11:30
	assert.True(t, grid[3].Available)
}

func TestBuildGrid_FullDayClosure(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:  "10:00",
		CloseTime: "12:00",
		DayType:   domain.DayTypeWeekday,
		Rules:     weekdayRules(),
		Closures:  []domain.Closure{{ID: 1, Reason: "maintenance"}},
	})

	assert.NoError(t, err)
	for _, s := range grid {
		assert.False(t, s.Available)
	}
}

func TestBuildGrid_PartialClosure(t *testing.T) {
	start, end := "11:00", "12:00"
	grid, err := BuildGrid(GridInputs{
		OpenTime:  "10:00",
		CloseTime: "13:00",
		DayType:   domain.DayTypeWeekday,
		Rules:     weekdayRules(),
		Closures:  []domain.Closure{{ID: 1, StartTime: &start, EndTime: &end}},
	})

	assert.NoError(t, err)
	assert.True(t, grid[0].Available)  // 10:00
	assert.True(t, grid[1].Available)  // 10:30
	assert.False(t, grid[2].Available) // 11:00
	assert.False(t, grid[3].Available) // 11:30
	assert.True(t, grid[4].Available)  // 12:00
}

func TestBuildGrid_HolidayMultiplierRounds(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:   "06:00",
		CloseTime:  "07:00",
		DayType:    domain.DayTypeHoliday,
		Multiplier: 1.5,
		Rules: []domain.PricingRule{
			{ID: 1, DayType: domain.DayTypeHoliday, StartTime: "06:00", EndTime: "22:00", PricePerHour: 70001, Active: true},
		},
	})

	assert.NoError(t, err)
	// 70001/2 * 1.5 = 52500.75 → 52501
	assert.Equal(t, int64(52501), grid[0].Price)
}

func TestBuildGrid_PricingGapIsZeroNotError(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:  "05:00",
		CloseTime: "06:00",
		DayType:   domain.DayTypeWeekday,
		Rules:     weekdayRules(), // no rule before 06:00
		Bookings: []domain.Booking{
			{StartTime: "05:00", EndTime: "05:30", Status: domain.BookingStatusConfirmed},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), grid[0].Price)
	assert.False(t, grid[0].Available) // overlap rules still apply
}

func TestTotalPrice_Additivity(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:   "06:00",
		CloseTime:  "22:00",
		DayType:    domain.DayTypeWeekday,
		Multiplier: 1.0,
		Rules:      weekdayRules(),
	})
	assert.NoError(t, err)

	// scenario from the pricing contract: 2 hours at 70000/hr on a weekday
	total, err := TotalPrice(grid, "10:00", "12:00")
	assert.NoError(t, err)
	assert.Equal(t, int64(140000), total)

	// sum of the halves equals the whole
	first, err := TotalPrice(grid, "10:00", "11:00")
	assert.NoError(t, err)
	second, err := TotalPrice(grid, "11:00", "12:00")
	assert.NoError(t, err)
	assert.Equal(t, total, first+second)
}

func TestTotalPrice_OutsideOpeningHours(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:  "06:00",
		CloseTime: "22:00",
		DayType:   domain.DayTypeWeekday,
		Rules:     weekdayRules(),
	})
	assert.NoError(t, err)

	_, err = TotalPrice(grid, "21:30", "23:00")
	assert.Error(t, err)
}

func TestRangeAvailable(t *testing.T) {
	grid, err := BuildGrid(GridInputs{
		OpenTime:  "10:00",
		CloseTime: "12:00",
		DayType:   domain.DayTypeWeekday,
		Rules:     weekdayRules(),
		Bookings: []domain.Booking{
			{StartTime: "10:00", EndTime: "11:00", Status: domain.BookingStatusConfirmed},
		},
	})
	assert.NoError(t, err)

	assert.False(t, RangeAvailable(grid, "10:30", "11:30"))
	assert.True(t, RangeAvailable(grid, "11:00", "12:00"))
}
