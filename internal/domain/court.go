package domain

import "time"

type SubCourt struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CourtSchedule is one weekly opening-hours entry. Weekday follows
// time.Weekday numbering (Sunday = 0).
type CourtSchedule struct {
	ID         int64
	SubCourtID int64
	Weekday    int
	OpenTime   string // HH:MM
	CloseTime  string // HH:MM
}

type DayType string

const (
	DayTypeWeekday DayType = "weekday"
	DayTypeWeekend DayType = "weekend"
	DayTypeHoliday DayType = "holiday"
)

type PricingRule struct {
	ID           int64
	DayType      DayType
	StartTime    string // HH:MM
	EndTime      string // HH:MM
	PricePerHour int64
	Active       bool
}

// Closure blocks out a sub-court. Nil StartTime/EndTime means the whole day.
type Closure struct {
	ID         int64
	SubCourtID int64
	Date       string
	StartTime  *string
	EndTime    *string
	Reason     string
}

// HolidayMultiplier scales slot prices for a specific date. Dates without an
// entry use 1.0.
type HolidayMultiplier struct {
	Date       string
	Multiplier float64
}
