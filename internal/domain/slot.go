package domain

// Slot is one 30-minute cell of a day grid: a read-only projection of
// opening hours, bookings, closures and pricing for a sub-court and date.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
}
