package models

import "time"

// ScheduleEntry is a recurring weekly offer time. StartTime is a
// wall-clock "HH:MM" string in the gym's timezone; entries are never
// mutated in place, only added and deleted.
type ScheduleEntry struct {
	ID        int64     `json:"id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockedSlot closes one slot for new bookings. It does not touch
// appointments that already exist inside its span.
type BlockedSlot struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
