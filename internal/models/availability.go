package models

import "time"

type Verdict string

const (
	VerdictOpen              Verdict = "open"
	VerdictFull              Verdict = "full"
	VerdictBlocked           Verdict = "blocked"
	VerdictBookedByRequester Verdict = "booked_by_requester"
)

// Slot is one candidate start time on a concrete date, resolved for a
// particular viewer.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	Verdict   Verdict   `json:"verdict"`
	Occupancy int       `json:"occupancy"`
	Capacity  int       `json:"capacity"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
