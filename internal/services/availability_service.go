package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sinoficio13/gym/internal/models"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

type scheduleReader interface {
	ListActiveByDay(ctx context.Context, dayOfWeek int) ([]models.ScheduleEntry, error)
}

type appointmentRangeReader interface {
	ListRange(ctx context.Context, from, to time.Time, excludeCancelled bool) ([]models.Appointment, error)
}

type blockRangeReader interface {
	ListRange(ctx context.Context, from, to time.Time) ([]models.BlockedSlot, error)
}

type AvailabilityService struct {
	scheduleRepo    scheduleReader
	appointmentRepo appointmentRangeReader
	blockRepo       blockRangeReader
	capacity        int
	loc             *time.Location
}

func NewAvailabilityService(
	scheduleRepo scheduleReader,
	appointmentRepo appointmentRangeReader,
	blockRepo blockRangeReader,
	capacity int,
	loc *time.Location,
) *AvailabilityService {
	return &AvailabilityService{
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
		blockRepo:       blockRepo,
		capacity:        capacity,
		loc:             loc,
	}
}

// ResolveDate produces the slot list for one date as seen by
// requesterID. requesterID 0 resolves the neutral (admin) view, which
// never yields booked_by_requester.
func (s *AvailabilityService) ResolveDate(
	ctx context.Context,
	date time.Time,
	requesterID int64,
) ([]models.Slot, error) {
	dayStart, dayEnd := DayWindow(date, s.loc)

	entries, err := s.scheduleRepo.ListActiveByDay(ctx, int(dayStart.Weekday()))
	if err != nil {
		return nil, err
	}

	appointments, err := s.appointmentRepo.ListRange(ctx, dayStart, dayEnd, true)
	if err != nil {
		return nil, err
	}

	blocks, err := s.blockRepo.ListRange(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return ResolveDay(date, entries, appointments, blocks, requesterID, s.capacity, s.loc), nil
}

// ResolveDay combines the weekly template, the day's non-cancelled
// appointments, and the day's blocks into the ordered slot list for one
// date. It is deterministic and touches no store; callers fetch state
// and re-run it whenever a change notification arrives.
//
// Verdict precedence per slot: blocked beats everything, then full
// (occupancy at capacity and the requester holds nothing there), then
// booked_by_requester, then open. An empty template means the day is
// closed and the result is empty; closed is distinct from "no data
// yet" and no default schedule is substituted.
func ResolveDay(
	date time.Time,
	entries []models.ScheduleEntry,
	appointments []models.Appointment,
	blocks []models.BlockedSlot,
	requesterID int64,
	capacity int,
	loc *time.Location,
) []models.Slot {
	slots := make([]models.Slot, 0, len(entries))
	if len(entries) == 0 {
		return slots
	}

	day := date.In(loc)

	// Duplicate template rows at the same time collapse into one candidate.
	starts := make(map[int64]struct{}, len(entries))
	candidates := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		if !entry.Active {
			continue
		}
		clock, err := time.Parse("15:04", entry.StartTime)
		if err != nil {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(),
			clock.Hour(), clock.Minute(), 0, 0, loc)
		if _, seen := starts[start.Unix()]; seen {
			continue
		}
		starts[start.Unix()] = struct{}{}
		candidates = append(candidates, start)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	occupancy := make(map[int64]int)
	holder := make(map[int64]bool)
	for _, appt := range appointments {
		if appt.Status == models.AppointmentCancelled {
			continue
		}
		key := appt.StartTime.Unix()
		occupancy[key]++
		if requesterID != 0 && appt.UserID == requesterID {
			holder[key] = true
		}
	}

	blocked := make(map[int64]struct{}, len(blocks))
	for _, block := range blocks {
		blocked[block.StartTime.Unix()] = struct{}{}
	}

	for _, start := range candidates {
		key := start.Unix()
		slot := models.Slot{
			StartTime: start,
			Occupancy: occupancy[key],
			Capacity:  capacity,
		}
		switch {
		case hasKey(blocked, key):
			slot.Verdict = models.VerdictBlocked
		case occupancy[key] >= capacity && !holder[key]:
			slot.Verdict = models.VerdictFull
		case holder[key]:
			slot.Verdict = models.VerdictBookedByRequester
		default:
			slot.Verdict = models.VerdictOpen
		}
		slots = append(slots, slot)
	}

	return slots
}

func hasKey(set map[int64]struct{}, key int64) bool {
	_, ok := set[key]
	return ok
}

// DayWindow returns [start of day, start of next day) for the date in
// the gym's timezone. AddDate keeps DST-shortened days correct.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	day := date.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseSlotStart builds the absolute slot start from a "2006-01-02"
// date and a "15:04" wall-clock time in the gym's timezone.
func ParseSlotStart(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, ErrInvalidInput
	}
	at, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, ErrInvalidInput
	}
	return time.Date(day.Year(), day.Month(), day.Day(), at.Hour(), at.Minute(), 0, 0, loc), nil
}
