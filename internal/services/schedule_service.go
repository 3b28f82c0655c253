package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sinoficio13/gym/internal/models"
)

var ErrStaleConfirmation = errors.New("previous toggle still awaiting confirmation")

type scheduleStore interface {
	Create(ctx context.Context, dayOfWeek int, startTime string) (*models.ScheduleEntry, error)
	ActiveExists(ctx context.Context, dayOfWeek int, startTime string) (bool, error)
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
	Delete(ctx context.Context, id int64) error
}

type blockStore interface {
	Create(ctx context.Context, start, end time.Time, reason *string) (*models.BlockedSlot, error)
	GetByStart(ctx context.Context, start time.Time) (*models.BlockedSlot, error)
	ListRange(ctx context.Context, from, to time.Time) ([]models.BlockedSlot, error)
	Delete(ctx context.Context, id int64) error
}

type ScheduleService struct {
	entries      scheduleStore
	blocks       blockStore
	events       changePublisher
	slotDuration time.Duration
	loc          *time.Location

	// Per-cell toggle state machine: absent = idle, present =
	// optimistic (a persistence call is in flight under the temporary
	// id). Confirmation or rollback both return the cell to idle.
	mu      sync.Mutex
	pending map[int64]uuid.UUID
}

func NewScheduleService(
	entries scheduleStore,
	blocks blockStore,
	events changePublisher,
	slotDuration time.Duration,
	loc *time.Location,
) *ScheduleService {
	return &ScheduleService{
		entries:      entries,
		blocks:       blocks,
		events:       events,
		slotDuration: slotDuration,
		loc:          loc,
		pending:      make(map[int64]uuid.UUID),
	}
}

type AddEntryResult struct {
	Entry         *models.ScheduleEntry `json:"entry,omitempty"`
	AlreadyExists bool                  `json:"already_exists"`
}

// AddEntry registers a recurring weekly offer time. A duplicate is not
// an error: the caller gets the already_exists flag and nothing is
// written, matching the non-blocking warning the admin UI shows.
func (s *ScheduleService) AddEntry(
	ctx context.Context,
	dayOfWeek int,
	startTime string,
) (*AddEntryResult, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidInput
	}
	if _, err := time.Parse("15:04", startTime); err != nil {
		return nil, ErrInvalidInput
	}

	exists, err := s.entries.ActiveExists(ctx, dayOfWeek, startTime)
	if err != nil {
		return nil, err
	}
	if exists {
		return &AddEntryResult{AlreadyExists: true}, nil
	}

	entry, err := s.entries.Create(ctx, dayOfWeek, startTime)
	if err != nil {
		// A concurrent add can slip between the check and the insert;
		// the partial unique index turns that into a duplicate, not an
		// overshoot.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &AddEntryResult{AlreadyExists: true}, nil
		}
		return nil, err
	}

	s.events.Publish("work_schedule", "insert", time.Time{})
	return &AddEntryResult{Entry: entry}, nil
}

func (s *ScheduleService) RemoveEntry(ctx context.Context, id int64) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish("work_schedule", "delete", time.Time{})
	return nil
}

func (s *ScheduleService) ListWeek(ctx context.Context) ([]models.ScheduleEntry, error) {
	return s.entries.ListAll(ctx)
}

type BlockToggleResult struct {
	Blocked bool                `json:"blocked"`
	Block   *models.BlockedSlot `json:"block,omitempty"`
	TempID  uuid.UUID           `json:"temp_id"`
}

// ToggleBlock flips one (date, hour) cell between blocked and open: a
// persisted block is deleted, an open cell gets a block spanning one
// slot. While a toggle for the cell is unconfirmed, further toggles on
// it fail ErrStaleConfirmation so a second flip cannot race the
// first's round-trip. Existing appointments in the cell are untouched;
// a block only stops future bookings.
func (s *ScheduleService) ToggleBlock(
	ctx context.Context,
	slotStart time.Time,
	reason *string,
) (*BlockToggleResult, error) {
	if slotStart.IsZero() {
		return nil, ErrInvalidInput
	}
	slotStart = slotStart.Truncate(time.Minute)

	key := slotStart.Unix()
	tempID := uuid.New()

	s.mu.Lock()
	if _, inFlight := s.pending[key]; inFlight {
		s.mu.Unlock()
		return nil, ErrStaleConfirmation
	}
	s.pending[key] = tempID
	s.mu.Unlock()

	// Confirmation and rollback both clear the optimistic entry.
	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}()

	existing, err := s.blocks.GetByStart(ctx, slotStart)
	switch {
	case err == nil:
		if err := s.blocks.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
		s.events.Publish("blocked_slots", "delete", slotStart)
		return &BlockToggleResult{Blocked: false, TempID: tempID}, nil
	case errors.Is(err, pgx.ErrNoRows):
		created, err := s.blocks.Create(ctx, slotStart, slotStart.Add(s.slotDuration), reason)
		if err != nil {
			return nil, err
		}
		s.events.Publish("blocked_slots", "insert", slotStart)
		return &BlockToggleResult{Blocked: true, Block: created, TempID: tempID}, nil
	default:
		return nil, err
	}
}

// TogglePending reports whether a cell currently holds an unconfirmed
// toggle.
func (s *ScheduleService) TogglePending(slotStart time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, inFlight := s.pending[slotStart.Truncate(time.Minute).Unix()]
	return inFlight
}

func (s *ScheduleService) ListBlocks(
	ctx context.Context,
	from, to time.Time,
) ([]models.BlockedSlot, error) {
	return s.blocks.ListRange(ctx, from, to)
}
