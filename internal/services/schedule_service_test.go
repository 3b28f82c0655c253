package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sinoficio13/gym/internal/models"
)

type stubScheduleStore struct {
	exists    bool
	createErr error
	created   []string
	deleted   []int64
}

func (s *stubScheduleStore) Create(_ context.Context, dayOfWeek int, startTime string) (*models.ScheduleEntry, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, startTime)
	return &models.ScheduleEntry{ID: int64(len(s.created)), DayOfWeek: dayOfWeek, StartTime: startTime, Active: true}, nil
}

func (s *stubScheduleStore) ActiveExists(_ context.Context, _ int, _ string) (bool, error) {
	return s.exists, nil
}

func (s *stubScheduleStore) ListAll(_ context.Context) ([]models.ScheduleEntry, error) {
	return nil, nil
}

func (s *stubScheduleStore) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubBlockStore struct {
	existing  *models.BlockedSlot
	getGate   chan struct{}
	createErr error
	created   []models.BlockedSlot
	deleted   []int64
}

func (s *stubBlockStore) Create(_ context.Context, start, end time.Time, reason *string) (*models.BlockedSlot, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	block := models.BlockedSlot{ID: int64(len(s.created) + 1), StartTime: start, EndTime: end, Reason: reason}
	s.created = append(s.created, block)
	return &block, nil
}

func (s *stubBlockStore) GetByStart(_ context.Context, _ time.Time) (*models.BlockedSlot, error) {
	if s.getGate != nil {
		<-s.getGate
	}
	if s.existing == nil {
		return nil, pgx.ErrNoRows
	}
	return s.existing, nil
}

func (s *stubBlockStore) ListRange(_ context.Context, _, _ time.Time) ([]models.BlockedSlot, error) {
	return nil, nil
}

func (s *stubBlockStore) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func scheduleFixture(entries *stubScheduleStore, blocks *stubBlockStore) (*ScheduleService, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewScheduleService(entries, blocks, pub, time.Hour, time.UTC), pub
}

func TestAddEntryValidatesInput(t *testing.T) {
	service, _ := scheduleFixture(&stubScheduleStore{}, &stubBlockStore{})

	if _, err := service.AddEntry(context.Background(), 7, "09:00"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for day 7, got %v", err)
	}
	if _, err := service.AddEntry(context.Background(), 1, "9am"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed time, got %v", err)
	}
}

func TestAddEntryCreatesAndPublishes(t *testing.T) {
	entries := &stubScheduleStore{}
	service, pub := scheduleFixture(entries, &stubBlockStore{})

	result, err := service.AddEntry(context.Background(), 1, "09:00")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if result.AlreadyExists || result.Entry == nil {
		t.Fatalf("expected new entry, got %+v", result)
	}
	if len(pub.events) != 1 || pub.events[0] != "work_schedule/insert" {
		t.Fatalf("expected one insert event, got %v", pub.events)
	}
}

func TestAddEntryDuplicateWarnsWithoutWriting(t *testing.T) {
	entries := &stubScheduleStore{exists: true}
	service, pub := scheduleFixture(entries, &stubBlockStore{})

	result, err := service.AddEntry(context.Background(), 1, "09:00")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if !result.AlreadyExists || result.Entry != nil {
		t.Fatalf("expected already_exists with no entry, got %+v", result)
	}
	if len(entries.created) != 0 {
		t.Fatal("expected no insert")
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %v", pub.events)
	}
}

func TestAddEntryConcurrentDuplicateReadsAsExisting(t *testing.T) {
	entries := &stubScheduleStore{createErr: &pgconn.PgError{Code: "23505"}}
	service, _ := scheduleFixture(entries, &stubBlockStore{})

	result, err := service.AddEntry(context.Background(), 1, "09:00")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if !result.AlreadyExists {
		t.Fatalf("expected unique violation to surface as already_exists, got %+v", result)
	}
}

func TestToggleBlockCreatesBlockOnOpenCell(t *testing.T) {
	blocks := &stubBlockStore{}
	service, pub := scheduleFixture(&stubScheduleStore{}, blocks)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	result, err := service.ToggleBlock(context.Background(), start, nil)
	if err != nil {
		t.Fatalf("ToggleBlock: %v", err)
	}
	if !result.Blocked || result.Block == nil {
		t.Fatalf("expected blocked result, got %+v", result)
	}
	if !result.Block.EndTime.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected one-slot span, got %v", result.Block.EndTime)
	}
	if len(pub.events) != 1 || pub.events[0] != "blocked_slots/insert" {
		t.Fatalf("expected insert event, got %v", pub.events)
	}
	if service.TogglePending(start) {
		t.Fatal("expected cell back to idle after confirmation")
	}
}

func TestToggleBlockRemovesExistingBlock(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	blocks := &stubBlockStore{existing: &models.BlockedSlot{ID: 4, StartTime: start, EndTime: start.Add(time.Hour)}}
	service, pub := scheduleFixture(&stubScheduleStore{}, blocks)

	result, err := service.ToggleBlock(context.Background(), start, nil)
	if err != nil {
		t.Fatalf("ToggleBlock: %v", err)
	}
	if result.Blocked {
		t.Fatalf("expected unblocked result, got %+v", result)
	}
	if len(blocks.deleted) != 1 || blocks.deleted[0] != 4 {
		t.Fatalf("expected block 4 deleted, got %v", blocks.deleted)
	}
	if len(pub.events) != 1 || pub.events[0] != "blocked_slots/delete" {
		t.Fatalf("expected delete event, got %v", pub.events)
	}
}

func TestToggleBlockRollsBackCellOnPersistenceFailure(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	blocks := &stubBlockStore{createErr: errors.New("connection reset")}
	service, pub := scheduleFixture(&stubScheduleStore{}, blocks)

	if _, err := service.ToggleBlock(context.Background(), start, nil); err == nil {
		t.Fatal("expected persistence error to surface")
	}
	if service.TogglePending(start) {
		t.Fatal("expected cell rolled back to idle")
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events on failure, got %v", pub.events)
	}

	// The rolled-back cell accepts the retry.
	blocks.createErr = nil
	if _, err := service.ToggleBlock(context.Background(), start, nil); err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}
}

func TestToggleBlockRejectsSecondToggleWhileUnconfirmed(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	gate := make(chan struct{})
	blocks := &stubBlockStore{getGate: gate}
	service, _ := scheduleFixture(&stubScheduleStore{}, blocks)

	firstDone := make(chan error, 1)
	go func() {
		_, err := service.ToggleBlock(context.Background(), start, nil)
		firstDone <- err
	}()

	for !service.TogglePending(start) {
		time.Sleep(time.Millisecond)
	}

	if _, err := service.ToggleBlock(context.Background(), start.Add(30*time.Second), nil); !errors.Is(err, ErrStaleConfirmation) {
		t.Fatalf("expected ErrStaleConfirmation for same cell, got %v", err)
	}

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first toggle: %v", err)
	}

	// Once confirmed the cell accepts toggles again.
	if _, err := service.ToggleBlock(context.Background(), start, nil); err != nil {
		t.Fatalf("post-confirmation toggle: %v", err)
	}
}

func TestToggleBlockDistinctCellsDoNotInterfere(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	gate := make(chan struct{})
	blocks := &stubBlockStore{getGate: gate}
	service, _ := scheduleFixture(&stubScheduleStore{}, blocks)

	firstDone := make(chan error, 1)
	go func() {
		_, err := service.ToggleBlock(context.Background(), start, nil)
		firstDone <- err
	}()

	for !service.TogglePending(start) {
		time.Sleep(time.Millisecond)
	}

	if service.TogglePending(start.Add(time.Hour)) {
		t.Fatal("expected other cell idle")
	}

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first toggle: %v", err)
	}
}
