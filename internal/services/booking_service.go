package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sinoficio13/gym/internal/models"
	"github.com/sinoficio13/gym/internal/repository"
)

var (
	ErrProfileIncomplete      = errors.New("profile incomplete")
	ErrSubscriptionInactive   = errors.New("subscription inactive")
	ErrSlotNotOffered         = errors.New("slot not offered")
	ErrSlotBlocked            = errors.New("slot blocked")
	ErrSlotFull               = errors.New("slot full")
	ErrAlreadyBooked          = errors.New("already booked")
	ErrDuplicateForUser       = errors.New("duplicate booking for user")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

type profileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

type subscriptionReader interface {
	HasActive(ctx context.Context, userID int64) (bool, error)
}

type appointmentReader interface {
	GetByID(ctx context.Context, id int64) (*models.Appointment, error)
	ListByUser(ctx context.Context, filter repository.AppointmentListFilter) ([]models.Appointment, error)
	ListRangeDetailed(ctx context.Context, from, to time.Time) ([]models.AppointmentDetail, error)
	UpdateStatusIfCurrent(ctx context.Context, id int64, currentStatus, nextStatus string) (*models.Appointment, error)
	Delete(ctx context.Context, id int64) error
}

type changePublisher interface {
	Publish(table, action string, at time.Time)
}

// SlotStore is the state a slot transaction may consult and mutate
// while the per-slot lock is held.
type SlotStore interface {
	BlockedAt(ctx context.Context, start time.Time) (bool, error)
	CountAtStart(ctx context.Context, start time.Time) (int, error)
	CountAtStartExcluding(ctx context.Context, start time.Time, excludedID int64) (int, error)
	HolderExistsAtStart(ctx context.Context, start time.Time, userID int64) (bool, error)
	HolderExistsAtStartExcluding(ctx context.Context, start time.Time, userID, excludedID int64) (bool, error)
	CreateAppointment(ctx context.Context, input repository.CreateAppointmentInput) (*models.Appointment, error)
	UpdateAppointmentSchedule(ctx context.Context, id int64, start, end time.Time, status string) (*models.Appointment, error)
}

// SlotTxRunner serializes writers targeting one slot. Availability a
// client saw before committing is always a stale read; every invariant
// is re-checked here, at the authoritative boundary.
type SlotTxRunner interface {
	RunSlotTx(ctx context.Context, slotStart time.Time, fn func(store SlotStore) error) error
}

type pgSlotTx struct {
	db *pgxpool.Pool
}

// NewPgSlotTxRunner runs slot transactions on Postgres: one DB
// transaction holding pg_advisory_xact_lock keyed by the slot start,
// so concurrent bookings of the same slot line up instead of racing
// the capacity count.
func NewPgSlotTxRunner(db *pgxpool.Pool) SlotTxRunner {
	return &pgSlotTx{db: db}
}

type pgSlotStore struct {
	appointments *repository.AppointmentRepository
	blocks       *repository.BlockRepository
}

func (r *pgSlotTx) RunSlotTx(
	ctx context.Context,
	slotStart time.Time,
	fn func(store SlotStore) error,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", slotStart.Unix()); err != nil {
		return err
	}

	store := &pgSlotStore{
		appointments: repository.NewAppointmentRepository(tx),
		blocks:       repository.NewBlockRepository(tx),
	}
	if err := fn(store); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *pgSlotStore) BlockedAt(ctx context.Context, start time.Time) (bool, error) {
	_, err := s.blocks.GetByStart(ctx, start)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *pgSlotStore) CountAtStart(ctx context.Context, start time.Time) (int, error) {
	return s.appointments.CountAtStart(ctx, start)
}

func (s *pgSlotStore) CountAtStartExcluding(ctx context.Context, start time.Time, excludedID int64) (int, error) {
	return s.appointments.CountAtStartExcluding(ctx, start, excludedID)
}

func (s *pgSlotStore) HolderExistsAtStart(ctx context.Context, start time.Time, userID int64) (bool, error) {
	return s.appointments.HolderExistsAtStart(ctx, start, userID)
}

func (s *pgSlotStore) HolderExistsAtStartExcluding(ctx context.Context, start time.Time, userID, excludedID int64) (bool, error) {
	return s.appointments.HolderExistsAtStartExcluding(ctx, start, userID, excludedID)
}

func (s *pgSlotStore) CreateAppointment(ctx context.Context, input repository.CreateAppointmentInput) (*models.Appointment, error) {
	return s.appointments.Create(ctx, input)
}

func (s *pgSlotStore) UpdateAppointmentSchedule(ctx context.Context, id int64, start, end time.Time, status string) (*models.Appointment, error) {
	return s.appointments.UpdateSchedule(ctx, id, start, end, status)
}

type BookingService struct {
	profileRepo      profileReader
	subscriptionRepo subscriptionReader
	scheduleRepo     scheduleReader
	appointmentRepo  appointmentReader
	slots            SlotTxRunner
	events           changePublisher
	capacity         int
	slotDuration     time.Duration
	loc              *time.Location
}

func NewBookingService(
	profileRepo profileReader,
	subscriptionRepo subscriptionReader,
	scheduleRepo scheduleReader,
	appointmentRepo appointmentReader,
	slots SlotTxRunner,
	events changePublisher,
	capacity int,
	slotDuration time.Duration,
	loc *time.Location,
) *BookingService {
	return &BookingService{
		profileRepo:      profileRepo,
		subscriptionRepo: subscriptionRepo,
		scheduleRepo:     scheduleRepo,
		appointmentRepo:  appointmentRepo,
		slots:            slots,
		events:           events,
		capacity:         capacity,
		slotDuration:     slotDuration,
		loc:              loc,
	}
}

type BookingInput struct {
	Date      string
	StartTime string
}

// RequestBooking validates and commits one appointment for the client.
// Preconditions run in order with the first failure winning: profile
// complete, subscription active, time offered by the weekly template,
// then the slot verdict re-evaluated inside the slot transaction.
func (s *BookingService) RequestBooking(
	ctx context.Context,
	clientID int64,
	input BookingInput,
) (*models.Appointment, error) {
	slotStart, err := ParseSlotStart(input.Date, input.StartTime, s.loc)
	if err != nil {
		return nil, err
	}
	if slotStart.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	profile, err := s.profileRepo.GetByUserID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileIncomplete
		}
		return nil, err
	}
	if !profile.Complete() {
		return nil, ErrProfileIncomplete
	}

	active, err := s.subscriptionRepo.HasActive(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrSubscriptionInactive
	}

	offered, err := s.slotOffered(ctx, slotStart)
	if err != nil {
		return nil, err
	}
	if !offered {
		return nil, ErrSlotNotOffered
	}

	var created *models.Appointment
	err = s.slots.RunSlotTx(ctx, slotStart, func(store SlotStore) error {
		blocked, err := store.BlockedAt(ctx, slotStart)
		if err != nil {
			return err
		}
		if blocked {
			return ErrSlotBlocked
		}

		holds, err := store.HolderExistsAtStart(ctx, slotStart, clientID)
		if err != nil {
			return err
		}
		occupancy, err := store.CountAtStart(ctx, slotStart)
		if err != nil {
			return err
		}
		if !holds && occupancy >= s.capacity {
			return ErrSlotFull
		}
		if holds {
			return ErrAlreadyBooked
		}

		created, err = store.CreateAppointment(ctx, repository.CreateAppointmentInput{
			UserID:    clientID,
			StartTime: slotStart,
			EndTime:   slotStart.Add(s.slotDuration),
			Status:    models.AppointmentConfirmed,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("appointments", "insert", created.StartTime)
	return created, nil
}

type RescheduleInput struct {
	Date      string
	StartTime string
	Status    string
}

// Reschedule moves an appointment to a new slot, preserving its
// original duration and excluding it from its own conflict set.
func (s *BookingService) Reschedule(
	ctx context.Context,
	appointmentID int64,
	input RescheduleInput,
) (*models.Appointment, error) {
	appt, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	newStart, err := ParseSlotStart(input.Date, input.StartTime, s.loc)
	if err != nil {
		return nil, err
	}
	status := appt.Status
	if input.Status != "" {
		if !validAppointmentStatus(input.Status) {
			return nil, ErrInvalidInput
		}
		status = input.Status
	}
	newEnd := newStart.Add(appt.EndTime.Sub(appt.StartTime))

	var updated *models.Appointment
	err = s.slots.RunSlotTx(ctx, newStart, func(store SlotStore) error {
		others, err := store.CountAtStartExcluding(ctx, newStart, appointmentID)
		if err != nil {
			return err
		}
		if others >= s.capacity {
			return ErrSlotFull
		}

		duplicate, err := store.HolderExistsAtStartExcluding(ctx, newStart, appt.UserID, appointmentID)
		if err != nil {
			return err
		}
		if duplicate {
			return ErrDuplicateForUser
		}

		updated, err = store.UpdateAppointmentSchedule(ctx, appointmentID, newStart, newEnd, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("appointments", "update", updated.StartTime)
	return updated, nil
}

// AdminCreate books on behalf of a client. Entitlement checks are
// skipped; capacity and duplication still hold.
func (s *BookingService) AdminCreate(
	ctx context.Context,
	clientID int64,
	input BookingInput,
) (*models.Appointment, error) {
	slotStart, err := ParseSlotStart(input.Date, input.StartTime, s.loc)
	if err != nil {
		return nil, err
	}

	var created *models.Appointment
	err = s.slots.RunSlotTx(ctx, slotStart, func(store SlotStore) error {
		occupancy, err := store.CountAtStart(ctx, slotStart)
		if err != nil {
			return err
		}
		if occupancy >= s.capacity {
			return ErrSlotFull
		}

		duplicate, err := store.HolderExistsAtStart(ctx, slotStart, clientID)
		if err != nil {
			return err
		}
		if duplicate {
			return ErrDuplicateForUser
		}

		created, err = store.CreateAppointment(ctx, repository.CreateAppointmentInput{
			UserID:    clientID,
			StartTime: slotStart,
			EndTime:   slotStart.Add(s.slotDuration),
			Status:    models.AppointmentConfirmed,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("appointments", "insert", created.StartTime)
	return created, nil
}

// Cancel is the client-side cancel: a status transition, never a
// delete.
func (s *BookingService) Cancel(
	ctx context.Context,
	actorID int64,
	appointmentID int64,
) (*models.Appointment, error) {
	appt, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != actorID {
		return nil, ErrForbidden
	}
	if appt.Status == models.AppointmentCancelled {
		return nil, ErrInvalidStateTransition
	}

	cancelled, err := s.appointmentRepo.UpdateStatusIfCurrent(
		ctx,
		appointmentID,
		appt.Status,
		models.AppointmentCancelled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.events.Publish("appointments", "update", cancelled.StartTime)
	return cancelled, nil
}

// Delete hard-deletes an appointment. Admin only; clients cancel.
func (s *BookingService) Delete(ctx context.Context, appointmentID int64) error {
	appt, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if err := s.appointmentRepo.Delete(ctx, appointmentID); err != nil {
		return err
	}
	s.events.Publish("appointments", "delete", appt.StartTime)
	return nil
}

func (s *BookingService) ListForClient(
	ctx context.Context,
	clientID int64,
	status, timeframe string,
) ([]models.Appointment, error) {
	return s.appointmentRepo.ListByUser(ctx, repository.AppointmentListFilter{
		UserID:    clientID,
		Status:    status,
		Timeframe: timeframe,
	})
}

// CalendarRange is the admin week-view feed, client display fields
// included.
func (s *BookingService) CalendarRange(
	ctx context.Context,
	from, to time.Time,
) ([]models.AppointmentDetail, error) {
	return s.appointmentRepo.ListRangeDetailed(ctx, from, to)
}

func (s *BookingService) slotOffered(ctx context.Context, slotStart time.Time) (bool, error) {
	entries, err := s.scheduleRepo.ListActiveByDay(ctx, int(slotStart.In(s.loc).Weekday()))
	if err != nil {
		return false, err
	}
	clock := slotStart.In(s.loc).Format("15:04")
	for _, entry := range entries {
		if entry.StartTime == clock {
			return true, nil
		}
	}
	return false, nil
}

func validAppointmentStatus(status string) bool {
	switch status {
	case models.AppointmentPending, models.AppointmentConfirmed, models.AppointmentCancelled:
		return true
	default:
		return false
	}
}
