package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sinoficio13/gym/internal/models"
)

type CreateAppointmentInput struct {
	UserID    int64
	StartTime time.Time
	EndTime   time.Time
	Status    string
}

type AppointmentListFilter struct {
	UserID    int64
	Status    string
	Timeframe string
}

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = "id, user_id, start_time, end_time, status, created_at, updated_at"

func scanAppointment(row interface{ Scan(dest ...any) error }) (*models.Appointment, error) {
	var appt models.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.UserID,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *AppointmentRepository) Create(
	ctx context.Context,
	input CreateAppointmentInput,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		INSERT INTO appointments (user_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.StartTime,
		input.EndTime,
		input.Status,
	))
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, id))
}

func (r *AppointmentRepository) GetByIDForUpdate(
	ctx context.Context,
	id int64,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 FOR UPDATE`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, id))
}

func (r *AppointmentRepository) ListByUser(
	ctx context.Context,
	filter AppointmentListFilter,
) ([]models.Appointment, error) {
	args := []any{filter.UserID}
	whereParts := []string{"user_id = $1"}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "end_time > NOW()")
	case "past":
		whereParts = append(whereParts, "end_time <= NOW()")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE %s
		ORDER BY start_time ASC, id ASC
	`, appointmentColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

// ListRange returns appointments whose start falls inside [from, to),
// optionally excluding cancelled rows. This is the availability
// resolver's day-window read and the admin calendar's week feed.
func (r *AppointmentRepository) ListRange(
	ctx context.Context,
	from, to time.Time,
	excludeCancelled bool,
) ([]models.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE start_time >= $1 AND start_time < $2
	`, appointmentColumns)
	if excludeCancelled {
		query += " AND status <> 'cancelled'"
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

// ListRangeDetailed joins the owning client's display profile for the
// admin calendar.
func (r *AppointmentRepository) ListRangeDetailed(
	ctx context.Context,
	from, to time.Time,
) ([]models.AppointmentDetail, error) {
	query := `
		SELECT a.id, a.user_id, a.start_time, a.end_time, a.status, a.created_at, a.updated_at,
			   p.full_name, p.training_goal
		FROM appointments a
		LEFT JOIN profiles p ON p.user_id = a.user_id
		WHERE a.start_time >= $1 AND a.start_time < $2
		ORDER BY a.start_time ASC, a.id ASC
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.AppointmentDetail, 0)
	for rows.Next() {
		var detail models.AppointmentDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.StartTime,
			&detail.EndTime,
			&detail.Status,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.ClientName,
			&detail.ClientGoal,
		); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return details, nil
}

// CountAtStart counts non-cancelled appointments at an exact start
// time. Capacity is per exact slot start, not per overlap.
func (r *AppointmentRepository) CountAtStart(ctx context.Context, start time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE start_time = $1
		  AND status <> 'cancelled'
	`
	var count int
	if err := r.db.QueryRow(ctx, query, start).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AppointmentRepository) CountAtStartExcluding(
	ctx context.Context,
	start time.Time,
	excludedID int64,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE start_time = $1
		  AND id <> $2
		  AND status <> 'cancelled'
	`
	var count int
	if err := r.db.QueryRow(ctx, query, start, excludedID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AppointmentRepository) HolderExistsAtStart(
	ctx context.Context,
	start time.Time,
	userID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE start_time = $1
			  AND user_id = $2
			  AND status <> 'cancelled'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, start, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AppointmentRepository) HolderExistsAtStartExcluding(
	ctx context.Context,
	start time.Time,
	userID int64,
	excludedID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE start_time = $1
			  AND user_id = $2
			  AND id <> $3
			  AND status <> 'cancelled'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, start, userID, excludedID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AppointmentRepository) UpdateSchedule(
	ctx context.Context,
	id int64,
	start, end time.Time,
	status string,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET start_time = $2, end_time = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, id, start, end, status))
}

func (r *AppointmentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	id int64,
	currentStatus string,
	nextStatus string,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, appointmentColumns)
	return scanAppointment(r.db.QueryRow(ctx, query, id, currentStatus, nextStatus))
}

func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
