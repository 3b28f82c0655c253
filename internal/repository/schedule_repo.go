package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/sinoficio13/gym/internal/models"
)

// ScheduleRepository stores the recurring weekly offer times. Start
// times travel as "HH:MM" wall-clock strings; the column is a plain
// Postgres TIME.
type ScheduleRepository struct {
	db DBTX
}

func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(
	ctx context.Context,
	dayOfWeek int,
	startTime string,
) (*models.ScheduleEntry, error) {
	query := `
		INSERT INTO work_schedule (day_of_week, start_time, is_active)
		VALUES ($1, $2::time, TRUE)
		RETURNING id, day_of_week, to_char(start_time, 'HH24:MI'), is_active, created_at
	`
	var entry models.ScheduleEntry
	err := r.db.QueryRow(ctx, query, dayOfWeek, startTime).Scan(
		&entry.ID,
		&entry.DayOfWeek,
		&entry.StartTime,
		&entry.Active,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ScheduleRepository) ActiveExists(
	ctx context.Context,
	dayOfWeek int,
	startTime string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM work_schedule
			WHERE day_of_week = $1
			  AND start_time = $2::time
			  AND is_active
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, dayOfWeek, startTime).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ScheduleRepository) ListActiveByDay(
	ctx context.Context,
	dayOfWeek int,
) ([]models.ScheduleEntry, error) {
	query := `
		SELECT id, day_of_week, to_char(start_time, 'HH24:MI'), is_active, created_at
		FROM work_schedule
		WHERE day_of_week = $1
		  AND is_active
		ORDER BY start_time ASC
	`
	rows, err := r.db.Query(ctx, query, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScheduleEntries(rows)
}

func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	query := `
		SELECT id, day_of_week, to_char(start_time, 'HH24:MI'), is_active, created_at
		FROM work_schedule
		ORDER BY day_of_week ASC, start_time ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScheduleEntries(rows)
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM work_schedule WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanScheduleEntries(rows pgx.Rows) ([]models.ScheduleEntry, error) {
	entries := make([]models.ScheduleEntry, 0)
	for rows.Next() {
		var entry models.ScheduleEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.DayOfWeek,
			&entry.StartTime,
			&entry.Active,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
