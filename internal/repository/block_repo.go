package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sinoficio13/gym/internal/models"
)

type BlockRepository struct {
	db DBTX
}

func NewBlockRepository(db DBTX) *BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) Create(
	ctx context.Context,
	start, end time.Time,
	reason *string,
) (*models.BlockedSlot, error) {
	query := `
		INSERT INTO blocked_slots (start_time, end_time, reason)
		VALUES ($1, $2, $3)
		RETURNING id, start_time, end_time, reason, created_at
	`
	var block models.BlockedSlot
	err := r.db.QueryRow(ctx, query, start, end, reason).Scan(
		&block.ID,
		&block.StartTime,
		&block.EndTime,
		&block.Reason,
		&block.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// GetByStart looks a block up by exact slot start. Blocks are written
// as exactly one slot span, so start equality is the containment check.
func (r *BlockRepository) GetByStart(ctx context.Context, start time.Time) (*models.BlockedSlot, error) {
	query := `
		SELECT id, start_time, end_time, reason, created_at
		FROM blocked_slots
		WHERE start_time = $1
	`
	var block models.BlockedSlot
	err := r.db.QueryRow(ctx, query, start).Scan(
		&block.ID,
		&block.StartTime,
		&block.EndTime,
		&block.Reason,
		&block.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *BlockRepository) ListRange(
	ctx context.Context,
	from, to time.Time,
) ([]models.BlockedSlot, error) {
	query := `
		SELECT id, start_time, end_time, reason, created_at
		FROM blocked_slots
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time ASC
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]models.BlockedSlot, 0)
	for rows.Next() {
		var block models.BlockedSlot
		if err := rows.Scan(
			&block.ID,
			&block.StartTime,
			&block.EndTime,
			&block.Reason,
			&block.CreatedAt,
		); err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

func (r *BlockRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blocked_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
