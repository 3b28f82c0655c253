package repository

import (
	"context"

	"github.com/sinoficio13/gym/internal/models"
)

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// HasActive reports whether the user holds a currently valid
// subscription. Approval of pending subscriptions happens elsewhere;
// booking only consumes this check.
func (r *SubscriptionRepository) HasActive(ctx context.Context, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM subscriptions
			WHERE user_id = $1
			  AND status = 'active'
			  AND (expires_at IS NULL OR expires_at > NOW())
		)
	`
	var active bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&active); err != nil {
		return false, err
	}
	return active, nil
}

func (r *SubscriptionRepository) GetLatestByUserID(
	ctx context.Context,
	userID int64,
) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, status, starts_at, expires_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var sub models.Subscription
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Status,
		&sub.StartsAt,
		&sub.ExpiresAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
