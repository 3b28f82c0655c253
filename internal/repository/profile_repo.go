package repository

import (
	"context"

	"github.com/sinoficio13/gym/internal/models"
)

type UpdateProfileInput struct {
	FullName     string
	Phone        *string
	TrainingGoal *string
}

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT id, user_id, full_name, phone, training_goal, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var profile models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.TrainingGoal,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(
	ctx context.Context,
	userID int64,
	input UpdateProfileInput,
) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = $1,
			phone = $2,
			training_goal = $3,
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING id, user_id, full_name, phone, training_goal, created_at, updated_at
	`
	var profile models.Profile
	err := r.db.QueryRow(ctx, query, input.FullName, input.Phone, input.TrainingGoal, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.TrainingGoal,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ClientSummary is the admin roster row: account plus display profile.
type ClientSummary struct {
	UserID       int64   `json:"user_id"`
	Email        string  `json:"email"`
	FullName     *string `json:"full_name"`
	Phone        *string `json:"phone"`
	TrainingGoal *string `json:"training_goal"`
}

func (r *ProfileRepository) ListClients(
	ctx context.Context,
	limit, offset int,
) ([]ClientSummary, error) {
	query := `
		SELECT u.id, u.email, p.full_name, p.phone, p.training_goal
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.role = 'client'
		ORDER BY u.id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]ClientSummary, 0)
	for rows.Next() {
		var client ClientSummary
		if err := rows.Scan(
			&client.UserID,
			&client.Email,
			&client.FullName,
			&client.Phone,
			&client.TrainingGoal,
		); err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return clients, nil
}
