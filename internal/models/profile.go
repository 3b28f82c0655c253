package models

import "time"

type Profile struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	FullName     *string   `json:"full_name"`
	Phone        *string   `json:"phone"`
	TrainingGoal *string   `json:"training_goal"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Complete reports whether the profile carries enough data to book.
func (p *Profile) Complete() bool {
	return p != nil && p.FullName != nil && *p.FullName != ""
}

type Subscription struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Status    string     `json:"status"`
	StartsAt  *time.Time `json:"starts_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
