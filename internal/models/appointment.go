package models

import "time"

const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppointmentDetail pairs an appointment with the display fields of the
// owning client. The profile is display-only; scheduling never reads it.
type AppointmentDetail struct {
	Appointment
	ClientName *string `json:"client_name,omitempty"`
	ClientGoal *string `json:"client_goal,omitempty"`
}
