package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusAccepted  AppointmentStatus = "ACCEPTED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

type AppointmentAction string

const (
	AppointmentActionAccept   AppointmentAction = "ACCEPT"
	AppointmentActionCancel   AppointmentAction = "CANCEL"
	AppointmentActionComplete AppointmentAction = "COMPLETE"
)

// DefaultDurationMinutes applies when a booking request omits the duration.
const DefaultDurationMinutes = 30

type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ScheduledAt     time.Time         `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Reason          *string           `db:"reason" json:"reason,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// Start returns the beginning of the appointment interval.
func (a *Appointment) Start() time.Time {
	return a.ScheduledAt
}

// End returns the exclusive end of the appointment interval.
func (a *Appointment) End() time.Time {
	minutes := a.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	return a.ScheduledAt.Add(time.Duration(minutes) * time.Minute)
}

// IsTerminal reports whether the appointment can no longer change status.
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentStatusCancelled || a.Status == AppointmentStatusCompleted
}

type CreateAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	ScheduledAt     string    `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,gt=0"`
	Reason          *string   `json:"reason" binding:"omitempty,max=1000"`
}

type TransitionAppointmentRequest struct {
	Action AppointmentAction `json:"action" binding:"required,appointment_action"`
}
