package model

import (
	"time"

	"github.com/google/uuid"
)

type Consultation struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	ClinicianID uuid.UUID  `db:"clinician_id" json:"clinician_id"`
	Status      string     `db:"status" json:"status"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ConsultationWithRelations is the nested shape returned by sync pull:
// the consultation with its patient (nil when the patient row is missing)
// and its messages ordered by creation time.
type ConsultationWithRelations struct {
	Consultation
	Patient  *Patient   `json:"patient"`
	Messages []*Message `json:"messages"`
}
