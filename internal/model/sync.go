package model

import (
	"github.com/google/uuid"
)

// SyncStatus tracks a client-local row's reconciliation state with the server.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusFailed  SyncStatus = "failed"
)

// EntityType names a syncable entity group.
type EntityType string

const (
	EntityPatients      EntityType = "patients"
	EntityConsultations EntityType = "consultations"
	EntityMessages      EntityType = "messages"
)

// Upsert wire types. The client echoes its local_id so the server can report
// assigned ids back; id, when present, is the upsert conflict key.
// Timestamps ride as epoch milliseconds, matching the client clock.

type PatientUpsert struct {
	LocalID   string     `json:"local_id" binding:"required"`
	ID        *uuid.UUID `json:"id,omitempty"`
	OwnerID   uuid.UUID  `json:"owner_id" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	DOB       *string    `json:"dob,omitempty"`
	Meta      *string    `json:"meta,omitempty"`
	UpdatedAt int64      `json:"updated_at"`
}

type ConsultationUpsert struct {
	LocalID     string     `json:"local_id" binding:"required"`
	ID          *uuid.UUID `json:"id,omitempty"`
	PatientID   uuid.UUID  `json:"patient_id" binding:"required"`
	ClinicianID uuid.UUID  `json:"clinician_id" binding:"required"`
	Status      string     `json:"status"`
	ScheduledAt *int64     `json:"scheduled_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	UpdatedAt   int64      `json:"updated_at"`
}

type MessageUpsert struct {
	LocalID        string     `json:"local_id" binding:"required"`
	ID             *uuid.UUID `json:"id,omitempty"`
	ConsultationID uuid.UUID  `json:"consultation_id" binding:"required"`
	AuthorID       uuid.UUID  `json:"author_id" binding:"required"`
	Body           string     `json:"body"`
	CreatedAt      int64      `json:"created_at"`
}

type PushRequest struct {
	Patients      []PatientUpsert      `json:"patients"`
	Consultations []ConsultationUpsert `json:"consultations"`
	Messages      []MessageUpsert      `json:"messages"`
}

// PushGroupResult reports one entity group's outcome. A failed group carries
// an error message and no assigned ids; the other groups still commit.
type PushGroupResult struct {
	AssignedIDs map[string]uuid.UUID `json:"assigned_ids,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func (r PushGroupResult) Failed() bool {
	return r.Error != ""
}

type PushResponse struct {
	Patients      PushGroupResult `json:"patients"`
	Consultations PushGroupResult `json:"consultations"`
	Messages      PushGroupResult `json:"messages"`
	ServerTime    int64           `json:"serverTime"`
}

type PullResponse struct {
	Consultations []*ConsultationWithRelations `json:"consultations"`
	ServerTime    int64                        `json:"serverTime"`
}

// Client-local rows. LocalID is client-generated and immutable; ServerID is
// assigned by the server on first successful push and is the upsert key from
// then on. Timestamps are epoch milliseconds from the client clock.

type LocalPatient struct {
	LocalID   string     `db:"local_id" json:"local_id"`
	ServerID  *uuid.UUID `db:"server_id" json:"server_id,omitempty"`
	OwnerID   uuid.UUID  `db:"owner_id" json:"owner_id"`
	Name      string     `db:"name" json:"name"`
	DOB       *string    `db:"dob" json:"dob,omitempty"`
	Meta      *string    `db:"meta" json:"meta,omitempty"`
	UpdatedAt int64      `db:"updated_at" json:"updated_at"`
	SyncState SyncStatus `db:"sync_status" json:"sync_status"`
}

type LocalConsultation struct {
	LocalID        string     `db:"local_id" json:"local_id"`
	ServerID       *uuid.UUID `db:"server_id" json:"server_id,omitempty"`
	PatientLocalID string     `db:"patient_local_id" json:"patient_local_id"`
	ClinicianID    uuid.UUID  `db:"clinician_id" json:"clinician_id"`
	Status         string     `db:"status" json:"status"`
	ScheduledAt    *int64     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	UpdatedAt      int64      `db:"updated_at" json:"updated_at"`
	SyncState      SyncStatus `db:"sync_status" json:"sync_status"`
}

type LocalMessage struct {
	LocalID             string     `db:"local_id" json:"local_id"`
	ServerID            *uuid.UUID `db:"server_id" json:"server_id,omitempty"`
	ConsultationLocalID string     `db:"consultation_local_id" json:"consultation_local_id"`
	AuthorID            uuid.UUID  `db:"author_id" json:"author_id"`
	Body                string     `db:"body" json:"body"`
	CreatedAt           int64      `db:"created_at" json:"created_at"`
	SyncState           SyncStatus `db:"sync_status" json:"sync_status"`
}
