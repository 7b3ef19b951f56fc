package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository persists the shared appointment store. Conflict
	// checks always read current state; nothing here is cached.
	AppointmentRepository interface {
		Insert(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		FindByDoctorInWindow(ctx context.Context, doctorID uuid.UUID, start, end time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error)
		ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
	}

	PatientRepository interface {
		Upsert(ctx context.Context, patient *model.Patient) error
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error)
		ListIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	}

	ConsultationRepository interface {
		Upsert(ctx context.Context, consultation *model.Consultation) error
		ListUpdatedSince(ctx context.Context, since time.Time) ([]*model.Consultation, error)
		ListUpdatedSinceForClinician(ctx context.Context, clinicianID uuid.UUID, since time.Time) ([]*model.Consultation, error)
		ListUpdatedSinceForPatients(ctx context.Context, patientIDs []uuid.UUID, since time.Time) ([]*model.Consultation, error)
	}

	MessageRepository interface {
		Upsert(ctx context.Context, message *model.Message) error
		ListByConsultations(ctx context.Context, consultationIDs []uuid.UUID) ([]*model.Message, error)
	}

	SpecializationRepository interface {
		List(ctx context.Context) ([]*model.Specialization, error)
	}
)
