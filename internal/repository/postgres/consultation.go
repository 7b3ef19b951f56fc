package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

const consultationColumns = `id, patient_id, clinician_id, status, scheduled_at, notes, created_at, updated_at`

func (r *consultationRepository) Upsert(ctx context.Context, consultation *model.Consultation) error {
	query := `
		INSERT INTO consultations (id, patient_id, clinician_id, status, scheduled_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			clinician_id = EXCLUDED.clinician_id,
			status = EXCLUDED.status,
			scheduled_at = EXCLUDED.scheduled_at,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		consultation.ID,
		consultation.PatientID,
		consultation.ClinicianID,
		consultation.Status,
		consultation.ScheduledAt,
		consultation.Notes,
		consultation.CreatedAt,
		consultation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]*model.Consultation, error) {
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE updated_at >= $1
		ORDER BY updated_at ASC
	`
	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, since); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) ListUpdatedSinceForClinician(ctx context.Context, clinicianID uuid.UUID, since time.Time) ([]*model.Consultation, error) {
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE clinician_id = $1
		AND updated_at >= $2
		ORDER BY updated_at ASC
	`
	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, clinicianID, since); err != nil {
		return nil, fmt.Errorf("failed to list clinician consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) ListUpdatedSinceForPatients(ctx context.Context, patientIDs []uuid.UUID, since time.Time) ([]*model.Consultation, error) {
	if len(patientIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE patient_id IN (?)
		AND updated_at >= ?
		ORDER BY updated_at ASC
	`
	query, args, err := sqlx.In(query, patientIDs, since)
	if err != nil {
		return nil, fmt.Errorf("failed to build consultations query: %w", err)
	}
	query = r.db.Rebind(query)

	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patient consultations: %w", err)
	}
	return consultations, nil
}
