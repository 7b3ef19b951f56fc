package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

var ErrNotFound = errors.New("not found")

func (r *appointmentRepository) Insert(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, scheduled_at,
			duration_minutes, status, reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.ScheduledAt,
		appointment.DurationMinutes,
		appointment.Status,
		appointment.Reason,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at,
			   duration_minutes, status, reason,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, duration_minutes = $2, status = $3, reason = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.ScheduledAt,
		appointment.DurationMinutes,
		appointment.Status,
		appointment.Reason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// FindByDoctorInWindow returns the conflict candidate set: the doctor's
// appointments in the given statuses whose scheduled_at falls inside the
// search window. Exact interval math happens in the service; the window only
// bounds the scan.
func (r *appointmentRepository) FindByDoctorInWindow(ctx context.Context, doctorID uuid.UUID, start, end time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at,
			   duration_minutes, status, reason,
			   created_at, updated_at
		FROM appointments
		WHERE doctor_id = ?
		AND status IN (?)
		AND scheduled_at >= ?
		AND scheduled_at <= ?
		ORDER BY scheduled_at ASC
	`
	query, args, err := sqlx.In(query, doctorID, statuses, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to build window query: %w", err)
	}
	query = r.db.Rebind(query)

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find appointments in window: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at,
			   duration_minutes, status, reason,
			   created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, scheduled_at,
			   duration_minutes, status, reason,
			   created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}
