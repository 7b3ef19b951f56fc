package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/internal/repository"
	"github.com/mediconsult/mediconsult-api/internal/repository/postgres"
	apperrors "github.com/mediconsult/mediconsult-api/pkg/errors"
	"github.com/mediconsult/mediconsult-api/pkg/messaging"
	"github.com/mediconsult/mediconsult-api/pkg/metrics"
)

const (
	// maxAdvanceMonths bounds how far ahead a booking may be placed.
	maxAdvanceMonths = 6

	// DefaultConflictWindowPad bounds the candidate fetch around a proposed
	// interval. It assumes no single appointment runs longer than an hour;
	// configurable because that is an assumption, not an invariant.
	DefaultConflictWindowPad = time.Hour

	eventChannel = "appointment.events"
)

type Config struct {
	ConflictWindowPad time.Duration
}

type Service struct {
	repo    repository.AppointmentRepository
	broker  messaging.Broker
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time
}

// NewService builds the booking service. broker and metrics may be nil.
func NewService(repo repository.AppointmentRepository, broker messaging.Broker, m *metrics.Metrics, cfg Config) *Service {
	if cfg.ConflictWindowPad <= 0 {
		cfg.ConflictWindowPad = DefaultConflictWindowPad
	}
	return &Service{
		repo:    repo,
		broker:  broker,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
	}
}

type CreateInput struct {
	PatientID       uuid.UUID
	DoctorID        uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Reason          *string
}

// Create books a new appointment in PENDING after validating the booking
// window and checking the doctor's calendar for interval overlap.
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Appointment, error) {
	if err := validateParticipants(input.PatientID, input.DoctorID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := validateSchedule(input.ScheduledAt, now); err != nil {
		return nil, err
	}

	duration := input.DurationMinutes
	if duration <= 0 {
		duration = model.DefaultDurationMinutes
	}
	proposedEnd := input.ScheduledAt.Add(time.Duration(duration) * time.Minute)

	conflict, err := s.hasConflict(ctx, input.DoctorID, input.ScheduledAt, proposedEnd, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		if s.metrics != nil {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, apperrors.NewConflict("requested time conflicts with existing appointment")
	}

	appointment := &model.Appointment{
		ID:              uuid.New(),
		PatientID:       input.PatientID,
		DoctorID:        input.DoctorID,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: duration,
		Status:          model.AppointmentStatusPending,
		Reason:          input.Reason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	s.publish(ctx, "appointment.created", appointment)

	return appointment, nil
}

// Transition applies an ACCEPT, CANCEL or COMPLETE action. ACCEPT re-runs the
// conflict check against the stored interval, excluding the appointment
// itself: when two overlapping PENDING requests race, whichever accepts first
// wins and the loser's accept fails here.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, action model.AppointmentAction, caller model.Caller) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NewAction(apperrors.ReasonNotFound, "appointment not found")
		}
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}

	if err := authorizeTransition(appointment, caller); err != nil {
		return nil, err
	}

	next, err := nextStatus(appointment.Status, action)
	if err != nil {
		return nil, err
	}

	if action == model.AppointmentActionAccept {
		conflict, err := s.hasConflict(ctx, appointment.DoctorID, appointment.Start(), appointment.End(), &appointment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check conflicts: %w", err)
		}
		if conflict {
			if s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			return nil, apperrors.NewConflict("cannot accept: time conflicts with existing appointment")
		}
	}

	appointment.Status = next
	appointment.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, appointment); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NewAction(apperrors.ReasonNotFound, "appointment not found")
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(action), string(next)).Inc()
	}
	s.publish(ctx, "appointment."+statusEventName(next), appointment)

	return appointment, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// publish emits a lifecycle event. Best effort: a broker failure never fails
// the booking request.
func (s *Service) publish(ctx context.Context, eventType string, appointment *model.Appointment) {
	if s.broker == nil {
		return
	}
	msg := messaging.Message{Type: eventType, Payload: appointment}
	if err := s.broker.Publish(ctx, eventChannel, msg); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("appointment_id", appointment.ID.String()).Msg("failed to publish appointment event")
	}
}

func statusEventName(status model.AppointmentStatus) string {
	switch status {
	case model.AppointmentStatusAccepted:
		return "accepted"
	case model.AppointmentStatusCancelled:
		return "cancelled"
	case model.AppointmentStatusCompleted:
		return "completed"
	default:
		return "updated"
	}
}
