package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/internal/repository"
	"github.com/mediconsult/mediconsult-api/pkg/metrics"
)

type Service struct {
	patients      repository.PatientRepository
	consultations repository.ConsultationRepository
	messages      repository.MessageRepository
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewService builds the server-side sync service. metrics may be nil.
func NewService(
	patients repository.PatientRepository,
	consultations repository.ConsultationRepository,
	messages repository.MessageRepository,
	m *metrics.Metrics,
) *Service {
	return &Service{
		patients:      patients,
		consultations: consultations,
		messages:      messages,
		metrics:       m,
		now:           time.Now,
	}
}

// Push upserts each entity group by id, last write wins. Groups are
// independent: a failing group is reported in its result while the others
// still commit, so the client retries just that group. Records already
// committed before a mid-group failure are safe to re-push.
func (s *Service) Push(ctx context.Context, req *model.PushRequest) (*model.PushResponse, error) {
	serverNow := s.now()

	resp := &model.PushResponse{
		ServerTime: serverNow.UnixMilli(),
	}
	patientIDs, patientErr := s.pushPatients(ctx, req.Patients, serverNow)
	resp.Patients = s.groupResult(model.EntityPatients, len(req.Patients), patientIDs, patientErr)
	consultationIDs, consultationErr := s.pushConsultations(ctx, req.Consultations, serverNow)
	resp.Consultations = s.groupResult(model.EntityConsultations, len(req.Consultations), consultationIDs, consultationErr)
	messageIDs, messageErr := s.pushMessages(ctx, req.Messages, serverNow)
	resp.Messages = s.groupResult(model.EntityMessages, len(req.Messages), messageIDs, messageErr)

	return resp, nil
}

func (s *Service) groupResult(group model.EntityType, size int, assigned map[string]uuid.UUID, err error) model.PushGroupResult {
	if err != nil {
		if s.metrics != nil {
			s.metrics.SyncPushFailures.WithLabelValues(string(group)).Inc()
		}
		return model.PushGroupResult{Error: err.Error()}
	}
	if s.metrics != nil {
		s.metrics.SyncPushRecords.WithLabelValues(string(group)).Add(float64(size))
	}
	return model.PushGroupResult{AssignedIDs: assigned}
}

func (s *Service) pushPatients(ctx context.Context, records []model.PatientUpsert, serverNow time.Time) (map[string]uuid.UUID, error) {
	if len(records) == 0 {
		return nil, nil
	}

	assigned := make(map[string]uuid.UUID, len(records))
	for _, record := range records {
		id := record.ID
		if id == nil {
			newID := uuid.New()
			id = &newID
		}
		patient := &model.Patient{
			ID:        *id,
			OwnerID:   record.OwnerID,
			Name:      record.Name,
			DOB:       record.DOB,
			Meta:      record.Meta,
			CreatedAt: serverNow,
			UpdatedAt: acceptedTime(record.UpdatedAt, serverNow),
		}
		if err := s.patients.Upsert(ctx, patient); err != nil {
			return nil, fmt.Errorf("patients upsert failed: %w", err)
		}
		assigned[record.LocalID] = *id
	}
	return assigned, nil
}

func (s *Service) pushConsultations(ctx context.Context, records []model.ConsultationUpsert, serverNow time.Time) (map[string]uuid.UUID, error) {
	if len(records) == 0 {
		return nil, nil
	}

	assigned := make(map[string]uuid.UUID, len(records))
	for _, record := range records {
		id := record.ID
		if id == nil {
			newID := uuid.New()
			id = &newID
		}
		consultation := &model.Consultation{
			ID:          *id,
			PatientID:   record.PatientID,
			ClinicianID: record.ClinicianID,
			Status:      record.Status,
			ScheduledAt: optionalTime(record.ScheduledAt),
			Notes:       record.Notes,
			CreatedAt:   serverNow,
			UpdatedAt:   acceptedTime(record.UpdatedAt, serverNow),
		}
		if err := s.consultations.Upsert(ctx, consultation); err != nil {
			return nil, fmt.Errorf("consultations upsert failed: %w", err)
		}
		assigned[record.LocalID] = *id
	}
	return assigned, nil
}

func (s *Service) pushMessages(ctx context.Context, records []model.MessageUpsert, serverNow time.Time) (map[string]uuid.UUID, error) {
	if len(records) == 0 {
		return nil, nil
	}

	assigned := make(map[string]uuid.UUID, len(records))
	for _, record := range records {
		id := record.ID
		if id == nil {
			newID := uuid.New()
			id = &newID
		}
		message := &model.Message{
			ID:             *id,
			ConsultationID: record.ConsultationID,
			AuthorID:       record.AuthorID,
			Body:           record.Body,
			CreatedAt:      acceptedTime(record.CreatedAt, serverNow),
		}
		if err := s.messages.Upsert(ctx, message); err != nil {
			return nil, fmt.Errorf("messages upsert failed: %w", err)
		}
		assigned[record.LocalID] = *id
	}
	return assigned, nil
}

// Pull returns the caller's consultations updated at or after the checkpoint,
// ordered by updated_at ascending, each composed with its patient and ordered
// messages. Any underlying failure aborts the whole pull; retrying with the
// same checkpoint is safe since updated_at only increases.
func (s *Service) Pull(ctx context.Context, since time.Time, caller model.Caller) (*model.PullResponse, error) {
	if s.metrics != nil {
		timer := prometheus.NewTimer(s.metrics.SyncPullLatency)
		defer timer.ObserveDuration()
	}

	consultations, err := s.consultationsFor(ctx, since, caller)
	if err != nil {
		return nil, err
	}

	patientIDs := make([]uuid.UUID, 0, len(consultations))
	seen := make(map[uuid.UUID]struct{}, len(consultations))
	consultationIDs := make([]uuid.UUID, 0, len(consultations))
	for _, c := range consultations {
		consultationIDs = append(consultationIDs, c.ID)
		if _, ok := seen[c.PatientID]; !ok {
			seen[c.PatientID] = struct{}{}
			patientIDs = append(patientIDs, c.PatientID)
		}
	}

	patients, err := s.patients.ListByIDs(ctx, patientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patients: %w", err)
	}
	messages, err := s.messages.ListByConsultations(ctx, consultationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	patientByID := make(map[uuid.UUID]*model.Patient, len(patients))
	for _, p := range patients {
		patientByID[p.ID] = p
	}
	messagesByConsultation := make(map[uuid.UUID][]*model.Message, len(consultations))
	for _, m := range messages {
		messagesByConsultation[m.ConsultationID] = append(messagesByConsultation[m.ConsultationID], m)
	}

	composed := make([]*model.ConsultationWithRelations, 0, len(consultations))
	for _, c := range consultations {
		composed = append(composed, &model.ConsultationWithRelations{
			Consultation: *c,
			Patient:      patientByID[c.PatientID],
			Messages:     messagesByConsultation[c.ID],
		})
	}

	if s.metrics != nil {
		s.metrics.SyncPullRecords.Add(float64(len(composed)))
	}

	return &model.PullResponse{
		Consultations: composed,
		ServerTime:    s.now().UnixMilli(),
	}, nil
}

func (s *Service) consultationsFor(ctx context.Context, since time.Time, caller model.Caller) ([]*model.Consultation, error) {
	switch caller.Role {
	case model.RoleAdmin:
		consultations, err := s.consultations.ListUpdatedSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch consultations: %w", err)
		}
		return consultations, nil
	case model.RoleDoctor:
		consultations, err := s.consultations.ListUpdatedSinceForClinician(ctx, caller.ID, since)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch consultations: %w", err)
		}
		return consultations, nil
	default:
		ownedIDs, err := s.patients.ListIDsByOwner(ctx, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve owned patients: %w", err)
		}
		consultations, err := s.consultations.ListUpdatedSinceForPatients(ctx, ownedIDs, since)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch consultations: %w", err)
		}
		return consultations, nil
	}
}

func acceptedTime(millis int64, fallback time.Time) time.Time {
	if millis <= 0 {
		return fallback
	}
	return time.UnixMilli(millis).UTC()
}

func optionalTime(millis *int64) *time.Time {
	if millis == nil {
		return nil
	}
	t := time.UnixMilli(*millis).UTC()
	return &t
}
