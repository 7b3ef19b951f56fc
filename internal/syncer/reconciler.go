package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

// ErrSyncInFlight is returned when Sync is invoked while another run is
// still in progress. Push is not safe to run concurrently with itself.
var ErrSyncInFlight = errors.New("sync already in flight")

// Reconciler drives the offline store against the server: pushes locally
// pending mutations, then pulls server-side changes since the checkpoint.
type Reconciler struct {
	store    LocalStore
	remote   Remote
	inFlight atomic.Bool
	now      func() time.Time
}

func NewReconciler(store LocalStore, remote Remote) *Reconciler {
	return &Reconciler{
		store:  store,
		remote: remote,
		now:    time.Now,
	}
}

// Summary reports one sync run.
type Summary struct {
	Pushed      map[model.EntityType]int
	PushFailed  map[model.EntityType]int
	Pulled      int
	Checkpoint  int64
	PushSkipped int
}

// Sync runs one push+pull cycle. Only one run may be in flight at a time.
func (r *Reconciler) Sync(ctx context.Context) (*Summary, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSyncInFlight
	}
	defer r.inFlight.Store(false)

	summary := &Summary{
		Pushed:     make(map[model.EntityType]int),
		PushFailed: make(map[model.EntityType]int),
	}

	if err := r.push(ctx, summary); err != nil {
		return summary, err
	}
	if err := r.pull(ctx, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// pushGroup tracks one entity group's rows through a push attempt.
type pushGroup struct {
	entity   model.EntityType
	localIDs []string
	mark     func(ctx context.Context, localIDs []string, status model.SyncStatus) error
	synced   func(ctx context.Context, localID string, serverID uuid.UUID, updatedAt int64) error
}

func (r *Reconciler) push(ctx context.Context, summary *Summary) error {
	req := &model.PushRequest{}

	patients, err := r.store.PendingPatients(ctx)
	if err != nil {
		return fmt.Errorf("failed to select pending patients: %w", err)
	}
	patientGroup := pushGroup{
		entity: model.EntityPatients,
		mark:   r.store.MarkPatients,
		synced: r.store.SetPatientSynced,
	}
	for _, p := range patients {
		req.Patients = append(req.Patients, model.PatientUpsert{
			LocalID:   p.LocalID,
			ID:        p.ServerID,
			OwnerID:   p.OwnerID,
			Name:      p.Name,
			DOB:       p.DOB,
			Meta:      p.Meta,
			UpdatedAt: p.UpdatedAt,
		})
		patientGroup.localIDs = append(patientGroup.localIDs, p.LocalID)
	}

	consultations, err := r.store.PendingConsultations(ctx)
	if err != nil {
		return fmt.Errorf("failed to select pending consultations: %w", err)
	}
	consultationGroup := pushGroup{
		entity: model.EntityConsultations,
		mark:   r.store.MarkConsultations,
		synced: r.store.SetConsultationSynced,
	}
	for _, c := range consultations {
		patientServerID, ok, err := r.resolvePatient(ctx, patients, c.PatientLocalID)
		if err != nil {
			return err
		}
		if !ok {
			// Parent not pushed yet; stays pending for a later run.
			summary.PushSkipped++
			continue
		}
		req.Consultations = append(req.Consultations, model.ConsultationUpsert{
			LocalID:     c.LocalID,
			ID:          c.ServerID,
			PatientID:   patientServerID,
			ClinicianID: c.ClinicianID,
			Status:      c.Status,
			ScheduledAt: c.ScheduledAt,
			Notes:       c.Notes,
			UpdatedAt:   c.UpdatedAt,
		})
		consultationGroup.localIDs = append(consultationGroup.localIDs, c.LocalID)
	}

	messages, err := r.store.PendingMessages(ctx)
	if err != nil {
		return fmt.Errorf("failed to select pending messages: %w", err)
	}
	messageGroup := pushGroup{
		entity: model.EntityMessages,
		mark:   r.store.MarkMessages,
		synced: r.store.SetMessageSynced,
	}
	for _, m := range messages {
		consultationServerID, ok, err := r.resolveConsultation(ctx, consultations, m.ConsultationLocalID)
		if err != nil {
			return err
		}
		if !ok {
			summary.PushSkipped++
			continue
		}
		req.Messages = append(req.Messages, model.MessageUpsert{
			LocalID:        m.LocalID,
			ID:             m.ServerID,
			ConsultationID: consultationServerID,
			AuthorID:       m.AuthorID,
			Body:           m.Body,
			CreatedAt:      m.CreatedAt,
		})
		messageGroup.localIDs = append(messageGroup.localIDs, m.LocalID)
	}

	groups := []pushGroup{patientGroup, consultationGroup, messageGroup}

	total := 0
	for _, g := range groups {
		total += len(g.localIDs)
		if err := g.mark(ctx, g.localIDs, model.SyncStatusSyncing); err != nil {
			return fmt.Errorf("failed to mark %s syncing: %w", g.entity, err)
		}
	}
	if total == 0 {
		return nil
	}

	resp, err := r.remote.PushBatch(ctx, req)
	if err != nil {
		// No confirmed server response: everything goes back to failed for
		// retry, nothing is assumed synced.
		for _, g := range groups {
			if markErr := g.mark(ctx, g.localIDs, model.SyncStatusFailed); markErr != nil {
				log.Error().Err(markErr).Str("group", string(g.entity)).Msg("failed to mark push failure")
			}
		}
		return err
	}

	results := map[model.EntityType]model.PushGroupResult{
		model.EntityPatients:      resp.Patients,
		model.EntityConsultations: resp.Consultations,
		model.EntityMessages:      resp.Messages,
	}
	for _, g := range groups {
		result := results[g.entity]
		if result.Failed() {
			summary.PushFailed[g.entity] = len(g.localIDs)
			if err := g.mark(ctx, g.localIDs, model.SyncStatusFailed); err != nil {
				return fmt.Errorf("failed to mark %s failed: %w", g.entity, err)
			}
			continue
		}
		for _, localID := range g.localIDs {
			serverID, ok := result.AssignedIDs[localID]
			if !ok {
				// Server accepted the group but skipped this record.
				if err := g.mark(ctx, []string{localID}, model.SyncStatusFailed); err != nil {
					return fmt.Errorf("failed to mark %s failed: %w", g.entity, err)
				}
				summary.PushFailed[g.entity]++
				continue
			}
			if err := g.synced(ctx, localID, serverID, resp.ServerTime); err != nil {
				return fmt.Errorf("failed to record %s sync result: %w", g.entity, err)
			}
			summary.Pushed[g.entity]++
		}
	}

	return nil
}

func (r *Reconciler) resolvePatient(ctx context.Context, pending []*model.LocalPatient, localID string) (uuid.UUID, bool, error) {
	for _, p := range pending {
		if p.LocalID == localID {
			if p.ServerID != nil {
				return *p.ServerID, true, nil
			}
			return uuid.Nil, false, nil
		}
	}
	// Not in this batch; it may have synced on an earlier run.
	patient, err := r.store.GetPatient(ctx, localID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to look up patient: %w", err)
	}
	if patient == nil || patient.ServerID == nil {
		return uuid.Nil, false, nil
	}
	return *patient.ServerID, true, nil
}

func (r *Reconciler) resolveConsultation(ctx context.Context, pending []*model.LocalConsultation, localID string) (uuid.UUID, bool, error) {
	for _, c := range pending {
		if c.LocalID == localID {
			if c.ServerID != nil {
				return *c.ServerID, true, nil
			}
			return uuid.Nil, false, nil
		}
	}
	consultation, err := r.store.GetConsultation(ctx, localID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to look up consultation: %w", err)
	}
	if consultation == nil || consultation.ServerID == nil {
		return uuid.Nil, false, nil
	}
	return *consultation.ServerID, true, nil
}

func (r *Reconciler) pull(ctx context.Context, summary *Summary) error {
	since, err := r.store.Checkpoint(ctx)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	resp, err := r.remote.PullSince(ctx, since)
	if err != nil {
		// Checkpoint unchanged; the retry repeats the same window.
		return err
	}

	for _, c := range resp.Consultations {
		patientLocalID := ""
		if c.Patient != nil {
			localID, err := r.mergePatient(ctx, c.Patient)
			if err != nil {
				return err
			}
			patientLocalID = localID
		} else if existing, err := r.store.FindPatientByServerID(ctx, c.PatientID); err != nil {
			return fmt.Errorf("failed to look up patient: %w", err)
		} else if existing != nil {
			patientLocalID = existing.LocalID
		}

		consultationLocalID, err := r.mergeConsultation(ctx, c, patientLocalID)
		if err != nil {
			return err
		}
		for _, m := range c.Messages {
			if err := r.mergeMessage(ctx, m, consultationLocalID); err != nil {
				return err
			}
		}
		summary.Pulled++
	}

	// The server clock drives the next checkpoint so a skewed local clock
	// cannot open a gap.
	if err := r.store.SetCheckpoint(ctx, resp.ServerTime); err != nil {
		return fmt.Errorf("failed to advance checkpoint: %w", err)
	}
	summary.Checkpoint = resp.ServerTime
	return nil
}

func (r *Reconciler) mergePatient(ctx context.Context, patient *model.Patient) (string, error) {
	existing, err := r.store.FindPatientByServerID(ctx, patient.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up patient: %w", err)
	}

	localID := uuid.NewString()
	if existing != nil {
		localID = existing.LocalID
	}
	serverID := patient.ID
	row := &model.LocalPatient{
		LocalID:   localID,
		ServerID:  &serverID,
		OwnerID:   patient.OwnerID,
		Name:      patient.Name,
		DOB:       patient.DOB,
		Meta:      patient.Meta,
		UpdatedAt: patient.UpdatedAt.UnixMilli(),
		SyncState: model.SyncStatusSynced,
	}
	if err := r.store.UpsertPatient(ctx, row); err != nil {
		return "", fmt.Errorf("failed to merge patient: %w", err)
	}
	return localID, nil
}

func (r *Reconciler) mergeConsultation(ctx context.Context, c *model.ConsultationWithRelations, patientLocalID string) (string, error) {
	existing, err := r.store.FindConsultationByServerID(ctx, c.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up consultation: %w", err)
	}

	localID := uuid.NewString()
	if existing != nil {
		localID = existing.LocalID
	}
	serverID := c.ID
	var scheduledAt *int64
	if c.ScheduledAt != nil {
		millis := c.ScheduledAt.UnixMilli()
		scheduledAt = &millis
	}
	row := &model.LocalConsultation{
		LocalID:        localID,
		ServerID:       &serverID,
		PatientLocalID: patientLocalID,
		ClinicianID:    c.ClinicianID,
		Status:         c.Status,
		ScheduledAt:    scheduledAt,
		Notes:          c.Notes,
		UpdatedAt:      c.UpdatedAt.UnixMilli(),
		SyncState:      model.SyncStatusSynced,
	}
	if err := r.store.UpsertConsultation(ctx, row); err != nil {
		return "", fmt.Errorf("failed to merge consultation: %w", err)
	}
	return localID, nil
}

func (r *Reconciler) mergeMessage(ctx context.Context, m *model.Message, consultationLocalID string) error {
	existing, err := r.store.FindMessageByServerID(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("failed to look up message: %w", err)
	}

	localID := uuid.NewString()
	if existing != nil {
		localID = existing.LocalID
	}
	serverID := m.ID
	row := &model.LocalMessage{
		LocalID:             localID,
		ServerID:            &serverID,
		ConsultationLocalID: consultationLocalID,
		AuthorID:            m.AuthorID,
		Body:                m.Body,
		CreatedAt:           m.CreatedAt.UnixMilli(),
		SyncState:           model.SyncStatusSynced,
	}
	if err := r.store.UpsertMessage(ctx, row); err != nil {
		return fmt.Errorf("failed to merge message: %w", err)
	}
	return nil
}
