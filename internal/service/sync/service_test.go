package sync

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

var serverNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakePatientRepo struct {
	patients  map[uuid.UUID]*model.Patient
	upsertErr error
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *fakePatientRepo) Upsert(ctx context.Context, p *model.Patient) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	clone := *p
	r.patients[p.ID] = &clone
	return nil
}

func (r *fakePatientRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, id := range ids {
		if p, ok := r.patients[id]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakePatientRepo) ListIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, p := range r.patients {
		if p.OwnerID == ownerID {
			out = append(out, p.ID)
		}
	}
	return out, nil
}

type fakeConsultationRepo struct {
	consultations map[uuid.UUID]*model.Consultation
	upsertErr     error
}

func newFakeConsultationRepo() *fakeConsultationRepo {
	return &fakeConsultationRepo{consultations: make(map[uuid.UUID]*model.Consultation)}
}

func (r *fakeConsultationRepo) Upsert(ctx context.Context, c *model.Consultation) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	clone := *c
	r.consultations[c.ID] = &clone
	return nil
}

func (r *fakeConsultationRepo) list(since time.Time, keep func(*model.Consultation) bool) []*model.Consultation {
	var out []*model.Consultation
	for _, c := range r.consultations {
		if c.UpdatedAt.Before(since) || !keep(c) {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}

func (r *fakeConsultationRepo) ListUpdatedSince(ctx context.Context, since time.Time) ([]*model.Consultation, error) {
	return r.list(since, func(*model.Consultation) bool { return true }), nil
}

func (r *fakeConsultationRepo) ListUpdatedSinceForClinician(ctx context.Context, clinicianID uuid.UUID, since time.Time) ([]*model.Consultation, error) {
	return r.list(since, func(c *model.Consultation) bool { return c.ClinicianID == clinicianID }), nil
}

func (r *fakeConsultationRepo) ListUpdatedSinceForPatients(ctx context.Context, patientIDs []uuid.UUID, since time.Time) ([]*model.Consultation, error) {
	allowed := make(map[uuid.UUID]struct{}, len(patientIDs))
	for _, id := range patientIDs {
		allowed[id] = struct{}{}
	}
	return r.list(since, func(c *model.Consultation) bool {
		_, ok := allowed[c.PatientID]
		return ok
	}), nil
}

type fakeMessageRepo struct {
	messages  []*model.Message
	upsertErr error
}

func (r *fakeMessageRepo) Upsert(ctx context.Context, m *model.Message) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for i, existing := range r.messages {
		if existing.ID == m.ID {
			clone := *m
			r.messages[i] = &clone
			return nil
		}
	}
	clone := *m
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) ListByConsultations(ctx context.Context, consultationIDs []uuid.UUID) ([]*model.Message, error) {
	allowed := make(map[uuid.UUID]struct{}, len(consultationIDs))
	for _, id := range consultationIDs {
		allowed[id] = struct{}{}
	}
	var out []*model.Message
	for _, m := range r.messages {
		if _, ok := allowed[m.ConsultationID]; ok {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fixture struct {
	patients      *fakePatientRepo
	consultations *fakeConsultationRepo
	messages      *fakeMessageRepo
	svc           *Service
}

func newFixture() *fixture {
	f := &fixture{
		patients:      newFakePatientRepo(),
		consultations: newFakeConsultationRepo(),
		messages:      &fakeMessageRepo{},
	}
	f.svc = NewService(f.patients, f.consultations, f.messages, nil)
	f.svc.now = func() time.Time { return serverNow }
	return f
}

func TestPushAssignsServerIDs(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Push(context.Background(), &model.PushRequest{
		Patients: []model.PatientUpsert{
			{LocalID: "local-1", OwnerID: uuid.New(), Name: "Ada", UpdatedAt: serverNow.UnixMilli()},
		},
	})
	require.NoError(t, err)

	require.False(t, resp.Patients.Failed())
	assigned, ok := resp.Patients.AssignedIDs["local-1"]
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, assigned)
	assert.Contains(t, f.patients.patients, assigned)
	assert.Equal(t, serverNow.UnixMilli(), resp.ServerTime)
}

func TestPushKeepsExistingID(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	resp, err := f.svc.Push(context.Background(), &model.PushRequest{
		Patients: []model.PatientUpsert{
			{LocalID: "local-1", ID: &id, OwnerID: uuid.New(), Name: "Ada"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, id, resp.Patients.AssignedIDs["local-1"])
}

func TestPushIsIdempotent(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	record := model.PatientUpsert{LocalID: "local-1", ID: &id, OwnerID: uuid.New(), Name: "Ada"}

	_, err := f.svc.Push(context.Background(), &model.PushRequest{Patients: []model.PatientUpsert{record}})
	require.NoError(t, err)
	record.Name = "Ada Lovelace"
	_, err = f.svc.Push(context.Background(), &model.PushRequest{Patients: []model.PatientUpsert{record}})
	require.NoError(t, err)

	require.Len(t, f.patients.patients, 1)
	assert.Equal(t, "Ada Lovelace", f.patients.patients[id].Name)
}

func TestPushPartialGroupFailure(t *testing.T) {
	f := newFixture()
	f.consultations.upsertErr = errors.New("constraint violation")

	resp, err := f.svc.Push(context.Background(), &model.PushRequest{
		Patients: []model.PatientUpsert{
			{LocalID: "p-1", OwnerID: uuid.New(), Name: "Ada"},
		},
		Consultations: []model.ConsultationUpsert{
			{LocalID: "c-1", PatientID: uuid.New(), ClinicianID: uuid.New(), Status: "draft"},
		},
	})
	require.NoError(t, err, "a failing group must not fail the request")

	assert.False(t, resp.Patients.Failed())
	assert.Contains(t, resp.Patients.AssignedIDs, "p-1")
	assert.True(t, resp.Consultations.Failed())
	assert.Empty(t, resp.Consultations.AssignedIDs)
	assert.False(t, resp.Messages.Failed())
}

func seedConsultation(f *fixture, clinicianID, ownerID uuid.UUID, updatedAt time.Time) *model.Consultation {
	patient := &model.Patient{ID: uuid.New(), OwnerID: ownerID, Name: "P", UpdatedAt: updatedAt}
	f.patients.patients[patient.ID] = patient
	consultation := &model.Consultation{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		ClinicianID: clinicianID,
		Status:      "open",
		UpdatedAt:   updatedAt,
	}
	f.consultations.consultations[consultation.ID] = consultation
	return consultation
}

func TestPullScopesToClinician(t *testing.T) {
	f := newFixture()
	doctorID := uuid.New()
	mine := seedConsultation(f, doctorID, uuid.New(), serverNow.Add(-time.Hour))
	seedConsultation(f, uuid.New(), uuid.New(), serverNow.Add(-time.Hour))

	resp, err := f.svc.Pull(context.Background(), time.Time{}, model.Caller{ID: doctorID, Role: model.RoleDoctor})
	require.NoError(t, err)

	require.Len(t, resp.Consultations, 1)
	assert.Equal(t, mine.ID, resp.Consultations[0].ID)
	assert.Equal(t, serverNow.UnixMilli(), resp.ServerTime)
}

func TestPullScopesToPatientOwner(t *testing.T) {
	f := newFixture()
	ownerID := uuid.New()
	mine := seedConsultation(f, uuid.New(), ownerID, serverNow.Add(-time.Hour))
	seedConsultation(f, uuid.New(), uuid.New(), serverNow.Add(-time.Hour))

	resp, err := f.svc.Pull(context.Background(), time.Time{}, model.Caller{ID: ownerID, Role: model.RolePatient})
	require.NoError(t, err)

	require.Len(t, resp.Consultations, 1)
	assert.Equal(t, mine.ID, resp.Consultations[0].ID)
}

func TestPullAdminSeesEverything(t *testing.T) {
	f := newFixture()
	seedConsultation(f, uuid.New(), uuid.New(), serverNow.Add(-time.Hour))
	seedConsultation(f, uuid.New(), uuid.New(), serverNow.Add(-2*time.Hour))

	resp, err := f.svc.Pull(context.Background(), time.Time{}, model.Caller{ID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, resp.Consultations, 2)
}

func TestPullHonorsCheckpoint(t *testing.T) {
	f := newFixture()
	doctorID := uuid.New()
	seedConsultation(f, doctorID, uuid.New(), serverNow.Add(-2*time.Hour))
	fresh := seedConsultation(f, doctorID, uuid.New(), serverNow.Add(-time.Minute))

	resp, err := f.svc.Pull(context.Background(), serverNow.Add(-time.Hour), model.Caller{ID: doctorID, Role: model.RoleDoctor})
	require.NoError(t, err)

	require.Len(t, resp.Consultations, 1)
	assert.Equal(t, fresh.ID, resp.Consultations[0].ID)
}

func TestPullComposesRelations(t *testing.T) {
	f := newFixture()
	doctorID := uuid.New()
	consultation := seedConsultation(f, doctorID, uuid.New(), serverNow.Add(-time.Hour))

	older := &model.Message{ID: uuid.New(), ConsultationID: consultation.ID, AuthorID: doctorID, Body: "first", CreatedAt: serverNow.Add(-50 * time.Minute)}
	newer := &model.Message{ID: uuid.New(), ConsultationID: consultation.ID, AuthorID: doctorID, Body: "second", CreatedAt: serverNow.Add(-40 * time.Minute)}
	require.NoError(t, f.messages.Upsert(context.Background(), newer))
	require.NoError(t, f.messages.Upsert(context.Background(), older))

	resp, err := f.svc.Pull(context.Background(), time.Time{}, model.Caller{ID: doctorID, Role: model.RoleDoctor})
	require.NoError(t, err)

	require.Len(t, resp.Consultations, 1)
	got := resp.Consultations[0]
	require.NotNil(t, got.Patient)
	assert.Equal(t, consultation.PatientID, got.Patient.ID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "first", got.Messages[0].Body)
	assert.Equal(t, "second", got.Messages[1].Body)
}
