package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/internal/repository"
	"github.com/mediconsult/mediconsult-api/internal/repository/postgres"
	apperrors "github.com/mediconsult/mediconsult-api/pkg/errors"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeAppointmentRepo is an in-memory AppointmentRepository.
type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	insertErr    error
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Insert(ctx context.Context, a *model.Appointment) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *a
	r.appointments[a.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, a *model.Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return postgres.ErrNotFound
	}
	clone := *a
	r.appointments[a.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) FindByDoctorInWindow(ctx context.Context, doctorID uuid.UUID, start, end time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		if a.ScheduledAt.Before(start) || a.ScheduledAt.After(end) {
			continue
		}
		for _, s := range statuses {
			if a.Status == s {
				clone := *a
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

var _ repository.AppointmentRepository = (*fakeAppointmentRepo)(nil)

func newTestService(repo repository.AppointmentRepository) *Service {
	svc := NewService(repo, nil, nil, Config{})
	svc.now = func() time.Time { return testNow }
	return svc
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestCreateBooksPending(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)

	patientID := uuid.New()
	doctorID := uuid.New()

	appointment, err := svc.Create(context.Background(), CreateInput{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, appointment.Status)
	assert.Equal(t, model.DefaultDurationMinutes, appointment.DurationMinutes)
	assert.Equal(t, patientID, appointment.PatientID)
	assert.Equal(t, doctorID, appointment.DoctorID)
	assert.NotEqual(t, uuid.Nil, appointment.ID)
}

func TestCreateRejectsSelfBooking(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())
	id := uuid.New()

	_, err := svc.Create(context.Background(), CreateInput{
		PatientID:   id,
		DoctorID:    id,
		ScheduledAt: at(10, 0),
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonSelfBooking))
}

func TestCreateRejectsPast(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: testNow.Add(-time.Hour),
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonPast))
}

func TestCreateRejectsTooFarAhead(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: testNow.AddDate(0, 6, 1),
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonTooFar))
}

func TestCreateAllowsExactlySixMonthsAhead(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: testNow.AddDate(0, 6, 0),
	})
	assert.NoError(t, err)
}

func TestCreateRejectsOverlapWithAccepted(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	first, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)
	first.Status = model.AppointmentStatusAccepted
	require.NoError(t, repo.Update(context.Background(), first))

	// 10:15-10:45 overlaps 10:00-10:30.
	_, err = svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 15),
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonConflict))
}

func TestCreateAllowsBackToBack(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	_, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)

	// 10:30-11:00 starts exactly when 10:00-10:30 ends.
	_, err = svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 30),
	})
	assert.NoError(t, err)
}

func TestCreateIgnoresCancelledSlots(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	first, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)
	first.Status = model.AppointmentStatusCancelled
	require.NoError(t, repo.Update(context.Background(), first))

	_, err = svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 15),
	})
	assert.NoError(t, err)
}

func TestCreateAllowsOverlapForDifferentDoctors(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: at(10, 0),
	})
	assert.NoError(t, err)
}

func TestTransitionAcceptByOwningDoctor(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	appointment, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)

	updated, err := svc.Transition(context.Background(), appointment.ID, model.AppointmentActionAccept, model.Caller{ID: doctorID, Role: model.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusAccepted, updated.Status)
}

func TestTransitionAcceptLoserOfRaceFails(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	// Two overlapping requests both got in as PENDING.
	first, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    doctorID,
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)
	second := &model.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		DoctorID:        doctorID,
		ScheduledAt:     at(10, 15),
		DurationMinutes: 30,
		Status:          model.AppointmentStatusPending,
	}
	require.NoError(t, repo.Insert(context.Background(), second))

	caller := model.Caller{ID: doctorID, Role: model.RoleDoctor}

	_, err = svc.Transition(context.Background(), first.ID, model.AppointmentActionAccept, caller)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), second.ID, model.AppointmentActionAccept, caller)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonConflict))
}

func TestTransitionForbiddenForOtherDoctor(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)

	appointment, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), appointment.ID, model.AppointmentActionAccept, model.Caller{ID: uuid.New(), Role: model.RoleDoctor})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonForbidden))
}

func TestTransitionAdminMayActOnAnyAppointment(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo)

	appointment, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: at(10, 0),
	})
	require.NoError(t, err)

	updated, err := svc.Transition(context.Background(), appointment.ID, model.AppointmentActionCancel, model.Caller{ID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, updated.Status)
}

func TestTransitionUnknownAppointment(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo())

	_, err := svc.Transition(context.Background(), uuid.New(), model.AppointmentActionCancel, model.Caller{ID: uuid.New(), Role: model.RoleAdmin})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonNotFound))
}
