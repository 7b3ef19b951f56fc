package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/pkg/errors"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current model.AppointmentStatus
		action  model.AppointmentAction
		want    model.AppointmentStatus
		wantErr bool
	}{
		{"accept pending", model.AppointmentStatusPending, model.AppointmentActionAccept, model.AppointmentStatusAccepted, false},
		{"cancel pending", model.AppointmentStatusPending, model.AppointmentActionCancel, model.AppointmentStatusCancelled, false},
		{"cancel accepted", model.AppointmentStatusAccepted, model.AppointmentActionCancel, model.AppointmentStatusCancelled, false},
		{"complete accepted", model.AppointmentStatusAccepted, model.AppointmentActionComplete, model.AppointmentStatusCompleted, false},
		{"complete pending skips accept", model.AppointmentStatusPending, model.AppointmentActionComplete, "", true},
		{"accept accepted", model.AppointmentStatusAccepted, model.AppointmentActionAccept, "", true},
		{"cancel cancelled", model.AppointmentStatusCancelled, model.AppointmentActionCancel, "", true},
		{"accept completed", model.AppointmentStatusCompleted, model.AppointmentActionAccept, "", true},
		{"unknown action", model.AppointmentStatusPending, model.AppointmentAction("RESCHEDULE"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := nextStatus(tt.current, tt.action)
			if tt.wantErr {
				assert.True(t, errors.HasReason(err, errors.ReasonInvalidAction))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestAuthorizeTransition(t *testing.T) {
	doctorID := uuid.New()
	appointment := &model.Appointment{DoctorID: doctorID, PatientID: uuid.New()}

	assert.NoError(t, authorizeTransition(appointment, model.Caller{ID: uuid.New(), Role: model.RoleAdmin}))
	assert.NoError(t, authorizeTransition(appointment, model.Caller{ID: doctorID, Role: model.RoleDoctor}))

	err := authorizeTransition(appointment, model.Caller{ID: uuid.New(), Role: model.RoleDoctor})
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))

	err = authorizeTransition(appointment, model.Caller{ID: appointment.PatientID, Role: model.RolePatient})
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))
}
