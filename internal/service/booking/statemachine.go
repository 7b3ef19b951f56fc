package booking

import (
	"fmt"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/pkg/errors"
)

// Legal status transitions. PENDING must be accepted before it can complete;
// CANCELLED and COMPLETED are terminal.
var transitions = map[model.AppointmentStatus]map[model.AppointmentAction]model.AppointmentStatus{
	model.AppointmentStatusPending: {
		model.AppointmentActionAccept: model.AppointmentStatusAccepted,
		model.AppointmentActionCancel: model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusAccepted: {
		model.AppointmentActionCancel:   model.AppointmentStatusCancelled,
		model.AppointmentActionComplete: model.AppointmentStatusCompleted,
	},
}

// nextStatus resolves the target status for an action, rejecting unknown
// actions and transitions not in the table.
func nextStatus(current model.AppointmentStatus, action model.AppointmentAction) (model.AppointmentStatus, error) {
	switch action {
	case model.AppointmentActionAccept, model.AppointmentActionCancel, model.AppointmentActionComplete:
	default:
		return "", errors.NewAction(errors.ReasonInvalidAction, fmt.Sprintf("invalid action %q", action))
	}

	next, ok := transitions[current][action]
	if !ok {
		return "", errors.NewAction(errors.ReasonInvalidAction, fmt.Sprintf("cannot %s an appointment in status %s", action, current))
	}
	return next, nil
}

// authorizeTransition permits only the owning doctor or an admin to move an
// appointment's status. Patients never transition state directly.
func authorizeTransition(appointment *model.Appointment, caller model.Caller) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.IsDoctor() && caller.ID == appointment.DoctorID {
		return nil
	}
	return errors.NewAction(errors.ReasonForbidden, "forbidden")
}
