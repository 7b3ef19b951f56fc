package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediconsult/mediconsult-api/pkg/errors"
)

// ParseScheduledAt parses a proposed appointment time from its wire form.
func ParseScheduledAt(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.NewValidation(errors.ReasonBadTimestamp, "scheduled_at is not a valid timestamp")
	}
	return t, nil
}

// validateSchedule decides bookability of a proposed time against "now".
// Pure decision function; no side effects.
func validateSchedule(scheduledAt, now time.Time) error {
	if scheduledAt.IsZero() {
		return errors.NewValidation(errors.ReasonBadTimestamp, "scheduled_at is not a valid timestamp")
	}
	if !scheduledAt.After(now) {
		return errors.NewValidation(errors.ReasonPast, "cannot schedule in the past")
	}
	if scheduledAt.After(now.AddDate(0, maxAdvanceMonths, 0)) {
		return errors.NewValidation(errors.ReasonTooFar, "can only schedule up to 6 months in advance")
	}
	return nil
}

// validateParticipants rejects a patient booking with themselves.
func validateParticipants(patientID, doctorID uuid.UUID) error {
	if patientID == doctorID {
		return errors.NewValidation(errors.ReasonSelfBooking, "cannot book with yourself")
	}
	return nil
}
