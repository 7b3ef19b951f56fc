package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mediconsult/mediconsult-api/pkg/errors"
)

func TestParseScheduledAt(t *testing.T) {
	parsed, err := ParseScheduledAt("2024-03-02T10:00:00Z")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), parsed)

	_, err = ParseScheduledAt("not-a-date")
	assert.True(t, errors.HasReason(err, errors.ReasonBadTimestamp))

	_, err = ParseScheduledAt("2024-03-02")
	assert.True(t, errors.HasReason(err, errors.ReasonBadTimestamp))
}

func TestValidateSchedule(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		scheduledAt time.Time
		wantReason  errors.Reason
	}{
		{"zero time", time.Time{}, errors.ReasonBadTimestamp},
		{"an hour ago", now.Add(-time.Hour), errors.ReasonPast},
		{"exactly now", now, errors.ReasonPast},
		{"one minute ahead", now.Add(time.Minute), ""},
		{"six months ahead", now.AddDate(0, 6, 0), ""},
		{"past the six month horizon", now.AddDate(0, 6, 0).Add(time.Minute), errors.ReasonTooFar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSchedule(tt.scheduledAt, now)
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.HasReason(err, tt.wantReason))
		})
	}
}

func TestValidateParticipants(t *testing.T) {
	id := uuid.New()
	assert.True(t, errors.HasReason(validateParticipants(id, id), errors.ReasonSelfBooking))
	assert.NoError(t, validateParticipants(uuid.New(), uuid.New()))
}
