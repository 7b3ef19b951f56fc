package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/pkg/messaging"
)

const eventChannel = "appointment.events"

// NotificationWorker consumes appointment lifecycle events and dispatches
// notifications to the affected parties.
type NotificationWorker struct {
	broker messaging.Broker
	logger *zerolog.Logger
}

func NewNotificationWorker(broker messaging.Broker, logger *zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		broker: broker,
		logger: logger,
	}
}

type appointmentEvent struct {
	Type    string             `json:"type"`
	Payload *model.Appointment `json:"payload"`
}

// Start blocks until the context is cancelled, dispatching each event as it
// arrives. A malformed event is logged and skipped.
func (w *NotificationWorker) Start(ctx context.Context) error {
	events, err := w.broker.Subscribe(ctx, eventChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", eventChannel, err)
	}

	w.logger.Info().Str("channel", eventChannel).Msg("notification worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.dispatch(raw); err != nil {
				w.logger.Warn().Err(err).Msg("failed to dispatch notification")
			}
		}
	}
}

func (w *NotificationWorker) dispatch(raw []byte) error {
	var event appointmentEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if event.Payload == nil {
		return fmt.Errorf("event %q has no payload", event.Type)
	}

	for _, recipient := range recipients(event) {
		w.logger.Info().
			Str("event", event.Type).
			Str("appointment_id", event.Payload.ID.String()).
			Str("recipient", recipient.String()).
			Time("scheduled_at", event.Payload.ScheduledAt).
			Msg("notification dispatched")
	}
	return nil
}

// recipients picks who to notify. Creation notifies the doctor; status
// changes notify the patient.
func recipients(event appointmentEvent) []uuid.UUID {
	switch event.Type {
	case "appointment.created":
		return []uuid.UUID{event.Payload.DoctorID}
	default:
		return []uuid.UUID{event.Payload.PatientID}
	}
}
