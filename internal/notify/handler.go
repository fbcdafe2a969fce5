package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
)

// Sender is what the worker needs from a mail transport.
type Sender interface {
	Send(to, subject, body string) error
}

// NewMux wires one handler per notification task type.
func NewMux(sender Sender, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBooked, handle(sender, logger, "Appointment booked", bookedBody))
	mux.HandleFunc(TypeRescheduled, handle(sender, logger, "Appointment rescheduled", rescheduledBody))
	mux.HandleFunc(TypeCancelled, handle(sender, logger, "Appointment cancelled", cancelledBody))
	return mux
}

func handle(sender Sender, logger zerolog.Logger, subject string, body func(clinic.Notification) string) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var n clinic.Notification
		if err := json.Unmarshal(task.Payload(), &n); err != nil {
			logger.Error().Err(err).Str("task", task.Type()).Msg("invalid notification payload")
			// Malformed payloads will never succeed; don't let asynq retry.
			return nil
		}

		if err := sender.Send(n.OwnerEmail, subject, body(n)); err != nil {
			logger.Error().Err(err).
				Str("task", task.Type()).
				Str("owner_email", n.OwnerEmail).
				Msg("send notification mail")
			return err
		}

		logger.Info().
			Str("task", task.Type()).
			Str("owner_email", n.OwnerEmail).
			Msg("notification sent")
		return nil
	}
}

func window(n clinic.Notification) string {
	return fmt.Sprintf("%s to %s",
		n.Start.Format(time.RFC1123),
		n.End.Format("15:04 MST"))
}

func bookedBody(n clinic.Notification) string {
	return fmt.Sprintf("Hi %s,\n\n%s is booked with %s from %s.\n",
		n.OwnerName, n.PetName, n.VetName, window(n))
}

func rescheduledBody(n clinic.Notification) string {
	return fmt.Sprintf("Hi %s,\n\n%s's appointment with %s has moved to %s.\n",
		n.OwnerName, n.PetName, n.VetName, window(n))
}

func cancelledBody(n clinic.Notification) string {
	return fmt.Sprintf("Hi %s,\n\n%s's appointment with %s on %s has been cancelled.\n",
		n.OwnerName, n.PetName, n.VetName, n.Start.Format(time.RFC1123))
}
