package clinic

import (
	"context"
	"time"
)

// Notification is everything the owner-facing mail needs. The service
// fills it from the appointment detail after the mutation commits.
type Notification struct {
	OwnerEmail string    `json:"owner_email"`
	OwnerName  string    `json:"owner_name"`
	PetName    string    `json:"pet_name"`
	VetName    string    `json:"vet_name"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Notifier dispatches owner notifications. Implementations are
// fire-and-forget from the service's point of view: a returned error is
// logged by the caller and never surfaced.
type Notifier interface {
	Booked(ctx context.Context, n Notification) error
	Rescheduled(ctx context.Context, n Notification) error
	Cancelled(ctx context.Context, n Notification) error
}
