package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOwnerNotFound       = errors.New("owner not found")
	ErrVetNotFound         = errors.New("vet not found")
	ErrPetNotFound         = errors.New("pet not found")
	ErrSlotNotFound        = errors.New("availability slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the scheduling core.
type Repository interface {
	GetOwnerByID(ctx context.Context, id uuid.UUID) (*Owner, error)
	GetPetByID(ctx context.Context, id uuid.UUID) (*Pet, error)

	GetVetByID(ctx context.Context, id uuid.UUID) (*Vet, error)
	GetVetByUserID(ctx context.Context, userID uuid.UUID) (*Vet, error)
	GetVetByEmail(ctx context.Context, email string) (*Vet, error)

	// Availability windows
	ListSlots(ctx context.Context, vetID uuid.UUID, weekday int) ([]AvailabilitySlot, error)
	GetSlotByID(ctx context.Context, id uuid.UUID) (*AvailabilitySlot, error)
	InsertSlot(ctx context.Context, slot AvailabilitySlot) (*AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, slot AvailabilitySlot) (*AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error

	// Conflict checks and appointment lifecycle
	ListBooked(ctx context.Context, vetID uuid.UUID, exclude *uuid.UUID) ([]Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByPet(ctx context.Context, petID uuid.UUID, limit, offset int) ([]AppointmentDetail, error)
	InsertAppointment(ctx context.Context, appt Appointment) (*Appointment, error)
	// UpdateAppointmentWindow moves a booked appointment's window;
	// ErrAppointmentNotFound if the row is missing or no longer booked.
	UpdateAppointmentWindow(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error)
	// UpdateAppointmentStatus is a compare-and-swap; ErrAppointmentNotFound
	// if the row is missing or its status is not `from`.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Payments
	InsertPayment(ctx context.Context, p Payment) (*Payment, error)
	HasSuccessfulPayment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}
