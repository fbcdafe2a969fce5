package clinic

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

type Role string

const (
	RoleOwner Role = "owner"
	RoleVet   Role = "vet"
	RoleAdmin Role = "admin"
)

type Owner struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Vet struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Name      string
	Email     string
	Specialty *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Pet struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Species   string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilitySlot is one recurring weekly window on a vet's calendar.
// Weekday is 0..6 with 0 = Sunday; the minute range is half-open.
type AvailabilitySlot struct {
	ID          uuid.UUID
	VetID       uuid.UUID
	Weekday     int
	StartMinute int
	EndMinute   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Appointment struct {
	ID        uuid.UUID
	PetID     uuid.UUID
	VetID     uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Status    AppointmentStatus
	Reason    *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Payment struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	AmountCents   int64
	Status        PaymentStatus
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Pet   *Pet
	Owner *Owner
	Vet   *Vet
}
