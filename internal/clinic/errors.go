package clinic

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid appointment window")
	ErrInvalidRange   = errors.New("slot start must be before slot end")
	ErrPetArchived    = errors.New("pet record is archived")
	ErrVetUnavailable = errors.New("vet is unavailable")

	// ErrSlotConflict covers both a double-booked appointment window and
	// an overlapping availability slot.
	ErrSlotConflict        = errors.New("window conflicts with an existing booking or slot")
	ErrOutsideAvailability = errors.New("window falls outside the vet's availability")

	ErrInvalidState          = errors.New("appointment status does not allow this transition")
	ErrPaymentRequired       = errors.New("appointment has no successful payment")
	ErrUnsupportedTransition = errors.New("unsupported target status")

	// ErrVetCalendarBusy is returned when another request holds the
	// per-vet lock; callers should retry.
	ErrVetCalendarBusy = errors.New("vet calendar is being modified, please retry")
)
