package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/furwell/vetclinic-scheduling/internal/redis"
)

// Service runs the appointment lifecycle: booked on creation, booked to
// cancelled and back via restore, booked to completed once paid. Every
// check-then-write sequence runs under the per-vet lock so that two
// concurrent bookings for overlapping windows cannot both land.
type Service struct {
	repo     Repository
	engine   *Engine
	locker   redisclient.Locker
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, engine *Engine, locker redisclient.Locker, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		locker:   locker,
		notifier: notifier,
		logger:   logger,
	}
}

type CreateAppointment struct {
	PetID  uuid.UUID
	VetID  uuid.UUID
	Start  time.Time
	End    time.Time
	Reason *string
}

// Create books a new appointment. The availability and conflict checks
// plus the insert run inside the vet lock.
func (s *Service) Create(ctx context.Context, in CreateAppointment) (*Appointment, error) {
	if !in.End.After(in.Start) {
		return nil, ErrInvalidInput
	}

	pet, err := s.repo.GetPetByID(ctx, in.PetID)
	if err != nil {
		return nil, err
	}
	if pet.Archived {
		return nil, ErrPetArchived
	}

	vet, err := s.repo.GetVetByID(ctx, in.VetID)
	if err != nil {
		if errors.Is(err, ErrVetNotFound) {
			return nil, ErrVetUnavailable
		}
		return nil, fmt.Errorf("load vet: %w", err)
	}
	if !vet.Active {
		return nil, ErrVetUnavailable
	}

	var created *Appointment

	err = s.locker.WithVetLock(ctx, in.VetID, func(lockCtx context.Context) error {
		if err := s.checkWindow(lockCtx, in.VetID, in.Start, in.End, nil); err != nil {
			return err
		}

		appt, err := s.repo.InsertAppointment(lockCtx, Appointment{
			ID:        uuid.New(),
			PetID:     in.PetID,
			VetID:     in.VetID,
			StartTime: in.Start,
			EndTime:   in.End,
			Status:    StatusBooked,
			Reason:    in.Reason,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		return nil, s.mapLockErr(err)
	}

	s.dispatch(ctx, created, "booked")
	return created, nil
}

// Reschedule moves a booked appointment to a new window. Status is
// unchanged; the appointment itself is excluded from the conflict check.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusBooked {
		return nil, ErrInvalidState
	}
	if !newEnd.After(newStart) {
		return nil, ErrInvalidInput
	}

	var updated *Appointment

	err = s.locker.WithVetLock(ctx, appt.VetID, func(lockCtx context.Context) error {
		if err := s.checkWindow(lockCtx, appt.VetID, newStart, newEnd, &id); err != nil {
			return err
		}

		out, err := s.repo.UpdateAppointmentWindow(lockCtx, id, newStart, newEnd)
		if err != nil {
			// The guarded update missed: the appointment stopped being
			// booked between our read and the locked write.
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrInvalidState
			}
			return fmt.Errorf("update appointment window: %w", err)
		}
		updated = out
		return nil
	})
	if err != nil {
		return nil, s.mapLockErr(err)
	}

	s.dispatch(ctx, updated, "rescheduled")
	return updated, nil
}

// Cancel releases a booked appointment's window.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusBooked {
		return nil, ErrInvalidState
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusBooked, StatusCancelled)
	if err != nil {
		// The compare-and-swap missed: someone else moved the status
		// between our read and the update.
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.dispatch(ctx, updated, "cancelled")
	return updated, nil
}

// Restore re-books a cancelled appointment at its stored window. The
// window is re-validated against current availability and bookings; the
// world may have changed since cancellation.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusCancelled {
		return nil, ErrInvalidState
	}

	var updated *Appointment

	err = s.locker.WithVetLock(ctx, appt.VetID, func(lockCtx context.Context) error {
		if err := s.checkWindow(lockCtx, appt.VetID, appt.StartTime, appt.EndTime, &id); err != nil {
			return err
		}

		out, err := s.repo.UpdateAppointmentStatus(lockCtx, id, StatusCancelled, StatusBooked)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrInvalidState
			}
			return fmt.Errorf("restore appointment: %w", err)
		}
		updated = out
		return nil
	})
	if err != nil {
		return nil, s.mapLockErr(err)
	}

	s.dispatch(ctx, updated, "restored")
	return updated, nil
}

// Complete closes out a booked appointment. Gated on a successful payment
// and irreversible. No notification is sent for this transition.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusBooked {
		return nil, ErrInvalidState
	}

	paid, err := s.repo.HasSuccessfulPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check payment: %w", err)
	}
	if !paid {
		return nil, ErrPaymentRequired
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusBooked, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}
	return updated, nil
}

// Transition dispatches on the requested target status: booked restores,
// cancelled cancels, completed completes. Anything else is unsupported.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target AppointmentStatus) (*Appointment, error) {
	switch target {
	case StatusBooked:
		return s.Restore(ctx, id)
	case StatusCancelled:
		return s.Cancel(ctx, id)
	case StatusCompleted:
		return s.Complete(ctx, id)
	default:
		return nil, ErrUnsupportedTransition
	}
}

// RecordPayment stores a payment row for an appointment. Capture itself
// happens elsewhere; this is the surface that feeds the Complete gate.
func (s *Service) RecordPayment(ctx context.Context, appointmentID uuid.UUID, amountCents int64, status PaymentStatus) (*Payment, error) {
	if _, err := s.repo.GetAppointmentByID(ctx, appointmentID); err != nil {
		return nil, err
	}
	return s.repo.InsertPayment(ctx, Payment{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		AmountCents:   amountCents,
		Status:        status,
	})
}

// Get retrieves a fully hydrated appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ListByPet retrieves appointments for one pet, newest first.
func (s *Service) ListByPet(ctx context.Context, petID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAppointmentsByPet(ctx, petID, limit, offset)
}

func (s *Service) checkWindow(ctx context.Context, vetID uuid.UUID, start, end time.Time, exclude *uuid.UUID) error {
	ok, err := s.engine.WithinAvailability(ctx, vetID, start, end)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOutsideAvailability
	}

	conflict, err := s.engine.HasConflict(ctx, vetID, start, end, exclude)
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotConflict
	}
	return nil
}

func (s *Service) mapLockErr(err error) error {
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrVetCalendarBusy
	}
	return err
}

// dispatch sends the owner notification for a committed transition.
// Failures are logged and swallowed; they never fail the operation.
func (s *Service) dispatch(ctx context.Context, appt *Appointment, event string) {
	if s.notifier == nil || appt == nil {
		return
	}

	var send func(context.Context, Notification) error
	switch event {
	case "booked", "restored":
		send = s.notifier.Booked
	case "rescheduled":
		send = s.notifier.Rescheduled
	case "cancelled":
		send = s.notifier.Cancelled
	default:
		return
	}

	detail, err := s.repo.GetAppointmentDetail(ctx, appt.ID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("appointment_id", appt.ID.String()).
			Str("event", event).
			Msg("load appointment detail for notification")
		return
	}
	if detail.Owner == nil || detail.Owner.Email == "" {
		return
	}

	n := Notification{
		OwnerEmail: detail.Owner.Email,
		OwnerName:  detail.Owner.Name,
		Start:      appt.StartTime,
		End:        appt.EndTime,
	}
	if detail.Pet != nil {
		n.PetName = detail.Pet.Name
	}
	if detail.Vet != nil {
		n.VetName = detail.Vet.Name
	}

	if err := send(ctx, n); err != nil {
		s.logger.Error().Err(err).
			Str("appointment_id", appt.ID.String()).
			Str("event", event).
			Msg("enqueue owner notification")
	}
}
