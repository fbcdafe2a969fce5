package clinic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fixture struct {
	svc      *Service
	repo     *memRepo
	locker   *localLocker
	notifier *captureNotifier
	ownerID  uuid.UUID
	petID    uuid.UUID
	vetID    uuid.UUID
}

// newFixture sets up one owner with one pet and one active vet holding a
// Thursday 09:00-17:00 window.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	ownerID := uuid.New()
	petID := uuid.New()
	vetID := uuid.New()

	repo.owners[ownerID] = Owner{ID: ownerID, Name: "Jordan", Email: "jordan@example.com"}
	repo.pets[petID] = Pet{ID: petID, OwnerID: ownerID, Name: "Biscuit", Species: "dog"}
	repo.vets[vetID] = Vet{ID: vetID, Name: "Dr. Hart", Email: "hart@clinic.example", Active: true}

	slotID := uuid.New()
	repo.slots[slotID] = AvailabilitySlot{
		ID: slotID, VetID: vetID, Weekday: 4, StartMinute: 540, EndMinute: 1020,
	}

	notifier := &captureNotifier{}
	locker := newLocalLocker()
	engine := NewEngine(repo, time.UTC)
	svc := NewService(repo, engine, locker, notifier, zerolog.Nop())

	return &fixture{
		svc:      svc,
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		ownerID:  ownerID,
		petID:    petID,
		vetID:    vetID,
	}
}

func (f *fixture) create(t *testing.T, startH, startM, endH, endM int) *Appointment {
	t.Helper()
	appt, err := f.svc.Create(context.Background(), CreateAppointment{
		PetID: f.petID,
		VetID: f.vetID,
		Start: thursdayAt(startH, startM),
		End:   thursdayAt(endH, endM),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return appt
}

func TestCreateBooksAndNotifies(t *testing.T) {
	f := newFixture(t)

	appt := f.create(t, 10, 0, 10, 30)
	if appt.Status != StatusBooked {
		t.Fatalf("status = %s, want booked", appt.Status)
	}

	events := f.notifier.recorded()
	if len(events) != 1 || events[0] != "booked" {
		t.Fatalf("notifications = %v, want [booked]", events)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// end <= start
	_, err := f.svc.Create(ctx, CreateAppointment{
		PetID: f.petID, VetID: f.vetID,
		Start: thursdayAt(10, 0), End: thursdayAt(10, 0),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty window: expected ErrInvalidInput, got %v", err)
	}

	// unknown pet
	_, err = f.svc.Create(ctx, CreateAppointment{
		PetID: uuid.New(), VetID: f.vetID,
		Start: thursdayAt(10, 0), End: thursdayAt(10, 30),
	})
	if !errors.Is(err, ErrPetNotFound) {
		t.Fatalf("unknown pet: expected ErrPetNotFound, got %v", err)
	}

	// unknown vet maps to unavailable, not not-found
	_, err = f.svc.Create(ctx, CreateAppointment{
		PetID: f.petID, VetID: uuid.New(),
		Start: thursdayAt(10, 0), End: thursdayAt(10, 30),
	})
	if !errors.Is(err, ErrVetUnavailable) {
		t.Fatalf("unknown vet: expected ErrVetUnavailable, got %v", err)
	}

	// inactive vet
	inactive := uuid.New()
	f.repo.vets[inactive] = Vet{ID: inactive, Name: "Dr. Gone", Active: false}
	_, err = f.svc.Create(ctx, CreateAppointment{
		PetID: f.petID, VetID: inactive,
		Start: thursdayAt(10, 0), End: thursdayAt(10, 30),
	})
	if !errors.Is(err, ErrVetUnavailable) {
		t.Fatalf("inactive vet: expected ErrVetUnavailable, got %v", err)
	}

	// outside the Thursday window
	_, err = f.svc.Create(ctx, CreateAppointment{
		PetID: f.petID, VetID: f.vetID,
		Start: thursdayAt(7, 0), End: thursdayAt(7, 30),
	})
	if !errors.Is(err, ErrOutsideAvailability) {
		t.Fatalf("early window: expected ErrOutsideAvailability, got %v", err)
	}

	if len(f.notifier.recorded()) != 0 {
		t.Fatal("failed creates must not notify")
	}
}

func TestCreateArchivedPet(t *testing.T) {
	f := newFixture(t)

	pet := f.repo.pets[f.petID]
	pet.Archived = true
	f.repo.pets[f.petID] = pet

	_, err := f.svc.Create(context.Background(), CreateAppointment{
		PetID: f.petID, VetID: f.vetID,
		Start: thursdayAt(10, 0), End: thursdayAt(10, 30),
	})
	if !errors.Is(err, ErrPetArchived) {
		t.Fatalf("expected ErrPetArchived, got %v", err)
	}
}

func TestCreateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, 10, 0, 10, 30)

	// Overlapping attempt for another pet fails.
	otherPet := uuid.New()
	f.repo.pets[otherPet] = Pet{ID: otherPet, OwnerID: f.ownerID, Name: "Mochi", Species: "cat"}
	_, err := f.svc.Create(ctx, CreateAppointment{
		PetID: otherPet, VetID: f.vetID,
		Start: thursdayAt(10, 15), End: thursdayAt(10, 45),
	})
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}

	// Back-to-back booking is fine.
	if _, err := f.svc.Create(ctx, CreateAppointment{
		PetID: otherPet, VetID: f.vetID,
		Start: thursdayAt(10, 30), End: thursdayAt(11, 0),
	}); err != nil {
		t.Fatalf("touching booking should succeed: %v", err)
	}
}

func TestRescheduleSelfExclusion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 11, 0)

	// No-op reschedule to the same window must succeed.
	if _, err := f.svc.Reschedule(ctx, appt.ID, thursdayAt(10, 0), thursdayAt(11, 0)); err != nil {
		t.Fatalf("no-op reschedule: %v", err)
	}

	// A different appointment proposing an overlap fails.
	otherPet := uuid.New()
	f.repo.pets[otherPet] = Pet{ID: otherPet, OwnerID: f.ownerID, Name: "Mochi", Species: "cat"}
	other, err := f.svc.Create(ctx, CreateAppointment{
		PetID: otherPet, VetID: f.vetID,
		Start: thursdayAt(12, 0), End: thursdayAt(12, 30),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Reschedule(ctx, other.ID, thursdayAt(10, 30), thursdayAt(11, 30)); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestRescheduleGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 10, 30)

	if _, err := f.svc.Reschedule(ctx, appt.ID, thursdayAt(11, 0), thursdayAt(10, 0)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("inverted window: expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.Reschedule(ctx, uuid.New(), thursdayAt(11, 0), thursdayAt(11, 30)); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("unknown id: expected ErrAppointmentNotFound, got %v", err)
	}

	if _, err := f.svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.svc.Reschedule(ctx, appt.ID, thursdayAt(11, 0), thursdayAt(11, 30)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancelled reschedule: expected ErrInvalidState, got %v", err)
	}
}

func TestRescheduleLosesToConcurrentCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 10, 30)

	// A cancel lands after Reschedule's status read but before its locked
	// write. The guarded update must miss and surface ErrInvalidState.
	f.locker.beforeLocked = func() {
		if _, err := f.svc.Cancel(ctx, appt.ID); err != nil {
			t.Errorf("Cancel: %v", err)
		}
	}

	if _, err := f.svc.Reschedule(ctx, appt.ID, thursdayAt(11, 0), thursdayAt(11, 30)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	got, _ := f.repo.GetAppointmentByID(ctx, appt.ID)
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	if !got.StartTime.Equal(thursdayAt(10, 0)) || !got.EndTime.Equal(thursdayAt(10, 30)) {
		t.Fatalf("window moved to %v-%v on a cancelled appointment", got.StartTime, got.EndTime)
	}
}

func TestCancelAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 10, 30)

	cancelled, err := f.svc.Cancel(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// Double cancel is an invalid transition.
	if _, err := f.svc.Cancel(ctx, appt.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double cancel: expected ErrInvalidState, got %v", err)
	}

	restored, err := f.svc.Restore(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Status != StatusBooked {
		t.Fatalf("status = %s, want booked", restored.Status)
	}

	events := f.notifier.recorded()
	want := []string{"booked", "cancelled", "booked"}
	if len(events) != len(want) {
		t.Fatalf("notifications = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", events, want)
		}
	}
}

func TestRestoreRevalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 11, 0)
	if _, err := f.svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// Someone else takes the window while A is cancelled.
	otherPet := uuid.New()
	f.repo.pets[otherPet] = Pet{ID: otherPet, OwnerID: f.ownerID, Name: "Mochi", Species: "cat"}
	if _, err := f.svc.Create(ctx, CreateAppointment{
		PetID: otherPet, VetID: f.vetID,
		Start: thursdayAt(10, 0), End: thursdayAt(11, 0),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Restore(ctx, appt.ID); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict on restore, got %v", err)
	}

	// The appointment stays cancelled.
	got, _ := f.repo.GetAppointmentByID(ctx, appt.ID)
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled after failed restore", got.Status)
	}
}

func TestRestoreRevalidatesAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 11, 0)
	if _, err := f.svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// The vet withdraws Thursday availability while A is cancelled.
	for id := range f.repo.slots {
		delete(f.repo.slots, id)
	}

	if _, err := f.svc.Restore(ctx, appt.ID); !errors.Is(err, ErrOutsideAvailability) {
		t.Fatalf("expected ErrOutsideAvailability on restore, got %v", err)
	}
}

func TestCompleteRequiresPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 10, 30)

	if _, err := f.svc.Complete(ctx, appt.ID); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("expected ErrPaymentRequired, got %v", err)
	}

	// A failed payment does not open the gate.
	if _, err := f.svc.RecordPayment(ctx, appt.ID, 4500, PaymentFailed); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if _, err := f.svc.Complete(ctx, appt.ID); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("failed payment: expected ErrPaymentRequired, got %v", err)
	}

	if _, err := f.svc.RecordPayment(ctx, appt.ID, 4500, PaymentSuccess); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	completed, err := f.svc.Complete(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", completed.Status)
	}

	// Completed is terminal.
	if _, err := f.svc.Cancel(ctx, appt.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel after complete: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.svc.Complete(ctx, appt.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double complete: expected ErrInvalidState, got %v", err)
	}
}

func TestTransitionDispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.create(t, 10, 0, 10, 30)

	if _, err := f.svc.Transition(ctx, appt.ID, StatusCancelled); err != nil {
		t.Fatalf("Transition cancel: %v", err)
	}
	restored, err := f.svc.Transition(ctx, appt.ID, StatusBooked)
	if err != nil {
		t.Fatalf("Transition restore: %v", err)
	}
	if restored.Status != StatusBooked {
		t.Fatalf("status = %s, want booked", restored.Status)
	}

	if _, err := f.svc.Transition(ctx, appt.ID, AppointmentStatus("archived")); !errors.Is(err, ErrUnsupportedTransition) {
		t.Fatalf("expected ErrUnsupportedTransition, got %v", err)
	}
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = true

	appt := f.create(t, 10, 0, 10, 30)
	if appt.Status != StatusBooked {
		t.Fatalf("status = %s, want booked despite notifier failure", appt.Status)
	}
}

func TestNilNotifierSkipsDispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	svc := NewService(f.repo, NewEngine(f.repo, time.UTC), f.locker, nil, zerolog.Nop())

	appt, err := svc.Create(ctx, CreateAppointment{
		PetID: f.petID, VetID: f.vetID,
		Start: thursdayAt(10, 0), End: thursdayAt(10, 30),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Restore(ctx, appt.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
}

func TestConcurrentCreateAtMostOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8

	pets := make([]uuid.UUID, attempts)
	for i := range pets {
		id := uuid.New()
		f.repo.pets[id] = Pet{ID: id, OwnerID: f.ownerID, Name: "Pet", Species: "dog"}
		pets[i] = id
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	gate := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			_, err := f.svc.Create(ctx, CreateAppointment{
				PetID: pets[i], VetID: f.vetID,
				Start: thursdayAt(10, 0), End: thursdayAt(10, 30),
			})
			errs[i] = err
		}(i)
	}
	close(gate)
	wg.Wait()

	var success, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrSlotConflict):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("success = %d, want exactly 1", success)
	}
	if conflict != attempts-1 {
		t.Fatalf("conflict = %d, want %d", conflict, attempts-1)
	}
}

// TestBookingScenario walks the full flow: book, double-book refused,
// cancel, restore.
func TestBookingScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, 10, 0, 10, 30)

	otherPet := uuid.New()
	f.repo.pets[otherPet] = Pet{ID: otherPet, OwnerID: f.ownerID, Name: "Mochi", Species: "cat"}
	_, err := f.svc.Create(ctx, CreateAppointment{
		PetID: otherPet, VetID: f.vetID,
		Start: thursdayAt(10, 15), End: thursdayAt(10, 45),
	})
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("double booking: expected ErrSlotConflict, got %v", err)
	}

	if _, err := f.svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	restored, err := f.svc.Restore(ctx, first.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Status != StatusBooked {
		t.Fatalf("status = %s, want booked", restored.Status)
	}
}
