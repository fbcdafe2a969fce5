package clinic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository with the same semantics as the
// Postgres implementation, including the compare-and-swap status update.
type memRepo struct {
	mu       sync.Mutex
	owners   map[uuid.UUID]Owner
	pets     map[uuid.UUID]Pet
	vets     map[uuid.UUID]Vet
	slots    map[uuid.UUID]AvailabilitySlot
	appts    map[uuid.UUID]Appointment
	payments map[uuid.UUID][]Payment
}

func newMemRepo() *memRepo {
	return &memRepo{
		owners:   make(map[uuid.UUID]Owner),
		pets:     make(map[uuid.UUID]Pet),
		vets:     make(map[uuid.UUID]Vet),
		slots:    make(map[uuid.UUID]AvailabilitySlot),
		appts:    make(map[uuid.UUID]Appointment),
		payments: make(map[uuid.UUID][]Payment),
	}
}

func (r *memRepo) GetOwnerByID(_ context.Context, id uuid.UUID) (*Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.owners[id]; ok {
		return &o, nil
	}
	return nil, ErrOwnerNotFound
}

func (r *memRepo) GetPetByID(_ context.Context, id uuid.UUID) (*Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pets[id]; ok {
		return &p, nil
	}
	return nil, ErrPetNotFound
}

func (r *memRepo) GetVetByID(_ context.Context, id uuid.UUID) (*Vet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vets[id]; ok {
		return &v, nil
	}
	return nil, ErrVetNotFound
}

func (r *memRepo) GetVetByUserID(_ context.Context, userID uuid.UUID) (*Vet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vets {
		if v.UserID != nil && *v.UserID == userID {
			vv := v
			return &vv, nil
		}
	}
	return nil, ErrVetNotFound
}

func (r *memRepo) GetVetByEmail(_ context.Context, email string) (*Vet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vets {
		if v.Email == email {
			vv := v
			return &vv, nil
		}
	}
	return nil, ErrVetNotFound
}

func (r *memRepo) ListSlots(_ context.Context, vetID uuid.UUID, weekday int) ([]AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []AvailabilitySlot
	for _, s := range r.slots {
		if s.VetID == vetID && s.Weekday == weekday {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) GetSlotByID(_ context.Context, id uuid.UUID) (*AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[id]; ok {
		return &s, nil
	}
	return nil, ErrSlotNotFound
}

func (r *memRepo) InsertSlot(_ context.Context, slot AvailabilitySlot) (*AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[slot.ID] = slot
	return &slot, nil
}

func (r *memRepo) UpdateSlot(_ context.Context, slot AvailabilitySlot) (*AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[slot.ID]; !ok {
		return nil, ErrSlotNotFound
	}
	r.slots[slot.ID] = slot
	return &slot, nil
}

func (r *memRepo) DeleteSlot(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(r.slots, id)
	return nil
}

func (r *memRepo) ListBooked(_ context.Context, vetID uuid.UUID, exclude *uuid.UUID) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appts {
		if a.VetID != vetID || a.Status != StatusBooked {
			continue
		}
		if exclude != nil && a.ID == *exclude {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appts[id]; ok {
		return &a, nil
	}
	return nil, ErrAppointmentNotFound
}

func (r *memRepo) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &AppointmentDetail{Appointment: *appt}
	if pet, err := r.GetPetByID(ctx, appt.PetID); err == nil {
		detail.Pet = pet
		if owner, err := r.GetOwnerByID(ctx, pet.OwnerID); err == nil {
			detail.Owner = owner
		}
	}
	if vet, err := r.GetVetByID(ctx, appt.VetID); err == nil {
		detail.Vet = vet
	}
	return detail, nil
}

func (r *memRepo) ListAppointmentsByPet(ctx context.Context, petID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	r.mu.Lock()
	var ids []uuid.UUID
	for _, a := range r.appts {
		if a.PetID == petID {
			ids = append(ids, a.ID)
		}
	}
	r.mu.Unlock()

	var out []AppointmentDetail
	for _, id := range ids {
		d, err := r.GetAppointmentDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *memRepo) InsertAppointment(_ context.Context, appt Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appts[appt.ID] = appt
	return &appt, nil
}

func (r *memRepo) UpdateAppointmentWindow(_ context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.Status != StatusBooked {
		return nil, ErrAppointmentNotFound
	}
	a.StartTime = start
	a.EndTime = end
	r.appts[id] = a
	return &a, nil
}

func (r *memRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	r.appts[id] = a
	return &a, nil
}

func (r *memRepo) InsertPayment(_ context.Context, p Payment) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.AppointmentID] = append(r.payments[p.AppointmentID], p)
	return &p, nil
}

func (r *memRepo) HasSuccessfulPayment(_ context.Context, appointmentID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments[appointmentID] {
		if p.Status == PaymentSuccess {
			return true, nil
		}
	}
	return false, nil
}

// localLocker serializes per vet with plain mutexes, standing in for the
// Redis locker. Unlike SETNX it blocks instead of failing fast, so
// concurrent tests exercise the check-then-write sequence itself.
type localLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	// beforeLocked, if set, runs once just before the locked section.
	// Tests use it to interleave a competing write between a service's
	// status read and its locked check-then-write.
	beforeLocked func()
}

func newLocalLocker() *localLocker {
	return &localLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *localLocker) WithVetLock(ctx context.Context, vetID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[vetID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[vetID] = m
	}
	hook := l.beforeLocked
	l.beforeLocked = nil
	l.mu.Unlock()

	if hook != nil {
		hook()
	}

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// captureNotifier records dispatched notifications.
type captureNotifier struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (n *captureNotifier) record(event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	if n.fail {
		return context.DeadlineExceeded
	}
	return nil
}

func (n *captureNotifier) Booked(context.Context, Notification) error {
	return n.record("booked")
}

func (n *captureNotifier) Rescheduled(context.Context, Notification) error {
	return n.record("rescheduled")
}

func (n *captureNotifier) Cancelled(context.Context, Notification) error {
	return n.record("cancelled")
}

func (n *captureNotifier) recorded() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	copy(out, n.events)
	return out
}
