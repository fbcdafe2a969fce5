package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/furwell/vetclinic-scheduling/internal/redis"
	"github.com/furwell/vetclinic-scheduling/internal/timeutil"
)

// SlotManager maintains a vet's recurring weekly availability windows.
// For a fixed (vet, weekday) no two windows may overlap; touching windows
// are allowed.
type SlotManager struct {
	repo   Repository
	locker redisclient.Locker
	logger zerolog.Logger
}

func NewSlotManager(repo Repository, locker redisclient.Locker, logger zerolog.Logger) *SlotManager {
	return &SlotManager{repo: repo, locker: locker, logger: logger}
}

// SlotUpdate carries the fields of an edit; nil fields keep the slot's
// current value.
type SlotUpdate struct {
	Weekday    *int
	StartClock *string
	EndClock   *string
}

func (m *SlotManager) AddSlot(ctx context.Context, vetID uuid.UUID, weekday int, startClock, endClock string) (*AvailabilitySlot, error) {
	start, end, err := parseSlotRange(weekday, startClock, endClock)
	if err != nil {
		return nil, err
	}

	var created *AvailabilitySlot

	err = m.locker.WithVetLock(ctx, vetID, func(lockCtx context.Context) error {
		if err := m.checkSiblings(lockCtx, vetID, weekday, start, end, nil); err != nil {
			return err
		}

		slot, err := m.repo.InsertSlot(lockCtx, AvailabilitySlot{
			ID:          uuid.New(),
			VetID:       vetID,
			Weekday:     weekday,
			StartMinute: start,
			EndMinute:   end,
		})
		if err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		created = slot
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrVetCalendarBusy
		}
		return nil, err
	}

	m.logger.Info().
		Str("vet_id", vetID.String()).
		Int("weekday", weekday).
		Str("window", timeutil.FormatClockTime(start)+"-"+timeutil.FormatClockTime(end)).
		Msg("availability slot added")

	return created, nil
}

func (m *SlotManager) UpdateSlot(ctx context.Context, vetID, slotID uuid.UUID, upd SlotUpdate) (*AvailabilitySlot, error) {
	slot, err := m.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.VetID != vetID {
		return nil, ErrSlotNotFound
	}

	weekday := slot.Weekday
	if upd.Weekday != nil {
		weekday = *upd.Weekday
	}
	startClock := timeutil.FormatClockTime(slot.StartMinute)
	if upd.StartClock != nil {
		startClock = *upd.StartClock
	}
	endClock := timeutil.FormatClockTime(slot.EndMinute)
	if upd.EndClock != nil {
		endClock = *upd.EndClock
	}

	start, end, err := parseSlotRange(weekday, startClock, endClock)
	if err != nil {
		return nil, err
	}

	var updated *AvailabilitySlot

	err = m.locker.WithVetLock(ctx, vetID, func(lockCtx context.Context) error {
		if err := m.checkSiblings(lockCtx, vetID, weekday, start, end, &slotID); err != nil {
			return err
		}

		slot.Weekday = weekday
		slot.StartMinute = start
		slot.EndMinute = end

		out, err := m.repo.UpdateSlot(lockCtx, *slot)
		if err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
		updated = out
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrVetCalendarBusy
		}
		return nil, err
	}

	return updated, nil
}

// DeleteSlot removes a window unconditionally. Existing bookings that
// relied on it stay as historical records.
func (m *SlotManager) DeleteSlot(ctx context.Context, vetID, slotID uuid.UUID) error {
	slot, err := m.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.VetID != vetID {
		return ErrSlotNotFound
	}
	return m.repo.DeleteSlot(ctx, slotID)
}

func (m *SlotManager) ListSlots(ctx context.Context, vetID uuid.UUID, weekday int) ([]AvailabilitySlot, error) {
	if weekday < 0 || weekday > 6 {
		return nil, ErrInvalidInput
	}
	return m.repo.ListSlots(ctx, vetID, weekday)
}

// checkSiblings fails with ErrSlotConflict when [start, end) overlaps any
// other window on the same (vet, weekday).
func (m *SlotManager) checkSiblings(ctx context.Context, vetID uuid.UUID, weekday, start, end int, exclude *uuid.UUID) error {
	siblings, err := m.repo.ListSlots(ctx, vetID, weekday)
	if err != nil {
		return fmt.Errorf("list sibling slots: %w", err)
	}
	for _, sib := range siblings {
		if exclude != nil && sib.ID == *exclude {
			continue
		}
		if timeutil.MinutesOverlap(start, end, sib.StartMinute, sib.EndMinute) {
			return ErrSlotConflict
		}
	}
	return nil
}

func parseSlotRange(weekday int, startClock, endClock string) (int, int, error) {
	if weekday < 0 || weekday > 6 {
		return 0, 0, ErrInvalidInput
	}
	start, err := timeutil.ParseClockTime(startClock)
	if err != nil {
		return 0, 0, err
	}
	end, err := timeutil.ParseClockTime(endClock)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, ErrInvalidRange
	}
	return start, end, nil
}
