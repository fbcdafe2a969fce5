package clinic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/furwell/vetclinic-scheduling/internal/timeutil"
)

// Engine answers the two scheduling questions: does a window sit inside
// the vet's recurring availability, and does it collide with another
// booked appointment. Both are read-only predicates; serializing the
// check-then-write sequence around them is the service's job.
type Engine struct {
	repo Repository
	loc  *time.Location
}

func NewEngine(repo Repository, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{repo: repo, loc: loc}
}

// WithinAvailability reports whether [start, end) is fully contained in at
// least one of the vet's availability windows for that weekday. Windows
// crossing local midnight are never within availability.
func (e *Engine) WithinAvailability(ctx context.Context, vetID uuid.UUID, start, end time.Time) (bool, error) {
	if !timeutil.SameLocalDay(start, end, e.loc) {
		return false, nil
	}

	weekday := timeutil.WeekdayOf(start, e.loc)
	s := timeutil.MinuteOfDay(start, e.loc)
	en := timeutil.MinuteOfDay(end, e.loc)
	if en <= s {
		return false, nil
	}

	slots, err := e.repo.ListSlots(ctx, vetID, weekday)
	if err != nil {
		return false, fmt.Errorf("list availability slots: %w", err)
	}

	for _, slot := range slots {
		// Containment, not mere overlap.
		if slot.StartMinute <= s && en <= slot.EndMinute {
			return true, nil
		}
	}
	return false, nil
}

// HasConflict reports whether [start, end) overlaps any other booked
// appointment for the vet. Cancelled and completed appointments no longer
// occupy the calendar; touching boundaries are not conflicts.
func (e *Engine) HasConflict(ctx context.Context, vetID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	booked, err := e.repo.ListBooked(ctx, vetID, exclude)
	if err != nil {
		return false, fmt.Errorf("list booked appointments: %w", err)
	}

	for _, appt := range booked {
		if timeutil.Overlaps(start, end, appt.StartTime, appt.EndTime) {
			return true, nil
		}
	}
	return false, nil
}
