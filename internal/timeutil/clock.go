package timeutil

import (
	"errors"
	"fmt"
	"time"
)

// ErrClockFormat is returned for anything that is not a zero-padded HH:MM.
var ErrClockFormat = errors.New("clock time must be zero-padded HH:MM")

// ParseClockTime converts a zero-padded "HH:MM" string into a minute-of-day
// in [0, 1439]. "24:00" is rejected; so are single-digit fields.
func ParseClockTime(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrClockFormat
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrClockFormat
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	if hh > 23 || mm > 59 {
		return 0, ErrClockFormat
	}
	return hh*60 + mm, nil
}

// FormatClockTime renders a minute-of-day back into "HH:MM".
func FormatClockTime(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// WeekdayOf returns the local weekday index of t (0 = Sunday).
func WeekdayOf(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday())
}

// MinuteOfDay returns the local wall-clock minute of t in [0, 1439].
func MinuteOfDay(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	return lt.Hour()*60 + lt.Minute()
}

// SameLocalDay reports whether both instants fall on the same local
// calendar day.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// MinutesOverlap is Overlaps for minute-of-day integers.
func MinutesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
