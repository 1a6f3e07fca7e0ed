// Package schedule implements the appointment-scheduling core: the Serbian
// date/time expression parser, per-tenant working-hours evaluation, and the
// forward search for alternative slots.
package schedule

import (
	"fmt"
	"time"
)

// openingScanDays bounds the forward scan for the next configured open day.
// A tenant with no configured day within this horizon is treated as having
// no availability in the foreseeable future.
const openingScanDays = 14

// DayWindow is the open interval for a single day, "HH:MM" 24-hour clock.
// Windows never span midnight.
type DayWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// WorkingHours maps ISO weekdays (1=Monday .. 7=Sunday) to open windows.
// A missing entry means closed all day.
type WorkingHours map[int]DayWindow

// Validate checks that every configured window parses and closes after it opens.
func (h WorkingHours) Validate() error {
	for day, w := range h {
		if day < 1 || day > 7 {
			return fmt.Errorf("schedule: invalid ISO weekday %d", day)
		}
		open, err := parseClock(w.Open)
		if err != nil {
			return fmt.Errorf("schedule: day %d open: %w", day, err)
		}
		close, err := parseClock(w.Close)
		if err != nil {
			return fmt.Errorf("schedule: day %d close: %w", day, err)
		}
		if close <= open {
			return fmt.Errorf("schedule: day %d window closes before it opens", day)
		}
	}
	return nil
}

// IsOpen reports whether a slot starting at start and lasting durationMinutes
// fits entirely inside the working hours of that day. Both the start and the
// end of the slot must fall within the configured window.
func IsOpen(start time.Time, durationMinutes int, hours WorkingHours) bool {
	w, ok := hours[isoWeekday(start)]
	if !ok {
		return false
	}
	openMin, err := parseClock(w.Open)
	if err != nil {
		return false
	}
	closeMin, err := parseClock(w.Close)
	if err != nil {
		return false
	}
	startMin := start.Hour()*60 + start.Minute()
	return startMin >= openMin && startMin+durationMinutes <= closeMin
}

// NextOpeningAfter returns the first opening instant strictly after t,
// scanning at most openingScanDays forward. The second return value is false
// when no configured open day exists within the bound; callers treat that as
// no availability rather than an error.
func NextOpeningAfter(t time.Time, hours WorkingHours, loc *time.Location) (time.Time, bool) {
	local := t.In(loc)
	for i := 0; i <= openingScanDays; i++ {
		day := local.AddDate(0, 0, i)
		w, ok := hours[isoWeekday(day)]
		if !ok {
			continue
		}
		openMin, err := parseClock(w.Open)
		if err != nil {
			continue
		}
		opening := time.Date(day.Year(), day.Month(), day.Day(), openMin/60, openMin%60, 0, 0, loc)
		if opening.After(t) {
			return opening, true
		}
	}
	return time.Time{}, false
}

// isoWeekday maps time.Weekday (Sunday=0) to ISO numbering (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func parseClock(v string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("empty clock")
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
