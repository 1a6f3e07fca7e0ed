package schedule

import (
	"context"
	"time"
)

// maxCandidateEvaluations bounds the alternative search independently of how
// many slots the caller asked for, so the search terminates even when no
// bookable slot exists.
const maxCandidateEvaluations = 60

// Slot is a candidate or confirmed appointment interval together with the
// calendar that will hold it. Never mutated after construction.
type Slot struct {
	Start      time.Time
	End        time.Time
	CalendarID string
}

// AvailabilityResolver answers which of the given calendars, in priority
// order, is free for the window. An empty id with a nil error means every
// calendar is busy.
type AvailabilityResolver interface {
	FindFreeCalendar(ctx context.Context, calendarIDs []string, start, end time.Time) (string, error)
}

// SearchConfig bundles the per-tenant inputs the alternative search needs.
type SearchConfig struct {
	CalendarIDs  []string
	Hours        WorkingHours
	Location     *time.Location
	SlotDuration time.Duration
}

// FindAlternatives returns up to count bookable slots strictly after from, in
// increasing chronological order. The cursor advances one slot duration at a
// time; an out-of-hours cursor jumps straight to the next opening instead of
// scanning through the closed gap. Exhausting the evaluation bound before
// count slots are found is not an error; whatever was found is returned.
func FindAlternatives(ctx context.Context, resolver AvailabilityResolver, cfg SearchConfig, from time.Time, count int) ([]Slot, error) {
	if count <= 0 {
		return nil, nil
	}
	durationMinutes := int(cfg.SlotDuration / time.Minute)

	var slots []Slot
	cursor := from
	for evals := 0; evals < maxCandidateEvaluations && len(slots) < count; evals++ {
		cursor = cursor.Add(cfg.SlotDuration)
		if !IsOpen(cursor, durationMinutes, cfg.Hours) {
			opening, ok := NextOpeningAfter(cursor, cfg.Hours, cfg.Location)
			if !ok {
				break
			}
			cursor = opening
			if !IsOpen(cursor, durationMinutes, cfg.Hours) {
				// Window shorter than one slot; the next pass moves on.
				continue
			}
		}
		end := cursor.Add(cfg.SlotDuration)
		calendarID, err := resolver.FindFreeCalendar(ctx, cfg.CalendarIDs, cursor, end)
		if err != nil {
			return slots, err
		}
		if calendarID != "" {
			slots = append(slots, Slot{Start: cursor, End: end, CalendarID: calendarID})
		}
	}
	return slots, nil
}
