package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeResolver marks specific start instants as busy on every calendar.
type fakeResolver struct {
	busy  map[time.Time]bool
	calls int
	err   error
}

func (f *fakeResolver) FindFreeCalendar(_ context.Context, calendarIDs []string, start, _ time.Time) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.busy[start] {
		return "", nil
	}
	if len(calendarIDs) == 0 {
		return "", nil
	}
	return calendarIDs[0], nil
}

func searchConfig(loc *time.Location) SearchConfig {
	return SearchConfig{
		CalendarIDs:  []string{"salon-a", "salon-b"},
		Hours:        weekdayHours(),
		Location:     loc,
		SlotDuration: 30 * time.Minute,
	}
}

func TestFindAlternativesHappyPath(t *testing.T) {
	loc := belgrade(t)
	cfg := searchConfig(loc)
	resolver := &fakeResolver{}
	// Wednesday 10:00, everything free.
	from := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)

	slots, err := FindAlternatives(context.Background(), resolver, cfg, from, 3)
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	want := []time.Time{
		time.Date(2026, 3, 4, 10, 30, 0, 0, loc),
		time.Date(2026, 3, 4, 11, 0, 0, 0, loc),
		time.Date(2026, 3, 4, 11, 30, 0, 0, loc),
	}
	for i, s := range slots {
		if !s.Start.Equal(want[i]) {
			t.Errorf("slot %d start = %v, want %v", i, s.Start, want[i])
		}
		if !s.End.Equal(s.Start.Add(cfg.SlotDuration)) {
			t.Errorf("slot %d end = %v, want start+duration", i, s.End)
		}
		if s.CalendarID != "salon-a" {
			t.Errorf("slot %d calendar = %q, want salon-a", i, s.CalendarID)
		}
	}
}

func TestFindAlternativesSkipsBusySlots(t *testing.T) {
	loc := belgrade(t)
	cfg := searchConfig(loc)
	from := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)
	resolver := &fakeResolver{busy: map[time.Time]bool{
		time.Date(2026, 3, 4, 10, 30, 0, 0, loc): true,
		time.Date(2026, 3, 4, 11, 30, 0, 0, loc): true,
	}}

	slots, err := FindAlternatives(context.Background(), resolver, cfg, from, 3)
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	for i, s := range slots {
		if resolver.busy[s.Start] {
			t.Errorf("slot %d at %v is busy", i, s.Start)
		}
	}
}

func TestFindAlternativesJumpsClosedGap(t *testing.T) {
	loc := belgrade(t)
	cfg := searchConfig(loc)
	resolver := &fakeResolver{}
	// Friday 16:45: the next candidate would run past close, so the cursor
	// must jump over the weekend to Monday's opening.
	from := time.Date(2026, 3, 6, 16, 45, 0, 0, loc)

	slots, err := FindAlternatives(context.Background(), resolver, cfg, from, 1)
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(slots))
	}
	monday := time.Date(2026, 3, 9, 9, 0, 0, 0, loc)
	if !slots[0].Start.Equal(monday) {
		t.Errorf("slot start = %v, want %v", slots[0].Start, monday)
	}
}

func TestFindAlternativesInvariants(t *testing.T) {
	loc := belgrade(t)
	cfg := searchConfig(loc)
	resolver := &fakeResolver{busy: map[time.Time]bool{
		time.Date(2026, 3, 4, 11, 0, 0, 0, loc): true,
	}}
	from := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)

	slots, err := FindAlternatives(context.Background(), resolver, cfg, from, 5)
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	durationMinutes := int(cfg.SlotDuration / time.Minute)
	for i, s := range slots {
		if !s.Start.After(from) {
			t.Errorf("slot %d start %v not strictly after %v", i, s.Start, from)
		}
		if !IsOpen(s.Start, durationMinutes, cfg.Hours) {
			t.Errorf("slot %d at %v outside working hours", i, s.Start)
		}
		if i > 0 && !s.Start.After(slots[i-1].Start) {
			t.Errorf("slot %d start %v not after previous %v", i, s.Start, slots[i-1].Start)
		}
	}
}

func TestFindAlternativesBoundExhaustion(t *testing.T) {
	loc := belgrade(t)
	cfg := searchConfig(loc)
	// Everything busy: the search must stop at the evaluation bound and
	// return empty without error.
	allBusy := &everythingBusyResolver{}

	from := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)
	slots, err := FindAlternatives(context.Background(), allBusy, cfg, from, 3)
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("got %d slots, want 0", len(slots))
	}
	if allBusy.calls > maxCandidateEvaluations {
		t.Errorf("resolver called %d times, bound is %d", allBusy.calls, maxCandidateEvaluations)
	}
}

type everythingBusyResolver struct {
	calls int
}

func (r *everythingBusyResolver) FindFreeCalendar(context.Context, []string, time.Time, time.Time) (string, error) {
	r.calls++
	return "", nil
}

func TestFindAlternativesNoOpenDays(t *testing.T) {
	loc := belgrade(t)
	cfg := searchConfig(loc)
	cfg.Hours = WorkingHours{}
	resolver := &fakeResolver{}
	from := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)

	slots, err := FindAlternatives(context.Background(), resolver, cfg, from, 3)
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("got %d slots, want 0", len(slots))
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times with no open days", resolver.calls)
	}
}

func TestFindAlternativesResolverError(t *testing.T) {
	loc := belgrade(t)
	cfg := searchConfig(loc)
	wantErr := errors.New("freebusy unavailable")
	resolver := &fakeResolver{err: wantErr}
	from := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)

	_, err := FindAlternatives(context.Background(), resolver, cfg, from, 3)
	if !errors.Is(err, wantErr) {
		t.Fatalf("FindAlternatives error = %v, want %v", err, wantErr)
	}
}
