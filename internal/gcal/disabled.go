package gcal

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by every operation of a Disabled calendar.
var ErrDisabled = errors.New("gcal: calendar integration disabled")

// Disabled is the calendar service wired when no Google credentials are
// configured. Every call fails with ErrDisabled, so conversations reach the
// availability step and stop there instead of booking into nothing.
type Disabled struct{}

func (Disabled) FindFreeCalendar(context.Context, []string, time.Time, time.Time) (string, error) {
	return "", ErrDisabled
}

func (Disabled) CreateEvent(_ context.Context, _ string, _, _ time.Time, _, _, _ string) error {
	return ErrDisabled
}
