// Package gcal wraps the Google Calendar API for the two operations the
// booking flow needs: batched free/busy queries and event creation.
package gcal

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"terminbot/pkg/logging"
)

// Client talks to the Google Calendar API.
type Client struct {
	svc    *calendar.Service
	logger *logging.Logger
}

// NewClient builds a calendar client. Pass option.WithCredentialsFile (or any
// other option.ClientOption) to control authentication; the calendar scope is
// always requested.
func NewClient(ctx context.Context, logger *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}
	opts = append(opts, option.WithScopes(calendar.CalendarScope))
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcal: create service: %w", err)
	}
	return &Client{svc: svc, logger: logger}, nil
}

// FindFreeCalendar issues one free/busy query covering every calendar id and
// returns the first id in the given priority order with no busy interval in
// the window. A calendar the response carries no data for is treated as busy.
// An empty id with a nil error means every calendar is taken.
func (c *Client) FindFreeCalendar(ctx context.Context, calendarIDs []string, start, end time.Time) (string, error) {
	if len(calendarIDs) == 0 {
		return "", nil
	}

	items := make([]*calendar.FreeBusyRequestItem, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		items = append(items, &calendar.FreeBusyRequestItem{Id: id})
	}
	req := &calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   items,
	}

	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: freebusy query: %w", err)
	}

	for _, id := range calendarIDs {
		info, ok := resp.Calendars[id]
		if !ok {
			// No data for this calendar: fail closed.
			c.logger.Warn("freebusy response missing calendar", "calendar_id", id)
			continue
		}
		if len(info.Errors) > 0 {
			c.logger.Warn("freebusy reported calendar error", "calendar_id", id, "reason", info.Errors[0].Reason)
			continue
		}
		if len(info.Busy) == 0 {
			return id, nil
		}
	}
	return "", nil
}

// CreateEvent inserts a booking event into the given calendar.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, start, end time.Time, timezone, summary, description string) error {
	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: timezone,
		},
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gcal: insert event: %w", err)
	}
	c.logger.Info("calendar event created",
		"calendar_id", calendarID,
		"event_id", created.Id,
		"start", start,
	)
	return nil
}
