// Package tenant holds the immutable per-tenant booking configuration and the
// registry used to resolve a tenant from an inbound routing key.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"terminbot/internal/schedule"
)

// Config describes one tenant. Records are loaded once at process start and
// never mutated afterwards.
type Config struct {
	// PhoneNumberID is the WhatsApp phone number id messages for this tenant
	// arrive on; it is the routing key for all lookups.
	PhoneNumberID string `json:"phone_number_id"`
	Name          string `json:"name"`
	// Timezone is an IANA identifier, e.g. "Europe/Belgrade".
	Timezone            string                `json:"timezone"`
	SlotDurationMinutes int                   `json:"slot_duration_minutes"`
	WorkingHours        schedule.WorkingHours `json:"working_hours"`
	// Services the tenant offers, in the order they are listed to the user.
	Services []string `json:"services"`
	// CalendarIDs in priority order for availability checks.
	CalendarIDs []string `json:"calendar_ids"`
	// NotifyEmail, when set, receives an email for every confirmed booking.
	NotifyEmail string `json:"notify_email,omitempty"`
}

// Location returns the tenant's time.Location. Validated at load time, so a
// lookup failure here falls back to UTC instead of erroring per message.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlotDuration returns the configured slot length.
func (c *Config) SlotDuration() time.Duration {
	return time.Duration(c.SlotDurationMinutes) * time.Minute
}

// SearchConfig adapts the tenant record into the alternative-search inputs.
func (c *Config) SearchConfig() schedule.SearchConfig {
	return schedule.SearchConfig{
		CalendarIDs:  c.CalendarIDs,
		Hours:        c.WorkingHours,
		Location:     c.Location(),
		SlotDuration: c.SlotDuration(),
	}
}

// MatchService returns the configured service matching the user's input after
// normalization, so "Šišanje" and "sisanje" select the same entry.
func (c *Config) MatchService(input string) (string, bool) {
	normalized := schedule.Normalize(input)
	if normalized == "" {
		return "", false
	}
	for _, svc := range c.Services {
		if schedule.Normalize(svc) == normalized {
			return svc, true
		}
	}
	return "", false
}

func (c *Config) validate() error {
	if c.PhoneNumberID == "" {
		return fmt.Errorf("tenant: missing phone_number_id")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("tenant %s: invalid timezone %q: %w", c.PhoneNumberID, c.Timezone, err)
	}
	if c.SlotDurationMinutes <= 0 {
		return fmt.Errorf("tenant %s: slot_duration_minutes must be positive", c.PhoneNumberID)
	}
	if err := c.WorkingHours.Validate(); err != nil {
		return fmt.Errorf("tenant %s: %w", c.PhoneNumberID, err)
	}
	if len(c.Services) == 0 {
		return fmt.Errorf("tenant %s: no services configured", c.PhoneNumberID)
	}
	if len(c.CalendarIDs) == 0 {
		return fmt.Errorf("tenant %s: no calendar_ids configured", c.PhoneNumberID)
	}
	return nil
}

// Registry resolves tenants by routing key.
type Registry struct {
	byRoutingKey map[string]*Config
}

// NewRegistry validates the given records and indexes them by routing key.
func NewRegistry(configs []*Config) (*Registry, error) {
	byKey := make(map[string]*Config, len(configs))
	for _, cfg := range configs {
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		if _, exists := byKey[cfg.PhoneNumberID]; exists {
			return nil, fmt.Errorf("tenant: duplicate phone_number_id %s", cfg.PhoneNumberID)
		}
		byKey[cfg.PhoneNumberID] = cfg
	}
	return &Registry{byRoutingKey: byKey}, nil
}

// LoadRegistry reads tenant records from a JSON file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tenant: read %s: %w", path, err)
	}
	var configs []*Config
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("tenant: parse %s: %w", path, err)
	}
	return NewRegistry(configs)
}

// ByRoutingKey returns the tenant a routing key belongs to.
func (r *Registry) ByRoutingKey(key string) (*Config, bool) {
	cfg, ok := r.byRoutingKey[key]
	return cfg, ok
}

// Len returns the number of registered tenants.
func (r *Registry) Len() int {
	return len(r.byRoutingKey)
}
