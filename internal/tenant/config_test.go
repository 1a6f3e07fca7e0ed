package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"terminbot/internal/schedule"
)

func validConfig() *Config {
	return &Config{
		PhoneNumberID:       "123456",
		Name:                "Salon Centar",
		Timezone:            "Europe/Belgrade",
		SlotDurationMinutes: 30,
		WorkingHours: schedule.WorkingHours{
			1: {Open: "09:00", Close: "17:00"},
			2: {Open: "09:00", Close: "17:00"},
		},
		Services:    []string{"Šišanje", "Feniranje"},
		CalendarIDs: []string{"cal-a@group.calendar.google.com"},
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry([]*Config{validConfig()})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
	if _, ok := reg.ByRoutingKey("123456"); !ok {
		t.Error("expected lookup by routing key to succeed")
	}
	if _, ok := reg.ByRoutingKey("999"); ok {
		t.Error("expected lookup of unknown routing key to fail")
	}
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing routing key", func(c *Config) { c.PhoneNumberID = "" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Phobos" }},
		{"zero slot duration", func(c *Config) { c.SlotDurationMinutes = 0 }},
		{"no services", func(c *Config) { c.Services = nil }},
		{"no calendars", func(c *Config) { c.CalendarIDs = nil }},
		{"broken hours", func(c *Config) {
			c.WorkingHours = schedule.WorkingHours{1: {Open: "17:00", Close: "09:00"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if _, err := NewRegistry([]*Config{cfg}); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewRegistryDuplicateRoutingKey(t *testing.T) {
	if _, err := NewRegistry([]*Config{validConfig(), validConfig()}); err == nil {
		t.Error("expected duplicate routing key error")
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.json")
	data := `[
		{
			"phone_number_id": "555001",
			"name": "Salon Zvezdara",
			"timezone": "Europe/Belgrade",
			"slot_duration_minutes": 45,
			"working_hours": {
				"1": {"open": "10:00", "close": "18:00"},
				"6": {"open": "10:00", "close": "14:00"}
			},
			"services": ["Masaža"],
			"calendar_ids": ["a@cal", "b@cal"],
			"notify_email": "vlasnik@salon.rs"
		}
	]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByRoutingKey("555001")
	if !ok {
		t.Fatal("expected tenant 555001")
	}
	if cfg.SlotDurationMinutes != 45 {
		t.Errorf("SlotDurationMinutes = %d, want 45", cfg.SlotDurationMinutes)
	}
	if got := cfg.WorkingHours[6].Close; got != "14:00" {
		t.Errorf("saturday close = %q, want 14:00", got)
	}
	if cfg.NotifyEmail != "vlasnik@salon.rs" {
		t.Errorf("NotifyEmail = %q", cfg.NotifyEmail)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry("/nonexistent/tenants.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMatchService(t *testing.T) {
	cfg := validConfig()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"šišanje", "Šišanje", true},
		{"SISANJE", "Šišanje", true},
		{"  feniranje  ", "Feniranje", true},
		{"manikir", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := cfg.MatchService(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("MatchService(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
