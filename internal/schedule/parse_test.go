package schedule

import (
	"testing"
	"time"
)

func belgrade(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Belgrade")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestParseRelativeDays(t *testing.T) {
	loc := belgrade(t)
	// Monday 2026-03-02 09:00 local.
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		text string
		want time.Time
		ok   bool
	}{
		{"tomorrow at 14", "sutra u 14", time.Date(2026, 3, 3, 14, 0, 0, 0, loc), true},
		{"today later the same day", "danas u 10", time.Date(2026, 3, 2, 10, 0, 0, 0, loc), true},
		{"today at an hour already past", "danas u 8", time.Time{}, false},
		{"day after tomorrow with dot minutes", "prekosutra u 9.30", time.Date(2026, 3, 4, 9, 30, 0, 0, loc), true},
		{"day after tomorrow wins over its sutra substring", "prekosutra u 11", time.Date(2026, 3, 4, 11, 0, 0, 0, loc), true},
		{"hour with h suffix", "sutra u 16h", time.Date(2026, 3, 3, 16, 0, 0, 0, loc), true},
		{"colon minutes", "sutra u 14:45", time.Date(2026, 3, 3, 14, 45, 0, 0, loc), true},
		{"messy whitespace and case", "  SUTRA   u   14 ", time.Date(2026, 3, 3, 14, 0, 0, 0, loc), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, loc, now)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseWeekdays(t *testing.T) {
	loc := belgrade(t)
	// Monday 2026-03-02 09:00 local.
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		text string
		want time.Time
		ok   bool
	}{
		{"friday this week", "u petak u 16h", time.Date(2026, 3, 6, 16, 0, 0, 0, loc), true},
		{"friday abbreviation", "pet u 16", time.Date(2026, 3, 6, 16, 0, 0, 0, loc), true},
		{"diacritics folded", "Četvrtak u 11", time.Date(2026, 3, 5, 11, 0, 0, 0, loc), true},
		{"weekday plus next week qualifier", "petak sledece nedelje u 16", time.Date(2026, 3, 13, 16, 0, 0, 0, loc), true},
		{"qualifier with diacritics", "utorak sledeće nedelje u 10", time.Date(2026, 3, 10, 10, 0, 0, 0, loc), true},
		{"same weekday later today", "ponedeljak u 10", time.Date(2026, 3, 2, 10, 0, 0, 0, loc), true},
		// "on or after today" resolves to today, and 08:00 is already past.
		{"same weekday at a past hour", "ponedeljak u 8", time.Time{}, false},
		{"sunday accusative", "u nedelju u 12", time.Date(2026, 3, 8, 12, 0, 0, 0, loc), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, loc, now)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseFailures(t *testing.T) {
	loc := belgrade(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no clock token", "sutra popodne"},
		{"no day anchor", "u 14"},
		{"hour out of range", "sutra u 99"},
		{"minute out of range", "sutra u 14:75"},
		{"next week qualifier alone is not a sunday", "sledece nedelje u 14"},
		{"gibberish", "asdf qwer !!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := Parse(tt.text, loc, now); ok {
				t.Errorf("Parse(%q) = %v, want failure", tt.text, got)
			}
		})
	}
}

func TestParseNeverReturnsPast(t *testing.T) {
	loc := belgrade(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)

	inputs := []string{"danas u 14", "sutra u 0:00", "prekosutra u 23h", "sub u 9"}
	for _, text := range inputs {
		got, ok := Parse(text, loc, now)
		if !ok {
			t.Fatalf("Parse(%q) unexpectedly failed", text)
		}
		if got.Before(now) {
			t.Errorf("Parse(%q) = %v, before now %v", text, got, now)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Šišanje i  feniranje", "sisanje i feniranje"},
		{"ČĆŠŽĐ", "ccszdj"},
		{"  Masaža   leđa  ", "masaza ledja"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
