package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// diacriticsReplacer folds Serbian Latin diacritics to their base letters so
// that "četvrtak" and "cetvrtak" match the same vocabulary entry.
var diacriticsReplacer = strings.NewReplacer(
	"č", "c",
	"ć", "c",
	"š", "s",
	"ž", "z",
	"đ", "dj",
)

// Normalize lowercases the text, folds diacritics and collapses whitespace.
// Both the datetime parser and service-name matching run on normalized text.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = diacriticsReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// clockTokenRE matches a clock-time token: "14", "14:30", "14.30" or "14h".
var clockTokenRE = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?h?\b`)

// nextWeekQualifiers shift a matched weekday by a further seven days. The
// qualifier is only applied in the weekday branch; combined with
// danas/sutra/prekosutra it is ignored, matching the behavior of the
// conversational vocabulary this parser was built against.
var nextWeekQualifiers = []string{"sledece nedelje", "iduce nedelje", "sledecu nedelju", "iducu nedelju"}

// weekdayPattern holds the normalized name variants for one ISO weekday.
// Abbreviations are matched as whole words so that "sledece nedelje" does
// not register as Sunday via "ned".
type weekdayPattern struct {
	iso int
	re  *regexp.Regexp
}

var weekdayPatterns = []weekdayPattern{
	{1, regexp.MustCompile(`\b(ponedeljak|ponedeljka|pon)\b`)},
	{2, regexp.MustCompile(`\b(utorak|utorka|uto)\b`)},
	{3, regexp.MustCompile(`\b(sreda|sredu|sre)\b`)},
	{4, regexp.MustCompile(`\b(cetvrtak|cetvrtka|cet)\b`)},
	{5, regexp.MustCompile(`\b(petak|petka|pet)\b`)},
	{6, regexp.MustCompile(`\b(subota|subotu|sub)\b`)},
	{7, regexp.MustCompile(`\b(nedelja|nedelju|ned)\b`)},
}

// Parse turns a free-form Serbian date/time expression into a concrete
// instant in loc, evaluated relative to now. The second return value is
// false when no clock time or day anchor is recognized, or when the
// resolved instant lies strictly in the past. Parse never panics on
// malformed input.
func Parse(text string, loc *time.Location, now time.Time) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	norm := Normalize(text)
	if norm == "" {
		return time.Time{}, false
	}

	hour, minute, ok := extractClock(norm)
	if !ok {
		return time.Time{}, false
	}

	local := now.In(loc)
	dayOffset, ok := resolveDayAnchor(norm, local)
	if !ok {
		return time.Time{}, false
	}

	anchor := local.AddDate(0, 0, dayOffset)
	resolved := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hour, minute, 0, 0, loc)
	if resolved.Before(now) {
		return time.Time{}, false
	}
	return resolved, true
}

// extractClock finds the first token with a valid hour (0-23) and minute
// (0-59). Tokens with out-of-range fields are skipped rather than failing
// the whole parse, so "petak 30 u 14h" still resolves to 14:00.
func extractClock(norm string) (hour, minute int, ok bool) {
	for _, m := range clockTokenRE.FindAllStringSubmatch(norm, -1) {
		h, err := strconv.Atoi(m[1])
		if err != nil || h > 23 {
			continue
		}
		min := 0
		if m[2] != "" {
			min, err = strconv.Atoi(m[2])
			if err != nil || min > 59 {
				continue
			}
		}
		return h, min, true
	}
	return 0, 0, false
}

// resolveDayAnchor returns the day offset from today for the anchor found in
// the text. Precedence: danas, prekosutra, sutra, then a weekday name.
// "prekosutra" is checked before "sutra" because it contains it.
func resolveDayAnchor(norm string, today time.Time) (int, bool) {
	switch {
	case strings.Contains(norm, "danas"):
		return 0, true
	case strings.Contains(norm, "prekosutra"):
		return 2, true
	case strings.Contains(norm, "sutra"):
		return 1, true
	}

	for _, wp := range weekdayPatterns {
		if !wp.re.MatchString(norm) {
			continue
		}
		// Next occurrence of the weekday on or after today.
		offset := (wp.iso - isoWeekday(today) + 7) % 7
		if hasNextWeekQualifier(norm) {
			offset += 7
		}
		return offset, true
	}
	return 0, false
}

func hasNextWeekQualifier(norm string) bool {
	for _, q := range nextWeekQualifiers {
		if strings.Contains(norm, q) {
			return true
		}
	}
	return false
}
