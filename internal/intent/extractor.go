package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// The extractor is a pure, deterministic pass with no I/O. It runs on every
// request, whether or not the LLM call succeeds, because its output seeds
// the keyword fallback.

var (
	relativeDateRe = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next week)\b`)
	slashDateRe    = regexp.MustCompile(`\b(\d{1,2}/\d{1,2})\b`)
	isoDateRe      = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

	clockTimeRe = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm))\b`)
	dayPartRe   = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|noon|tonight)\b`)

	durationRe = regexp.MustCompile(`(?i)\b(\d+)\s*(hours?|hrs?|minutes?|mins?)\b`)

	// Keyword match is case-insensitive but the name itself must be
	// capitalized, otherwise "meet with him" would extract a person.
	personRe = regexp.MustCompile(`\b(?i:with|from|to|cc)\s+([A-Z][a-z]+)`)
)

// Extract pulls dates, times, duration, and people out of raw text. All
// matches are case-normalized and de-duplicated.
func Extract(text string) Entities {
	var entities Entities

	entities.Dates = dedupeLower(append(
		relativeDateRe.FindAllString(text, -1),
		append(slashDateRe.FindAllString(text, -1), isoDateRe.FindAllString(text, -1)...)...,
	))

	entities.Times = dedupeLower(append(
		clockTimeRe.FindAllString(text, -1),
		dayPartRe.FindAllString(text, -1)...,
	))

	if m := durationRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			unit := strings.ToLower(m[2])
			if strings.HasPrefix(unit, "hour") || strings.HasPrefix(unit, "hr") {
				n *= 60
			}
			entities.DurationMinutes = n
		}
	}

	for _, m := range personRe.FindAllStringSubmatch(text, -1) {
		entities.People = append(entities.People, m[1])
	}
	entities.People = dedupeLower(entities.People)

	return entities
}

// dedupeLower lowercases, trims, and de-duplicates preserving first-seen
// order. Returns nil for empty input so extracted entities marshal compactly.
func dedupeLower(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

// merge combines extractor entities with LLM-reported ones. LLM entities win
// on conflict; extractor values fill whatever the model left empty.
func merge(extracted, fromLLM Entities) Entities {
	merged := fromLLM
	if len(merged.Dates) == 0 {
		merged.Dates = extracted.Dates
	}
	if len(merged.Times) == 0 {
		merged.Times = extracted.Times
	}
	if len(merged.People) == 0 {
		merged.People = extracted.People
	}
	if merged.DurationMinutes == 0 {
		merged.DurationMinutes = extracted.DurationMinutes
	}
	return merged
}
