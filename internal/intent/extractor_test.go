package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDates(t *testing.T) {
	entities := Extract("Schedule a review Tomorrow or on Friday, else 3/15 or 2026-09-01")

	assert.Equal(t, []string{"tomorrow", "friday", "3/15", "2026-09-01"}, entities.Dates)
}

func TestExtractTimes(t *testing.T) {
	entities := Extract("Move it to 3pm or maybe 10:30 AM, otherwise the Afternoon")

	assert.Equal(t, []string{"3pm", "10:30 am", "afternoon"}, entities.Times)
}

func TestExtractDurationHoursToMinutes(t *testing.T) {
	entities := Extract("block off 2 hours for deep work")
	assert.Equal(t, 120, entities.DurationMinutes)

	entities = Extract("a quick 30 min sync")
	assert.Equal(t, 30, entities.DurationMinutes)
}

func TestExtractPeopleRequiresCapitalizedName(t *testing.T) {
	entities := Extract("meeting with Sarah and a call from Bob")
	assert.Equal(t, []string{"sarah", "bob"}, entities.People)

	// Lowercase words after the keyword are not names.
	entities = Extract("meet with him later")
	assert.Empty(t, entities.People)
}

func TestExtractDeduplicates(t *testing.T) {
	entities := Extract("tomorrow, TOMORROW, and again tomorrow")
	assert.Equal(t, []string{"tomorrow"}, entities.Dates)
}

func TestExtractEmptyMessage(t *testing.T) {
	entities := Extract("")

	assert.Empty(t, entities.Dates)
	assert.Empty(t, entities.Times)
	assert.Empty(t, entities.People)
	assert.Zero(t, entities.DurationMinutes)
}

func TestMergePrefersLLMEntities(t *testing.T) {
	extracted := Entities{Dates: []string{"today"}, DurationMinutes: 30}
	fromLLM := Entities{Dates: []string{"tomorrow"}, People: []string{"sarah"}}

	merged := merge(extracted, fromLLM)

	assert.Equal(t, []string{"tomorrow"}, merged.Dates)
	assert.Equal(t, []string{"sarah"}, merged.People)
	// Fields the model left empty fall back to the extractor's values.
	assert.Equal(t, 30, merged.DurationMinutes)
}
