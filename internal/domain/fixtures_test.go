package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.yaml")
	content := []byte(`
date: "2026-08-28"
schedule:
  - id: b1
    type: work
    title: "Deep Work"
    start: "09:00"
    end: "11:00"
  - type: break
    title: "Lunch"
    start: "12:00"
    end: "13:00"
tasks:
  - id: t1
    title: "Report"
    priority: high
emails:
  - id: e1
    from: "a@example.com"
    subject: "Hello"
    unread: true
preferences:
  workStartTime: "08:30"
  lunchStartTime: "12:30"
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	svc, date, err := LoadFixture(path, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", date.Format("2006-01-02"))

	blocks, err := svc.GetScheduleForDate(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "b1", blocks[0].ID)
	assert.Equal(t, 9, blocks[0].StartTime.Hour())
	assert.Equal(t, 120, blocks[0].DurationMinutes())
	// Blocks without an id get a generated one.
	assert.Equal(t, "block-2", blocks[1].ID)

	tasks, err := svc.GetTaskBacklog(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, PriorityHigh, tasks[0].Priority)

	prefs, err := svc.GetUserPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "08:30", prefs.WorkStartTime)
	assert.Equal(t, "12:30", prefs.LunchStartTime)
}

func TestLoadFixtureBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`date: "August 28"`), 0o644))

	_, _, err := LoadFixture(path, time.UTC)
	assert.Error(t, err)
}

func TestLoadFixtureBadBlockTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := []byte(`
date: "2026-08-28"
schedule:
  - type: work
    start: "9am"
    end: "11:00"
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, _, err := LoadFixture(path, time.UTC)
	assert.Error(t, err)
}

func TestLoadFixtureMissingFile(t *testing.T) {
	_, _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.yaml"), time.UTC)
	assert.Error(t, err)
}
