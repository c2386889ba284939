package domain

import (
	"context"
	"sync"
	"time"
)

// MemoryServices is an in-memory implementation of all four collaborator
// contracts, used by tests and the demo CLI. Safe for concurrent readers.
type MemoryServices struct {
	mu       sync.RWMutex
	schedule map[string][]TimeBlock // keyed by date (2006-01-02)
	backlog  []Task
	prefs    Preferences
	emails   []EmailSummary

	// Err, when set, is returned by every method. Exercises degraded paths.
	Err error
}

// NewMemoryServices returns an empty in-memory service bundle with default
// preferences.
func NewMemoryServices() *MemoryServices {
	return &MemoryServices{
		schedule: make(map[string][]TimeBlock),
		prefs:    DefaultPreferences(),
	}
}

// Bundle exposes the MemoryServices as a Services value.
func (m *MemoryServices) Bundle() Services {
	return Services{Schedule: m, Tasks: m, Preferences: m, Email: m}
}

// SetSchedule replaces the blocks for a date.
func (m *MemoryServices) SetSchedule(date time.Time, blocks []TimeBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule[date.Format("2006-01-02")] = blocks
}

// SetBacklog replaces the task backlog.
func (m *MemoryServices) SetBacklog(tasks []Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backlog = tasks
}

// SetPreferences replaces the stored preferences.
func (m *MemoryServices) SetPreferences(prefs Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = prefs
}

// SetEmails replaces the email digest.
func (m *MemoryServices) SetEmails(emails []EmailSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = emails
}

func (m *MemoryServices) GetScheduleForDate(_ context.Context, date time.Time) ([]TimeBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	blocks := m.schedule[date.Format("2006-01-02")]
	out := make([]TimeBlock, len(blocks))
	copy(out, blocks)
	return out, nil
}

func (m *MemoryServices) GetTaskBacklog(_ context.Context) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]Task, len(m.backlog))
	copy(out, m.backlog)
	return out, nil
}

func (m *MemoryServices) GetUnassignedTasks(ctx context.Context) ([]Task, error) {
	return m.GetTaskBacklog(ctx)
}

func (m *MemoryServices) GetUserPreferences(_ context.Context) (Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return Preferences{}, m.Err
	}
	return m.prefs, nil
}

func (m *MemoryServices) ListRecent(_ context.Context, filter EmailFilter) ([]EmailSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]EmailSummary, 0, len(m.emails))
	for _, e := range m.emails {
		if filter.UnreadOnly && !e.Unread {
			continue
		}
		if filter.StarredOnly && !e.Starred {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
