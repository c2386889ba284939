package domain

import (
	"context"
	"time"
)

// ScheduleService exposes the user's calendar. Implementations live outside
// this core (database, calendar API); tests and the CLI use MemoryServices.
type ScheduleService interface {
	GetScheduleForDate(ctx context.Context, date time.Time) ([]TimeBlock, error)
}

// TaskService exposes the task backlog.
type TaskService interface {
	GetTaskBacklog(ctx context.Context) ([]Task, error)
	GetUnassignedTasks(ctx context.Context) ([]Task, error)
}

// PreferenceService exposes per-user scheduling preferences.
type PreferenceService interface {
	GetUserPreferences(ctx context.Context) (Preferences, error)
}

// EmailFilter narrows an EmailService listing.
type EmailFilter struct {
	UnreadOnly  bool
	StarredOnly bool
	Limit       int
}

// EmailService exposes a recent-email digest.
type EmailService interface {
	ListRecent(ctx context.Context, filter EmailFilter) ([]EmailSummary, error)
}

// Services bundles the four collaborator contracts consumed by the
// orchestration and scheduling packages.
type Services struct {
	Schedule    ScheduleService
	Tasks       TaskService
	Preferences PreferenceService
	Email       EmailService
}
