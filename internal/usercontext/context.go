// Package usercontext builds the immutable per-request snapshot of a user's
// schedule, task backlog, and preferences that classification and routing
// operate on. A snapshot is built fresh for every request and never
// persisted.
package usercontext

import (
	"time"

	"dayflow/internal/domain"
)

// Context is the orchestration snapshot for one request.
type Context struct {
	UserID      string    `json:"userId"`
	CurrentTime time.Time `json:"currentTime"`
	Timezone    string    `json:"timezone"`

	ScheduleState ScheduleState `json:"scheduleState"`
	TaskState     TaskState     `json:"taskState"`
	EmailState    EmailState    `json:"emailState"`

	UserPatterns   *UserPatterns   `json:"userPatterns,omitempty"`
	ViewingContext *ViewingContext `json:"viewingContext,omitempty"`

	// Degraded marks a snapshot built after collaborator failure. Routing
	// proceeds with best-effort data either way.
	Degraded bool `json:"degraded,omitempty"`
}

// ScheduleState summarizes today's calendar.
type ScheduleState struct {
	HasBlocksToday bool              `json:"hasBlocksToday"`
	NextBlock      *domain.TimeBlock `json:"nextBlock,omitempty"`
	Utilization    int               `json:"utilization"` // percent of an 8h day
	Gaps           []domain.Gap      `json:"gaps,omitempty"`
}

// TaskState summarizes the backlog.
type TaskState struct {
	PendingCount int           `json:"pendingCount"`
	UrgentCount  int           `json:"urgentCount"`
	OverdueCount int           `json:"overdueCount"`
	TopTasks     []domain.Task `json:"topTasks,omitempty"`
}

// EmailState summarizes the inbox digest.
type EmailState struct {
	UnreadCount    int `json:"unreadCount"`
	UrgentCount    int `json:"urgentCount"`
	ImportantCount int `json:"importantCount"`
}

// UserPatterns carries observed behaviour used for rejection short-circuits
// and strategy hints.
type UserPatterns struct {
	TypicalStartTime string   `json:"typicalStartTime,omitempty"`
	CommonRequests   []string `json:"commonRequests,omitempty"`
	RejectedActions  []string `json:"rejectedActions,omitempty"`
}

// ViewingContext describes which schedule date the user currently has open.
type ViewingContext struct {
	IsViewingToday   bool               `json:"isViewingToday"`
	ScheduleDateStr  string             `json:"scheduleDateStr"` // 2006-01-02
	ViewDateSchedule []domain.TimeBlock `json:"viewDateSchedule,omitempty"`
}

// HasSchedule reports whether the user has any blocks today. Part of the
// intent cache key.
func (c *Context) HasSchedule() bool {
	return c.ScheduleState.HasBlocksToday
}

// TaskPressure reports whether the backlog demands attention. Part of the
// intent cache key.
func (c *Context) TaskPressure() bool {
	return c.TaskState.UrgentCount > 0 || c.TaskState.OverdueCount > 0
}

// EmailPressure reports whether the inbox demands attention. Part of the
// intent cache key.
func (c *Context) EmailPressure() bool {
	return c.EmailState.UrgentCount > 0 || c.EmailState.UnreadCount > 10
}

// ViewingSchedule returns the schedule for the date the user is viewing,
// falling back to nothing when no viewing context is attached.
func (c *Context) ViewingSchedule() []domain.TimeBlock {
	if c.ViewingContext == nil {
		return nil
	}
	return c.ViewingContext.ViewDateSchedule
}
