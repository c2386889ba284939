package domain

import "time"

// BlockType enumerates the kinds of time blocks on a schedule.
type BlockType string

const (
	BlockWork    BlockType = "work"
	BlockMeeting BlockType = "meeting"
	BlockEmail   BlockType = "email"
	BlockBreak   BlockType = "break"
	BlockBlocked BlockType = "blocked"
)

// TimeBlock is a scheduled interval of a specific type. Blocks are read-only
// to the classifier and router; only an explicit confirmed Change may mutate
// the underlying store, and that store lives outside this core.
type TimeBlock struct {
	ID        string    `json:"id" yaml:"id"`
	Type      BlockType `json:"type" yaml:"type"`
	Title     string    `json:"title" yaml:"title"`
	StartTime time.Time `json:"startTime" yaml:"startTime"`
	EndTime   time.Time `json:"endTime" yaml:"endTime"`
	TaskIDs   []string  `json:"taskIds,omitempty" yaml:"taskIds,omitempty"`
}

// DurationMinutes returns the block length in whole minutes.
func (b TimeBlock) DurationMinutes() int {
	return int(b.EndTime.Sub(b.StartTime).Minutes())
}

// Priority of a task in the backlog.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is a backlog item that may be assigned to a work block.
type Task struct {
	ID               string   `json:"id" yaml:"id"`
	Title            string   `json:"title" yaml:"title"`
	Priority         Priority `json:"priority" yaml:"priority"`
	Urgency          int      `json:"urgency" yaml:"urgency"` // 0-100
	DaysInBacklog    int      `json:"daysInBacklog" yaml:"daysInBacklog"`
	Score            float64  `json:"score" yaml:"score"` // caller-supplied ranking score
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty" yaml:"estimatedMinutes,omitempty"`
}

// IsUrgent reports whether the task counts toward urgent pressure.
func (t Task) IsUrgent() bool {
	return t.Priority == PriorityHigh || t.Urgency > 70
}

// IsOverdue reports whether the task has sat in the backlog too long.
func (t Task) IsOverdue() bool {
	return t.DaysInBacklog > 7
}

// EmailSummary is a pre-classified digest of one message. Urgency and
// importance are computed upstream; this core only counts them.
type EmailSummary struct {
	ID        string `json:"id" yaml:"id"`
	From      string `json:"from" yaml:"from"`
	Subject   string `json:"subject" yaml:"subject"`
	Unread    bool   `json:"unread" yaml:"unread"`
	Starred   bool   `json:"starred" yaml:"starred"`
	Urgent    bool   `json:"urgent" yaml:"urgent"`
	Important bool   `json:"important" yaml:"important"`
}

// EnergyLevel is an external signal consumed by task scoring. It is not
// derived inside this core; absent a value, callers get DefaultEnergyLevel.
type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"

	DefaultEnergyLevel = EnergyMedium
)

// Preferences holds per-user scheduling preferences.
type Preferences struct {
	WorkStartTime  string      `json:"workStartTime" yaml:"workStartTime"` // HH:MM
	WorkEndTime    string      `json:"workEndTime" yaml:"workEndTime"`     // HH:MM
	LunchStartTime string      `json:"lunchStartTime" yaml:"lunchStartTime"`
	TypicalStart   string      `json:"typicalStartTime,omitempty" yaml:"typicalStartTime,omitempty"`
	EnergyLevel    EnergyLevel `json:"energyLevel,omitempty" yaml:"energyLevel,omitempty"`
	PreferOptimize bool        `json:"preferOptimize,omitempty" yaml:"preferOptimize,omitempty"`
}

// DefaultPreferences returns the preferences used when the preference
// service is unavailable.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkStartTime:  "09:00",
		WorkEndTime:    "17:00",
		LunchStartTime: "12:00",
		EnergyLevel:    DefaultEnergyLevel,
	}
}

// ClockTime parses an HH:MM preference value onto the given date. Falls back
// to the provided default hour when the value is missing or malformed.
func ClockTime(date time.Time, hhmm string, fallbackHour int) time.Time {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), fallbackHour, 0, 0, 0, date.Location())
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, date.Location())
}
