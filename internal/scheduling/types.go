// Package scheduling implements the adaptive scheduling pipeline: a strictly
// ordered list of named stages over a single mutable State, terminal on
// proposal generation. No stage error escapes the pipeline boundary; the
// worst case output is a minimal Proposal, never a thrown error.
package scheduling

import (
	"time"

	"dayflow/internal/domain"
)

// Strategy is the high-level approach chosen for one run.
type Strategy string

const (
	StrategyFull     Strategy = "full"
	StrategyOptimize Strategy = "optimize"
	StrategyPartial  Strategy = "partial"
	StrategyTaskOnly Strategy = "task_only"
)

// ChangeType enumerates proposed mutation kinds.
type ChangeType string

const (
	ChangeCreate      ChangeType = "create"
	ChangeMove        ChangeType = "move"
	ChangeDelete      ChangeType = "delete"
	ChangeAssign      ChangeType = "assign"
	ChangeConsolidate ChangeType = "consolidate"
)

// EntityKind names what a Change mutates.
type EntityKind string

const (
	EntityBlock EntityKind = "block"
	EntityTask  EntityKind = "task"
)

// ChangeData carries the concrete payload of a proposed mutation. Which
// fields are set depends on the change type.
type ChangeData struct {
	BlockID   string           `json:"blockId,omitempty"`
	BlockType domain.BlockType `json:"blockType,omitempty"`
	Title     string           `json:"title,omitempty"`
	StartTime time.Time        `json:"startTime,omitzero"`
	EndTime   time.Time        `json:"endTime,omitzero"`
	TaskID    string           `json:"taskId,omitempty"`
	TaskIDs   []string         `json:"taskIds,omitempty"`
	// MergedBlockIDs lists the source blocks of a consolidation.
	MergedBlockIDs []string `json:"mergedBlockIds,omitempty"`
}

// Change is a proposed, unapplied mutation. This core never applies one;
// every mutation passes through an external confirmation boundary first.
type Change struct {
	Type       ChangeType `json:"type"`
	Entity     EntityKind `json:"entity"`
	Data       ChangeData `json:"data"`
	Reason     string     `json:"reason"`
	Impact     string     `json:"impact"`
	Confidence float64    `json:"confidence"`
}

// InsightType categorizes pipeline observations.
type InsightType string

const (
	InsightObservation    InsightType = "observation"
	InsightWarning        InsightType = "warning"
	InsightRecommendation InsightType = "recommendation"
)

// Insight is accumulated, never removed, across pipeline stages.
type Insight struct {
	Type       InsightType       `json:"type"`
	Content    string            `json:"content"`
	Confidence float64           `json:"confidence"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// InefficiencyType enumerates detected suboptimal scheduling patterns.
type InefficiencyType string

const (
	IneffGap           InefficiencyType = "gap"
	IneffFragmentation InefficiencyType = "fragmentation"
	IneffPoorTiming    InefficiencyType = "poor_timing"
)

// Severity grades an inefficiency.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Inefficiency is a derived finding from schedule analysis.
type Inefficiency struct {
	Type           InefficiencyType `json:"type"`
	Description    string           `json:"description"`
	Severity       Severity         `json:"severity"`
	AffectedBlocks []string         `json:"affectedBlocks,omitempty"`
}

// StateData is the dataset a run operates on.
type StateData struct {
	Date            time.Time             `json:"date"`
	Strategy        Strategy              `json:"strategy"`
	CurrentSchedule []domain.TimeBlock    `json:"currentSchedule"`
	AvailableTasks  []domain.Task         `json:"availableTasks"`
	EmailBacklog    []domain.EmailSummary `json:"emailBacklog"`
	Gaps            []domain.Gap          `json:"gaps"`
	Inefficiencies  []Inefficiency        `json:"inefficiencies"`
	Preferences     domain.Preferences    `json:"preferences"`
}

// State is the pipeline's working memory, mutated stage by stage.
type State struct {
	UserID          string    `json:"userId"`
	Intent          string    `json:"intent"`
	RAGContext      string    `json:"ragContext,omitempty"`
	Data            StateData `json:"data"`
	ProposedChanges []Change  `json:"proposedChanges"`
	Insights        []Insight `json:"insights"`
	Messages        []string  `json:"messages"`
	StartTime       time.Time `json:"startTime"`
	Result          *Proposal `json:"result,omitempty"`

	// preferredStrategy is a historical hint set by stage 3 and consulted
	// by strategy selection when nothing else decides.
	preferredStrategy Strategy
}

// addInsight appends a timestamped insight.
func (s *State) addInsight(kind InsightType, content string, confidence float64) {
	s.Insights = append(s.Insights, Insight{
		Type:       kind,
		Content:    content,
		Confidence: confidence,
		Timestamp:  time.Now(),
	})
}

// ScheduleMetrics quantifies a proposal.
type ScheduleMetrics struct {
	TotalBlocks        int     `json:"totalBlocks"`
	FocusTimeMinutes   int     `json:"focusTime"`
	FragmentationScore float64 `json:"fragmentationScore"` // lower is better
	TasksAssigned      int     `json:"tasksAssigned"`
	EfficiencyGain     int     `json:"efficiencyGain"` // capped at 50
	EnergyAlignment    int     `json:"energyAlignment"` // % of work blocks in 9-12
}

// Proposal is the complete output of one scheduling run.
type Proposal struct {
	Date              string             `json:"date"` // 2006-01-02
	Strategy          Strategy           `json:"strategy"`
	CurrentSchedule   []domain.TimeBlock `json:"currentSchedule"`
	OptimizedSchedule []domain.TimeBlock `json:"optimizedSchedule"` // preview only
	ProposedChanges   []Change           `json:"changes"`
	Metrics           ScheduleMetrics    `json:"metrics"`
	Summary           string             `json:"summary"`
	Insights          []Insight          `json:"insights"`
	NextSteps         []string           `json:"nextSteps"`
	ExecutionTime     time.Duration      `json:"executionTime"`
}

// Patterns is the historical context retrieved in stage 3. Empty pattern
// sets are the non-fatal default when retrieval is unavailable.
type Patterns struct {
	PreferredStrategy Strategy `json:"preferredStrategy,omitempty"`
	CommonRequests    []string `json:"commonRequests,omitempty"`
	RejectedActions   []string `json:"rejectedActions,omitempty"`
}
