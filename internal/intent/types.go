// Package intent turns a free-text user utterance plus a user-state snapshot
// into a routable, confidence-scored classification. Classification prefers
// the cache, then rejection short-circuits, then the LLM, and always has a
// deterministic keyword fallback.
package intent

// Category is the coarse classification of a message.
type Category string

const (
	CategoryWorkflow     Category = "workflow"
	CategoryTool         Category = "tool"
	CategoryConversation Category = "conversation"
)

// HandlerType tags the suggested handler kind.
type HandlerType string

const (
	HandlerWorkflow HandlerType = "workflow"
	HandlerTool     HandlerType = "tool"
	HandlerDirect   HandlerType = "direct"
)

// Entities are the structured references extracted from a message. The
// extractor seeds them; LLM-reported entities take precedence on conflict.
type Entities struct {
	Dates           []string `json:"dates,omitempty"`
	Times           []string `json:"times,omitempty"`
	People          []string `json:"people,omitempty"`
	DurationMinutes int      `json:"duration,omitempty"`
}

// SuggestedHandler names the downstream handler the classifier proposes.
type SuggestedHandler struct {
	Type   HandlerType    `json:"type"`
	Name   string         `json:"name,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Intent is the classifier's structured interpretation of one message.
// Produced once per request and consumed immediately by the router.
type Intent struct {
	Category         Category         `json:"category"`
	Confidence       float64          `json:"confidence"`
	Subcategory      string           `json:"subcategory,omitempty"`
	Entities         Entities         `json:"entities"`
	SuggestedHandler SuggestedHandler `json:"suggestedHandler"`
	Reasoning        string           `json:"reasoning"`
}

// Workflow and tool names shared by the fallback table, the router alias
// table, and the serve-layer dispatcher.
const (
	WorkflowDayPlanning    = "adaptive-day-planning"
	WorkflowOptimization   = "schedule-optimization"
	WorkflowEmailTriage    = "email-triage"
	WorkflowFillWorkBlock  = "fill-work-block"
	WorkflowFillEmailBlock = "fill-email-block"
	WorkflowTaskAssignment = "task-assignment"

	ToolViewSchedule = "schedule_viewSchedule"
	ToolCreateBlock  = "schedule_createBlock"
	ToolDeleteBlock  = "schedule_deleteBlock"
	ToolMoveBlock    = "schedule_moveBlock"
	ToolListTasks    = "tasks_listBacklog"
)
