package intent

import "strings"

// keywordRule maps a message substring to a handler. Rules are checked in
// order, most specific first: "delete block" must match before anything
// keyed on the bare verb "block" misroutes a deletion.
type keywordRule struct {
	pattern     string
	category    Category
	handlerType HandlerType
	handler     string
	subcategory string
}

var keywordRules = []keywordRule{
	{"delete block", CategoryTool, HandlerTool, ToolDeleteBlock, "schedule_edit"},
	{"remove block", CategoryTool, HandlerTool, ToolDeleteBlock, "schedule_edit"},
	{"move block", CategoryTool, HandlerTool, ToolMoveBlock, "schedule_edit"},
	{"create block", CategoryTool, HandlerTool, ToolCreateBlock, "schedule_edit"},
	{"add block", CategoryTool, HandlerTool, ToolCreateBlock, "schedule_edit"},
	{"fill work block", CategoryWorkflow, HandlerWorkflow, WorkflowFillWorkBlock, "scheduling"},
	{"fill email block", CategoryWorkflow, HandlerWorkflow, WorkflowFillEmailBlock, "scheduling"},
	{"work on", CategoryWorkflow, HandlerWorkflow, WorkflowFillWorkBlock, "scheduling"},
	{"plan my day", CategoryWorkflow, HandlerWorkflow, WorkflowDayPlanning, "scheduling"},
	{"plan my week", CategoryWorkflow, HandlerWorkflow, WorkflowDayPlanning, "scheduling"},
	{"plan day", CategoryWorkflow, HandlerWorkflow, WorkflowDayPlanning, "scheduling"},
	{"optimize", CategoryWorkflow, HandlerWorkflow, WorkflowOptimization, "scheduling"},
	{"reorganize", CategoryWorkflow, HandlerWorkflow, WorkflowOptimization, "scheduling"},
	{"assign task", CategoryWorkflow, HandlerWorkflow, WorkflowTaskAssignment, "tasks"},
	{"triage email", CategoryWorkflow, HandlerWorkflow, WorkflowEmailTriage, "email"},
	{"process email", CategoryWorkflow, HandlerWorkflow, WorkflowEmailTriage, "email"},
	{"emails", CategoryWorkflow, HandlerWorkflow, WorkflowEmailTriage, "email"},
	{"my tasks", CategoryTool, HandlerTool, ToolListTasks, "tasks"},
	{"backlog", CategoryTool, HandlerTool, ToolListTasks, "tasks"},
	{"my schedule", CategoryTool, HandlerTool, ToolViewSchedule, "schedule_view"},
	{"calendar", CategoryTool, HandlerTool, ToolViewSchedule, "schedule_view"},
	{"schedule", CategoryTool, HandlerTool, ToolViewSchedule, "schedule_view"},
}

const (
	fallbackKeywordConfidence = 0.7
	fallbackDefaultConfidence = 0.5
)

// fallbackClassify is the deterministic keyword classification used when the
// LLM is unavailable or returns garbage. Entities come from the extractor
// pass, which always runs.
func fallbackClassify(message string, entities Entities) Intent {
	lowered := strings.ToLower(message)

	for _, rule := range keywordRules {
		if !strings.Contains(lowered, rule.pattern) {
			continue
		}
		return Intent{
			Category:    rule.category,
			Confidence:  fallbackKeywordConfidence,
			Subcategory: rule.subcategory,
			Entities:    entities,
			SuggestedHandler: SuggestedHandler{
				Type: rule.handlerType,
				Name: rule.handler,
			},
			Reasoning: "keyword match: " + rule.pattern,
		}
	}

	return Intent{
		Category:         CategoryConversation,
		Confidence:       fallbackDefaultConfidence,
		Entities:         entities,
		SuggestedHandler: SuggestedHandler{Type: HandlerDirect},
		Reasoning:        "no keyword match, defaulting to conversation",
	}
}
