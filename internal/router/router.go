// Package router maps a classification onto a concrete handler reference,
// resolving natural-language block and date references against the snapshot's
// live schedule. Routing is pure in-memory lookup; it never calls a
// collaborator service.
package router

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dayflow/internal/domain"
	"dayflow/internal/intent"
	"dayflow/internal/logging"
	"dayflow/internal/usercontext"
)

// Handler is the tagged union of routable targets. Exactly one of
// WorkflowRef, ToolRef, or DirectRef implements it per decision.
type Handler interface {
	handlerRef()
	Kind() intent.HandlerType
}

// WorkflowParams are the strongly-typed parameters a workflow receives.
type WorkflowParams struct {
	Date      string `json:"date,omitempty"`    // 2006-01-02
	BlockID   string `json:"blockId,omitempty"` // resolved concrete block
	BlockTime string `json:"blockTime,omitempty"` // coarse hint: morning|afternoon|evening
	Query     string `json:"query,omitempty"`   // original message for downstream use
}

// WorkflowRef targets a named multi-step workflow.
type WorkflowRef struct {
	Name   string         `json:"name"`
	Params WorkflowParams `json:"params"`
}

func (WorkflowRef) handlerRef()              {}
func (WorkflowRef) Kind() intent.HandlerType { return intent.HandlerWorkflow }

// ToolParams are the strongly-typed parameters a direct tool call receives.
type ToolParams struct {
	Date    string `json:"date,omitempty"`
	BlockID string `json:"blockId,omitempty"`
	Title   string `json:"title,omitempty"`
	Time    string `json:"time,omitempty"`
}

// ToolRef targets a single canonical tool.
type ToolRef struct {
	Name   string     `json:"name"`
	Params ToolParams `json:"params"`
}

func (ToolRef) handlerRef()              {}
func (ToolRef) Kind() intent.HandlerType { return intent.HandlerTool }

// DirectRef targets the conversational path; no handler dispatch occurs.
type DirectRef struct {
	Reasoning string `json:"reasoning,omitempty"`
}

func (DirectRef) handlerRef()              {}
func (DirectRef) Kind() intent.HandlerType { return intent.HandlerDirect }

// blockRefRe matches the structured phrase
//
//	<Type> "<title>" from <HH:MM> to <HH:MM>
//
// e.g. `Work on "Deep Work" from 09:00 to 11:00`.
var blockRefRe = regexp.MustCompile(`(?i)\b(work|email|meeting|break)\b[^"]*"([^"]+)"\s+from\s+(\d{1,2}:\d{2})\s+to\s+(\d{1,2}:\d{2})`)

var bareHourRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::\d{2})?\s*(am|pm)?\b`)

// blockRequiringWorkflows need a concrete block id to act on.
var blockRequiringWorkflows = map[string]domain.BlockType{
	intent.WorkflowFillWorkBlock:  domain.BlockWork,
	intent.WorkflowFillEmailBlock: domain.BlockEmail,
}

// Router resolves intents to handlers.
type Router struct {
	logger logging.Logger
}

// New constructs a Router.
func New(logger logging.Logger) *Router {
	return &Router{logger: logging.OrNop(logger)}
}

// Route maps the intent to a concrete handler reference. It never fails:
// unresolved block references degrade to a coarse blockTime hint so the
// downstream handler can ask a disambiguation question instead of acting on
// the wrong block.
func (r *Router) Route(in intent.Intent, snapshot *usercontext.Context, rawMessage string) Handler {
	switch in.SuggestedHandler.Type {
	case intent.HandlerWorkflow:
		return r.routeWorkflow(in, snapshot, rawMessage)
	case intent.HandlerTool:
		return r.routeTool(in, snapshot, rawMessage)
	default:
		return DirectRef{Reasoning: in.Reasoning}
	}
}

func (r *Router) routeWorkflow(in intent.Intent, snapshot *usercontext.Context, rawMessage string) Handler {
	name := in.SuggestedHandler.Name
	if name == "" {
		name = intent.WorkflowDayPlanning
	}

	params := WorkflowParams{Query: rawMessage}
	params.Date = defaultDate(in, snapshot)

	if expectedType, needsBlock := blockRequiringWorkflows[name]; needsBlock {
		r.resolveBlockRef(&params, expectedType, snapshot, rawMessage, in)
	}

	return WorkflowRef{Name: name, Params: params}
}

func (r *Router) routeTool(in intent.Intent, snapshot *usercontext.Context, rawMessage string) Handler {
	name := CanonicalToolName(in.SuggestedHandler.Name)
	params := ToolParams{Date: defaultDate(in, snapshot)}

	// Forward a structured block reference even for direct tools, so edits
	// name the right block.
	if m := blockRefRe.FindStringSubmatch(rawMessage); m != nil {
		params.Title = m[2]
		params.Time = m[3]
		if block, ok := findBlockByTitleAndTimes(snapshot.ViewingSchedule(), m[2], m[3], m[4]); ok {
			params.BlockID = block.ID
		}
	}

	return ToolRef{Name: name, Params: params}
}

// defaultDate injects the viewing date when the user has a non-today date
// open and the message carries no explicit date reference of its own.
func defaultDate(in intent.Intent, snapshot *usercontext.Context) string {
	if fromParams, ok := in.SuggestedHandler.Params["date"].(string); ok && fromParams != "" {
		return fromParams
	}
	vc := snapshot.ViewingContext
	if vc != nil && !vc.IsViewingToday && len(in.Entities.Dates) == 0 {
		return vc.ScheduleDateStr
	}
	return snapshot.CurrentTime.Format("2006-01-02")
}

// resolveBlockRef fills BlockID when the message names a block precisely,
// else BlockID via the bare-hour heuristic, else a coarse BlockTime hint.
func (r *Router) resolveBlockRef(params *WorkflowParams, expectedType domain.BlockType, snapshot *usercontext.Context, rawMessage string, in intent.Intent) {
	schedule := snapshot.ViewingSchedule()

	if m := blockRefRe.FindStringSubmatch(rawMessage); m != nil {
		if block, ok := findBlockByTitleAndTimes(schedule, m[2], m[3], m[4]); ok {
			params.BlockID = block.ID
			return
		}
		r.logger.Debug("structured block reference %q %s-%s did not match any block", m[2], m[3], m[4])
	}

	if block, ok := findBlockByHour(schedule, expectedType, rawMessage); ok {
		params.BlockID = block.ID
		return
	}

	params.BlockTime = coarseBlockTime(rawMessage, in.Entities)
}

// findBlockByTitleAndTimes requires an exact title match and exact formatted
// start and end times. Anything looser risks silently picking a wrong block.
func findBlockByTitleAndTimes(schedule []domain.TimeBlock, title, start, end string) (domain.TimeBlock, bool) {
	for _, block := range schedule {
		if block.Title == title &&
			block.StartTime.Format("15:04") == canonicalClock(start) &&
			block.EndTime.Format("15:04") == canonicalClock(end) {
			return block, true
		}
	}
	return domain.TimeBlock{}, false
}

// findBlockByHour matches a bare hour mention against blocks of the expected
// type starting at that hour.
func findBlockByHour(schedule []domain.TimeBlock, expectedType domain.BlockType, rawMessage string) (domain.TimeBlock, bool) {
	for _, m := range bareHourRe.FindAllStringSubmatch(rawMessage, -1) {
		hour, err := strconv.Atoi(m[1])
		if err != nil || hour > 23 {
			continue
		}
		meridiem := strings.ToLower(m[2])
		if meridiem == "pm" && hour < 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
		for _, block := range schedule {
			if block.Type == expectedType && block.StartTime.Hour() == hour {
				return block, true
			}
		}
		// Without am/pm a small hour usually means afternoon on a work
		// schedule; try the 12-hour complement too.
		if meridiem == "" && hour < 12 {
			for _, block := range schedule {
				if block.Type == expectedType && block.StartTime.Hour() == hour+12 {
					return block, true
				}
			}
		}
	}
	return domain.TimeBlock{}, false
}

// coarseBlockTime derives the morning/afternoon/evening hint passed when no
// block resolves, so the handler can ask an informed question.
func coarseBlockTime(rawMessage string, entities intent.Entities) string {
	lowered := strings.ToLower(rawMessage)
	for _, part := range []string{"morning", "afternoon", "evening"} {
		if strings.Contains(lowered, part) {
			return part
		}
	}
	for _, t := range entities.Times {
		switch t {
		case "morning", "afternoon", "evening":
			return t
		case "noon":
			return "afternoon"
		case "tonight":
			return "evening"
		}
	}
	return ""
}

// canonicalClock zero-pads H:MM to HH:MM.
func canonicalClock(clock string) string {
	if len(clock) == 4 {
		return "0" + clock
	}
	return clock
}

// String renders a handler for logs.
func String(h Handler) string {
	switch ref := h.(type) {
	case WorkflowRef:
		return fmt.Sprintf("workflow:%s", ref.Name)
	case ToolRef:
		return fmt.Sprintf("tool:%s", ref.Name)
	default:
		return "direct"
	}
}
