package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/domain"
	"dayflow/internal/intent"
	"dayflow/internal/usercontext"
)

func testSnapshot() *usercontext.Context {
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	blocks := []domain.TimeBlock{
		{
			ID:        "blk-work-1",
			Type:      domain.BlockWork,
			Title:     "Deep Work",
			StartTime: day.Add(9 * time.Hour),
			EndTime:   day.Add(11 * time.Hour),
		},
		{
			ID:        "blk-email-1",
			Type:      domain.BlockEmail,
			Title:     "Email Triage",
			StartTime: day.Add(14 * time.Hour),
			EndTime:   day.Add(15 * time.Hour),
		},
	}
	return &usercontext.Context{
		UserID:      "u1",
		CurrentTime: day.Add(10 * time.Hour),
		ViewingContext: &usercontext.ViewingContext{
			IsViewingToday:   true,
			ScheduleDateStr:  "2026-08-28",
			ViewDateSchedule: blocks,
		},
	}
}

func workflowIntent(name string) intent.Intent {
	return intent.Intent{
		Category:         intent.CategoryWorkflow,
		Confidence:       0.9,
		SuggestedHandler: intent.SuggestedHandler{Type: intent.HandlerWorkflow, Name: name},
	}
}

func TestRouteConversationGoesDirect(t *testing.T) {
	r := New(nil)
	in := intent.Intent{
		Category:         intent.CategoryConversation,
		SuggestedHandler: intent.SuggestedHandler{Type: intent.HandlerDirect},
		Reasoning:        "greeting",
	}

	h := r.Route(in, testSnapshot(), "hello there")

	ref, ok := h.(DirectRef)
	require.True(t, ok)
	assert.Equal(t, "greeting", ref.Reasoning)
	assert.Equal(t, intent.HandlerDirect, h.Kind())
}

func TestRouteWorkflowDefaultsToDayPlanning(t *testing.T) {
	r := New(nil)

	h := r.Route(workflowIntent(""), testSnapshot(), "plan my day")

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, intent.WorkflowDayPlanning, ref.Name)
	assert.Equal(t, "2026-08-28", ref.Params.Date)
	assert.Equal(t, "plan my day", ref.Params.Query)
}

func TestRouteResolvesStructuredBlockReference(t *testing.T) {
	r := New(nil)

	h := r.Route(workflowIntent(intent.WorkflowFillWorkBlock), testSnapshot(),
		`Work on "Deep Work" from 9:00 to 11:00`)

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, "blk-work-1", ref.Params.BlockID)
	assert.Empty(t, ref.Params.BlockTime)
}

func TestRouteStructuredReferenceWrongTitleFallsToHeuristic(t *testing.T) {
	r := New(nil)

	// Title does not match any block, but "9" resolves by hour.
	h := r.Route(workflowIntent(intent.WorkflowFillWorkBlock), testSnapshot(),
		`Work on "Focus Session" from 9:00 to 11:00`)

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, "blk-work-1", ref.Params.BlockID)
}

func TestRouteResolvesBareHourWithMeridiem(t *testing.T) {
	r := New(nil)

	h := r.Route(workflowIntent(intent.WorkflowFillEmailBlock), testSnapshot(),
		"fill my email block at 2pm")

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, "blk-email-1", ref.Params.BlockID)
}

func TestRouteResolvesBareHourTwelveHourComplement(t *testing.T) {
	r := New(nil)

	// "2" without am/pm means 14:00 on a work schedule.
	h := r.Route(workflowIntent(intent.WorkflowFillEmailBlock), testSnapshot(),
		"fill the email block at 2")

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, "blk-email-1", ref.Params.BlockID)
}

func TestRouteUnresolvedBlockLeavesCoarseHint(t *testing.T) {
	r := New(nil)
	snap := testSnapshot()
	snap.ViewingContext.ViewDateSchedule = nil

	h := r.Route(workflowIntent(intent.WorkflowFillWorkBlock), snap,
		"fill my morning work block")

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Empty(t, ref.Params.BlockID)
	assert.Equal(t, "morning", ref.Params.BlockTime)
}

func TestRouteViewingDateInjection(t *testing.T) {
	r := New(nil)
	snap := testSnapshot()
	snap.ViewingContext.IsViewingToday = false
	snap.ViewingContext.ScheduleDateStr = "2026-09-02"

	h := r.Route(workflowIntent(intent.WorkflowDayPlanning), snap, "plan this day")

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, "2026-09-02", ref.Params.Date)
}

func TestRouteExplicitDateEntityBeatsViewingDate(t *testing.T) {
	r := New(nil)
	snap := testSnapshot()
	snap.ViewingContext.IsViewingToday = false
	snap.ViewingContext.ScheduleDateStr = "2026-09-02"

	in := workflowIntent(intent.WorkflowDayPlanning)
	in.Entities.Dates = []string{"tomorrow"}

	h := r.Route(in, snap, "plan tomorrow")

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	// A message-level date reference keeps the router on today; the
	// workflow resolves the relative date itself.
	assert.Equal(t, "2026-08-28", ref.Params.Date)
}

func TestRouteHandlerParamsDateWins(t *testing.T) {
	r := New(nil)
	in := workflowIntent(intent.WorkflowDayPlanning)
	in.SuggestedHandler.Params = map[string]any{"date": "2026-12-01"}

	h := r.Route(in, testSnapshot(), "plan my day")

	ref, ok := h.(WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, "2026-12-01", ref.Params.Date)
}

func TestRouteToolCanonicalizesAlias(t *testing.T) {
	r := New(nil)
	in := intent.Intent{
		Category:         intent.CategoryTool,
		SuggestedHandler: intent.SuggestedHandler{Type: intent.HandlerTool, Name: "viewSchedule"},
	}

	h := r.Route(in, testSnapshot(), "show my schedule")

	ref, ok := h.(ToolRef)
	require.True(t, ok)
	assert.Equal(t, intent.ToolViewSchedule, ref.Name)
}

func TestRouteToolForwardsBlockReference(t *testing.T) {
	r := New(nil)
	in := intent.Intent{
		Category:         intent.CategoryTool,
		SuggestedHandler: intent.SuggestedHandler{Type: intent.HandlerTool, Name: "deleteBlock"},
	}

	h := r.Route(in, testSnapshot(), `delete the work block "Deep Work" from 9:00 to 11:00`)

	ref, ok := h.(ToolRef)
	require.True(t, ok)
	assert.Equal(t, intent.ToolDeleteBlock, ref.Name)
	assert.Equal(t, "blk-work-1", ref.Params.BlockID)
	assert.Equal(t, "Deep Work", ref.Params.Title)
}

func TestCanonicalToolNamePassthrough(t *testing.T) {
	assert.Equal(t, intent.ToolMoveBlock, CanonicalToolName("move_block"))
	assert.Equal(t, "custom_tool", CanonicalToolName("custom_tool"))
}

func TestToolAliasesReturnsCopy(t *testing.T) {
	aliases := ToolAliases()
	aliases["viewSchedule"] = "tampered"

	assert.Equal(t, intent.ToolViewSchedule, CanonicalToolName("viewSchedule"))
}

func TestHandlerString(t *testing.T) {
	assert.Equal(t, "workflow:adaptive-day-planning", String(WorkflowRef{Name: intent.WorkflowDayPlanning}))
	assert.Equal(t, "tool:schedule_viewSchedule", String(ToolRef{Name: intent.ToolViewSchedule}))
	assert.Equal(t, "direct", String(DirectRef{}))
}
