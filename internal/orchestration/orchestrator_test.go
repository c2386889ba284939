package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/config"
	"dayflow/internal/domain"
	"dayflow/internal/intent"
	"dayflow/internal/llm"
	"dayflow/internal/router"
	"dayflow/internal/scheduling"
	"dayflow/internal/usercontext"
)

func testWorkday() config.WorkDayConfig {
	return config.WorkDayConfig{StartHour: 9, EndHour: 17, LunchTime: "12:00", MinGapMin: 15, UsableGapMin: 30}
}

func newTestOrchestrator(svc *domain.MemoryServices, client llm.Client, opts ...Option) *Orchestrator {
	builder := usercontext.NewBuilder(svc.Bundle(), testWorkday(), nil)
	classifier := intent.NewClassifier(client, intent.NewCache(intent.CacheConfig{}), nil, nil)
	pipeline := scheduling.NewPipeline(svc.Bundle(), testWorkday(), nil)
	return New(builder, classifier, router.New(nil), pipeline, nil, opts...)
}

func TestHandleMessagePlanMyDayRoutesToWorkflow(t *testing.T) {
	// No LLM client configured: the keyword fallback still routes planning
	// requests with usable confidence.
	o := newTestOrchestrator(domain.NewMemoryServices(), nil)

	decision := o.HandleMessage(context.Background(), "u1", "UTC", "Plan my day")

	require.NotNil(t, decision)
	assert.Equal(t, intent.CategoryWorkflow, decision.Intent.Category)
	assert.GreaterOrEqual(t, decision.Intent.Confidence, 0.7)

	ref, ok := decision.Handler.(router.WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, intent.WorkflowDayPlanning, ref.Name)
	assert.Equal(t, "Plan my day", ref.Params.Query)
}

func TestHandleMessageConversationGoesDirect(t *testing.T) {
	o := newTestOrchestrator(domain.NewMemoryServices(), nil)

	decision := o.HandleMessage(context.Background(), "u1", "UTC", "thanks, that was helpful")

	assert.Equal(t, intent.CategoryConversation, decision.Intent.Category)
	_, ok := decision.Handler.(router.DirectRef)
	assert.True(t, ok)
}

func TestHandleMessageSurvivesTotalServiceFailure(t *testing.T) {
	svc := domain.NewMemoryServices()
	svc.Err = errors.New("everything is down")
	o := newTestOrchestrator(svc, llm.NewMockClient().Fail(errors.New("llm down")))

	decision := o.HandleMessage(context.Background(), "u1", "UTC", "plan my day")

	require.NotNil(t, decision)
	assert.True(t, decision.Context.Degraded)
	assert.Equal(t, intent.CategoryWorkflow, decision.Intent.Category)
	_, ok := decision.Handler.(router.WorkflowRef)
	assert.True(t, ok)
}

type recordingRecorder struct {
	mu       sync.Mutex
	requests []string
}

func (r *recordingRecorder) RecordRequest(_ context.Context, _ string, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, text)
}

func TestHandleMessageRecordsRequest(t *testing.T) {
	rec := &recordingRecorder{}
	o := newTestOrchestrator(domain.NewMemoryServices(), nil, WithRecorder(rec))

	o.HandleMessage(context.Background(), "u1", "UTC", "show my schedule")

	assert.Equal(t, []string{"show my schedule"}, rec.requests)
}

type recordingFeedback struct {
	mu         sync.Mutex
	rejections []string
	strategies []scheduling.Strategy
}

func (r *recordingFeedback) RecordRejection(_ context.Context, _ string, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections = append(r.rejections, action)
}

func (r *recordingFeedback) RecordStrategyPreference(_ string, strategy scheduling.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = append(r.strategies, strategy)
}

func TestRejectActionFeedsSink(t *testing.T) {
	sink := &recordingFeedback{}
	o := newTestOrchestrator(domain.NewMemoryServices(), nil, WithFeedback(sink))

	o.RejectAction(context.Background(), "u1", "move lunch")
	o.RejectAction(context.Background(), "u1", "")

	assert.Equal(t, []string{"move lunch"}, sink.rejections, "empty actions are dropped")
}

func TestConfirmProposalFeedsSink(t *testing.T) {
	sink := &recordingFeedback{}
	o := newTestOrchestrator(domain.NewMemoryServices(), nil, WithFeedback(sink))

	o.ConfirmProposal("u1", scheduling.StrategyOptimize)
	o.ConfirmProposal("u1", "")

	assert.Equal(t, []scheduling.Strategy{scheduling.StrategyOptimize}, sink.strategies)
}

func TestFeedbackWithoutSinkIsNoOp(t *testing.T) {
	o := newTestOrchestrator(domain.NewMemoryServices(), nil)

	assert.NotPanics(t, func() {
		o.RejectAction(context.Background(), "u1", "move lunch")
		o.ConfirmProposal("u1", scheduling.StrategyFull)
	})
}

func TestPlanDayReturnsProposal(t *testing.T) {
	svc := domain.NewMemoryServices()
	svc.SetBacklog([]domain.Task{{ID: "t1", Title: "Report", Priority: domain.PriorityHigh}})
	o := newTestOrchestrator(svc, nil)

	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	proposal := o.PlanDay(context.Background(), "u1", date)

	require.NotNil(t, proposal)
	assert.Equal(t, "2026-08-28", proposal.Date)
	assert.Equal(t, scheduling.StrategyFull, proposal.Strategy)
	assert.NotEmpty(t, proposal.ProposedChanges)
}

func TestRunWorkflowParsesDate(t *testing.T) {
	o := newTestOrchestrator(domain.NewMemoryServices(), nil)

	ref := router.WorkflowRef{
		Name:   intent.WorkflowDayPlanning,
		Params: router.WorkflowParams{Date: "2026-09-02"},
	}
	proposal := o.RunWorkflow(context.Background(), "u1", ref, time.UTC)

	require.NotNil(t, proposal)
	assert.Equal(t, "2026-09-02", proposal.Date)
}

func TestRunWorkflowBadDateFallsBackToNow(t *testing.T) {
	o := newTestOrchestrator(domain.NewMemoryServices(), nil)

	ref := router.WorkflowRef{Name: intent.WorkflowDayPlanning, Params: router.WorkflowParams{Date: "next tuesday"}}
	proposal := o.RunWorkflow(context.Background(), "u1", ref, time.UTC)

	require.NotNil(t, proposal)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), proposal.Date)
}

func TestHandleMessageEndToEndWithLLM(t *testing.T) {
	svc := domain.NewMemoryServices()
	svc.SetSchedule(time.Now().UTC(), []domain.TimeBlock{{
		ID:        "w1",
		Type:      domain.BlockWork,
		Title:     "Deep Work",
		StartTime: time.Now().UTC().Truncate(24 * time.Hour).Add(9 * time.Hour),
		EndTime:   time.Now().UTC().Truncate(24 * time.Hour).Add(11 * time.Hour),
	}})

	response := `{
		"category": "workflow",
		"confidence": 0.95,
		"subcategory": "scheduling",
		"suggestedHandler": {"type": "workflow", "name": "fill-work-block"},
		"reasoning": "user wants the work block filled"
	}`
	o := newTestOrchestrator(svc, llm.NewMockClient(response))

	decision := o.HandleMessage(context.Background(), "u1", "UTC", "fill my 9am work block")

	ref, ok := decision.Handler.(router.WorkflowRef)
	require.True(t, ok)
	assert.Equal(t, "w1", ref.Params.BlockID, "bare-hour reference resolves against the live schedule")
}
