package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/llm"
	"dayflow/internal/usercontext"
)

const validLLMResponse = `{
	"category": "workflow",
	"confidence": 0.92,
	"subcategory": "scheduling",
	"entities": {"dates": ["today"], "times": [], "people": [], "duration": 0},
	"suggestedHandler": {"type": "workflow", "name": "adaptive-day-planning", "params": {}},
	"reasoning": "user wants their day planned"
}`

func TestClassifyUsesLLMResult(t *testing.T) {
	mock := llm.NewMockClient(validLLMResponse)
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	result := c.Classify(context.Background(), "plan my day", snapshotAt(10))

	assert.Equal(t, CategoryWorkflow, result.Category)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, WorkflowDayPlanning, result.SuggestedHandler.Name)
	assert.Equal(t, 1, mock.CallCount())
}

func TestClassifyCacheHitSkipsLLM(t *testing.T) {
	mock := llm.NewMockClient(validLLMResponse)
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)
	snap := snapshotAt(10)

	first := c.Classify(context.Background(), "plan my day", snap)
	second := c.Classify(context.Background(), "Plan My Day", snap)

	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.SuggestedHandler, second.SuggestedHandler)
	assert.Equal(t, 1, mock.CallCount(), "second call must be served from cache")
}

func TestClassifyFallsBackOnLLMError(t *testing.T) {
	mock := llm.NewMockClient().Fail(errors.New("provider down"))
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	result := c.Classify(context.Background(), "plan my day please", snapshotAt(10))

	assert.Equal(t, CategoryWorkflow, result.Category)
	assert.Equal(t, 0.7, result.Confidence)
	assert.Equal(t, WorkflowDayPlanning, result.SuggestedHandler.Name)
}

func TestClassifyFallbackDefaultsToConversation(t *testing.T) {
	mock := llm.NewMockClient().Fail(errors.New("provider down"))
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	result := c.Classify(context.Background(), "how are you doing", snapshotAt(10))

	assert.Equal(t, CategoryConversation, result.Category)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, HandlerDirect, result.SuggestedHandler.Type)
}

func TestClassifyNoClientUsesFallback(t *testing.T) {
	c := NewClassifier(nil, NewCache(CacheConfig{}), nil, nil)

	result := c.Classify(context.Background(), "optimize my schedule", snapshotAt(10))

	assert.Equal(t, CategoryWorkflow, result.Category)
	assert.Equal(t, WorkflowOptimization, result.SuggestedHandler.Name)
}

func TestClassifyRejectionShortCircuit(t *testing.T) {
	mock := llm.NewMockClient(validLLMResponse)
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	snap := snapshotAt(10)
	snap.UserPatterns = &usercontext.UserPatterns{RejectedActions: []string{"move lunch"}}

	result := c.Classify(context.Background(), "can you move lunch to 1pm", snap)

	assert.Equal(t, CategoryConversation, result.Category)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Contains(t, result.Reasoning, "move lunch")
	assert.Zero(t, mock.CallCount(), "rejection match must not spend an LLM call")
}

func TestClassifyMalformedJSONFallsBack(t *testing.T) {
	mock := llm.NewMockClient("I think this is a workflow request!")
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	result := c.Classify(context.Background(), "plan my day", snapshotAt(10))

	assert.Equal(t, CategoryWorkflow, result.Category)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestClassifyUnknownCategoryFallsBack(t *testing.T) {
	mock := llm.NewMockClient(`{"category": "banana", "confidence": 0.9}`)
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	result := c.Classify(context.Background(), "check my emails", snapshotAt(10))

	assert.Equal(t, CategoryWorkflow, result.Category)
	assert.Equal(t, WorkflowEmailTriage, result.SuggestedHandler.Name)
}

func TestClassifyRequestsJSONMode(t *testing.T) {
	mock := llm.NewMockClient(validLLMResponse)
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	c.Classify(context.Background(), "plan my day", snapshotAt(10))

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].JSONMode)
	assert.Equal(t, 0.1, reqs[0].Temperature)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, "system", reqs[0].Messages[0].Role)
}

func TestParseIntentJSONRepairsDefects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"code fence", "```json\n" + validLLMResponse + "\n```"},
		{"leading prose", "Here is the classification:\n" + validLLMResponse},
		{"trailing comma", `{"category": "workflow", "confidence": 0.8,}`},
		{"single quotes", `{'category': 'workflow', 'confidence': 0.8}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseIntentJSON(tt.content)
			require.NoError(t, err)
			assert.Equal(t, "workflow", parsed.Category)
		})
	}
}

func TestClassifyMergesExtractedEntities(t *testing.T) {
	// Model returns no entities; the extractor's findings must survive.
	resp := `{
		"category": "tool",
		"confidence": 0.85,
		"subcategory": "schedule_view",
		"suggestedHandler": {"type": "tool", "name": "schedule_viewSchedule"},
		"reasoning": "view request"
	}`
	mock := llm.NewMockClient(resp)
	c := NewClassifier(mock, NewCache(CacheConfig{}), nil, nil)

	result := c.Classify(context.Background(), "show my schedule for tomorrow at 3pm", snapshotAt(10))

	assert.Equal(t, []string{"tomorrow"}, result.Entities.Dates)
	assert.Equal(t, []string{"3pm"}, result.Entities.Times)
}

func TestContextHashStableWithinHour(t *testing.T) {
	a := snapshotAt(10)
	b := snapshotAt(10)
	b.CurrentTime = b.CurrentTime.Add(20 * time.Minute)

	assert.Equal(t, contextHash(a), contextHash(b))
	assert.NotEqual(t, contextHash(a), contextHash(snapshotAt(11)))
}
