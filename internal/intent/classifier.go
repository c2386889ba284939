package intent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"dayflow/internal/llm"
	"dayflow/internal/logging"
	"dayflow/internal/observability"
	"dayflow/internal/usercontext"
)

const rejectionConfidence = 0.9

// Classifier produces Intents. It never mutates the snapshot it reads; the
// cache is its only persistent state.
type Classifier struct {
	client  llm.Client
	cache   *Cache
	metrics *observability.MetricsCollector
	logger  logging.Logger
}

// NewClassifier constructs a Classifier. client should already be wrapped
// with the retry policy; metrics may be a disabled collector.
func NewClassifier(client llm.Client, cache *Cache, metrics *observability.MetricsCollector, logger logging.Logger) *Classifier {
	if cache == nil {
		cache = NewCache(CacheConfig{})
	}
	if metrics == nil {
		metrics = &observability.MetricsCollector{}
	}
	return &Classifier{
		client:  client,
		cache:   cache,
		metrics: metrics,
		logger:  logging.OrNop(logger),
	}
}

// Classify turns message plus snapshot into an Intent. It never returns an
// error: provider failures, timeouts, and malformed output all land on the
// deterministic keyword fallback.
func (c *Classifier) Classify(ctx context.Context, message string, snapshot *usercontext.Context) Intent {
	entities := Extract(message)

	key := Key(message, snapshot)
	if cached, ok := c.cache.Get(key); ok {
		c.metrics.RecordCacheLookup(ctx, true)
		c.metrics.RecordClassification(ctx, "cache", string(cached.Category))
		return cached
	}
	c.metrics.RecordCacheLookup(ctx, false)

	// A previously rejected action short-circuits to conversation without
	// spending an LLM call.
	if rejected := matchRejection(message, snapshot); rejected != "" {
		result := Intent{
			Category:         CategoryConversation,
			Confidence:       rejectionConfidence,
			Entities:         entities,
			SuggestedHandler: SuggestedHandler{Type: HandlerDirect},
			Reasoning:        fmt.Sprintf("user previously rejected %q; asking instead of repeating it", rejected),
		}
		c.metrics.RecordClassification(ctx, "rejection", string(result.Category))
		return result
	}

	result, err := c.classifyLLM(ctx, message, snapshot, entities)
	if err != nil {
		c.logger.Warn("llm classification failed, using keyword fallback: %v", err)
		result = fallbackClassify(message, entities)
		c.metrics.RecordClassification(ctx, "keyword", string(result.Category))
		return result
	}

	c.cache.Put(key, result, contextHash(snapshot))
	c.metrics.RecordClassification(ctx, "llm", string(result.Category))
	return result
}

// matchRejection returns the first rejected action whose text appears in the
// message, or "".
func matchRejection(message string, snapshot *usercontext.Context) string {
	if snapshot.UserPatterns == nil {
		return ""
	}
	lowered := strings.ToLower(message)
	for _, rejected := range snapshot.UserPatterns.RejectedActions {
		if rejected == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(rejected)) {
			return rejected
		}
	}
	return ""
}

// llmIntent mirrors the structured object requested from the model.
type llmIntent struct {
	Category    string `json:"category"`
	Confidence  float64 `json:"confidence"`
	Subcategory string `json:"subcategory"`
	Entities    struct {
		Dates    []string `json:"dates"`
		Times    []string `json:"times"`
		People   []string `json:"people"`
		Duration int      `json:"duration"`
	} `json:"entities"`
	SuggestedHandler struct {
		Type   string         `json:"type"`
		Name   string         `json:"name"`
		Params map[string]any `json:"params"`
	} `json:"suggestedHandler"`
	Reasoning string `json:"reasoning"`
}

func (c *Classifier) classifyLLM(ctx context.Context, message string, snapshot *usercontext.Context, entities Entities) (Intent, error) {
	if c.client == nil {
		return Intent{}, fmt.Errorf("no llm client configured")
	}

	start := time.Now()
	resp, err := c.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: renderUserPrompt(message, snapshot, entities)},
		},
		Temperature: 0.1,
		MaxTokens:   600,
		JSONMode:    true,
	})
	c.metrics.RecordLLMLatency(ctx, time.Since(start), err == nil)
	if err != nil {
		return Intent{}, err
	}

	parsed, err := parseIntentJSON(resp.Content)
	if err != nil {
		return Intent{}, fmt.Errorf("parse classification: %w", err)
	}

	result := Intent{
		Category:    Category(parsed.Category),
		Confidence:  clamp01(parsed.Confidence),
		Subcategory: parsed.Subcategory,
		Entities: merge(entities, Entities{
			Dates:           dedupeLower(parsed.Entities.Dates),
			Times:           dedupeLower(parsed.Entities.Times),
			People:          dedupeLower(parsed.Entities.People),
			DurationMinutes: parsed.Entities.Duration,
		}),
		SuggestedHandler: SuggestedHandler{
			Type:   HandlerType(parsed.SuggestedHandler.Type),
			Name:   parsed.SuggestedHandler.Name,
			Params: parsed.SuggestedHandler.Params,
		},
		Reasoning: parsed.Reasoning,
	}

	if !validCategory(result.Category) {
		return Intent{}, fmt.Errorf("model returned unknown category %q", parsed.Category)
	}
	if !validHandlerType(result.SuggestedHandler.Type) {
		result.SuggestedHandler.Type = handlerTypeFor(result.Category)
	}
	return result, nil
}

// parseIntentJSON decodes the model output, repairing common JSON defects
// (trailing commas, fenced code blocks, single quotes) before giving up.
func parseIntentJSON(content string) (*llmIntent, error) {
	trimmed := strings.TrimSpace(content)
	if idx := strings.Index(trimmed, "{"); idx > 0 {
		trimmed = trimmed[idx:]
	}
	if idx := strings.LastIndex(trimmed, "}"); idx >= 0 {
		trimmed = trimmed[:idx+1]
	}

	var parsed llmIntent
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return &parsed, nil
	}

	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		return nil, fmt.Errorf("repair json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("decode repaired json: %w", err)
	}
	return &parsed, nil
}

func validCategory(c Category) bool {
	return c == CategoryWorkflow || c == CategoryTool || c == CategoryConversation
}

func validHandlerType(t HandlerType) bool {
	return t == HandlerWorkflow || t == HandlerTool || t == HandlerDirect
}

func handlerTypeFor(c Category) HandlerType {
	switch c {
	case CategoryWorkflow:
		return HandlerWorkflow
	case CategoryTool:
		return HandlerTool
	default:
		return HandlerDirect
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// contextHash fingerprints the snapshot for cache entry bookkeeping.
func contextHash(snapshot *usercontext.Context) string {
	payload := fmt.Sprintf("%s|%t|%d|%d|%d|%d",
		snapshot.CurrentTime.Format("2006-01-02T15"),
		snapshot.HasSchedule(),
		snapshot.ScheduleState.Utilization,
		snapshot.TaskState.PendingCount,
		snapshot.TaskState.UrgentCount,
		snapshot.EmailState.UnreadCount,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:8])
}
