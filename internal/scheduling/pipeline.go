package scheduling

import (
	"context"
	"fmt"
	"time"

	"dayflow/internal/config"
	"dayflow/internal/domain"
	"dayflow/internal/logging"
	"dayflow/internal/observability"
)

// PatternProvider supplies historical user context for stage 3. Optional.
type PatternProvider interface {
	HistoricalPatterns(ctx context.Context, userID string) (Patterns, error)
}

// SimilaritySource retrieves past requests similar to the current one.
// Providers that also implement it enrich the retrieved context with
// precedent requests.
type SimilaritySource interface {
	SimilarRequests(ctx context.Context, userID, text string, topK int) ([]string, error)
}

// stage is one named step of the pipeline.
type stage struct {
	name string
	run  func(ctx context.Context, s *State) error
}

// Pipeline is the adaptive scheduling state machine. Stages execute in a
// fixed order with no branching or loops; any stage may fail without
// aborting the run.
type Pipeline struct {
	services domain.Services
	patterns PatternProvider
	workday  config.WorkDayConfig
	metrics  *observability.MetricsCollector
	logger   logging.Logger
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPatternProvider attaches historical-context retrieval.
func WithPatternProvider(p PatternProvider) Option {
	return func(pl *Pipeline) { pl.patterns = p }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *observability.MetricsCollector) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

// NewPipeline constructs the pipeline over the collaborator services.
func NewPipeline(services domain.Services, workday config.WorkDayConfig, logger logging.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		services: services,
		workday:  workday,
		metrics:  &observability.MetricsCollector{},
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{"fetch_data", p.fetchData},
		{"analyze_state", p.analyzeState},
		{"fetch_historical_context", p.fetchHistoricalContext},
		{"determine_strategy", p.determineStrategy},
		{"execute_strategy", p.executeStrategy},
		{"protect_invariants", p.protectInvariants},
		{"validate", p.validate},
		{"generate_proposal", p.generateProposal},
	}
}

// Run executes all stages for userID on the target date and returns the
// resulting Proposal. A stage failure is logged, recorded on the state, and
// the pipeline continues with the state as of the prior stage; stage 8
// always runs, so Run always returns a Proposal.
func (p *Pipeline) Run(ctx context.Context, userID, intentName string, date time.Time) *Proposal {
	state := &State{
		UserID:    userID,
		Intent:    intentName,
		Data:      StateData{Date: date, Preferences: domain.DefaultPreferences()},
		StartTime: p.now(),
	}

	for _, st := range p.stages() {
		start := p.now()
		err := p.runStage(ctx, st, state)
		p.metrics.RecordStage(ctx, st.name, p.now().Sub(start), err != nil)
		if err != nil {
			p.logger.Warn("stage %s failed, continuing: %v", st.name, err)
			state.Messages = append(state.Messages, fmt.Sprintf("stage %s failed: %v", st.name, err))
		}
	}

	if state.Result == nil {
		// generateProposal cannot fail, but keep the boundary airtight.
		state.Result = p.buildProposal(state)
	}

	changesByType := make(map[string]int)
	for _, ch := range state.Result.ProposedChanges {
		changesByType[string(ch.Type)]++
	}
	p.metrics.RecordProposal(ctx, string(state.Result.Strategy), changesByType)

	return state.Result
}

// runStage isolates one stage: an error return or a panic is contained at
// this boundary.
func (p *Pipeline) runStage(ctx context.Context, st stage, state *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()
	p.logger.Debug("running stage %s", st.name)
	return st.run(ctx, state)
}

// dayBounds returns the work day interval for the run's date.
func (p *Pipeline) dayBounds(date time.Time) (time.Time, time.Time) {
	startHour, endHour := p.workday.StartHour, p.workday.EndHour
	if startHour == 0 && endHour == 0 {
		startHour, endHour = 9, 17
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), startHour, 0, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), endHour, 0, 0, 0, date.Location())
	return start, end
}

func (p *Pipeline) minGap() int {
	if p.workday.MinGapMin > 0 {
		return p.workday.MinGapMin
	}
	return 15
}
