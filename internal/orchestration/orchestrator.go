// Package orchestration is the entry point of the request pipeline: build a
// user-state snapshot, classify the message against it, and resolve the
// classification to a concrete handler. The scheduling pipeline hangs off
// the same facade so both halves share one set of collaborator services.
package orchestration

import (
	"context"
	"time"

	"dayflow/internal/intent"
	"dayflow/internal/logging"
	"dayflow/internal/router"
	"dayflow/internal/scheduling"
	"dayflow/internal/usercontext"
)

// RequestRecorder observes handled messages, feeding the pattern store.
// Optional.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, userID, text string)
}

// FeedbackSink receives explicit user verdicts on proposals: actions the
// user declined, and the strategy behind a plan they accepted. Optional.
type FeedbackSink interface {
	RecordRejection(ctx context.Context, userID, action string)
	RecordStrategyPreference(userID string, strategy scheduling.Strategy)
}

// Decision is the complete outcome of routing one message.
type Decision struct {
	Context *usercontext.Context `json:"context"`
	Intent  intent.Intent        `json:"intent"`
	Handler router.Handler       `json:"handler"`
	Elapsed time.Duration        `json:"elapsed"`
}

// Orchestrator wires the context builder, classifier, router, and scheduling
// pipeline behind one facade.
type Orchestrator struct {
	builder    *usercontext.Builder
	classifier *intent.Classifier
	router     *router.Router
	pipeline   *scheduling.Pipeline
	recorder   RequestRecorder
	feedback   FeedbackSink
	logger     logging.Logger
	now        func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches request recording for pattern learning.
func WithRecorder(r RequestRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithFeedback attaches proposal feedback recording.
func WithFeedback(sink FeedbackSink) Option {
	return func(o *Orchestrator) { o.feedback = sink }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New constructs the Orchestrator.
func New(builder *usercontext.Builder, classifier *intent.Classifier, rt *router.Router, pipeline *scheduling.Pipeline, logger logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		builder:    builder,
		classifier: classifier,
		router:     rt,
		pipeline:   pipeline,
		logger:     logging.OrNop(logger),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleMessage runs the full classify-and-route path for one message. It
// never returns an error: degraded context, fallback classification, and
// hint-only routing cover every failure mode.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, timezone, message string) *Decision {
	start := o.now()

	snapshot := o.builder.Build(ctx, userID, timezone)
	classified := o.classifier.Classify(ctx, message, snapshot)
	handler := o.router.Route(classified, snapshot, message)

	if o.recorder != nil {
		o.recorder.RecordRequest(ctx, userID, message)
	}

	decision := &Decision{
		Context: snapshot,
		Intent:  classified,
		Handler: handler,
		Elapsed: o.now().Sub(start),
	}
	o.logger.Info("routed %q to %s (category=%s confidence=%.2f)",
		message, router.String(handler), classified.Category, classified.Confidence)
	return decision
}

// PlanDay runs the adaptive scheduling pipeline for the given date.
func (o *Orchestrator) PlanDay(ctx context.Context, userID string, date time.Time) *scheduling.Proposal {
	return o.pipeline.Run(ctx, userID, intent.WorkflowDayPlanning, date)
}

// RejectAction records an action the user declined. Future classifications
// of matching messages short-circuit to conversation instead of re-proposing
// it. No-op without a feedback sink.
func (o *Orchestrator) RejectAction(ctx context.Context, userID, action string) {
	if o.feedback == nil || action == "" {
		return
	}
	o.feedback.RecordRejection(ctx, userID, action)
	o.logger.Info("recorded rejection of %q for %s", action, userID)
}

// ConfirmProposal records the strategy of a proposal the user accepted, so
// later runs can break strategy ties toward it. No-op without a feedback
// sink.
func (o *Orchestrator) ConfirmProposal(userID string, strategy scheduling.Strategy) {
	if o.feedback == nil || strategy == "" {
		return
	}
	o.feedback.RecordStrategyPreference(userID, strategy)
	o.logger.Info("recorded strategy preference %s for %s", strategy, userID)
}

// RunWorkflow dispatches a routed workflow reference. Scheduling workflows
// share the one pipeline; the intent name steers logging and metrics only,
// since strategy selection works from the actual schedule state.
func (o *Orchestrator) RunWorkflow(ctx context.Context, userID string, ref router.WorkflowRef, loc *time.Location) *scheduling.Proposal {
	date, err := time.ParseInLocation("2006-01-02", ref.Params.Date, loc)
	if err != nil {
		date = o.now().In(loc)
	}
	return o.pipeline.Run(ctx, userID, ref.Name, date)
}
