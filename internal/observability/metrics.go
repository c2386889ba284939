// Package observability exposes the metrics recorded by the orchestration
// core: classification outcomes, intent cache behaviour, LLM latency, and
// scheduling pipeline stage timings. Metrics flow through an OpenTelemetry
// meter into a Prometheus exporter scraped via promhttp.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// MetricsConfig configures the metrics collector.
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// MetricsCollector manages all metrics for the orchestration core. The zero
// value (and a disabled config) is a no-op collector safe to call.
type MetricsCollector struct {
	meter metric.Meter

	classifications  metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	llmLatency       metric.Float64Histogram
	stageDuration    metric.Float64Histogram
	proposalChanges  metric.Int64Counter
	pipelineRuns     metric.Int64Counter
	prometheusServer *http.Server
}

// NewMetricsCollector creates a metrics collector. When disabled it returns
// a collector whose methods do nothing.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("dayflow")))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	meter := provider.Meter("dayflow")

	mc := &MetricsCollector{meter: meter}

	if mc.classifications, err = meter.Int64Counter(
		"dayflow.intent.classifications.total",
		metric.WithDescription("Intent classifications by source and category"),
		metric.WithUnit("{classification}"),
	); err != nil {
		return nil, fmt.Errorf("create classifications counter: %w", err)
	}

	if mc.cacheHits, err = meter.Int64Counter(
		"dayflow.intent.cache.hits",
		metric.WithDescription("Intent cache hits"),
	); err != nil {
		return nil, fmt.Errorf("create cache hits counter: %w", err)
	}

	if mc.cacheMisses, err = meter.Int64Counter(
		"dayflow.intent.cache.misses",
		metric.WithDescription("Intent cache misses"),
	); err != nil {
		return nil, fmt.Errorf("create cache misses counter: %w", err)
	}

	if mc.llmLatency, err = meter.Float64Histogram(
		"dayflow.llm.latency",
		metric.WithDescription("LLM classification latency in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create llm latency histogram: %w", err)
	}

	if mc.stageDuration, err = meter.Float64Histogram(
		"dayflow.scheduling.stage.duration",
		metric.WithDescription("Scheduling pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create stage duration histogram: %w", err)
	}

	if mc.proposalChanges, err = meter.Int64Counter(
		"dayflow.scheduling.proposal.changes",
		metric.WithDescription("Proposed schedule changes by type"),
		metric.WithUnit("{change}"),
	); err != nil {
		return nil, fmt.Errorf("create proposal changes counter: %w", err)
	}

	if mc.pipelineRuns, err = meter.Int64Counter(
		"dayflow.scheduling.runs.total",
		metric.WithDescription("Scheduling pipeline runs by strategy"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("create pipeline runs counter: %w", err)
	}

	if config.PrometheusPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promclient.Handler())
		mc.prometheusServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", config.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			_ = mc.prometheusServer.ListenAndServe()
		}()
	}

	return mc, nil
}

// RecordClassification records one classification outcome.
// source is one of: llm, cache, keyword, rejection.
func (m *MetricsCollector) RecordClassification(ctx context.Context, source, category string) {
	if m.classifications == nil {
		return
	}
	m.classifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("category", category),
	))
}

// RecordCacheLookup records an intent cache hit or miss.
func (m *MetricsCollector) RecordCacheLookup(ctx context.Context, hit bool) {
	if hit {
		if m.cacheHits != nil {
			m.cacheHits.Add(ctx, 1)
		}
		return
	}
	if m.cacheMisses != nil {
		m.cacheMisses.Add(ctx, 1)
	}
}

// RecordLLMLatency records one LLM round trip.
func (m *MetricsCollector) RecordLLMLatency(ctx context.Context, d time.Duration, success bool) {
	if m.llmLatency == nil {
		return
	}
	m.llmLatency.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordStage records one pipeline stage execution.
func (m *MetricsCollector) RecordStage(ctx context.Context, stage string, d time.Duration, failed bool) {
	if m.stageDuration == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("failed", failed),
	))
}

// RecordProposal records the outcome of one pipeline run.
func (m *MetricsCollector) RecordProposal(ctx context.Context, strategy string, changesByType map[string]int) {
	if m.pipelineRuns != nil {
		m.pipelineRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
	}
	if m.proposalChanges == nil {
		return
	}
	for changeType, n := range changesByType {
		m.proposalChanges.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("type", changeType),
		))
	}
}

// Shutdown stops the Prometheus scrape server if one was started.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.prometheusServer == nil {
		return nil
	}
	return m.prometheusServer.Shutdown(ctx)
}
