package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/taskd/internal/orchestrator"

// Metrics instruments run and step outcomes.
type Metrics struct {
	meter        metric.Meter
	logger       *zap.Logger
	runs         metric.Int64Counter
	runDuration  metric.Float64Histogram
	steps        metric.Int64Counter
	stepDuration metric.Float64Histogram
	escalations  metric.Int64Counter
}

// NewMetrics creates orchestrator metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.runs, err = m.meter.Int64Counter(
		"taskd.orchestrator.runs_total",
		metric.WithDescription("Total number of task runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		m.logger.Warn("failed to create runs counter", zap.Error(err))
	}

	m.runDuration, err = m.meter.Float64Histogram(
		"taskd.orchestrator.run.duration_seconds",
		metric.WithDescription("Duration of task runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		m.logger.Warn("failed to create run duration histogram", zap.Error(err))
	}

	m.steps, err = m.meter.Int64Counter(
		"taskd.orchestrator.steps_total",
		metric.WithDescription("Total number of step executions by executor and outcome"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		m.logger.Warn("failed to create steps counter", zap.Error(err))
	}

	m.stepDuration, err = m.meter.Float64Histogram(
		"taskd.orchestrator.step.duration_seconds",
		metric.WithDescription("Duration of step executions"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		m.logger.Warn("failed to create step duration histogram", zap.Error(err))
	}

	m.escalations, err = m.meter.Int64Counter(
		"taskd.orchestrator.escalations_total",
		metric.WithDescription("Escalation decisions by action"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		m.logger.Warn("failed to create escalations counter", zap.Error(err))
	}
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, completed bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("completed", completed))
	if m.runs != nil {
		m.runs.Add(ctx, 1, attrs)
	}
	if m.runDuration != nil {
		m.runDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordStep records one dispatch attempt.
func (m *Metrics) RecordStep(ctx context.Context, executor string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("executor", executor),
		attribute.Bool("success", err == nil),
	)
	if m.steps != nil {
		m.steps.Add(ctx, 1, attrs)
	}
	if m.stepDuration != nil {
		m.stepDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordEscalation records the controller's decision for a failed step.
func (m *Metrics) RecordEscalation(ctx context.Context, action string) {
	if m.escalations != nil {
		m.escalations.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
	}
}
