package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/pipeline"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds the application instruments. It implements
// pipeline.Observer.
type Metrics struct {
	custom config.CustomMetricsConfig

	stageDuration   metric.Float64Histogram
	requestDuration metric.Float64Histogram
	requests        metric.Int64Counter
	errors          metric.Int64Counter
	predictions     metric.Int64Counter
	similarity      metric.Float64Histogram
	confidence      metric.Float64Histogram
	rateLimitHits   metric.Int64Counter
	certReloads     metric.Int64Counter
	keyRotations    metric.Int64Counter
}

var _ pipeline.Observer = (*Metrics)(nil)

var ratioBuckets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

func newMetrics(meter metric.Meter, custom config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{custom: custom}
	var err error

	if m.stageDuration, err = meter.Float64Histogram(
		"resumatch_pipeline_stage_duration_seconds",
		metric.WithDescription("Duration of individual pipeline stages"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	if m.requestDuration, err = meter.Float64Histogram(
		"resumatch_request_duration_seconds",
		metric.WithDescription("Duration of analyze and parse requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	if m.requests, err = meter.Int64Counter(
		"resumatch_requests_total",
		metric.WithDescription("Pipeline requests by operation and outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}

	if m.errors, err = meter.Int64Counter(
		"resumatch_errors_total",
		metric.WithDescription("Failed pipeline requests by error type"),
	); err != nil {
		return nil, fmt.Errorf("failed to create errors counter: %w", err)
	}

	if m.predictions, err = meter.Int64Counter(
		"resumatch_predictions_total",
		metric.WithDescription("Match predictions by label"),
	); err != nil {
		return nil, fmt.Errorf("failed to create predictions counter: %w", err)
	}

	if m.similarity, err = meter.Float64Histogram(
		"resumatch_similarity_score",
		metric.WithDescription("Cosine similarity of analyzed resume and job pairs"),
		metric.WithExplicitBucketBoundaries(ratioBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create similarity histogram: %w", err)
	}

	if m.confidence, err = meter.Float64Histogram(
		"resumatch_confidence_score",
		metric.WithDescription("Classifier probability of the Fit label"),
		metric.WithExplicitBucketBoundaries(ratioBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create confidence histogram: %w", err)
	}

	if m.rateLimitHits, err = meter.Int64Counter(
		"resumatch_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	if m.certReloads, err = meter.Int64Counter(
		"resumatch_cert_reloads_total",
		metric.WithDescription("TLS certificate reload attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cert reload counter: %w", err)
	}

	if m.keyRotations, err = meter.Int64Counter(
		"resumatch_api_key_rotations_total",
		metric.WithDescription("API key sets applied from Vault"),
	); err != nil {
		return nil, fmt.Errorf("failed to create key rotation counter: %w", err)
	}

	return m, nil
}

// RecordStage implements pipeline.Observer.
func (m *Metrics) RecordStage(ctx context.Context, stage pipeline.Stage, d time.Duration, err error) {
	if !m.custom.Pipeline.Enabled || !m.custom.Pipeline.TrackStages {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.Bool("success", err == nil),
	))
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("pipeline.stage", trace.WithAttributes(
			attribute.String("stage", string(stage)),
			attribute.Float64("duration_ms", float64(d.Microseconds())/1000),
		))
	}
}

// RecordRequest implements pipeline.Observer.
func (m *Metrics) RecordRequest(ctx context.Context, operation string, d time.Duration, err error) {
	if !m.custom.Pipeline.Enabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("success", strconv.FormatBool(err == nil)),
	)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
	if err == nil {
		return
	}
	errType := string(errors.ErrorTypeInternal)
	if appErr, ok := errors.As(err); ok {
		errType = string(appErr.Type)
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("type", errType),
	))
}

// RecordPrediction implements pipeline.Observer.
func (m *Metrics) RecordPrediction(ctx context.Context, result *types.MatchResult) {
	if result == nil || !m.custom.Pipeline.Enabled || !m.custom.Pipeline.TrackPredictions {
		return
	}
	m.predictions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("label", string(result.Prediction)),
		attribute.String("model_version", result.ModelVersion),
	))
	m.similarity.Record(ctx, result.SimilarityScore)
	m.confidence.Record(ctx, result.ConfidenceScore)
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("resumatch.prediction", string(result.Prediction)),
			attribute.Float64("resumatch.confidence", result.ConfidenceScore),
			attribute.Int("resumatch.overlap_count", result.Features.OverlapCount),
		)
	}
}

// RecordRateLimitHit counts a request rejected by the limiter. key is "ip"
// or "api_key".
func (m *Metrics) RecordRateLimitHit(ctx context.Context, key string) {
	if !m.custom.Infrastructure.Enabled || !m.custom.Infrastructure.TrackRateLimits {
		return
	}
	m.rateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limited_by", key)))
}

// RecordCertReload counts a certificate reload attempt by trigger source.
func (m *Metrics) RecordCertReload(ctx context.Context, source string, err error) {
	if !m.custom.Infrastructure.Enabled {
		return
	}
	m.certReloads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("success", err == nil),
	))
}

// RecordKeyRotation counts an API key set applied from Vault.
func (m *Metrics) RecordKeyRotation(ctx context.Context, keys int) {
	if !m.custom.Infrastructure.Enabled {
		return
	}
	m.keyRotations.Add(ctx, 1, metric.WithAttributes(attribute.Int("keys", keys)))
}
