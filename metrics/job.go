/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides OpenTelemetry metrics for resolver jobs.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Job records per-attempt and per-job measurements. Metric creation uses
// graceful degradation: a counter that fails to initialize becomes a no-op
// rather than failing the job.
type Job struct {
	meter    metric.Meter
	attempts metric.Int64Counter
	tokens   metric.Int64Counter
	duration metric.Float64Histogram
	cost     metric.Float64Counter
}

// NewJob creates a Job metrics instance under the given meter name. The
// meter name should be shared across the binary (e.g. "chainguard.sweagent")
// with provider and outcome as dimensions on the recorded metrics.
func NewJob(meterName string) *Job {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	attempts, err := meter.Int64Counter("resolver.attempts",
		metric.WithDescription("The number of agent attempts executed"),
		metric.WithUnit("{attempts}"))
	if err != nil {
		slog.Warn("Failed to create attempts counter, metrics will be disabled", "error", err, "meter", meterName)
		attempts = noop.Int64Counter{}
	}

	tokens, err := meter.Int64Counter("resolver.tokens",
		metric.WithDescription("The number of model tokens consumed"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		tokens = noop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram("resolver.attempt.duration",
		metric.WithDescription("Wall-clock duration of each agent attempt"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("Failed to create duration histogram, metrics will be disabled", "error", err, "meter", meterName)
		duration = noop.Float64Histogram{}
	}

	cost, err := meter.Float64Counter("resolver.cost",
		metric.WithDescription("Estimated spend across attempts"),
		metric.WithUnit("{usd}"))
	if err != nil {
		slog.Warn("Failed to create cost counter, metrics will be disabled", "error", err, "meter", meterName)
		cost = noop.Float64Counter{}
	}

	return &Job{
		meter:    meter,
		attempts: attempts,
		tokens:   tokens,
		duration: duration,
		cost:     cost,
	}
}

// RecordAttempt records one finished attempt with its provider, model, and
// outcome as dimensions.
func (j *Job) RecordAttempt(ctx context.Context, provider, model, outcome string, tokensUsed int64, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	)
	j.attempts.Add(ctx, 1, attrs)
	j.tokens.Add(ctx, tokensUsed, attrs)
	j.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordCost records estimated spend for one attempt.
func (j *Job) RecordCost(ctx context.Context, provider, model string, usd float64) {
	j.cost.Add(ctx, usd, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	))
}
