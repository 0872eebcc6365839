package refactor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("pyrewrite.refactor")
	meter  = otel.Meter("pyrewrite.refactor")
)

var (
	mutationTotal   metric.Int64Counter
	mutationLatency metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		mutationTotal, err = meter.Int64Counter(
			"pyrewrite_mutations_total",
			metric.WithDescription("Total number of refactor engine mutations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		mutationLatency, err = meter.Float64Histogram(
			"pyrewrite_mutation_duration_seconds",
			metric.WithDescription("Duration of refactor engine mutations, including the reparse"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func recordMutationMetrics(ctx context.Context, kind string, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", success),
	)
	mutationTotal.Add(ctx, 1, attrs)
	mutationLatency.Record(ctx, duration.Seconds(), attrs)
}

// startMutationSpan creates a span for one engine mutation. The caller
// must end it.
func startMutationSpan(ctx context.Context, engine, kind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine."+kind,
		trace.WithAttributes(
			attribute.String("pyrewrite.engine", engine),
			attribute.String("pyrewrite.mutation", kind),
		),
	)
}
