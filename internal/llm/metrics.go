package llm

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type completionMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metricsOK   bool
	llmMetrics  completionMetrics
)

// The global meter delegates to whatever provider is installed later, so
// instruments can be created before observability.Setup runs.
func ensureMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("pain-diagnosis/llm")

		requestCount, err := meter.Int64Counter(
			"ai.completion.request.count",
			metric.WithDescription("Number of completion requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.completion.request.duration",
			metric.WithDescription("Completion request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.completion.request.errors",
			metric.WithDescription("Number of failed completion requests"),
		)
		if err != nil {
			return
		}
		llmMetrics = completionMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
		metricsOK = true
	})
}

func recordCompletion(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	ensureMetrics()
	if !metricsOK {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openrouter"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	llmMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	llmMetrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		llmMetrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
