package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the OTel instruments exported through the Prometheus
// registry. A zero value is usable and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	batchCounter  otelmetric.Int64Counter
	evaluated     otelmetric.Int64Counter
	returned      otelmetric.Int64Counter
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider}

	if o.jobCounter, err = meter.Int64Counter("jobs.processed",
		otelmetric.WithDescription("Number of jobs processed")); err != nil {
		return o, err
	}
	if o.jobDuration, err = meter.Float64Histogram("jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms")); err != nil {
		return o, err
	}
	if o.batchCounter, err = meter.Int64Counter("matching.batches",
		otelmetric.WithDescription("Match batches run")); err != nil {
		return o, err
	}
	if o.evaluated, err = meter.Int64Counter("matching.neighborhoods.evaluated",
		otelmetric.WithDescription("Neighborhoods scored")); err != nil {
		return o, err
	}
	if o.returned, err = meter.Int64Counter("matching.neighborhoods.returned",
		otelmetric.WithDescription("Neighborhoods returned after filtering")); err != nil {
		return o, err
	}

	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// RecordMatchBatch counts one FindMatches call and its funnel.
func (o *Observability) RecordMatchBatch(ctx context.Context, evaluated, returned int) {
	if o.batchCounter == nil {
		return
	}
	o.batchCounter.Add(ctx, 1)
	o.evaluated.Add(ctx, int64(evaluated))
	o.returned.Add(ctx, int64(returned))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
