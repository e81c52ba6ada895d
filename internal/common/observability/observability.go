package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	dispatchCount  otelmetric.Int64Counter
	dispatchTime   otelmetric.Float64Histogram
}

func New(serviceName, jaegerEndpoint string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	dispatchCount, _ := meter.Int64Counter(
		"dispatch.runs",
		otelmetric.WithDescription("Number of fan-out runs executed"),
	)

	dispatchTime, _ := meter.Float64Histogram(
		"dispatch.duration",
		otelmetric.WithDescription("Fan-out run duration"),
		otelmetric.WithUnit("ms"),
	)

	o := &Observability{
		meterProvider: provider,
		meter:         meter,
		dispatchCount: dispatchCount,
		dispatchTime:  dispatchTime,
	}

	if jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
			o.tracer = tp.Tracer(serviceName)
		}
	}

	return o
}

// StartSpan opens a span when tracing is configured; otherwise it is a no-op.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name)
}

func (o *Observability) RecordDispatchRun(ctx context.Context, destination string) {
	if o.dispatchCount != nil {
		o.dispatchCount.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("destination", destination),
		))
	}
}

func (o *Observability) RecordDispatchDuration(ctx context.Context, duration time.Duration, destination string) {
	if o.dispatchTime != nil {
		o.dispatchTime.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("destination", destination),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
