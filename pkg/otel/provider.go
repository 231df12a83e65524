// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Provider exports regexop metrics and traces over OTLP/gRPC. Signals that
// are not configured fall back to noop providers.
type Provider struct {
	meters   metric.MeterProvider
	tracers  trace.TracerProvider
	shutdown []func(context.Context) error
}

type shutdownFn func(context.Context) error

const shutdownTimeout = 5 * time.Second

func NewProvider(ctx context.Context, cfg *Config) (*Provider, error) {
	res := newResource()
	p := &Provider{}

	meters, shutdownMeters, err := newMeterProvider(ctx, cfg.Metrics, res)
	if err != nil {
		return nil, fmt.Errorf("metrics exporter: %w", err)
	}
	p.meters = meters
	p.register(shutdownMeters)

	tracers, shutdownTracers, err := newTracerProvider(ctx, cfg.Traces, res)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("traces exporter: %w", err), p.Close())
	}
	p.tracers = tracers
	p.register(shutdownTracers)

	otel.SetMeterProvider(p.meters)
	otel.SetTracerProvider(p.tracers)
	return p, nil
}

func (p *Provider) NewInstrumentation(name string) *Instrumentation {
	return &Instrumentation{
		Meter:  p.meters.Meter(name),
		Tracer: p.tracers.Tracer(name),
	}
}

// Close flushes and stops every exporter, reporting all shutdown failures.
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(p.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, p.shutdown[i](ctx))
	}
	p.shutdown = nil
	return errors.Join(errs...)
}

func (p *Provider) register(fn shutdownFn) {
	if fn != nil {
		p.shutdown = append(p.shutdown, fn)
	}
}

func newMeterProvider(ctx context.Context, cfg *MetricsConfig, res *resource.Resource) (metric.MeterProvider, shutdownFn, error) {
	if cfg == nil {
		return metricnoop.NewMeterProvider(), nil, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithTemporalitySelector(deltaTemporality),
	)
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.collectionInterval()))),
	)

	if cfg.RuntimeMetrics {
		if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("runtime metrics: %w", err), mp.Shutdown(ctx))
		}
	}
	return mp, mp.Shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg *TracesConfig, res *resource.Resource) (trace.TracerProvider, shutdownFn, error) {
	if cfg == nil {
		return tracenoop.NewTracerProvider(), nil, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	return tp, tp.Shutdown, nil
}

// deltaTemporality reports monotonic instruments as deltas so that collector
// restarts don't drop the data points accumulated before them. Up/down
// counters stay cumulative.
func deltaTemporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	switch kind {
	case sdkmetric.InstrumentKindUpDownCounter, sdkmetric.InstrumentKindObservableUpDownCounter:
		return metricdata.CumulativeTemporality
	default:
		return metricdata.DeltaTemporality
	}
}
