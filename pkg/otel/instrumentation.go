// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation bundles the meter and tracer handed to the instrumented
// components. A nil value disables instrumentation.
type Instrumentation struct {
	Meter  metric.Meter
	Tracer trace.Tracer
}

// InstrumentationProvider hands out named instrumentation and flushes the
// exporters on Close.
type InstrumentationProvider interface {
	NewInstrumentation(name string) *Instrumentation
	Close() error
}

const errorTypeAttributeKey = "error.type"

func (i *Instrumentation) IsEnabled() bool {
	if i == nil {
		return false
	}
	return i.Meter != nil || i.Tracer != nil
}

// NewInstrumentationProvider returns a provider exporting the configured
// signals. With neither metrics nor traces configured the provider hands out
// nil instrumentation.
func NewInstrumentationProvider(cfg *Config) (InstrumentationProvider, error) {
	if !cfg.enabled() {
		return disabledProvider{}, nil
	}
	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// StartSpan starts a span when a tracer is available. Without one the input
// context is returned along with a nil span.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, nil
	}
	return tracer.Start(ctx, name, opts...)
}

// CloseSpan ends the span, marking it failed when err is set. Nil spans are
// ignored.
func CloseSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	defer span.End()

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err, trace.WithAttributes(
		attribute.String(errorTypeAttributeKey, fmt.Sprintf("%T", err)),
	))
	span.SetStatus(codes.Error, err.Error())
}

type disabledProvider struct{}

func (disabledProvider) NewInstrumentation(string) *Instrumentation { return nil }
func (disabledProvider) Close() error                               { return nil }
