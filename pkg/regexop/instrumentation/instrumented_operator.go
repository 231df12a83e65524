// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/regexop/pkg/operator"
	"github.com/xataio/regexop/pkg/otel"
	"github.com/xataio/regexop/pkg/record"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Operator wraps an operator and records a span, a counter and a latency
// histogram for every record it processes.
type Operator struct {
	operator.Operator
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *metrics
}

type metrics struct {
	records       metric.Int64Counter
	recordLatency metric.Int64Histogram
}

const (
	operatorNameAttributeKey = "operator_name"
	resultAttributeKey       = "result"
)

func NewOperator(op operator.Operator, instrumentation *otel.Instrumentation) (operator.Operator, error) {
	if !instrumentation.IsEnabled() {
		return op, nil
	}

	o := &Operator{
		Operator: op,
		tracer:   instrumentation.Tracer,
		meter:    instrumentation.Meter,
		metrics:  &metrics{},
	}

	if err := o.initMetrics(); err != nil {
		return nil, fmt.Errorf("initialising operator metrics: %w", err)
	}

	return o, nil
}

func (i *Operator) ProcessRecord(ctx context.Context, r *record.Record) (err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "regexop.ProcessRecord", trace.WithAttributes(i.nameAttribute()))
	defer func() { otel.CloseSpan(span, err) }()

	if i.meter != nil {
		startTime := time.Now()
		defer func() {
			attrs := metric.WithAttributes(i.nameAttribute(), resultAttribute(err))
			i.metrics.records.Add(ctx, 1, attrs)
			i.metrics.recordLatency.Record(ctx, time.Since(startTime).Milliseconds(), attrs)
		}()
	}

	return i.Operator.ProcessRecord(ctx, r)
}

func (i *Operator) initMetrics() error {
	if i.meter == nil {
		return nil
	}

	var err error
	i.metrics.records, err = i.meter.Int64Counter("regexop.records",
		metric.WithUnit("records"),
		metric.WithDescription("Number of records processed by the operator"))
	if err != nil {
		return err
	}

	i.metrics.recordLatency, err = i.meter.Int64Histogram("regexop.record.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Distribution of the time taken to process a record, including downstream processing"))
	if err != nil {
		return err
	}

	return nil
}

func (i *Operator) nameAttribute() attribute.KeyValue {
	return attribute.String(operatorNameAttributeKey, i.Operator.Name())
}

func resultAttribute(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String(resultAttributeKey, "error")
	}
	return attribute.String(resultAttributeKey, "ok")
}
