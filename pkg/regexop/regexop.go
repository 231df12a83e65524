// SPDX-License-Identifier: Apache-2.0

package regexop

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	loglib "github.com/xataio/regexop/pkg/log"
	"github.com/xataio/regexop/pkg/operator"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/substitution"
)

const OperatorName = "regexop"

// Operator is a decorator around a processor that applies the configured
// substitution rules to the values of the configured columns before
// forwarding each record downstream.
type Operator struct {
	id       uuid.UUID
	logger   loglib.Logger
	rules    *substitution.RuleSet
	next     operator.Processor
	bindings []binding
	bound    bool
	closed   bool
}

type binding struct {
	column   string
	accessor *record.TextAccessor
	rules    []substitution.Rule
}

type Option func(o *Operator)

// New returns an operator built from the substitution declarations of the
// configuration. The operator must be bound to the input schema before it
// can process records.
func New(cfg *Config, next operator.Processor, opts ...Option) (*Operator, error) {
	o := newOperator(next, opts...)

	var err error
	o.rules, err = ParseRuleSet(cfg.Args, cfg.validationMode(), o.logger)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("regexop operator created", loglib.Fields{"columns": o.rules.Columns()})
	return o, nil
}

// NewFromSnapshot restores an operator from the state returned by Snapshot.
func NewFromSnapshot(state []byte, next operator.Processor, opts ...Option) (*Operator, error) {
	rules, err := substitution.Decode(state)
	if err != nil {
		return nil, fmt.Errorf("restoring operator state: %w", err)
	}
	o := NewWithRuleSet(rules, next, opts...)
	o.logger.Debug("regexop operator restored", loglib.Fields{"columns": rules.Columns()})
	return o, nil
}

// NewWithRuleSet returns an operator applying an already built rule set. The
// rule set must not be modified afterwards.
func NewWithRuleSet(rules *substitution.RuleSet, next operator.Processor, opts ...Option) *Operator {
	o := newOperator(next, opts...)
	o.rules = rules
	return o
}

func newOperator(next operator.Processor, opts ...Option) *Operator {
	o := &Operator{
		id:     uuid.New(),
		logger: loglib.NewNoopLogger(),
		next:   next,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithLogger(l loglib.Logger) Option {
	return func(o *Operator) {
		o.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField:   "regexop",
			loglib.OperatorField: o.id.String(),
		})
	}
}

// Register adds the regexop factory to the operator registry.
func Register(r *operator.Registry) error {
	return r.Register(OperatorName, func(_ context.Context, p *operator.Params) (operator.Operator, error) {
		opts := []Option{WithLogger(p.Logger)}
		if p.State != nil {
			return NewFromSnapshot(p.State, p.Next, opts...)
		}
		return New(&Config{Args: p.Args}, p.Next, opts...)
	})
}

func (o *Operator) ID() uuid.UUID {
	return o.id
}

func (o *Operator) Name() string {
	return OperatorName
}

// RuleSet returns the rules of the operator. It must not be modified.
func (o *Operator) RuleSet() *substitution.RuleSet {
	return o.rules
}

// DescribeSchema validates the input schema against the configured columns
// and returns the output schema, which mirrors the input one.
func (o *Operator) DescribeSchema(in record.Schema) (record.Schema, error) {
	if err := in.Validate(); err != nil {
		return record.Schema{}, &SchemaError{Err: err}
	}
	for _, column := range o.rules.Columns() {
		field, found := in.Field(column)
		if !found {
			return record.Schema{}, &SchemaError{Column: column, Err: record.ErrFieldNotFound}
		}
		if field.Type != record.UString {
			return record.Schema{}, &SchemaError{Column: column, Err: fmt.Errorf("%w: got %s", record.ErrNotUString, field.Type)}
		}
	}
	return record.Schema{Fields: slices.Clone(in.Fields)}, nil
}

// Bind resolves the configured columns against the input schema. It must be
// called before any record is processed. A failed bind leaves the operator
// unbound.
func (o *Operator) Bind(in record.Schema) error {
	if o.closed {
		return ErrClosed
	}
	o.bound = false
	o.bindings = nil
	if _, err := o.DescribeSchema(in); err != nil {
		o.logger.Error(err, "binding regexop operator")
		return err
	}

	columns := o.rules.Columns()
	bindings := make([]binding, 0, len(columns))
	for _, column := range columns {
		accessor, err := record.NewTextAccessor(in, column)
		if err != nil {
			return &SchemaError{Column: column, Err: err}
		}
		bindings = append(bindings, binding{
			column:   column,
			accessor: accessor,
			rules:    o.rules.RulesFor(column),
		})
	}
	o.bindings = bindings
	o.bound = true
	return nil
}

// ProcessRecord transforms the configured columns of the record and forwards
// the output record downstream. Records that fail a substitution are not
// forwarded.
func (o *Operator) ProcessRecord(ctx context.Context, r *record.Record) error {
	if o.closed {
		return ErrClosed
	}
	if !o.bound {
		return ErrNotBound
	}

	out := r.Transfer()
	for _, b := range o.bindings {
		if err := o.substitute(b, r, out); err != nil {
			o.logger.Error(err, "applying substitution rules", loglib.Fields{
				loglib.ColumnField:         err.Column,
				loglib.RecordPositionField: err.Position,
				loglib.ElementIndexField:   err.Element,
			})
			return err
		}
	}

	return o.next.ProcessRecord(ctx, out)
}

// Close finalizes the operator and the downstream processor.
func (o *Operator) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.next.Close()
}

// Snapshot returns the encoded rule set of the operator.
func (o *Operator) Snapshot() ([]byte, error) {
	return substitution.Encode(o.rules)
}

func (o *Operator) substitute(b binding, in, out *record.Record) *SubstitutionError {
	length, err := b.accessor.VectorLength(in)
	if err != nil {
		return &SubstitutionError{Column: b.column, Position: in.Position, Element: -1, Err: err}
	}

	for i := 0; i < length; i++ {
		value, err := b.accessor.At(in, i)
		if err != nil {
			return &SubstitutionError{Column: b.column, Position: in.Position, Element: i, Err: err}
		}
		if !value.Valid {
			continue
		}

		// rules apply in reverse declaration order
		result := value.Value
		for j := len(b.rules) - 1; j >= 0; j-- {
			result, err = b.rules[j].Apply(result)
			if err != nil {
				return &SubstitutionError{Column: b.column, Position: in.Position, Element: i, Err: err}
			}
		}

		if o.logger.IsTraceEnabled() {
			o.logger.Trace("substituted value", loglib.Fields{
				loglib.ColumnField:         b.column,
				loglib.RecordPositionField: in.Position,
				loglib.ElementIndexField:   i,
				"value":                    result,
			})
		}

		if err := b.accessor.Set(out, i, record.NewText(result)); err != nil {
			return &SubstitutionError{Column: b.column, Position: in.Position, Element: i, Err: err}
		}
	}
	return nil
}
