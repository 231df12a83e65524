// SPDX-License-Identifier: Apache-2.0

package operator

import (
	"context"

	loglib "github.com/xataio/regexop/pkg/log"
	"github.com/xataio/regexop/pkg/record"
)

// Processor is a general interface to receive and process a record
type Processor interface {
	ProcessRecord(ctx context.Context, r *record.Record) error
	Close() error
	Name() string
}

// Operator is a processor that transforms records of a known schema and
// forwards them to the next processor in the chain. Operators must be bound
// to the input schema before processing any record.
type Operator interface {
	Processor
	DescribeSchema(in record.Schema) (record.Schema, error)
	Bind(in record.Schema) error
	Snapshot() ([]byte, error)
}

// Property is one host configuration argument. SubArgs holds the nested
// arguments of the property, if any.
type Property struct {
	Name    string     `mapstructure:"name" yaml:"name" json:"name"`
	Value   string     `mapstructure:"value" yaml:"value" json:"value"`
	SubArgs []Property `mapstructure:"subArgs" yaml:"subArgs,omitempty" json:"subArgs,omitempty"`
}

type PropertyList []Property

// Params are the inputs used to build an operator instance. When State is not
// nil the operator is restored from it instead of built from Args.
type Params struct {
	Args   PropertyList
	State  []byte
	Next   Processor
	Logger loglib.Logger
}

type Factory func(ctx context.Context, params *Params) (Operator, error)
