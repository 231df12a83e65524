// SPDX-License-Identifier: Apache-2.0

package mocks

import "github.com/xataio/regexop/pkg/record"

type Operator struct {
	Processor
	DescribeSchemaFn func(in record.Schema) (record.Schema, error)
	BindFn           func(in record.Schema) error
	SnapshotFn       func() ([]byte, error)
}

func (m *Operator) DescribeSchema(in record.Schema) (record.Schema, error) {
	if m.DescribeSchemaFn == nil {
		return in, nil
	}
	return m.DescribeSchemaFn(in)
}

func (m *Operator) Bind(in record.Schema) error {
	if m.BindFn == nil {
		return nil
	}
	return m.BindFn(in)
}

func (m *Operator) Snapshot() ([]byte, error) {
	if m.SnapshotFn == nil {
		return nil, nil
	}
	return m.SnapshotFn()
}
