// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/xataio/regexop/pkg/record"
)

type Reader struct {
	ReadRecordFn func(ctx context.Context) (*record.Record, error)
	CloseFn      func() error
}

func (m *Reader) ReadRecord(ctx context.Context) (*record.Record, error) {
	return m.ReadRecordFn(ctx)
}

func (m *Reader) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}

type Writer struct {
	WriteRecordFn func(ctx context.Context, r *record.Record) error
	CloseFn       func() error
}

func (m *Writer) WriteRecord(ctx context.Context, r *record.Record) error {
	return m.WriteRecordFn(ctx, r)
}

func (m *Writer) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}
