// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/regexop/pkg/record"
)

type Processor struct {
	ProcessRecordFn func(ctx context.Context, r *record.Record) error
	CloseFn         func() error
	processCalls    atomic.Uint64
}

func (m *Processor) ProcessRecord(ctx context.Context, r *record.Record) error {
	m.processCalls.Add(1)
	if m.ProcessRecordFn == nil {
		return nil
	}
	return m.ProcessRecordFn(ctx, r)
}

func (m *Processor) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}

func (m *Processor) Name() string {
	return "mock"
}

func (m *Processor) GetProcessCalls() uint64 {
	return m.processCalls.Load()
}
