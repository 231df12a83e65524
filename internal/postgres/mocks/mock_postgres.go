// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/regexop/internal/postgres"
)

// Querier calls ExecFn with the 1-based number of the Exec call.
type Querier struct {
	QueryRowFn func(ctx context.Context, query string, args ...any) postgres.Row
	ExecFn     func(ctx context.Context, call uint, query string, args ...any) (postgres.CommandTag, error)
	PingFn     func(context.Context) error
	CloseFn    func(context.Context) error

	execCalls atomic.Uint32
}

func (m *Querier) QueryRow(ctx context.Context, query string, args ...any) postgres.Row {
	return m.QueryRowFn(ctx, query, args...)
}

func (m *Querier) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	return m.ExecFn(ctx, uint(m.execCalls.Add(1)), query, args...)
}

func (m *Querier) Ping(ctx context.Context) error {
	if m.PingFn == nil {
		return nil
	}
	return m.PingFn(ctx)
}

func (m *Querier) Close(ctx context.Context) error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn(ctx)
}

func (m *Querier) ExecCalls() uint {
	return uint(m.execCalls.Load())
}

// Row scans with ScanFn, or reports no rows when it's not set.
type Row struct {
	ScanFn func(dest ...any) error
}

func (m *Row) Scan(dest ...any) error {
	if m.ScanFn == nil {
		return postgres.ErrNoRows
	}
	return m.ScanFn(dest...)
}
