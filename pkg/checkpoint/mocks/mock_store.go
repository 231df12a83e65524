// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/regexop/pkg/checkpoint"
)

type Store struct {
	SaveFn    func(ctx context.Context, c *checkpoint.Checkpoint) error
	LoadFn    func(ctx context.Context, key string) (*checkpoint.Checkpoint, error)
	CloseFn   func() error
	saveCalls atomic.Uint64
}

func (m *Store) Save(ctx context.Context, c *checkpoint.Checkpoint) error {
	m.saveCalls.Add(1)
	return m.SaveFn(ctx, c)
}

func (m *Store) Load(ctx context.Context, key string) (*checkpoint.Checkpoint, error) {
	return m.LoadFn(ctx, key)
}

func (m *Store) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}

func (m *Store) GetSaveCalls() uint64 {
	return m.saveCalls.Load()
}
