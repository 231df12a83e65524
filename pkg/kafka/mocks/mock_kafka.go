// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync"

	"github.com/xataio/regexop/pkg/kafka"
)

type Reader struct {
	FetchMessageFn  func(ctx context.Context) (*kafka.Message, error)
	CommitOffsetsFn func(ctx context.Context, offsets ...*kafka.Offset) error
	CloseFn         func() error
}

func (m *Reader) FetchMessage(ctx context.Context) (*kafka.Message, error) {
	return m.FetchMessageFn(ctx)
}

func (m *Reader) CommitOffsets(ctx context.Context, offsets ...*kafka.Offset) error {
	if m.CommitOffsetsFn == nil {
		return nil
	}
	return m.CommitOffsetsFn(ctx, offsets...)
}

func (m *Reader) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}

// Writer keeps the messages of every successful write.
type Writer struct {
	WriteMessagesFn func(ctx context.Context, msgs ...kafka.Message) error
	CloseFn         func() error

	mu       sync.Mutex
	messages []kafka.Message
}

func (m *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.WriteMessagesFn != nil {
		if err := m.WriteMessagesFn(ctx, msgs...); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *Writer) Messages() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Message(nil), m.messages...)
}

func (m *Writer) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}
