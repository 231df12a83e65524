// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"fmt"

	"github.com/xataio/regexop/pkg/kafka"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/record/json"
)

// Writer produces JSON records to a kafka topic, keyed by the record key.
// Writes are synchronous, a record is only acknowledged once kafka has
// accepted it.
type Writer struct {
	writer kafka.MessageWriter
	codec  *json.Codec
}

func NewWriter(writer kafka.MessageWriter, codec *json.Codec) *Writer {
	return &Writer{
		writer: writer,
		codec:  codec,
	}
}

func (w *Writer) WriteRecord(ctx context.Context, r *record.Record) error {
	value, err := w.codec.Encode(r)
	if err != nil {
		return fmt.Errorf("encoding record %d: %w", r.Position, err)
	}
	if err := w.writer.WriteMessages(ctx, kafka.Message{Key: r.Key, Value: value}); err != nil {
		return fmt.Errorf("producing record %d: %w", r.Position, err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
