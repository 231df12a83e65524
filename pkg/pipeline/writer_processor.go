// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"github.com/xataio/regexop/pkg/record"
)

// writerProcessor is the last processor of every partition chain. It writes
// the output records and acknowledges them to the source.
type writerProcessor struct {
	writer Writer
}

func (w *writerProcessor) ProcessRecord(ctx context.Context, r *record.Record) error {
	if err := w.writer.WriteRecord(ctx, r); err != nil {
		return fmt.Errorf("writing record %d: %w", r.Position, err)
	}
	if err := r.Ack(ctx); err != nil {
		return fmt.Errorf("acknowledging record %d: %w", r.Position, err)
	}
	return nil
}

// Close is a noop, the writer is shared by all partitions and closed by its
// owner.
func (w *writerProcessor) Close() error {
	return nil
}

func (w *writerProcessor) Name() string {
	return "writer"
}
