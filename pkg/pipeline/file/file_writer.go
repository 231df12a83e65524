// SPDX-License-Identifier: Apache-2.0

package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/record/json"
)

// Writer encodes records as newline delimited JSON documents. It is safe for
// concurrent use.
type Writer struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	codec  *json.Codec
	closer io.Closer
	closed bool
}

type WriterConfig struct {
	// Path of the output file. Stdout is used when empty or "-".
	Path string
}

// NewWriter returns a writer of documents to out. The writer doesn't close
// out.
func NewWriter(out io.Writer, codec *json.Codec) *Writer {
	return &Writer{
		buf:   bufio.NewWriter(out),
		codec: codec,
	}
}

// OpenWriter creates the configured output file, truncating it if it exists.
// Closing the writer closes the file.
func OpenWriter(cfg *WriterConfig, codec *json.Codec) (*Writer, error) {
	if cfg.Path == "" || cfg.Path == stdio {
		return NewWriter(os.Stdout, codec), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	w := NewWriter(f, codec)
	w.closer = f
	return w, nil
}

func (w *Writer) WriteRecord(_ context.Context, r *record.Record) error {
	doc, err := w.codec.Encode(r)
	if err != nil {
		return fmt.Errorf("encoding record %d: %w", r.Position, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return os.ErrClosed
	}
	if _, err := w.buf.Write(doc); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// Close flushes the buffered documents. It is idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && flushErr == nil {
			return err
		}
	}
	return flushErr
}
