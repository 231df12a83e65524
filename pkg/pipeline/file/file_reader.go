// SPDX-License-Identifier: Apache-2.0

package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xataio/regexop/internal/progress"
	loglib "github.com/xataio/regexop/pkg/log"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/record/json"
)

// Reader reads newline delimited JSON documents and decodes them into
// records. Blank lines are skipped. The record position is the index of the
// document in the input.
type Reader struct {
	scanner  *bufio.Scanner
	codec    *json.Codec
	closer   io.Closer
	bar      progress.Bar
	logger   loglib.Logger
	position int64
}

type ReaderConfig struct {
	// Path of the input file. Stdin is used when empty or "-".
	Path string
	// MaxLineBytes is the maximum size of a document. Defaults to 10MiB.
	MaxLineBytes int
	// ShowProgress renders a progress bar on stderr. Ignored for stdin.
	ShowProgress bool
}

type ReaderOption func(*Reader)

const (
	stdio               = "-"
	defaultMaxLineBytes = 10 * 1024 * 1024
	initialBufferBytes  = 64 * 1024
)

// NewReader returns a reader of the documents in in. The reader doesn't close
// in.
func NewReader(in io.Reader, codec *json.Codec, maxLineBytes int, opts ...ReaderOption) *Reader {
	r := &Reader{
		codec:  codec,
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.bar != nil {
		in = progress.NewReader(in, r.bar)
	}
	if maxLineBytes <= 0 {
		maxLineBytes = defaultMaxLineBytes
	}
	r.scanner = bufio.NewScanner(in)
	r.scanner.Buffer(make([]byte, 0, min(initialBufferBytes, maxLineBytes)), maxLineBytes)
	return r
}

// OpenReader opens the configured input. Closing the reader closes the input
// file.
func OpenReader(cfg *ReaderConfig, codec *json.Codec, opts ...ReaderOption) (*Reader, error) {
	if cfg.Path == "" || cfg.Path == stdio {
		if cfg.ShowProgress {
			opts = append(opts, WithProgressBar(progress.NewBytesBar(-1, "reading records")))
		}
		return NewReader(os.Stdin, codec, cfg.MaxLineBytes, opts...), nil
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	if cfg.ShowProgress {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("reading input file size: %w", err)
		}
		opts = append(opts, WithProgressBar(progress.NewBytesBar(info.Size(), "reading records")))
	}

	r := NewReader(f, codec, cfg.MaxLineBytes, opts...)
	r.closer = f
	return r, nil
}

func WithReaderLogger(l loglib.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "file_reader",
		})
	}
}

func WithProgressBar(bar progress.Bar) ReaderOption {
	return func(r *Reader) {
		r.bar = bar
	}
}

// ReadRecord returns the next record, or io.EOF once the input is exhausted.
func (r *Reader) ReadRecord(ctx context.Context) (*record.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading document %d: %w", r.position, err)
			}
			return nil, io.EOF
		}

		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// the scanner reuses its buffer
		doc := bytes.Clone(line)
		rec, err := r.codec.Decode(doc, r.position)
		if err != nil {
			return nil, err
		}
		r.position++
		return rec, nil
	}
}

func (r *Reader) Close() error {
	if r.bar != nil {
		if err := r.bar.Close(); err != nil {
			r.logger.Warn(err, "closing progress bar")
		}
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
