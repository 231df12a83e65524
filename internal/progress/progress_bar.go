// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar is the subset of the progress bar used by the readers.
type Bar interface {
	Add64(int64) error
	Close() error
}

// NewBytesBar renders the bytes processed out of totalBytes on stderr,
// records may be written to stdout. A negative total renders a spinner.
func NewBytesBar(totalBytes int64, description string) Bar {
	return newBytesBar(os.Stderr, totalBytes, description)
}

func newBytesBar(w io.Writer, totalBytes int64, description string) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	}
	if totalBytes >= 0 {
		opts = append(opts,
			progressbar.OptionShowTotalBytes(true),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[cyan]#[reset]",
				SaucerPadding: ".",
				BarStart:      "|",
				BarEnd:        "|",
			}),
		)
	}
	return progressbar.NewOptions64(totalBytes, opts...)
}

// Reader reports the bytes read from the inner reader to the bar.
type Reader struct {
	inner io.Reader
	bar   Bar
}

func NewReader(inner io.Reader, bar Bar) *Reader {
	return &Reader{inner: inner, bar: bar}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		// rendering errors must not fail the read
		_ = r.bar.Add64(int64(n))
	}
	return n, err
}
