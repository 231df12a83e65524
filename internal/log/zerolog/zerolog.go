// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path"
	"strconv"
	"time"

	loglib "github.com/xataio/regexop/pkg/log"
	zerologlib "github.com/xataio/regexop/pkg/log/zerolog"

	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

type Config struct {
	LogLevel string
	// Format is either console (default) or json.
	Format string
	// Output defaults to stderr, records may be streamed on stdout.
	Output io.Writer
}

const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.ErrorFieldName = "error.message"
	zerolog.ErrorStackFieldName = "error.stack"
	// zerologr would duplicate the level as a v field
	zerologr.VerbosityFieldName = ""
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return path.Base(file) + ":" + strconv.Itoa(line)
	}
}

// NewLogger builds the process logger. Trace and debug events are sampled,
// since per record logs of the substitution hot path sit on those levels: at
// most 100 trace events per minute, and one in 5 debug events once 1000 were
// emitted in the same minute.
func NewLogger(cfg *Config) (*zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		var err error
		if level, err = zerolog.ParseLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	switch cfg.Format {
	case "", ConsoleFormat:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339Nano}
	case JSONFormat:
	default:
		return nil, fmt.Errorf("unsupported log format %q, must be one of [%s, %s]", cfg.Format, ConsoleFormat, JSONFormat)
	}

	logger := zerolog.New(out).
		Level(level).
		Sample(zerolog.LevelSampler{
			TraceSampler: &zerolog.BurstSampler{Burst: 100, Period: time.Minute},
			DebugSampler: &zerolog.BurstSampler{
				Burst:       1000,
				Period:      time.Minute,
				NextSampler: &zerolog.BasicSampler{N: 5},
			},
		}).
		With().Timestamp().Caller().Stack().
		Logger()
	return &logger, nil
}

// SetGlobalLogger routes the stdlib log package, the zerolog global logger
// and the opentelemetry sdk internal logs to the given logger.
func SetGlobalLogger(logger *zerolog.Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger)

	log.Logger = *logger
	zerolog.DefaultContextLogger = logger

	otel.SetLogger(zerologr.New(logger))
}

func NewStdLogger(l *zerolog.Logger) loglib.Logger {
	return zerologlib.NewLogger(l)
}
