// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"github.com/rs/zerolog"

	loglib "github.com/xataio/regexop/pkg/log"
)

// Logger adapts a zerolog logger to the regexop logger interface. Fields set
// with WithFields are rendered once into the child logger context.
type Logger struct {
	zl zerolog.Logger
}

// string and byte values larger than this are truncated so that big record
// values don't flood the logs
const logMaxBytes = 10000

func NewLogger(zl *zerolog.Logger) *Logger {
	return &Logger{zl: *zl}
}

func (l *Logger) Trace(msg string, fields ...loglib.Fields) {
	send(l.zl.Trace(), msg, fields)
}

func (l *Logger) Debug(msg string, fields ...loglib.Fields) {
	send(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...loglib.Fields) {
	send(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(err error, msg string, fields ...loglib.Fields) {
	send(l.zl.Warn().Err(err), msg, fields)
}

func (l *Logger) Error(err error, msg string, fields ...loglib.Fields) {
	send(l.zl.Error().Err(err), msg, fields)
}

func (l *Logger) Panic(msg string, fields ...loglib.Fields) {
	send(l.zl.Panic(), msg, fields)
}

func (l *Logger) IsTraceEnabled() bool {
	return l.zl.GetLevel() <= zerolog.TraceLevel
}

func (l *Logger) WithFields(fields loglib.Fields) loglib.Logger {
	return &Logger{zl: l.zl.With().Fields(truncated(fields)).Logger()}
}

// send is a noop for events of a disabled level.
func send(event *zerolog.Event, msg string, fields []loglib.Fields) {
	if event == nil {
		return
	}
	for _, f := range fields {
		event = event.Fields(truncated(f))
	}
	event.Msg(msg)
}

func truncated(fields loglib.Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch v := v.(type) {
		case string:
			if len(v) > logMaxBytes {
				v = v[:logMaxBytes]
			}
			out[k] = v
		case []byte:
			if len(v) > logMaxBytes {
				v = v[:logMaxBytes]
			}
			out[k] = string(v)
		default:
			out[k] = v
		}
	}
	return out
}
