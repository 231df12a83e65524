// SPDX-License-Identifier: Apache-2.0

package log

// Logger is the structured logger used across regexop. Implementations must be
// safe to share between pipeline partitions.
type Logger interface {
	Trace(msg string, fields ...Fields)
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(err error, msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	Panic(msg string, fields ...Fields)
	WithFields(fields Fields) Logger
	IsTraceEnabled() bool
}

type Fields map[string]any

// Common field names, kept consistent so log lines can be filtered across
// components.
const (
	ModuleField         = "module"
	OperatorField       = "operator"
	PartitionField      = "partition"
	ColumnField         = "column"
	RecordPositionField = "record_position"
	ElementIndexField   = "element_index"
)

// NewNoopLogger returns a logger discarding everything.
func NewNoopLogger() Logger {
	return noopLogger{}
}

// NewLogger returns l, or a noop logger when l is nil.
func NewLogger(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...Fields)        {}
func (noopLogger) Debug(string, ...Fields)        {}
func (noopLogger) Info(string, ...Fields)         {}
func (noopLogger) Warn(error, string, ...Fields)  {}
func (noopLogger) Error(error, string, ...Fields) {}
func (noopLogger) Panic(string, ...Fields)        {}
func (noopLogger) IsTraceEnabled() bool           { return false }
func (l noopLogger) WithFields(Fields) Logger     { return l }
