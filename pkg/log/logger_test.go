// SPDX-License-Identifier: Apache-2.0

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testLogger struct {
	Logger
	infos []string
}

func (l *testLogger) Info(msg string, _ ...Fields) {
	l.infos = append(l.infos, msg)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	noop := NewLogger(nil)
	require.Equal(t, noopLogger{}, noop)
	require.Equal(t, noop, noop.WithFields(Fields{ColumnField: "name"}))
	require.False(t, noop.IsTraceEnabled())
	noop.Error(nil, "discarded")

	l := &testLogger{Logger: NewNoopLogger()}
	NewLogger(l).Info("kept")
	require.Equal(t, []string{"kept"}, l.infos)
}
