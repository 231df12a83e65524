// SPDX-License-Identifier: Apache-2.0

package record

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecord_Transfer(t *testing.T) {
	t.Parallel()

	in := &Record{
		Key:      []byte("k"),
		Position: 7,
		Values: []any{
			int64(1),
			NewText("alice"),
			[]Text{NewText("a"), NullText()},
		},
		Raw: []byte(`{"id":1}`),
	}
	in.SetSourcePartition(3)

	out := in.Transfer()
	require.Equal(t, in.Key, out.Key)
	require.Equal(t, in.Position, out.Position)
	require.Equal(t, in.Values, out.Values)
	p, ok := out.SourcePartition()
	require.True(t, ok)
	require.Equal(t, 3, p)

	out.Values[1] = NewText("bob")
	out.Values[2].([]Text)[0] = NewText("z")

	require.Equal(t, NewText("alice"), in.Values[1])
	require.Equal(t, NewText("a"), in.Values[2].([]Text)[0])
}

func TestRecord_Ack(t *testing.T) {
	t.Parallel()

	r := &Record{}
	require.NoError(t, r.Ack(context.Background()))
	_, ok := r.SourcePartition()
	require.False(t, ok)

	errTest := errors.New("oh noes")
	acked := 0
	r.SetAck(func(context.Context) error {
		acked++
		return errTest
	})
	// the ack function is shared with the transferred copy
	err := r.Transfer().Ack(context.Background())
	require.ErrorIs(t, err, errTest)
	require.Equal(t, 1, acked)
}
