// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/regexop/pkg/record"
)

func TestRoute(t *testing.T) {
	t.Parallel()

	withSourcePartition := func(p int) *record.Record {
		r := &record.Record{Key: []byte("ignored")}
		r.SetSourcePartition(p)
		return r
	}

	require.Equal(t, 0, route(&record.Record{Key: []byte("a"), Position: 5}, 1))
	require.Equal(t, 2, route(withSourcePartition(6), 4))
	require.Equal(t, 3, route(&record.Record{Position: 7}, 4))

	// same key, same partition
	p := route(&record.Record{Key: []byte("user-1"), Position: 1}, 8)
	for i := 0; i < 10; i++ {
		require.Equal(t, p, route(&record.Record{Key: []byte("user-1"), Position: int64(i)}, 8))
	}

	// keys spread over the partitions
	seen := map[int]struct{}{}
	for i := 0; i < 200; i++ {
		seen[route(&record.Record{Key: []byte{byte(i), byte(i >> 8)}}, 4)] = struct{}{}
	}
	require.Len(t, seen, 4)
}
