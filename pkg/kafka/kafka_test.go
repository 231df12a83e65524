// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestConnConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := ConnConfig{}
	require.Equal(t, defaultDialTimeout, cfg.dialTimeout())
	require.Equal(t, kafka.TopicConfig{NumPartitions: 1, ReplicationFactor: 1}, cfg.Topic.topicConfig())

	cfg = ConnConfig{
		DialTimeout: time.Second,
		Topic:       TopicConfig{Name: "records", NumPartitions: 4, ReplicationFactor: 3},
	}
	require.Equal(t, time.Second, cfg.dialTimeout())
	require.Equal(t, kafka.TopicConfig{Topic: "records", NumPartitions: 4, ReplicationFactor: 3}, cfg.Topic.topicConfig())
}

func TestReaderConfig_StartOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		startOffset string
		want        int64
		wantErr     bool
	}{
		{startOffset: "", want: kafka.FirstOffset},
		{startOffset: earliestOffset, want: kafka.FirstOffset},
		{startOffset: latestOffset, want: kafka.LastOffset},
		{startOffset: "middle", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.startOffset, func(t *testing.T) {
			t.Parallel()

			cfg := ReaderConfig{ConsumerGroupStartOffset: tc.startOffset}
			got, err := cfg.startOffset()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNewReader(t *testing.T) {
	t.Parallel()

	_, err := NewReader(ReaderConfig{ConsumerGroupStartOffset: "middle"}, nil)
	require.Error(t, err)

	r, err := NewReader(ReaderConfig{
		Conn:                     ConnConfig{Servers: []string{"localhost:9092"}, Topic: TopicConfig{Name: "records"}},
		ConsumerGroupID:          "regexop",
		ConsumerGroupStartOffset: latestOffset,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestHighestOffsets(t *testing.T) {
	t.Parallel()

	got := highestOffsets([]*Offset{
		{Topic: "in", Partition: 1, Offset: 4},
		nil,
		{Topic: "in", Partition: 0, Offset: 9},
		{Topic: "in", Partition: 1, Offset: 7},
		{Topic: "in", Partition: 1, Offset: 5},
		{Topic: "other", Partition: 1, Offset: 1},
	})
	require.Equal(t, []kafka.Message{
		{Topic: "in", Partition: 1, Offset: 7},
		{Topic: "in", Partition: 0, Offset: 9},
		{Topic: "other", Partition: 1, Offset: 1},
	}, got)

	require.Empty(t, highestOffsets(nil))
}

func TestMessage(t *testing.T) {
	t.Parallel()

	require.True(t, Message{Key: []byte("k")}.IsEmpty())
	require.False(t, Message{Value: []byte("{}")}.IsEmpty())
	require.Equal(t, &Offset{Topic: "in", Partition: 2, Offset: 3}, Message{Topic: "in", Partition: 2, Offset: 3}.Position())
}
