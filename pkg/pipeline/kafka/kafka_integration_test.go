// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xataio/regexop/internal/testcontainers"
	"github.com/xataio/regexop/pkg/kafka"
	"github.com/xataio/regexop/pkg/operator"
	"github.com/xataio/regexop/pkg/pipeline"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/record/json"
)

func Test_KafkaPipeline(t *testing.T) {
	if os.Getenv("REGEXOP_INTEGRATION_TESTS") == "" {
		t.Skip("skipping integration test...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, kafkaCleanup, err := testcontainers.StartKafka(ctx)
	require.NoError(t, err)
	defer kafkaCleanup()

	inConn := kafka.ConnConfig{Servers: brokers, Topic: kafka.TopicConfig{Name: "regexop-in", AutoCreate: true}}
	outConn := kafka.ConnConfig{Servers: brokers, Topic: kafka.TopicConfig{Name: "regexop-out", AutoCreate: true}}

	producer, err := kafka.NewWriter(kafka.WriterConfig{Conn: inConn, BatchTimeout: 10 * time.Millisecond}, nil)
	require.NoError(t, err)
	const total = 10
	msgs := make([]kafka.Message, 0, total+1)
	for i := 0; i < total; i++ {
		msgs = append(msgs, kafka.Message{Value: []byte(fmt.Sprintf(`{"id":"A%03d","name":"John   Doe"}`, i))})
	}
	// end of input marker
	msgs = append(msgs, kafka.Message{})
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
	require.NoError(t, producer.Close())

	codec, err := json.NewCodec(record.Schema{Fields: []record.Field{
		{Name: "id", Type: record.UString},
		{Name: "name", Type: record.UString},
	}}, json.WithKeyField("id"))
	require.NoError(t, err)
	in, err := kafka.NewReader(kafka.ReaderConfig{Conn: inConn, ConsumerGroupID: "regexop-test"}, nil)
	require.NoError(t, err)
	out, err := kafka.NewWriter(kafka.WriterConfig{Conn: outConn, BatchTimeout: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	reader := NewReader(in, codec, WithStopOnEmptyMessage())
	writer := NewWriter(out, codec)
	err = pipeline.Run(ctx, &pipeline.Config{
		Partitions: 2,
		Schema:     codec.Schema(),
		Args: operator.PropertyList{
			{Name: "column", Value: "name", SubArgs: []operator.Property{
				{Name: "pattern", Value: `'\s+'`},
				{Name: "replacement", Value: `' '`},
			}},
			{Name: "column", Value: "id", SubArgs: []operator.Property{
				{Name: "pattern", Value: `'^A'`},
				{Name: "replacement", Value: `'B'`},
			}},
		},
	}, reader, writer)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	require.NoError(t, writer.Close())

	consumer, err := kafka.NewReader(kafka.ReaderConfig{Conn: outConn, ConsumerGroupID: "regexop-test-out"}, nil)
	require.NoError(t, err)
	defer consumer.Close()

	ids := map[string]struct{}{}
	for len(ids) < total {
		msg, err := consumer.FetchMessage(ctx)
		require.NoError(t, err)
		rec, err := codec.Decode(msg.Value, 0)
		require.NoError(t, err)
		require.Equal(t, record.NewText("John Doe"), rec.Values[1])
		ids[string(rec.Key)] = struct{}{}
	}
	for i := 0; i < total; i++ {
		require.Contains(t, ids, fmt.Sprintf("B%03d", i))
	}
}
