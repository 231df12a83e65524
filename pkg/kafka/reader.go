// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	loglib "github.com/xataio/regexop/pkg/log"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (*Message, error)
	CommitOffsets(ctx context.Context, offsets ...*Offset) error
	Close() error
}

// Offset identifies the position of a message in a topic partition.
type Offset struct {
	Topic     string
	Partition int
	Offset    int64
}

// Reader consumes a topic as part of a consumer group. Offsets are never
// committed automatically.
type Reader struct {
	reader *kafka.Reader
}

func NewReader(cfg ReaderConfig, logger loglib.Logger) (*Reader, error) {
	logger = loglib.NewLogger(logger).WithFields(loglib.Fields{
		"kafka_servers":  cfg.Conn.Servers,
		"kafka_topic":    cfg.Conn.Topic.Name,
		"consumer_group": cfg.ConsumerGroupID,
	})

	startOffset, err := cfg.startOffset()
	if err != nil {
		return nil, err
	}

	if cfg.Conn.Topic.AutoCreate {
		if err := ensureTopic(context.Background(), &cfg.Conn, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("kafka reader created")
	return &Reader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Conn.Servers,
			Topic:          cfg.Conn.Topic.Name,
			GroupID:        cfg.ConsumerGroupID,
			StartOffset:    startOffset,
			MaxBytes:       maxFetchBytes,
			CommitInterval: 0,
			Dialer:         newDialer(&cfg.Conn),
			Logger:         kafkaLogger{logger: logger},
			ErrorLogger:    kafkaLogger{logger: logger, errors: true},
		}),
	}, nil
}

// FetchMessage blocks until the next message is available or the context is
// done.
func (r *Reader) FetchMessage(ctx context.Context) (*Message, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	m := Message(msg)
	return &m, nil
}

// CommitOffsets commits the highest of the given offsets for every topic
// partition.
func (r *Reader) CommitOffsets(ctx context.Context, offsets ...*Offset) error {
	msgs := highestOffsets(offsets)
	if len(msgs) == 0 {
		return nil
	}
	if err := r.reader.CommitMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("committing offsets: %w", err)
	}
	return nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func highestOffsets(offsets []*Offset) []kafka.Message {
	type topicPartition struct {
		topic     string
		partition int
	}

	index := make(map[topicPartition]int, len(offsets))
	msgs := make([]kafka.Message, 0, len(offsets))
	for _, o := range offsets {
		if o == nil {
			continue
		}
		tp := topicPartition{topic: o.Topic, partition: o.Partition}
		i, found := index[tp]
		switch {
		case !found:
			index[tp] = len(msgs)
			msgs = append(msgs, kafka.Message{Topic: o.Topic, Partition: o.Partition, Offset: o.Offset})
		case o.Offset > msgs[i].Offset:
			msgs[i].Offset = o.Offset
		}
	}
	return msgs
}
