// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	loglib "github.com/xataio/regexop/pkg/log"
)

type MessageWriter interface {
	WriteMessages(context.Context, ...Message) error
	Close() error
}

type Message kafka.Message

// IsEmpty reports messages without a payload, used as end of input markers.
func (m Message) IsEmpty() bool {
	return len(m.Value) == 0
}

func (m Message) Position() *Offset {
	return &Offset{Topic: m.Topic, Partition: m.Partition, Offset: m.Offset}
}

// Writer produces to a single topic. Messages are assigned a partition with
// the murmur2 hash of their key, so records sharing a key keep their order
// and land on the same partitions the java clients would pick.
type Writer struct {
	writer *kafka.Writer
}

func NewWriter(cfg WriterConfig, logger loglib.Logger) (*Writer, error) {
	logger = loglib.NewLogger(logger).WithFields(loglib.Fields{
		"kafka_servers": cfg.Conn.Servers,
		"kafka_topic":   cfg.Conn.Topic.Name,
	})

	if cfg.Conn.Topic.AutoCreate {
		if err := ensureTopic(context.Background(), &cfg.Conn, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("kafka writer created")
	return &Writer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Conn.Servers...),
			Topic:        cfg.Conn.Topic.Name,
			Balancer:     kafka.Murmur2Balancer{Consistent: true},
			RequiredAcks: kafka.RequireAll,
			Transport:    &kafka.Transport{DialTimeout: cfg.Conn.dialTimeout()},
			BatchTimeout: cfg.BatchTimeout,
			BatchBytes:   cfg.BatchBytes,
			BatchSize:    cfg.BatchSize,
			Logger:       kafkaLogger{logger: logger},
			ErrorLogger:  kafkaLogger{logger: logger, errors: true},
		},
	}, nil
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...Message) error {
	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i := range msgs {
		kafkaMsgs[i] = kafka.Message(msgs[i])
	}
	return w.writer.WriteMessages(ctx, kafkaMsgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
