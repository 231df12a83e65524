// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xataio/regexop/pkg/kafka"
	loglib "github.com/xataio/regexop/pkg/log"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/record/json"
)

// Reader consumes JSON records from a kafka topic. The offset of a message is
// committed once its record is acknowledged. Records keep the kafka partition
// they were read from, so messages of the same partition are processed in
// order. Skipped empty messages are committed with the next record of their
// partition.
type Reader struct {
	reader kafka.MessageReader
	codec  *json.Codec
	logger loglib.Logger
	// stopOnEmpty ends the read with io.EOF on the first empty message
	stopOnEmpty bool
	position    int64
	skipped     map[partitionKey]*kafka.Offset
}

type partitionKey struct {
	topic     string
	partition int
}

type ReaderOption func(*Reader)

func NewReader(reader kafka.MessageReader, codec *json.Codec, opts ...ReaderOption) *Reader {
	r := &Reader{
		reader: reader,
		codec:  codec,
		logger:  loglib.NewNoopLogger(),
		skipped: map[partitionKey]*kafka.Offset{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithReaderLogger(l loglib.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "kafka_record_reader",
		})
	}
}

// WithStopOnEmptyMessage makes an empty message mark the end of the input.
func WithStopOnEmptyMessage() ReaderOption {
	return func(r *Reader) {
		r.stopOnEmpty = true
	}
}

func (r *Reader) ReadRecord(ctx context.Context) (*record.Record, error) {
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil, err
			}
			return nil, fmt.Errorf("fetching message: %w", err)
		}

		if msg.IsEmpty() {
			if r.stopOnEmpty {
				return nil, io.EOF
			}
			r.logger.Warn(nil, "skipping empty kafka message", loglib.Fields{
				"kafka_partition": msg.Partition,
				"kafka_offset":    msg.Offset,
			})
			r.skipped[partitionKey{topic: msg.Topic, partition: msg.Partition}] = msg.Position()
			continue
		}

		rec, err := r.codec.Decode(msg.Value, r.position)
		if err != nil {
			return nil, fmt.Errorf("kafka partition %d, offset %d: %w", msg.Partition, msg.Offset, err)
		}
		r.position++

		if len(msg.Key) > 0 {
			rec.Key = msg.Key
		}
		rec.SetSourcePartition(msg.Partition)
		offsets := []*kafka.Offset{msg.Position()}
		key := partitionKey{topic: msg.Topic, partition: msg.Partition}
		if skipped, found := r.skipped[key]; found {
			offsets = append(offsets, skipped)
			delete(r.skipped, key)
		}
		rec.SetAck(func(ctx context.Context) error {
			return r.reader.CommitOffsets(ctx, offsets...)
		})
		return rec, nil
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
