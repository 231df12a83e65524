// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type ConnConfig struct {
	Servers []string
	Topic   TopicConfig
	// DialTimeout defaults to 10s.
	DialTimeout time.Duration
}

type TopicConfig struct {
	Name string
	// NumPartitions and ReplicationFactor are only used when the topic is
	// created. Both default to 1.
	NumPartitions     int
	ReplicationFactor int
	// AutoCreate creates the topic when missing.
	AutoCreate bool
}

type ReaderConfig struct {
	Conn            ConnConfig
	ConsumerGroupID string
	// ConsumerGroupStartOffset is where a group without committed offsets
	// starts consuming from, earliest (default) or latest.
	ConsumerGroupStartOffset string
}

type WriterConfig struct {
	Conn ConnConfig
	// BatchTimeout bounds how long an incomplete batch waits before being
	// flushed. Defaults to 1s.
	BatchTimeout time.Duration
	// BatchBytes defaults to 1MiB.
	BatchBytes int64
	// BatchSize defaults to 100 messages.
	BatchSize int
}

const (
	earliestOffset = "earliest"
	latestOffset   = "latest"

	defaultDialTimeout = 10 * time.Second
	maxFetchBytes      = 25 * 1024 * 1024
)

func (c *ConnConfig) dialTimeout() time.Duration {
	if c.DialTimeout <= 0 {
		return defaultDialTimeout
	}
	return c.DialTimeout
}

func (c *TopicConfig) topicConfig() kafka.TopicConfig {
	return kafka.TopicConfig{
		Topic:             c.Name,
		NumPartitions:     max(c.NumPartitions, 1),
		ReplicationFactor: max(c.ReplicationFactor, 1),
	}
}

func (c *ReaderConfig) startOffset() (int64, error) {
	switch c.ConsumerGroupStartOffset {
	case "", earliestOffset:
		return kafka.FirstOffset, nil
	case latestOffset:
		return kafka.LastOffset, nil
	default:
		return 0, fmt.Errorf("unsupported start offset %q, must be one of [%s, %s]", c.ConsumerGroupStartOffset, earliestOffset, latestOffset)
	}
}
