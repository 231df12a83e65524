// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/xataio/regexop/internal/backoff"
	"github.com/xataio/regexop/pkg/checkpoint/file"
	pgcheckpoint "github.com/xataio/regexop/pkg/checkpoint/postgres"
	"github.com/xataio/regexop/pkg/kafka"
	"github.com/xataio/regexop/pkg/otel"
	"github.com/xataio/regexop/pkg/pipeline"
	filepipeline "github.com/xataio/regexop/pkg/pipeline/file"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/regexop"
)

type YAMLConfig struct {
	Operator        OperatorConfig         `mapstructure:"operator" yaml:"operator"`
	Schema          SchemaConfig           `mapstructure:"schema" yaml:"schema"`
	Source          SourceConfig           `mapstructure:"source" yaml:"source"`
	Target          TargetConfig           `mapstructure:"target" yaml:"target"`
	Pipeline        PipelineConfig         `mapstructure:"pipeline" yaml:"pipeline"`
	Checkpoint      *CheckpointConfig      `mapstructure:"checkpoint" yaml:"checkpoint"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
}

type OperatorConfig struct {
	ValidationMode string `mapstructure:"validation_mode" yaml:"validation_mode"`
	// RulesFile is a YAML file with column substitutions, applied before the
	// inline columns and args.
	RulesFile string                `mapstructure:"rules_file" yaml:"rules_file"`
	Columns   []regexop.ColumnRules `mapstructure:"columns" yaml:"columns"`
	// Args is the raw property list form of the substitutions.
	Args any `mapstructure:"args" yaml:"args"`
}

type SchemaConfig struct {
	Fields   []record.Field `mapstructure:"fields" yaml:"fields"`
	KeyField string         `mapstructure:"key_field" yaml:"key_field"`
}

type SourceConfig struct {
	File  *FileSourceConfig  `mapstructure:"file" yaml:"file"`
	Kafka *KafkaSourceConfig `mapstructure:"kafka" yaml:"kafka"`
}

type FileSourceConfig struct {
	Path         string `mapstructure:"path" yaml:"path"`
	MaxLineBytes int    `mapstructure:"max_line_bytes" yaml:"max_line_bytes"`
	Progress     bool   `mapstructure:"progress" yaml:"progress"`
}

type KafkaSourceConfig struct {
	Servers       []string            `mapstructure:"servers" yaml:"servers"`
	Topic         TopicConfig         `mapstructure:"topic" yaml:"topic"`
	ConsumerGroup ConsumerGroupConfig `mapstructure:"consumer_group" yaml:"consumer_group"`
	// DialTimeout in milliseconds.
	DialTimeout        int  `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	StopOnEmptyMessage bool `mapstructure:"stop_on_empty_message" yaml:"stop_on_empty_message"`
}

type TopicConfig struct {
	Name              string `mapstructure:"name" yaml:"name"`
	Partitions        int    `mapstructure:"partitions" yaml:"partitions"`
	ReplicationFactor int    `mapstructure:"replication_factor" yaml:"replication_factor"`
	AutoCreate        bool   `mapstructure:"auto_create" yaml:"auto_create"`
}

type ConsumerGroupConfig struct {
	ID          string `mapstructure:"id" yaml:"id"`
	StartOffset string `mapstructure:"start_offset" yaml:"start_offset"`
}

type TargetConfig struct {
	File  *FileTargetConfig  `mapstructure:"file" yaml:"file"`
	Kafka *KafkaTargetConfig `mapstructure:"kafka" yaml:"kafka"`
}

type FileTargetConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type KafkaTargetConfig struct {
	Servers     []string     `mapstructure:"servers" yaml:"servers"`
	Topic       TopicConfig  `mapstructure:"topic" yaml:"topic"`
	DialTimeout int          `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	Batch       *BatchConfig `mapstructure:"batch" yaml:"batch"`
}

type BatchConfig struct {
	// Timeout in milliseconds.
	Timeout  int `mapstructure:"timeout" yaml:"timeout"`
	Size     int `mapstructure:"size" yaml:"size"`
	MaxBytes int `mapstructure:"max_bytes" yaml:"max_bytes"`
}

type PipelineConfig struct {
	Partitions int `mapstructure:"partitions" yaml:"partitions"`
	QueueSize  int `mapstructure:"queue_size" yaml:"queue_size"`
}

type CheckpointConfig struct {
	Restore  bool                      `mapstructure:"restore" yaml:"restore"`
	File     *FileCheckpointConfig     `mapstructure:"file" yaml:"file"`
	Postgres *PostgresCheckpointConfig `mapstructure:"postgres" yaml:"postgres"`
}

type FileCheckpointConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type PostgresCheckpointConfig struct {
	URL    string         `mapstructure:"url" yaml:"url"`
	Schema string         `mapstructure:"schema" yaml:"schema"`
	Retry  *BackoffConfig `mapstructure:"retry" yaml:"retry"`
}

type BackoffConfig struct {
	Exponential *ExponentialBackoffConfig `mapstructure:"exponential" yaml:"exponential"`
	Constant    *ConstantBackoffConfig    `mapstructure:"constant" yaml:"constant"`
}

// Intervals in milliseconds.
type ExponentialBackoffConfig struct {
	MaxRetries      int `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval int `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     int `mapstructure:"max_interval" yaml:"max_interval"`
}

type ConstantBackoffConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	Interval   int `mapstructure:"interval" yaml:"interval"`
}

type InstrumentationConfig struct {
	Metrics *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces  *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// CollectionInterval in seconds.
	CollectionInterval int  `mapstructure:"collection_interval" yaml:"collection_interval"`
	RuntimeMetrics     bool `mapstructure:"runtime_metrics" yaml:"runtime_metrics"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

var (
	errMissingSource      = errors.New("a file or kafka source must be configured")
	errMultipleSources    = errors.New("only one of file or kafka source can be configured")
	errMissingTarget      = errors.New("a file or kafka target must be configured")
	errMultipleTargets    = errors.New("only one of file or kafka target can be configured")
	errMultipleStores     = errors.New("only one of file or postgres checkpoint store can be configured")
	errMissingStore       = errors.New("checkpoint restore requires a file or postgres checkpoint store")
	errInvalidSampleRatio = errors.New("trace sample ratio must be between 0 and 1")
)

// toConfig converts the YAML configuration into the component configuration.
// Substitutions are collected from the rules file, the inline columns and the
// raw args, in that order.
func (c *YAMLConfig) toConfig() (*Config, error) {
	args, err := c.Operator.propertyList()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KeyField: c.Schema.KeyField,
		Pipeline: pipeline.Config{
			Partitions: c.Pipeline.Partitions,
			QueueSize:  c.Pipeline.QueueSize,
			Operator:   regexop.OperatorName,
			Args:       args,
			Schema:     record.Schema{Fields: c.Schema.Fields},
		},
	}

	if cfg.Source, err = c.Source.toSourceConfig(); err != nil {
		return nil, err
	}
	if cfg.Target, err = c.Target.toTargetConfig(); err != nil {
		return nil, err
	}
	if cfg.Checkpoint, err = c.Checkpoint.toCheckpointConfig(); err != nil {
		return nil, err
	}
	cfg.Pipeline.Restore = c.Checkpoint != nil && c.Checkpoint.Restore
	if cfg.Instrumentation, err = c.Instrumentation.toOtelConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *OperatorConfig) propertyList() (regexop.PropertyList, error) {
	props := regexop.PropertyList{}
	if c.ValidationMode != "" {
		props = append(props, regexop.Property{Name: "validation_mode", Value: c.ValidationMode})
	}

	if c.RulesFile != "" {
		rules, err := regexop.ReadRulesFromFile(c.RulesFile)
		if err != nil {
			return nil, err
		}
		props = append(props, rules.PropertyList()...)
	}

	inline := regexop.Rules{Columns: c.Columns}
	props = append(props, inline.PropertyList()...)

	if c.Args != nil {
		args, err := regexop.DecodeProperties(c.Args)
		if err != nil {
			return nil, err
		}
		props = append(props, args...)
	}
	return props, nil
}

func (c *SourceConfig) toSourceConfig() (SourceComponentConfig, error) {
	switch {
	case c.File == nil && c.Kafka == nil:
		return SourceComponentConfig{}, errMissingSource
	case c.File != nil && c.Kafka != nil:
		return SourceComponentConfig{}, errMultipleSources
	case c.File != nil:
		return SourceComponentConfig{
			File: &filepipeline.ReaderConfig{
				Path:         c.File.Path,
				MaxLineBytes: c.File.MaxLineBytes,
				ShowProgress: c.File.Progress,
			},
		}, nil
	default:
		return SourceComponentConfig{
			Kafka: &KafkaSourceComponentConfig{
				Reader: kafka.ReaderConfig{
					Conn: kafka.ConnConfig{
						Servers:     c.Kafka.Servers,
						Topic:       c.Kafka.Topic.toTopicConfig(),
						DialTimeout: time.Duration(c.Kafka.DialTimeout) * time.Millisecond,
					},
					ConsumerGroupID:          c.Kafka.ConsumerGroup.ID,
					ConsumerGroupStartOffset: c.Kafka.ConsumerGroup.StartOffset,
				},
				StopOnEmptyMessage: c.Kafka.StopOnEmptyMessage,
			},
		}, nil
	}
}

func (c *TargetConfig) toTargetConfig() (TargetComponentConfig, error) {
	switch {
	case c.File == nil && c.Kafka == nil:
		return TargetComponentConfig{}, errMissingTarget
	case c.File != nil && c.Kafka != nil:
		return TargetComponentConfig{}, errMultipleTargets
	case c.File != nil:
		return TargetComponentConfig{
			File: &filepipeline.WriterConfig{Path: c.File.Path},
		}, nil
	default:
		writerCfg := &kafka.WriterConfig{
			Conn: kafka.ConnConfig{
				Servers:     c.Kafka.Servers,
				Topic:       c.Kafka.Topic.toTopicConfig(),
				DialTimeout: time.Duration(c.Kafka.DialTimeout) * time.Millisecond,
			},
		}
		if c.Kafka.Batch != nil {
			writerCfg.BatchTimeout = time.Duration(c.Kafka.Batch.Timeout) * time.Millisecond
			writerCfg.BatchSize = c.Kafka.Batch.Size
			writerCfg.BatchBytes = int64(c.Kafka.Batch.MaxBytes)
		}
		return TargetComponentConfig{Kafka: writerCfg}, nil
	}
}

func (c TopicConfig) toTopicConfig() kafka.TopicConfig {
	return kafka.TopicConfig{
		Name:              c.Name,
		NumPartitions:     c.Partitions,
		ReplicationFactor: c.ReplicationFactor,
		AutoCreate:        c.AutoCreate,
	}
}

func (c *CheckpointConfig) toCheckpointConfig() (CheckpointComponentConfig, error) {
	if c == nil {
		return CheckpointComponentConfig{}, nil
	}
	switch {
	case c.File != nil && c.Postgres != nil:
		return CheckpointComponentConfig{}, errMultipleStores
	case c.File != nil:
		return CheckpointComponentConfig{File: &file.Config{Dir: c.File.Dir}}, nil
	case c.Postgres != nil:
		return CheckpointComponentConfig{
			Postgres: &pgcheckpoint.Config{
				URL:    c.Postgres.URL,
				Schema: c.Postgres.Schema,
				Retry:  c.Postgres.Retry.parseBackoffConfig(),
			},
		}, nil
	case c.Restore:
		return CheckpointComponentConfig{}, errMissingStore
	default:
		return CheckpointComponentConfig{}, nil
	}
}

func (bo *BackoffConfig) parseBackoffConfig() backoff.Config {
	if bo == nil {
		return backoff.Config{}
	}
	return backoff.Config{
		Exponential: bo.parseExponentialBackoffConfig(),
		Constant:    bo.parseConstantBackoffConfig(),
	}
}

func (bo *BackoffConfig) parseExponentialBackoffConfig() *backoff.ExponentialConfig {
	if bo.Exponential == nil {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: time.Duration(bo.Exponential.InitialInterval) * time.Millisecond,
		MaxInterval:     time.Duration(bo.Exponential.MaxInterval) * time.Millisecond,
		MaxRetries:      uint(bo.Exponential.MaxRetries),
	}
}

func (bo *BackoffConfig) parseConstantBackoffConfig() *backoff.ConstantConfig {
	if bo.Constant == nil {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   time.Duration(bo.Constant.Interval) * time.Millisecond,
		MaxRetries: uint(bo.Constant.MaxRetries),
	}
}

func (c *InstrumentationConfig) toOtelConfig() (*otel.Config, error) {
	if c == nil {
		return nil, nil
	}

	cfg := &otel.Config{}
	if c.Metrics != nil {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.Metrics.Endpoint,
			CollectionInterval: time.Duration(c.Metrics.CollectionInterval) * time.Second,
			RuntimeMetrics:     c.Metrics.RuntimeMetrics,
		}
	}
	if c.Traces != nil {
		if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
			return nil, fmt.Errorf("%w: %v", errInvalidSampleRatio, c.Traces.SampleRatio)
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.Traces.Endpoint,
			SampleRatio: c.Traces.SampleRatio,
		}
	}
	return cfg, nil
}
