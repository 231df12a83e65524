// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xataio/regexop/cmd/config"
	"github.com/xataio/regexop/internal/log/zerolog"
	"github.com/xataio/regexop/pkg/checkpoint"
	filecheckpoint "github.com/xataio/regexop/pkg/checkpoint/file"
	pgcheckpoint "github.com/xataio/regexop/pkg/checkpoint/postgres"
	"github.com/xataio/regexop/pkg/kafka"
	loglib "github.com/xataio/regexop/pkg/log"
	"github.com/xataio/regexop/pkg/pipeline"
	filepipeline "github.com/xataio/regexop/pkg/pipeline/file"
	kafkapipeline "github.com/xataio/regexop/pkg/pipeline/kafka"
	"github.com/xataio/regexop/pkg/record/json"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Run applies the configured substitution rules to every record of the source and writes the results to the target",
	PreRunE: rulesFileFlagBinding,
	RunE: withProfiling(func(cmd *cobra.Command, args []string) error {
		overrides := runOverrides(cmd.Flags())
		return withSignalWatcher(func(ctx context.Context) error {
			return run(ctx, overrides...)
		})(cmd, args)
	}),
	Example: `
	regexop run --config config.yaml
	regexop run --config config.yaml --input records.jsonl --output - --log-level debug
	regexop run --config config.yaml --rules-file rules.yaml --partitions 4 --restore`,
}

func run(ctx context.Context, overrides ...config.Override) (err error) {
	logger, err := zerolog.NewLogger(&zerolog.Config{
		LogLevel: config.LogLevel(),
		Format:   config.LogFormat(),
	})
	if err != nil {
		return err
	}
	zerolog.SetGlobalLogger(logger)
	stdLogger := zerolog.NewStdLogger(logger)

	cfg, err := config.Parse(overrides...)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	provider, err := newInstrumentationProvider(cfg.Instrumentation)
	if err != nil {
		return err
	}
	defer provider.Close()

	codec, err := json.NewCodec(cfg.Pipeline.Schema, json.WithKeyField(cfg.KeyField))
	if err != nil {
		return fmt.Errorf("building record codec: %w", err)
	}

	reader, err := newReader(cfg.Source, codec, stdLogger)
	if err != nil {
		return err
	}
	defer reader.Close()

	writer, err := newWriter(cfg.Target, codec, stdLogger)
	if err != nil {
		return err
	}
	// closing the writer flushes the buffered records
	defer func() {
		if closeErr := writer.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing writer: %w", closeErr))
		}
	}()

	opts := []pipeline.Option{
		pipeline.WithLogger(stdLogger),
		pipeline.WithInstrumentation(provider.NewInstrumentation("pipeline")),
	}
	store, err := newCheckpointStore(ctx, cfg.Checkpoint, stdLogger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, pipeline.WithCheckpointStore(store))
	}

	return pipeline.Run(ctx, &cfg.Pipeline, reader, writer, opts...)
}

func newReader(cfg config.SourceComponentConfig, codec *json.Codec, logger loglib.Logger) (pipeline.Reader, error) {
	switch {
	case cfg.File != nil:
		r, err := filepipeline.OpenReader(cfg.File, codec, filepipeline.WithReaderLogger(logger))
		if err != nil {
			return nil, err
		}
		return r, nil
	case cfg.Kafka != nil:
		kafkaReader, err := kafka.NewReader(cfg.Kafka.Reader, logger)
		if err != nil {
			return nil, err
		}
		opts := []kafkapipeline.ReaderOption{kafkapipeline.WithReaderLogger(logger)}
		if cfg.Kafka.StopOnEmptyMessage {
			opts = append(opts, kafkapipeline.WithStopOnEmptyMessage())
		}
		return kafkapipeline.NewReader(kafkaReader, codec, opts...), nil
	default:
		return nil, errors.New("no source configured")
	}
}

func newWriter(cfg config.TargetComponentConfig, codec *json.Codec, logger loglib.Logger) (pipeline.Writer, error) {
	switch {
	case cfg.File != nil:
		w, err := filepipeline.OpenWriter(cfg.File, codec)
		if err != nil {
			return nil, err
		}
		return w, nil
	case cfg.Kafka != nil:
		kafkaWriter, err := kafka.NewWriter(*cfg.Kafka, logger)
		if err != nil {
			return nil, err
		}
		return kafkapipeline.NewWriter(kafkaWriter, codec), nil
	default:
		return nil, errors.New("no target configured")
	}
}

func newCheckpointStore(ctx context.Context, cfg config.CheckpointComponentConfig, logger loglib.Logger) (checkpoint.Store, error) {
	switch {
	case cfg.File != nil:
		s, err := filecheckpoint.New(cfg.File, filecheckpoint.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	case cfg.Postgres != nil:
		s, err := pgcheckpoint.New(ctx, cfg.Postgres, pgcheckpoint.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}

func runOverrides(flags *pflag.FlagSet) []config.Override {
	overrides := []config.Override{}
	if flags.Changed("input") {
		input, _ := flags.GetString("input")
		overrides = append(overrides, config.WithInputFile(input))
	}
	if flags.Changed("output") {
		output, _ := flags.GetString("output")
		overrides = append(overrides, config.WithOutputFile(output))
	}
	if flags.Changed("partitions") {
		partitions, _ := flags.GetInt("partitions")
		overrides = append(overrides, config.WithPartitions(partitions))
	}
	if flags.Changed("restore") {
		restore, _ := flags.GetBool("restore")
		overrides = append(overrides, config.WithRestore(restore))
	}
	return overrides
}
