// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/xataio/regexop/pkg/checkpoint/file"
	pgcheckpoint "github.com/xataio/regexop/pkg/checkpoint/postgres"
	"github.com/xataio/regexop/pkg/kafka"
	"github.com/xataio/regexop/pkg/otel"
	"github.com/xataio/regexop/pkg/pipeline"
	filepipeline "github.com/xataio/regexop/pkg/pipeline/file"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/regexop"
)

// Config is the configuration of all the components of a regexop run.
type Config struct {
	// KeyField is the document field used as the record key.
	KeyField        string
	Pipeline        pipeline.Config
	Source          SourceComponentConfig
	Target          TargetComponentConfig
	Checkpoint      CheckpointComponentConfig
	Instrumentation *otel.Config
}

type SourceComponentConfig struct {
	File  *filepipeline.ReaderConfig
	Kafka *KafkaSourceComponentConfig
}

type KafkaSourceComponentConfig struct {
	Reader             kafka.ReaderConfig
	StopOnEmptyMessage bool
}

type TargetComponentConfig struct {
	File  *filepipeline.WriterConfig
	Kafka *kafka.WriterConfig
}

type CheckpointComponentConfig struct {
	File     *file.Config
	Postgres *pgcheckpoint.Config
}

const EnvPrefix = "REGEXOP"

var errUnsupportedConfigFile = errors.New("unsupported config file extension, must be .yaml or .yml")

// Load reads the config file set in the config flag, if any.
func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if file == "" {
		return nil
	}
	switch ext := filepath.Ext(file); ext {
	case ".yml", ".yaml":
	default:
		return fmt.Errorf("%w: %q", errUnsupportedConfigFile, ext)
	}

	viper.SetConfigFile(file)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Override modifies the loaded settings before they are converted, used for
// command line flags.
type Override func(*YAMLConfig)

// WithInputFile replaces the configured source with the file.
func WithInputFile(path string) Override {
	return func(c *YAMLConfig) {
		src := &FileSourceConfig{}
		if c.Source.File != nil {
			src = c.Source.File
		}
		src.Path = path
		c.Source = SourceConfig{File: src}
	}
}

// WithOutputFile replaces the configured target with the file.
func WithOutputFile(path string) Override {
	return func(c *YAMLConfig) {
		c.Target = TargetConfig{File: &FileTargetConfig{Path: path}}
	}
}

func WithPartitions(n int) Override {
	return func(c *YAMLConfig) {
		c.Pipeline.Partitions = n
	}
}

func WithRestore(restore bool) Override {
	return func(c *YAMLConfig) {
		if c.Checkpoint == nil {
			c.Checkpoint = &CheckpointConfig{}
		}
		c.Checkpoint.Restore = restore
	}
}

// Parse builds the component configuration from the loaded settings.
func Parse(overrides ...Override) (*Config, error) {
	return parse(viper.GetViper(), overrides...)
}

func parse(v *viper.Viper, overrides ...Override) (*Config, error) {
	yamlCfg := YAMLConfig{}
	if err := v.Unmarshal(&yamlCfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	for _, override := range overrides {
		override(&yamlCfg)
	}
	return yamlCfg.toConfig()
}

// RulesConfig holds the substitution declarations and the input schema,
// enough to validate the rules without a source or target.
type RulesConfig struct {
	Args   regexop.PropertyList
	Schema record.Schema
}

// ParseRules builds the rules configuration from the loaded settings.
func ParseRules() (*RulesConfig, error) {
	return parseRules(viper.GetViper())
}

func parseRules(v *viper.Viper) (*RulesConfig, error) {
	yamlCfg := YAMLConfig{}
	if err := v.Unmarshal(&yamlCfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	args, err := yamlCfg.Operator.propertyList()
	if err != nil {
		return nil, err
	}
	return &RulesConfig{
		Args:   args,
		Schema: record.Schema{Fields: yamlCfg.Schema.Fields},
	}, nil
}

func LogLevel() string {
	return viper.GetString("log_level")
}

func LogFormat() string {
	return viper.GetString("log_format")
}
