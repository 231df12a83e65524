// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/regexop/cmd/config"
	"github.com/xataio/regexop/internal/profiling"
	"github.com/xataio/regexop/pkg/otel"
)

// Version is the regexop version
var (
	Version = "development"
	Env     string
)

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "regexop",
		Short:        "regexop applies regular expression substitutions to the text columns of a record stream",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			return nil
		},
	}

	// root flags
	rootCmd.PersistentFlags().StringP("config", "c", "", ".yaml config file to use with regexop if any")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().String("log-format", "console", "log output format. One of console, json")

	// run flags
	runCmd.Flags().StringP("rules-file", "f", "", "Path to a YAML file containing the substitution rules")
	runCmd.Flags().String("input", "", "JSON lines file to read the records from, - for stdin")
	runCmd.Flags().String("output", "", "JSON lines file to write the records to, - for stdout")
	runCmd.Flags().Int("partitions", 0, "Number of partitions processing records in parallel")
	runCmd.Flags().Bool("restore", false, "Whether to restore the operators from their checkpoint")
	runCmd.Flags().Bool("profile", false, "Whether to capture cpu and memory profiles while running")
	runCmd.Flags().String("profile-addr", "localhost:6060", "Address of the /debug/pprof endpoint exposed while profiling, empty to disable")
	runCmd.Flags().String("profile-dir", ".", "Directory the cpu.prof and mem.prof files are written to")

	// validate rules flags
	validateRulesCmd.Flags().StringP("rules-file", "f", "", "Path to a YAML file containing the substitution rules to validate")
	validateRulesCmd.Flags().Bool("json", false, "Output the validation status in JSON format")
	validateCmd.AddCommand(validateRulesCmd)

	// checkpoint flags
	checkpointEncodeCmd.Flags().StringP("rules-file", "f", "", "Path to a YAML file containing the substitution rules to encode")
	checkpointEncodeCmd.Flags().StringP("output", "o", "", "File the encoded rules are written to")
	checkpointEncodeCmd.MarkFlagRequired("output")
	checkpointDecodeCmd.Flags().Bool("json", false, "Output the decoded rules in JSON format")
	checkpointCmd.AddCommand(checkpointEncodeCmd)
	checkpointCmd.AddCommand(checkpointDecodeCmd)

	rootFlagBinding(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkpointCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

// withSignalWatcher cancels the command context on the first termination
// signal received.
func withSignalWatcher(fn func(ctx context.Context) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer stop()
		return fn(ctx)
	}
}

// withProfiling captures cpu and memory profiles for the duration of the
// command when --profile is set.
func withProfiling(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if enabled, _ := cmd.Flags().GetBool("profile"); !enabled {
			return fn(cmd, args)
		}

		addr, _ := cmd.Flags().GetString("profile-addr")
		dir, _ := cmd.Flags().GetString("profile-dir")
		session, err := profiling.Start(profiling.Config{ServerAddress: addr, Dir: dir})
		if err != nil {
			return fmt.Errorf("starting profiling: %w", err)
		}
		defer func() {
			if stopErr := session.Stop(); stopErr != nil {
				err = errors.Join(err, fmt.Errorf("stopping profiling: %w", stopErr))
			}
		}()

		return fn(cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", cmd.PersistentFlags().Lookup("log-format"))
}

// rulesFileFlagBinding overwrites the configured rules file with the flag,
// when set.
func rulesFileFlagBinding(cmd *cobra.Command, _ []string) error {
	if flag := cmd.Flags().Lookup("rules-file"); flag != nil && flag.Changed {
		return viper.BindPFlag("operator.rules_file", flag)
	}
	return nil
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}

func newInstrumentationProvider(cfg *otel.Config) (otel.InstrumentationProvider, error) {
	p, err := otel.NewInstrumentationProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialisating instrumentation provider: %w", err)
	}
	return p, nil
}
