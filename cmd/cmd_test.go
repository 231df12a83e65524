// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/xataio/regexop/cmd/config"
	"github.com/xataio/regexop/pkg/operator"
	"github.com/xataio/regexop/pkg/record"
)

func TestCommands(t *testing.T) {
	rootCmd := Prepare()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)

	encoded := filepath.Join(t.TempDir(), "rules.bin")

	rootCmd.SetArgs([]string{"checkpoint", "encode", "--rules-file", "test/rules.yaml", "--output", encoded})
	require.NoError(t, rootCmd.Execute())

	out.Reset()
	rootCmd.SetArgs([]string{"checkpoint", "decode", encoded})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), `column "id":
  - "^A" -> "B"
  - "[0-9]{3}$" -> "XXX"
column "name":
  - "\\s+" -> " "`)

	out.Reset()
	rootCmd.SetArgs([]string{"validate", "rules", "--rules-file", "test/rules.yaml", "--json"})
	require.NoError(t, rootCmd.Execute())
	require.JSONEq(t, `{
		"columns": [
			{"name": "id", "rules": [
				{"pattern": "[0-9]{3}$", "replacement": "XXX"},
				{"pattern": "^A", "replacement": "B"}
			]},
			{"name": "name", "rules": [{"pattern": "\\s+", "replacement": " "}]}
		],
		"schema_checked": false
	}`, out.String())

	rootCmd.SetArgs([]string{"checkpoint", "decode", filepath.Join(t.TempDir(), "missing.bin")})
	require.Error(t, rootCmd.Execute())
}

func TestValidateRules(t *testing.T) {
	t.Parallel()

	schema := record.Schema{Fields: []record.Field{
		{Name: "id", Type: record.UString},
		{Name: "age", Type: record.Int64},
	}}
	idRule := operator.Property{Name: "column", Value: "id", SubArgs: []operator.Property{
		{Name: "pattern", Value: "'^A'"},
		{Name: "replacement", Value: "'B'"},
	}}

	tests := []struct {
		name string
		cfg  *config.RulesConfig

		wantStatus *RulesStatus
		wantErrs   int
	}{
		{
			name: "valid rules without schema",
			cfg:  &config.RulesConfig{Args: operator.PropertyList{idRule}},
			wantStatus: &RulesStatus{
				Columns: []ColumnStatus{{Name: "id", Rules: []RuleStatus{{Pattern: "^A", Replacement: "B"}}}},
			},
		},
		{
			name: "valid rules with schema",
			cfg:  &config.RulesConfig{Args: operator.PropertyList{idRule}, Schema: schema},
			wantStatus: &RulesStatus{
				Columns:       []ColumnStatus{{Name: "id", Rules: []RuleStatus{{Pattern: "^A", Replacement: "B"}}}},
				SchemaChecked: true,
			},
		},
		{
			name: "column with the wrong type",
			cfg: &config.RulesConfig{Schema: schema, Args: operator.PropertyList{
				{Name: "column", Value: "age", SubArgs: idRule.SubArgs},
			}},
			wantErrs: 1,
		},
		{
			name: "invalid pattern",
			cfg: &config.RulesConfig{Args: operator.PropertyList{
				{Name: "column", Value: "id", SubArgs: []operator.Property{
					{Name: "pattern", Value: "'('"},
					{Name: "replacement", Value: "''"},
				}},
			}},
			wantErrs: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status := validateRules(tc.cfg)
			if tc.wantStatus != nil {
				require.Equal(t, tc.wantStatus, status)
			}
			require.Len(t, status.Errors, tc.wantErrs)
			require.NotEmpty(t, status.PrettyPrint())
		})
	}
}

func TestRunOverrides(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("input", "", "")
	flags.String("output", "", "")
	flags.Int("partitions", 0, "")
	flags.Bool("restore", false, "")

	require.Empty(t, runOverrides(flags))

	require.NoError(t, flags.Parse([]string{"--input", "in.jsonl", "--partitions", "3"}))
	overrides := runOverrides(flags)
	require.Len(t, overrides, 2)

	yamlCfg := &config.YAMLConfig{}
	for _, override := range overrides {
		override(yamlCfg)
	}
	require.Equal(t, "in.jsonl", yamlCfg.Source.File.Path)
	require.Equal(t, 3, yamlCfg.Pipeline.Partitions)
}

func TestWithProfiling(t *testing.T) {
	dir := t.TempDir()
	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Bool("profile", false, "")
		cmd.Flags().String("profile-addr", "", "")
		cmd.Flags().String("profile-dir", "", "")
		require.NoError(t, cmd.Flags().Parse(args))
		cmd.SetContext(context.Background())
		return cmd
	}

	calls := 0
	run := withProfiling(withSignalWatcher(func(ctx context.Context) error {
		require.NoError(t, ctx.Err())
		calls++
		return nil
	}))

	require.NoError(t, run(newCmd(), nil))
	_, err := os.Stat(filepath.Join(dir, "cpu.prof"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, run(newCmd("--profile", "--profile-dir", dir), nil))
	for _, name := range []string{"cpu.prof", "mem.prof"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
	}
	require.Equal(t, 2, calls)
}
