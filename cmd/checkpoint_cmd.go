// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/regexop/cmd/config"
	"github.com/xataio/regexop/pkg/regexop"
	"github.com/xataio/regexop/pkg/substitution"
)

// parent command for checkpoint subcommands
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Encode and inspect the persisted form of the substitution rules",
}

var checkpointEncodeCmd = &cobra.Command{
	Use:     "encode",
	Short:   "Writes the encoded substitution rules of the configuration to a file",
	PreRunE: rulesFileFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		rulesConfig, err := config.ParseRules()
		if err != nil {
			return fmt.Errorf("parsing rules config: %w", err)
		}

		op, err := regexop.New(&regexop.Config{Args: rulesConfig.Args}, nil)
		if err != nil {
			return err
		}
		state, err := op.Snapshot()
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if err := os.WriteFile(output, state, 0o600); err != nil {
			return fmt.Errorf("writing encoded rules: %w", err)
		}

		pterm.Success.Printfln("encoded %d column(s) to %s (%d bytes)", op.RuleSet().Len(), output, len(state))
		return nil
	},
	Example: `
	regexop checkpoint encode -c config.yaml -o rules.bin
	regexop checkpoint encode --rules-file rules.yaml --output rules.bin
	`,
}

var checkpointDecodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Prints the substitution rules of an encoded rule set file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading encoded rules: %w", err)
		}

		rules, err := substitution.Decode(state)
		if err != nil {
			return err
		}

		return print(cmd, rulesSetStatus(rules))
	},
	Example: `
	regexop checkpoint decode rules.bin
	regexop checkpoint decode rules.bin --json
	`,
}

func rulesSetStatus(rules *substitution.RuleSet) *RulesStatus {
	status := &RulesStatus{Columns: []ColumnStatus{}}
	for _, column := range rules.Columns() {
		columnStatus := ColumnStatus{Name: column, Rules: []RuleStatus{}}
		for _, rule := range rules.RulesFor(column) {
			columnStatus.Rules = append(columnStatus.Rules, RuleStatus{
				Pattern:     rule.Source(),
				Replacement: rule.Replacement(),
			})
		}
		status.Columns = append(status.Columns, columnStatus)
	}
	return status
}
