// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/regexop/cmd/config"
	"github.com/xataio/regexop/pkg/regexop"
)

// parent command for validation subcommands
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate different parts of the regexop configuration",
}

var errInvalidRules = errors.New("substitution rules are not valid")

var validateRulesCmd = &cobra.Command{
	Use:     "rules",
	Short:   "Validates the substitution rules, and checks them against the configured schema if any",
	PreRunE: rulesFileFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("validating regexop substitution rules...").Start()

		err := func() error {
			rulesConfig, err := config.ParseRules()
			if err != nil {
				return fmt.Errorf("parsing rules config: %w", err)
			}

			status := validateRules(rulesConfig)
			if len(status.Errors) == 0 {
				sp.Success("substitution rules are valid")
			} else {
				sp.Warning("regexop validation check identified issues: ", strings.Join(status.Errors, ", "))
			}

			if err := print(cmd, status); err != nil {
				return fmt.Errorf("failed to format regexop validation status: %w", err)
			}
			if len(status.Errors) > 0 {
				return errInvalidRules
			}
			return nil
		}()
		if err != nil && !errors.Is(err, errInvalidRules) {
			sp.Fail(err.Error())
		}

		return err
	},
	Example: `
	regexop validate rules -c config.yaml
	regexop validate rules --rules-file rules.yaml
	regexop validate rules -c config.yaml --json
	`,
}

type RulesStatus struct {
	Columns       []ColumnStatus `json:"columns"`
	SchemaChecked bool           `json:"schema_checked"`
	Errors        []string       `json:"errors,omitempty"`
}

type ColumnStatus struct {
	Name  string       `json:"name"`
	Rules []RuleStatus `json:"rules"`
}

type RuleStatus struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

func validateRules(cfg *config.RulesConfig) *RulesStatus {
	op, err := regexop.New(&regexop.Config{Args: cfg.Args}, nil)
	if err != nil {
		return &RulesStatus{Columns: []ColumnStatus{}, Errors: []string{err.Error()}}
	}

	status := rulesSetStatus(op.RuleSet())

	if len(cfg.Schema.Fields) > 0 {
		status.SchemaChecked = true
		if _, err := op.DescribeSchema(cfg.Schema); err != nil {
			status.Errors = append(status.Errors, err.Error())
		}
	}
	return status
}

func (s *RulesStatus) PrettyPrint() string {
	var sb strings.Builder
	if len(s.Columns) == 0 {
		sb.WriteString("no substitution rules configured\n")
	}
	for _, column := range s.Columns {
		fmt.Fprintf(&sb, "column %q:\n", column.Name)
		if len(column.Rules) == 0 {
			sb.WriteString("  - values passed through unchanged\n")
		}
		// rules apply from the last declared to the first
		for i := len(column.Rules) - 1; i >= 0; i-- {
			fmt.Fprintf(&sb, "  - %q -> %q\n", column.Rules[i].Pattern, column.Rules[i].Replacement)
		}
	}
	if !s.SchemaChecked {
		sb.WriteString("no schema configured, columns not checked\n")
	}
	for _, e := range s.Errors {
		fmt.Fprintf(&sb, "error: %s\n", e)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

