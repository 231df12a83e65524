// SPDX-License-Identifier: Apache-2.0

package regexop

import (
	"errors"
	"fmt"

	loglib "github.com/xataio/regexop/pkg/log"
	"github.com/xataio/regexop/pkg/substitution"
)

const (
	columnProperty         = "column"
	validationModeProperty = "validation_mode"
	patternArg             = "pattern"
	replacementArg         = "replacement"

	validationModeRelaxed = "relaxed"
	validationModeStrict  = "strict"
)

var (
	errEmptyColumnName       = errors.New("column name cannot be empty")
	errMissingArgument       = errors.New("missing substitution argument")
	errUnsupportedValidation = errors.New("unsupported validation mode")
)

type ruleParser struct {
	logger         loglib.Logger
	validationMode string
}

// ParseRuleSet builds the rule set from the column declarations of the
// property list. Each column property adds one rule to its column, in
// declaration order. Other properties are ignored.
func ParseRuleSet(props PropertyList, validationMode string, logger loglib.Logger) (*substitution.RuleSet, error) {
	if validationMode == "" {
		validationMode = validationModeRelaxed
	}
	if validationMode != validationModeRelaxed && validationMode != validationModeStrict {
		return nil, fmt.Errorf("%w: %w: %q", ErrConfiguration, errUnsupportedValidation, validationMode)
	}

	p := &ruleParser{
		logger:         loglib.NewLogger(logger),
		validationMode: validationMode,
	}
	return p.parse(props)
}

func (p *ruleParser) parse(props PropertyList) (*substitution.RuleSet, error) {
	rs := substitution.NewRuleSet()
	for _, prop := range props {
		if prop.Name != columnProperty {
			continue
		}

		// column names are taken verbatim, only the arguments are unquoted
		column := prop.Value
		if column == "" {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, errEmptyColumnName)
		}

		pattern, err := p.argument(prop, column, patternArg)
		if err != nil {
			return nil, err
		}
		replacement, err := p.argument(prop, column, replacementArg)
		if err != nil {
			return nil, err
		}

		if err := rs.AddRule(column, pattern, replacement); err != nil {
			return nil, fmt.Errorf("%w: column %q: %w", ErrConfiguration, column, err)
		}
	}
	return rs, nil
}

func (p *ruleParser) argument(prop Property, column, name string) (string, error) {
	value, found := lastSubArg(prop, name)
	if found {
		return Unquote(value), nil
	}

	if p.validationMode == validationModeStrict {
		return "", fmt.Errorf("%w: column %q: %w: %s", ErrConfiguration, column, errMissingArgument, name)
	}
	p.logger.Warn(nil, "substitution argument not provided, using empty text", loglib.Fields{
		loglib.ColumnField: column,
		"argument":         name,
	})
	return "", nil
}

// Unquote removes the surrounding quotes of a literal that starts and ends
// with the same quote character. Any other literal is returned as is.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '\'' || first == '"') {
		return s[1 : len(s)-1]
	}
	return s
}
