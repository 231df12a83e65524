// SPDX-License-Identifier: Apache-2.0

package regexop

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules is the file form of the substitution declarations:
//
//	validation_mode: strict
//	columns:
//	  - name: name
//	    substitutions:
//	      - pattern: "a"
//	        replacement: "b"
type Rules struct {
	ValidationMode string        `yaml:"validation_mode" mapstructure:"validation_mode"`
	Columns        []ColumnRules `yaml:"columns" mapstructure:"columns"`
}

type ColumnRules struct {
	Name          string         `yaml:"name" mapstructure:"name"`
	Substitutions []Substitution `yaml:"substitutions" mapstructure:"substitutions"`
}

type Substitution struct {
	Pattern     *string `yaml:"pattern" mapstructure:"pattern"`
	Replacement *string `yaml:"replacement" mapstructure:"replacement"`
}

// PropertyList converts the rules to the property list form understood by
// ParseRuleSet, one column property per substitution in file order. Missing
// pattern or replacement keys are left out so the parser validation mode
// applies to them.
func (r *Rules) PropertyList() PropertyList {
	props := PropertyList{}
	if r == nil {
		return props
	}
	if r.ValidationMode != "" {
		props = append(props, Property{Name: validationModeProperty, Value: r.ValidationMode})
	}
	for _, col := range r.Columns {
		for _, sub := range col.Substitutions {
			prop := Property{Name: columnProperty, Value: col.Name}
			if sub.Pattern != nil {
				prop.SubArgs = append(prop.SubArgs, Property{Name: patternArg, Value: *sub.Pattern})
			}
			if sub.Replacement != nil {
				prop.SubArgs = append(prop.SubArgs, Property{Name: replacementArg, Value: *sub.Replacement})
			}
			props = append(props, prop)
		}
	}
	return props
}

func ReadRulesFromFile(filePath string) (*Rules, error) {
	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading rules from file: %w", err)
	}

	rules := &Rules{}
	if err := yaml.Unmarshal(yamlFile, rules); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling yaml file into substitution rules: %w", ErrConfiguration, err)
	}
	return rules, nil
}
