// SPDX-License-Identifier: Apache-2.0

package substitution

import "slices"

// RuleSet maps column names to their ordered substitution rules. Rules keep
// the order they were added in, and columns keep the order they were first
// seen in. It is not concurrency safe while being built, and read-only once
// handed to an operator.
type RuleSet struct {
	columns []string
	rules   map[string][]Rule
}

func NewRuleSet() *RuleSet {
	return &RuleSet{
		rules: map[string][]Rule{},
	}
}

// AddRule appends a rule for the column, creating the column entry if it's the
// first rule seen for it.
func (rs *RuleSet) AddRule(column, pattern, replacement string) error {
	rule, err := NewRule(pattern, replacement)
	if err != nil {
		return err
	}
	rs.add(column, rule)
	return nil
}

// AddColumn declares a column without rules. Its values are passed through
// unchanged, but the column is still bound and validated.
func (rs *RuleSet) AddColumn(column string) {
	if _, found := rs.rules[column]; !found {
		rs.columns = append(rs.columns, column)
		rs.rules[column] = []Rule{}
	}
}

func (rs *RuleSet) add(column string, rule Rule) {
	rs.AddColumn(column)
	rs.rules[column] = append(rs.rules[column], rule)
}

// Columns returns the distinct configured column names in first-seen order.
func (rs *RuleSet) Columns() []string {
	return slices.Clone(rs.columns)
}

// RulesFor returns the rules of the column in insertion order, or an empty
// slice if the column is not configured.
func (rs *RuleSet) RulesFor(column string) []Rule {
	return slices.Clone(rs.rules[column])
}

// Len returns the number of configured columns.
func (rs *RuleSet) Len() int {
	return len(rs.columns)
}

func (rs *RuleSet) IsEmpty() bool {
	return rs == nil || len(rs.columns) == 0
}

// Equal reports whether both rule sets have the same columns in the same order,
// with the same rules per column.
func (rs *RuleSet) Equal(other *RuleSet) bool {
	if rs == nil || other == nil {
		return rs == other
	}
	if !slices.Equal(rs.columns, other.columns) {
		return false
	}
	for _, column := range rs.columns {
		if !slices.EqualFunc(rs.rules[column], other.rules[column], Rule.Equal) {
			return false
		}
	}
	return true
}
