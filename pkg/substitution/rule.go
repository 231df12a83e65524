// SPDX-License-Identifier: Apache-2.0

package substitution

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is an immutable pattern/replacement pair. The zero value is not usable,
// rules must be built with NewRule.
type Rule struct {
	pattern     *regexp.Regexp
	replacement string
	template    []templatePart
}

// NewRule compiles the pattern and parses the replacement template.
func NewRule(pattern, replacement string) (Rule, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
	}

	return Rule{
		pattern:     rx,
		replacement: replacement,
		template:    parseTemplate(replacement),
	}, nil
}

func (r Rule) Pattern() *regexp.Regexp {
	return r.pattern
}

// Source returns the pattern text the rule was compiled from.
func (r Rule) Source() string {
	if r.pattern == nil {
		return ""
	}
	return r.pattern.String()
}

func (r Rule) Replacement() string {
	return r.replacement
}

// Equal reports whether both rules were built from the same pattern and
// replacement text.
func (r Rule) Equal(other Rule) bool {
	return r.Source() == other.Source() && r.replacement == other.replacement
}

func (r Rule) String() string {
	return fmt.Sprintf("%q -> %q", r.Source(), r.replacement)
}

// Apply replaces every non-overlapping match of the rule pattern in value with
// the expanded replacement template. Values without matches are returned
// unchanged.
func (r Rule) Apply(value string) (string, error) {
	matches := r.pattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	var b strings.Builder
	b.Grow(len(value))
	last := 0
	for _, match := range matches {
		b.WriteString(value[last:match[0]])
		if err := r.expand(&b, value, match); err != nil {
			return "", err
		}
		last = match[1]
	}
	b.WriteString(value[last:])

	return b.String(), nil
}

func (r Rule) expand(b *strings.Builder, value string, match []int) error {
	for _, part := range r.template {
		if part.group < 0 {
			b.WriteString(part.literal)
			continue
		}
		if part.group > r.pattern.NumSubexp() {
			return fmt.Errorf("%w: \\%d in %q, pattern %q defines %d groups",
				ErrInvalidGroupReference, part.group, r.replacement, r.Source(), r.pattern.NumSubexp())
		}
		// unmatched optional groups expand to nothing
		if start, end := match[2*part.group], match[2*part.group+1]; start >= 0 {
			b.WriteString(value[start:end])
		}
	}
	return nil
}
