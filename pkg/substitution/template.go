// SPDX-License-Identifier: Apache-2.0

package substitution

import "strings"

// templatePart is either a literal chunk of a replacement template or a
// reference to a capture group (group >= 0).
type templatePart struct {
	literal string
	group   int
}

// parseTemplate splits a replacement template into literal chunks and capture
// group references. A backslash followed by a decimal digit references that
// group (\0 is the whole match). Any other character, including '$' and a
// backslash not followed by a digit, is literal.
func parseTemplate(tmpl string) []templatePart {
	parts := []templatePart{}
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			parts = append(parts, templatePart{literal: literal.String(), group: -1})
			literal.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '\\' && i+1 < len(tmpl) && isDigit(tmpl[i+1]) {
			flush()
			parts = append(parts, templatePart{group: int(tmpl[i+1] - '0')})
			i++
			continue
		}
		literal.WriteByte(tmpl[i])
	}
	flush()

	return parts
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
