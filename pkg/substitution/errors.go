// SPDX-License-Identifier: Apache-2.0

package substitution

import "errors"

var (
	// ErrInvalidPattern is returned when a rule pattern does not compile.
	ErrInvalidPattern = errors.New("invalid substitution pattern")
	// ErrInvalidGroupReference is returned at apply time when a replacement
	// template references a capture group the pattern does not define.
	ErrInvalidGroupReference = errors.New("replacement references undefined capture group")
	// ErrCorruptState is returned when a persisted rule set cannot be decoded.
	ErrCorruptState = errors.New("corrupt substitution rule set state")
)
