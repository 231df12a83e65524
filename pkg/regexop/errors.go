// SPDX-License-Identifier: Apache-2.0

package regexop

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("invalid regexop configuration")
	ErrSchema        = errors.New("input schema not supported by regexop configuration")
	ErrSubstitution  = errors.New("substitution failed")
	ErrNotBound      = errors.New("operator is not bound to an input schema")
	ErrClosed        = errors.New("operator is closed")
)

// SchemaError is returned when the input schema doesn't satisfy the
// configured columns.
type SchemaError struct {
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%v: %v", ErrSchema, e.Err)
	}
	return fmt.Sprintf("%v: column %q: %v", ErrSchema, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() []error {
	return []error{ErrSchema, e.Err}
}

// SubstitutionError is returned when a record value could not be transformed.
// The record is not forwarded downstream.
type SubstitutionError struct {
	Column   string
	Position int64
	Element  int
	Err      error
}

func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("%v: column %q, record %d, element %d: %v", ErrSubstitution, e.Column, e.Position, e.Element, e.Err)
}

func (e *SubstitutionError) Unwrap() []error {
	return []error{ErrSubstitution, e.Err}
}
