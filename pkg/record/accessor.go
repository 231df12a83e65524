// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"
)

var (
	ErrFieldNotFound       = errors.New("field not found in schema")
	ErrNotUString          = errors.New("field is not of ustring type")
	ErrUnexpectedValueType = errors.New("unexpected value type for field")
	ErrIndexOutOfRange     = errors.New("element index out of range")
)

// TextAccessor reads and writes the elements of a ustring field. It is bound
// to the field position once, so per record access is a slice lookup.
type TextAccessor struct {
	name   string
	index  int
	vector bool
}

func NewTextAccessor(schema Schema, name string) (*TextAccessor, error) {
	index, found := schema.FieldIndex(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	field := schema.Fields[index]
	if field.Type != UString {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotUString, name, field.Type)
	}
	return &TextAccessor{
		name:   name,
		index:  index,
		vector: field.Vector,
	}, nil
}

func (a *TextAccessor) Name() string {
	return a.name
}

// VectorLength returns the number of elements of the field. Scalar fields
// always have one element.
func (a *TextAccessor) VectorLength(r *Record) (int, error) {
	if !a.vector {
		if _, err := a.scalar(r); err != nil {
			return 0, err
		}
		return 1, nil
	}
	vector, err := a.vectorValue(r)
	if err != nil {
		return 0, err
	}
	return len(vector), nil
}

// At returns the element at index i.
func (a *TextAccessor) At(r *Record, i int) (Text, error) {
	if !a.vector {
		if i != 0 {
			return Text{}, fmt.Errorf("%w: %d for scalar field %s", ErrIndexOutOfRange, i, a.name)
		}
		return a.scalar(r)
	}
	vector, err := a.vectorValue(r)
	if err != nil {
		return Text{}, err
	}
	if i < 0 || i >= len(vector) {
		return Text{}, fmt.Errorf("%w: %d for field %s of length %d", ErrIndexOutOfRange, i, a.name, len(vector))
	}
	return vector[i], nil
}

// Set writes the element at index i. The record must already hold a value of
// the right length for vector fields.
func (a *TextAccessor) Set(r *Record, i int, v Text) error {
	if a.index >= len(r.Values) {
		return fmt.Errorf("%w: %s missing from record", ErrFieldNotFound, a.name)
	}
	if !a.vector {
		if i != 0 {
			return fmt.Errorf("%w: %d for scalar field %s", ErrIndexOutOfRange, i, a.name)
		}
		r.Values[a.index] = v
		return nil
	}
	vector, err := a.vectorValue(r)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(vector) {
		return fmt.Errorf("%w: %d for field %s of length %d", ErrIndexOutOfRange, i, a.name, len(vector))
	}
	vector[i] = v
	return nil
}

func (a *TextAccessor) scalar(r *Record) (Text, error) {
	if a.index >= len(r.Values) {
		return Text{}, fmt.Errorf("%w: %s missing from record", ErrFieldNotFound, a.name)
	}
	switch v := r.Values[a.index].(type) {
	case Text:
		return v, nil
	case string:
		return NewText(v), nil
	case nil:
		return NullText(), nil
	default:
		return Text{}, fmt.Errorf("%w: %s holds %T", ErrUnexpectedValueType, a.name, v)
	}
}

func (a *TextAccessor) vectorValue(r *Record) ([]Text, error) {
	if a.index >= len(r.Values) {
		return nil, fmt.Errorf("%w: %s missing from record", ErrFieldNotFound, a.name)
	}
	switch v := r.Values[a.index].(type) {
	case []Text:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s holds %T", ErrUnexpectedValueType, a.name, v)
	}
}
