// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

type DataType string

const (
	// UString is unicode text, the only type substitutions operate on.
	UString DataType = "ustring"
	// String is raw byte text.
	String  DataType = "string"
	Int64   DataType = "int64"
	Float64 DataType = "float64"
	Bool    DataType = "bool"
	// Raw values are opaque to the pipeline and only transferred.
	Raw DataType = "raw"
)

var supportedDataTypes = []DataType{UString, String, Int64, Float64, Bool, Raw}

// Field describes one field of a record. Vector fields hold an ordered list of
// independently nullable elements.
type Field struct {
	Name   string   `mapstructure:"name" yaml:"name"`
	Type   DataType `mapstructure:"type" yaml:"type"`
	Vector bool     `mapstructure:"vector" yaml:"vector"`
}

type Schema struct {
	Fields []Field `mapstructure:"fields" yaml:"fields"`
}

var (
	errEmptyFieldName      = errors.New("schema field name cannot be empty")
	errDuplicateField      = errors.New("duplicate schema field")
	errUnsupportedDataType = errors.New("unsupported schema field type")
)

// FieldIndex returns the position of the named field in the schema.
func (s Schema) FieldIndex(name string) (int, bool) {
	i := slices.IndexFunc(s.Fields, func(f Field) bool { return f.Name == name })
	return i, i >= 0
}

func (s Schema) Field(name string) (Field, bool) {
	i, found := s.FieldIndex(name)
	if !found {
		return Field{}, false
	}
	return s.Fields[i], true
}

func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Validate checks field names are unique and non empty, and types are known.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return errEmptyFieldName
		}
		if _, found := seen[f.Name]; found {
			return fmt.Errorf("%w: %s", errDuplicateField, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !slices.Contains(supportedDataTypes, f.Type) {
			return fmt.Errorf("%w: %s (%q)", errUnsupportedDataType, f.Name, f.Type)
		}
	}
	return nil
}
