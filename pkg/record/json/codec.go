// SPDX-License-Identifier: Apache-2.0

// Package json converts JSON documents to pipeline records and back. Only
// ustring fields are written back into the raw document, every other path
// is carried through untouched.
package json

import (
	"errors"
	"fmt"
	"strconv"

	jsonlib "github.com/xataio/regexop/internal/json"
	"github.com/xataio/regexop/pkg/record"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/exp/slices"
)

type Codec struct {
	schema   record.Schema
	paths    []string
	keyField string
}

type Option func(*Codec)

var (
	ErrInvalidDocument = errors.New("invalid json document")
	ErrInvalidValue    = errors.New("invalid json value for field")
)

// WithKeyField sets the document field used as the record key.
func WithKeyField(field string) Option {
	return func(c *Codec) {
		c.keyField = field
	}
}

func NewCodec(schema record.Schema, opts ...Option) (*Codec, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{
		schema: schema,
		paths:  make([]string, 0, len(schema.Fields)),
	}
	for _, f := range schema.Fields {
		c.paths = append(c.paths, gjson.Escape(f.Name))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) Schema() record.Schema {
	return c.schema
}

// Decode builds a record from a JSON object. Missing fields and JSON nulls
// decode as null values.
func (c *Codec) Decode(doc []byte, position int64) (*record.Record, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w at position %d", ErrInvalidDocument, position)
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w at position %d: not an object", ErrInvalidDocument, position)
	}

	r := &record.Record{
		Position: position,
		Values:   make([]any, len(c.schema.Fields)),
		Raw:      doc,
	}
	for i, f := range c.schema.Fields {
		v, err := decodeValue(f, root.Get(c.paths[i]))
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", position, err)
		}
		r.Values[i] = v
	}
	if c.keyField != "" {
		if key := root.Get(gjson.Escape(c.keyField)); key.Exists() {
			r.Key = []byte(key.String())
		}
	}
	return r, nil
}

// Encode writes the ustring values of the record back into its raw document.
// Values equal to the ones the document already holds are not rewritten, so
// an unmodified record encodes to its original bytes. Records without a raw
// document are encoded as a new object holding every field.
func (c *Codec) Encode(r *record.Record) ([]byte, error) {
	if len(r.Values) != len(c.schema.Fields) {
		return nil, fmt.Errorf("%w: record has %d values, schema has %d fields", ErrInvalidValue, len(r.Values), len(c.schema.Fields))
	}

	if len(r.Raw) == 0 {
		return c.encodeAll(r)
	}

	doc := make([]byte, len(r.Raw))
	copy(doc, r.Raw)
	root := gjson.ParseBytes(r.Raw)

	var err error
	for i, f := range c.schema.Fields {
		if f.Type != record.UString {
			continue
		}
		if current, decodeErr := decodeValue(f, root.Get(c.paths[i])); decodeErr == nil && textEqual(current, r.Values[i]) {
			continue
		}
		raw, encodeErr := encodeValue(f, r.Values[i])
		if encodeErr != nil {
			return nil, encodeErr
		}
		doc, err = sjson.SetRawBytes(doc, c.paths[i], raw)
		if err != nil {
			return nil, fmt.Errorf("setting field %s: %w", f.Name, err)
		}
	}
	return doc, nil
}

func (c *Codec) encodeAll(r *record.Record) ([]byte, error) {
	doc := []byte("{}")
	var err error
	for i, f := range c.schema.Fields {
		raw, encodeErr := encodeValue(f, r.Values[i])
		if encodeErr != nil {
			return nil, encodeErr
		}
		doc, err = sjson.SetRawBytes(doc, c.paths[i], raw)
		if err != nil {
			return nil, fmt.Errorf("setting field %s: %w", f.Name, err)
		}
	}
	return doc, nil
}

func textEqual(a, b any) bool {
	switch av := a.(type) {
	case record.Text:
		bv, ok := b.(record.Text)
		return ok && av == bv
	case []record.Text:
		bv, ok := b.([]record.Text)
		return ok && slices.Equal(av, bv)
	case nil:
		return b == nil
	default:
		return false
	}
}

func decodeValue(f record.Field, res gjson.Result) (any, error) {
	if !res.Exists() || res.Type == gjson.Null {
		return nullValue(f), nil
	}

	if f.Vector {
		if !res.IsArray() {
			return nil, fmt.Errorf("%w %s: expected array, got %s", ErrInvalidValue, f.Name, res.Type)
		}
		if f.Type != record.UString {
			return res.Raw, nil
		}
		elems := res.Array()
		vector := make([]record.Text, 0, len(elems))
		for _, e := range elems {
			switch e.Type {
			case gjson.Null:
				vector = append(vector, record.NullText())
			case gjson.String:
				vector = append(vector, record.NewText(e.Str))
			default:
				return nil, fmt.Errorf("%w %s: expected string element, got %s", ErrInvalidValue, f.Name, e.Type)
			}
		}
		return vector, nil
	}

	switch f.Type {
	case record.UString:
		if res.Type != gjson.String {
			return nil, fmt.Errorf("%w %s: expected string, got %s", ErrInvalidValue, f.Name, res.Type)
		}
		return record.NewText(res.Str), nil
	case record.String:
		if res.Type != gjson.String {
			return nil, fmt.Errorf("%w %s: expected string, got %s", ErrInvalidValue, f.Name, res.Type)
		}
		return res.Str, nil
	case record.Int64:
		if res.Type != gjson.Number {
			return nil, fmt.Errorf("%w %s: expected number, got %s", ErrInvalidValue, f.Name, res.Type)
		}
		// integers only, gjson would truncate fractions and wrap overflows
		n, err := strconv.ParseInt(res.Raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %s is not a 64 bit integer", ErrInvalidValue, f.Name, res.Raw)
		}
		return n, nil
	case record.Float64:
		if res.Type != gjson.Number {
			return nil, fmt.Errorf("%w %s: expected number, got %s", ErrInvalidValue, f.Name, res.Type)
		}
		return res.Float(), nil
	case record.Bool:
		if res.Type != gjson.True && res.Type != gjson.False {
			return nil, fmt.Errorf("%w %s: expected boolean, got %s", ErrInvalidValue, f.Name, res.Type)
		}
		return res.Bool(), nil
	default:
		return res.Raw, nil
	}
}

func nullValue(f record.Field) any {
	if f.Type == record.UString && !f.Vector {
		return record.NullText()
	}
	return nil
}

func encodeValue(f record.Field, v any) ([]byte, error) {
	switch value := v.(type) {
	case nil:
		return []byte("null"), nil
	case record.Text:
		if !value.Valid {
			return []byte("null"), nil
		}
		return jsonlib.Marshal(value.Value)
	case []record.Text:
		elems := make([]*string, 0, len(value))
		for i := range value {
			if !value[i].Valid {
				elems = append(elems, nil)
				continue
			}
			elems = append(elems, &value[i].Value)
		}
		return jsonlib.Marshal(elems)
	case string:
		// raw fields hold their json text as decoded
		if f.Type == record.Raw || (f.Vector && f.Type != record.UString) {
			return []byte(value), nil
		}
		return jsonlib.Marshal(value)
	case int64, float64, bool:
		return jsonlib.Marshal(value)
	default:
		return nil, fmt.Errorf("%w %s: unsupported value type %T", ErrInvalidValue, f.Name, v)
	}
}
