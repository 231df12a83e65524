// SPDX-License-Identifier: Apache-2.0

package record

import (
	"context"

	"golang.org/x/exp/slices"
)

// Text is a nullable unicode text element.
type Text struct {
	Value string
	Valid bool
}

func NewText(s string) Text {
	return Text{Value: s, Valid: true}
}

func NullText() Text {
	return Text{}
}

// Record is one row flowing through the pipeline. Values are positioned as
// the fields of the schema the record was decoded with. Scalar ustring fields
// hold a Text, vector ustring fields hold a []Text. Raw keeps the encoded
// source document so encoders can carry fields the schema doesn't describe.
type Record struct {
	Key      []byte
	Position int64
	Values   []any
	Raw      []byte

	sourcePartition int
	partitioned     bool
	ack             func(context.Context) error
}

// SetSourcePartition records the partition of the source the record was read
// from. Records of the same source partition are always processed by the same
// pipeline partition, in order.
func (r *Record) SetSourcePartition(p int) {
	r.sourcePartition = p
	r.partitioned = true
}

func (r *Record) SourcePartition() (int, bool) {
	return r.sourcePartition, r.partitioned
}

// SetAck registers the function used to acknowledge the record to its source
// once it's been written downstream.
func (r *Record) SetAck(fn func(context.Context) error) {
	r.ack = fn
}

// Ack acknowledges the record to its source. It is a noop for sources that
// don't need acknowledgements.
func (r *Record) Ack(ctx context.Context) error {
	if r.ack == nil {
		return nil
	}
	return r.ack(ctx)
}

// Transfer returns the output copy of the record. Every value is carried over,
// vectors are cloned so writes to the copy never reach the input record.
func (r *Record) Transfer() *Record {
	out := *r
	out.Values = make([]any, len(r.Values))
	for i, v := range r.Values {
		if vector, ok := v.([]Text); ok {
			out.Values[i] = slices.Clone(vector)
			continue
		}
		out.Values[i] = v
	}
	return &out
}
