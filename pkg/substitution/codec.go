// SPDX-License-Identifier: Apache-2.0

package substitution

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Persisted layout, all integers big endian uint32:
//
//	blob    := payloadLen payload
//	payload := columnCount { text(column) ruleCount { text(pattern) text(replacement) } }
//	text    := byteLen utf8
const lengthPrefixSize = 4

var errPayloadTooLarge = errors.New("encoded rule set exceeds the maximum blob size")

// Encode returns the length prefixed encoding of the rule set.
func Encode(rs *RuleSet) ([]byte, error) {
	payload := encodePayload(rs)
	if len(payload) > math.MaxUint32 {
		return nil, errPayloadTooLarge
	}

	blob := make([]byte, 0, lengthPrefixSize+len(payload))
	blob = binary.BigEndian.AppendUint32(blob, uint32(len(payload)))
	return append(blob, payload...), nil
}

// WriteTo writes the length prefixed encoding of the rule set to w in a single
// write, so it can be embedded in a larger checkpoint stream.
func WriteTo(w io.Writer, rs *RuleSet) error {
	blob, err := Encode(rs)
	if err != nil {
		return err
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("writing rule set: %w", err)
	}
	return nil
}

// ReadFrom reads exactly one length prefixed rule set from r, leaving any
// following bytes unread.
func ReadFrom(r io.Reader) (*RuleSet, error) {
	var prefix [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, corruptf("reading length prefix: %v", err)
	}

	size := int64(binary.BigEndian.Uint32(prefix[:]))
	// copy instead of allocating size bytes upfront, the prefix can't be
	// trusted until the bytes are actually there
	var payload bytes.Buffer
	n, err := io.CopyN(&payload, r, size)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading rule set payload: %w", err)
	}
	if n != size {
		return nil, corruptf("payload truncated, got %d of %d bytes", n, size)
	}

	return decodePayload(payload.Bytes())
}

// Decode decodes a single length prefixed rule set. Trailing bytes are
// rejected.
func Decode(blob []byte) (*RuleSet, error) {
	r := bytes.NewReader(blob)
	rs, err := ReadFrom(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, corruptf("%d trailing bytes after rule set", r.Len())
	}
	return rs, nil
}

func encodePayload(rs *RuleSet) []byte {
	var buf []byte
	if rs == nil {
		return binary.BigEndian.AppendUint32(buf, 0)
	}

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(rs.columns)))
	for _, column := range rs.columns {
		buf = appendText(buf, column)
		rules := rs.rules[column]
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(rules)))
		for _, rule := range rules {
			buf = appendText(buf, rule.Source())
			buf = appendText(buf, rule.Replacement())
		}
	}
	return buf
}

func appendText(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func decodePayload(payload []byte) (*RuleSet, error) {
	d := &payloadDecoder{buf: payload}
	rs := NewRuleSet()

	columnCount, err := d.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < columnCount; i++ {
		column, err := d.text()
		if err != nil {
			return nil, err
		}
		if _, found := rs.rules[column]; found {
			return nil, corruptf("duplicate column %q", column)
		}
		ruleCount, err := d.uint32()
		if err != nil {
			return nil, err
		}
		rs.columns = append(rs.columns, column)
		rs.rules[column] = make([]Rule, 0, min(ruleCount, uint32(d.remaining())))
		for j := uint32(0); j < ruleCount; j++ {
			pattern, err := d.text()
			if err != nil {
				return nil, err
			}
			replacement, err := d.text()
			if err != nil {
				return nil, err
			}
			rule, err := NewRule(pattern, replacement)
			if err != nil {
				return nil, corruptf("recompiling rule for column %q: %v", column, err)
			}
			rs.rules[column] = append(rs.rules[column], rule)
		}
	}

	if d.remaining() != 0 {
		return nil, corruptf("%d unexpected bytes at the end of the payload", d.remaining())
	}
	return rs, nil
}

type payloadDecoder struct {
	buf []byte
	off int
}

func (d *payloadDecoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *payloadDecoder) uint32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, corruptf("payload truncated at offset %d", d.off)
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *payloadDecoder) text() (string, error) {
	size, err := d.uint32()
	if err != nil {
		return "", err
	}
	if uint64(size) > uint64(d.remaining()) {
		return "", corruptf("text of %d bytes exceeds the remaining %d bytes", size, d.remaining())
	}
	raw := d.buf[d.off : d.off+int(size)]
	d.off += int(size)
	if !utf8.Valid(raw) {
		return "", corruptf("invalid utf-8 text at offset %d", d.off-int(size))
	}
	return string(raw), nil
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptState, fmt.Sprintf(format, args...))
}
