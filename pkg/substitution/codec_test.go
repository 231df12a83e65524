// SPDX-License-Identifier: Apache-2.0

package substitution

import (
	"bytes"
	"encoding/binary"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testRuleSet(t *testing.T) *RuleSet {
	rs := NewRuleSet()
	require.NoError(t, rs.AddRule("name", `\s+`, " "))
	require.NoError(t, rs.AddRule("id", `[0-9]{3}$`, "XXX"))
	require.NoError(t, rs.AddRule("id", `^A`, "B"))
	require.NoError(t, rs.AddRule("email", `(\w+)@(\w+)`, `\2 at \1`))
	return rs
}

func TestEncode_Layout(t *testing.T) {
	t.Parallel()

	rs := NewRuleSet()
	require.NoError(t, rs.AddRule("c", "a", "é"))

	blob, err := Encode(rs)
	require.NoError(t, err)

	want := []byte{
		0, 0, 0, 24, // payload length
		0, 0, 0, 1, // columns
		0, 0, 0, 1, 'c',
		0, 0, 0, 1, // rules
		0, 0, 0, 1, 'a',
		0, 0, 0, 2, 0xc3, 0xa9,
	}
	require.Equal(t, want, blob)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	passthrough := NewRuleSet()
	passthrough.AddColumn("untouched")

	tests := []struct {
		name string
		rs   *RuleSet
	}{
		{
			name: "empty",
			rs:   NewRuleSet(),
		},
		{
			name: "multiple columns and rules",
			rs:   testRuleSet(t),
		},
		{
			name: "column without rules",
			rs:   passthrough,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			blob, err := Encode(tc.rs)
			require.NoError(t, err)

			got, err := Decode(blob)
			require.NoError(t, err)
			require.True(t, tc.rs.Equal(got))
			require.Equal(t, tc.rs.Columns(), got.Columns())
		})
	}
}

func TestWriteToReadFrom_EmbeddedInStream(t *testing.T) {
	t.Parallel()

	rs := testRuleSet(t)

	var buf bytes.Buffer
	buf.WriteString("header")
	require.NoError(t, WriteTo(&buf, rs))
	buf.WriteString("trailer")

	header := make([]byte, len("header"))
	_, err := buf.Read(header)
	require.NoError(t, err)

	got, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.True(t, rs.Equal(got))
	require.Equal(t, "trailer", buf.String())
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	valid, err := Encode(testRuleSet(t))
	require.NoError(t, err)

	badPattern := NewRuleSet()
	require.NoError(t, badPattern.AddRule("c", "PLACEHOLDER", "x"))
	badPatternBlob, err := Encode(badPattern)
	require.NoError(t, err)
	badPatternBlob = bytes.Replace(badPatternBlob, []byte("PLACEHOLDER"), []byte("((((((((((("), 1)

	invalidUTF8 := NewRuleSet()
	require.NoError(t, invalidUTF8.AddRule("c", "x", "y"))
	invalidUTF8Blob, err := Encode(invalidUTF8)
	require.NoError(t, err)
	invalidUTF8Blob[len(invalidUTF8Blob)-1] = 0xff

	duplicated := []byte{}
	duplicated = binary.BigEndian.AppendUint32(duplicated, 2)
	for range 2 {
		duplicated = appendText(duplicated, "c")
		duplicated = binary.BigEndian.AppendUint32(duplicated, 0)
	}
	duplicatedBlob := binary.BigEndian.AppendUint32(nil, uint32(len(duplicated)))
	duplicatedBlob = append(duplicatedBlob, duplicated...)

	tests := []struct {
		name string
		blob []byte
	}{
		{
			name: "empty",
			blob: nil,
		},
		{
			name: "truncated length prefix",
			blob: valid[:2],
		},
		{
			name: "truncated payload",
			blob: valid[:len(valid)-3],
		},
		{
			name: "trailing bytes",
			blob: append(append([]byte{}, valid...), 0),
		},
		{
			name: "length prefix shorter than payload",
			blob: func() []byte {
				b := append([]byte{}, valid...)
				binary.BigEndian.PutUint32(b, uint32(len(valid)-lengthPrefixSize-1))
				return b
			}(),
		},
		{
			name: "text length beyond payload",
			blob: []byte{0, 0, 0, 8, 0, 0, 0, 1, 0xff, 0xff, 0xff, 0xff},
		},
		{
			name: "pattern does not recompile",
			blob: badPatternBlob,
		},
		{
			name: "invalid utf-8",
			blob: invalidUTF8Blob,
		},
		{
			name: "duplicated column",
			blob: duplicatedBlob,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rs, err := Decode(tc.blob)
			require.ErrorIs(t, err, ErrCorruptState)
			require.Nil(t, rs)
		})
	}
}

var propertyPatterns = []string{
	"", "a", `\s+`, `[0-9]{3}$`, `^A`, `(\w+)@(\w+)`, `[aeiou]`, `x*`, `(?i)foo`, `\d{2,4}`,
}

func genRuleSet(t *rapid.T) *RuleSet {
	rs := NewRuleSet()
	columns := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z_]{1,8}`), 1, 5, rapid.ID[string]).Draw(t, "columns")
	for _, column := range columns {
		n := rapid.IntRange(1, 4).Draw(t, "rules")
		for range n {
			pattern := rapid.OneOf(
				rapid.SampledFrom(propertyPatterns),
				rapid.Map(rapid.String(), regexp.QuoteMeta),
			).Draw(t, "pattern")
			replacement := rapid.String().Draw(t, "replacement")
			if err := rs.AddRule(column, pattern, replacement); err != nil {
				t.Fatalf("adding rule: %v", err)
			}
		}
	}
	return rs
}

func TestEncodeDecode_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rs := genRuleSet(t)

		blob, err := Encode(rs)
		if err != nil {
			t.Fatalf("encoding: %v", err)
		}
		got, err := Decode(blob)
		if err != nil {
			t.Fatalf("decoding: %v", err)
		}

		if diff := cmp.Diff(rs.Columns(), got.Columns()); diff != "" {
			t.Fatalf("columns mismatch (-want +got):\n%s", diff)
		}
		for _, column := range rs.Columns() {
			if diff := cmp.Diff(rs.RulesFor(column), got.RulesFor(column)); diff != "" {
				t.Fatalf("rules mismatch for column %q (-want +got):\n%s", column, diff)
			}
		}
	})
}
