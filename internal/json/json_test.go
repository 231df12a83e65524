// SPDX-License-Identifier: Apache-2.0

package json

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	t.Parallel()

	b, err := Marshal("<a> & b")
	require.NoError(t, err)
	require.Equal(t, `"<a> & b"`, string(b))

	b, err = Marshal(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":2}`, string(b))
}

func TestMarshalIndent(t *testing.T) {
	t.Parallel()

	b, err := MarshalIndent(struct {
		Name string `json:"name"`
	}{Name: "id"})
	require.NoError(t, err)
	require.Equal(t, "{\n  \"name\": \"id\"\n}", string(b))
}
