// SPDX-License-Identifier: Apache-2.0

// Package json encodes the values written by regexop: record field values and
// the command outputs.
package json

import (
	"github.com/bytedance/sonic"
)

// api leaves html characters of substituted text unescaped. Sorted map keys
// keep the command outputs stable.
var api = sonic.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any) ([]byte, error) {
	return api.MarshalIndent(v, "", "  ")
}
