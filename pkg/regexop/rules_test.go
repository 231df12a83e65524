// SPDX-License-Identifier: Apache-2.0

package regexop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadRulesFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
validation_mode: strict
columns:
  - name: id
    substitutions:
      - pattern: "[0-9]{3}$"
        replacement: XXX
      - pattern: ^A
        replacement: B
  - name: name
    substitutions:
      - pattern: '\s+'
        replacement: " "
  - name: email
    substitutions:
      - pattern: "@.*"
`), 0o600))

	rules, err := ReadRulesFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "strict", rules.ValidationMode)
	require.Len(t, rules.Columns, 3)

	props := rules.PropertyList()
	require.Equal(t, PropertyList{
		{Name: validationModeProperty, Value: "strict"},
		columnProp("id", patternArg, "[0-9]{3}$", replacementArg, "XXX"),
		columnProp("id", patternArg, "^A", replacementArg, "B"),
		columnProp("name", patternArg, `\s+`, replacementArg, " "),
		columnProp("email", patternArg, "@.*"),
	}, props)

	// the email declaration misses its replacement
	cfg := &Config{Args: props}
	_, err = New(cfg, nil)
	require.ErrorIs(t, err, errMissingArgument)

	cfg.ValidationMode = validationModeRelaxed
	op, err := New(cfg, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "email"}, op.RuleSet().Columns())
}

func TestReadRulesFromFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := ReadRulesFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: {"), 0o600))
	_, err = ReadRulesFromFile(path)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestRules_NilPropertyList(t *testing.T) {
	t.Parallel()

	var rules *Rules
	require.Empty(t, rules.PropertyList())
}

func TestDecodeProperties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     any
		want    PropertyList
		wantErr error
	}{
		{
			name: "ok",
			raw: []any{
				map[string]any{"name": "validation_mode", "value": "strict"},
				map[string]any{
					"name":  "column",
					"value": "id",
					"subArgs": []any{
						map[string]any{"name": "pattern", "value": "[0-9]+"},
						map[string]any{"name": "replacement", "value": 0},
					},
				},
			},
			want: PropertyList{
				{Name: "validation_mode", Value: "strict"},
				columnProp("id", patternArg, "[0-9]+", replacementArg, "0"),
			},
		},
		{
			name: "ok - nil",
			raw:  nil,
			want: PropertyList{},
		},
		{
			name:    "error - unknown key",
			raw:     []any{map[string]any{"name": "column", "values": "id"}},
			wantErr: ErrConfiguration,
		},
		{
			name: "error - args key for sub-arguments",
			raw: []any{map[string]any{
				"name":  "column",
				"value": "id",
				"args":  []any{map[string]any{"name": "pattern", "value": "a"}},
			}},
			wantErr: ErrConfiguration,
		},
		{
			name:    "error - not a list",
			raw:     "column",
			wantErr: ErrConfiguration,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			props, err := DecodeProperties(tc.raw)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr == nil {
				require.Equal(t, tc.want, props)
			}
		})
	}
}
