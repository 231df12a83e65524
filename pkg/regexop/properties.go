// SPDX-License-Identifier: Apache-2.0

package regexop

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/xataio/regexop/pkg/operator"
)

type (
	Property     = operator.Property
	PropertyList = operator.PropertyList
)

// DecodeProperties converts an untyped argument tree, as produced by viper or
// a JSON decoder, into a property list. Scalar values are converted to their
// text form.
func DecodeProperties(raw any) (PropertyList, error) {
	if raw == nil {
		return PropertyList{}, nil
	}

	props := PropertyList{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &props,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: decoding properties: %w", ErrConfiguration, err)
	}
	return props, nil
}

// lastSubArg returns the value of the last sub argument with the given name.
func lastSubArg(p Property, name string) (string, bool) {
	value, found := "", false
	for _, arg := range p.SubArgs {
		if arg.Name == name {
			value, found = arg.Value, true
		}
	}
	return value, found
}

func lastProperty(props PropertyList, name string) (string, bool) {
	value, found := "", false
	for _, p := range props {
		if p.Name == name {
			value, found = p.Value, true
		}
	}
	return value, found
}
