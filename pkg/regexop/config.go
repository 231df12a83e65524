// SPDX-License-Identifier: Apache-2.0

package regexop

type Config struct {
	// ValidationMode is either relaxed or strict. When empty, the
	// validation_mode argument is used, and relaxed if there's none.
	ValidationMode string
	Args           PropertyList
}

func (c *Config) validationMode() string {
	if c.ValidationMode != "" {
		return c.ValidationMode
	}
	if mode, found := lastProperty(c.Args, validationModeProperty); found {
		return Unquote(mode)
	}
	return validationModeRelaxed
}
