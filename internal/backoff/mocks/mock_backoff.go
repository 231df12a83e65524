// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"errors"

	"github.com/xataio/regexop/internal/backoff"
)

// Backoff runs the operation up to the configured attempts, without waiting
// between them. Permanent errors stop the retries.
type Backoff struct {
	Attempts int
}

func (m *Backoff) Retry(op backoff.Operation) error {
	return m.RetryNotify(op, nil)
}

func (m *Backoff) RetryNotify(op backoff.Operation, notify backoff.Notify) error {
	var err error
	for i := 0; i < max(m.Attempts, 1); i++ {
		if err = op(); err == nil || errors.Is(err, backoff.ErrPermanent) {
			return err
		}
		if notify != nil {
			notify(err, 0)
		}
	}
	return err
}
