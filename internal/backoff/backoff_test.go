// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_Retry(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name      string
		cfg       *Config
		failures  int
		permanent bool

		wantCalls int
		wantErr   error
	}{
		{
			name:      "stop - no retries",
			cfg:       nil,
			failures:  1,
			wantCalls: 1,
			wantErr:   errTest,
		},
		{
			name:      "constant - succeeds after retries",
			cfg:       &Config{Constant: &ConstantConfig{Interval: time.Millisecond, MaxRetries: 3}},
			failures:  2,
			wantCalls: 3,
			wantErr:   nil,
		},
		{
			name:      "constant - retries exhausted",
			cfg:       &Config{Constant: &ConstantConfig{Interval: time.Millisecond, MaxRetries: 2}},
			failures:  5,
			wantCalls: 3,
			wantErr:   errTest,
		},
		{
			name:      "exponential - permanent error is not retried",
			cfg:       &Config{Exponential: &ExponentialConfig{InitialInterval: time.Millisecond, MaxRetries: 5}},
			failures:  5,
			permanent: true,
			wantCalls: 1,
			wantErr:   ErrPermanent,
		},
		{
			name:      "exponential - succeeds after retries",
			cfg:       &Config{Exponential: &ExponentialConfig{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxRetries: 5}},
			failures:  3,
			wantCalls: 4,
			wantErr:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls, notified := 0, 0
			bo := NewProvider(tc.cfg)(context.Background())
			err := bo.RetryNotify(func() error {
				calls++
				if calls > tc.failures {
					return nil
				}
				if tc.permanent {
					return fmt.Errorf("%w: %w", ErrPermanent, errTest)
				}
				return errTest
			}, func(error, time.Duration) { notified++ })

			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantCalls, calls)
			if tc.wantErr == nil {
				require.Equal(t, tc.failures, notified)
			}
		})
	}
}

func TestBackoff_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	bo := NewConstantBackoff(ctx, &ConstantConfig{Interval: time.Hour})
	err := bo.Retry(func() error {
		calls++
		return errors.New("oh noes")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
