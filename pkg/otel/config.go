// SPDX-License-Identifier: Apache-2.0

package otel

import "time"

// Config selects the signals exported by the instrumentation provider. A nil
// section disables that signal.
type Config struct {
	Metrics *MetricsConfig
	Traces  *TracesConfig
}

type MetricsConfig struct {
	Endpoint string
	// CollectionInterval defaults to one minute.
	CollectionInterval time.Duration
	RuntimeMetrics     bool
}

type TracesConfig struct {
	Endpoint string
	// SampleRatio is the fraction of root spans sampled, between 0 and 1.
	SampleRatio float64
}

const defaultCollectionInterval = time.Minute

func (c *Config) enabled() bool {
	return c != nil && (c.Metrics != nil || c.Traces != nil)
}

func (c *MetricsConfig) collectionInterval() time.Duration {
	if c.CollectionInterval <= 0 {
		return defaultCollectionInterval
	}
	return c.CollectionInterval
}
