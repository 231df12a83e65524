// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/xataio/regexop/pkg/record"
	"github.com/zeebo/xxh3"
)

// route returns the partition a record is processed by. Records of the same
// source partition, or with the same key, always go to the same partition.
func route(r *record.Record, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	if sp, ok := r.SourcePartition(); ok && sp >= 0 {
		return sp % partitions
	}
	if len(r.Key) > 0 {
		return int(xxh3.Hash(r.Key) % uint64(partitions))
	}
	return int(uint64(r.Position) % uint64(partitions))
}
