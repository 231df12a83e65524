// SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"
)

// Checkpoint is the persisted state of one operator instance.
type Checkpoint struct {
	ID      xid.ID
	Key     string
	State   []byte
	SavedAt time.Time
}

type Store interface {
	Save(ctx context.Context, c *Checkpoint) error
	// Load returns ErrNotFound when there's no checkpoint for the key.
	Load(ctx context.Context, key string) (*Checkpoint, error)
	Close() error
}

var (
	ErrNotFound   = errors.New("checkpoint not found")
	ErrInvalidKey = errors.New("invalid checkpoint key")
)

// Key returns the checkpoint key of the given operator pipeline partition.
func Key(operatorName string, partition int) string {
	return fmt.Sprintf("%s/%d", operatorName, partition)
}

// New returns a checkpoint stamped with the current time of the clock.
func New(clock clockwork.Clock, key string, state []byte) *Checkpoint {
	now := clock.Now().UTC()
	return &Checkpoint{
		ID:      xid.NewWithTime(now),
		Key:     key,
		State:   state,
		SavedAt: now,
	}
}

func (c *Checkpoint) Validate() error {
	if c == nil || c.Key == "" {
		return ErrInvalidKey
	}
	return nil
}
