// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/xataio/regexop/internal/backoff"
	pglib "github.com/xataio/regexop/internal/postgres"
	"github.com/xataio/regexop/pkg/checkpoint"
	loglib "github.com/xataio/regexop/pkg/log"
)

// Store keeps checkpoints in a postgres table, one row per key.
type Store struct {
	conn            pglib.Querier
	schema          string
	table           string
	backoffProvider backoff.Provider
	logger          loglib.Logger
}

type Config struct {
	URL    string
	Schema string
	Retry  backoff.Config
}

type Option func(*Store)

const (
	defaultSchemaName = "regexop"
	tableName         = "checkpoints"
)

func New(ctx context.Context, cfg *Config, opts ...Option) (*Store, error) {
	conn, err := pglib.NewConnPool(ctx, &pglib.PoolConfig{URL: cfg.URL, ApplicationName: "regexop"})
	if err != nil {
		return nil, err
	}

	s := newStore(conn, cfg, opts...)

	if err := s.createTable(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("creating checkpoints table: %w", err)
	}

	return s, nil
}

func newStore(conn pglib.Querier, cfg *Config, opts ...Option) *Store {
	s := &Store{
		conn:            conn,
		schema:          pglib.QuoteIdentifier(cfg.schema()),
		table:           pglib.QuoteIdentifier(cfg.schema(), tableName),
		backoffProvider: backoff.NewProvider(&cfg.Retry),
		logger:          loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Store) {
		s.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "checkpoint_postgres_store",
		})
	}
}

func (s *Store) Save(ctx context.Context, c *checkpoint.Checkpoint) error {
	if err := c.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, id, state, saved_at) VALUES ($1, $2, $3, $4)
	ON CONFLICT (key) DO UPDATE SET id = EXCLUDED.id, state = EXCLUDED.state, saved_at = EXCLUDED.saved_at`, s.table)
	state := c.State
	if state == nil {
		state = []byte{}
	}
	err := s.withRetry(ctx, "saving checkpoint", func() error {
		_, err := s.conn.Exec(ctx, query, c.Key, c.ID.String(), state, c.SavedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", c.Key, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) (*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`SELECT id, state, saved_at FROM %s WHERE key = $1`, s.table)

	c := &checkpoint.Checkpoint{Key: key}
	var id string
	err := s.withRetry(ctx, "loading checkpoint", func() error {
		return s.conn.QueryRow(ctx, query, key).Scan(&id, &c.State, &c.SavedAt)
	})
	if err != nil {
		if errors.Is(err, pglib.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", checkpoint.ErrNotFound, key)
		}
		return nil, fmt.Errorf("loading checkpoint %s: %w", key, err)
	}

	c.ID, err = xid.FromString(id)
	if err != nil {
		return nil, fmt.Errorf("parsing checkpoint id %q: %w", id, err)
	}
	c.SavedAt = c.SavedAt.UTC()
	return c, nil
}

func (s *Store) Close() error {
	return s.conn.Close(context.Background())
}

func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	return s.backoffProvider(ctx).RetryNotify(func() error {
		err := fn()
		if err != nil && !pglib.IsRetryable(err) {
			return fmt.Errorf("%w: %w", backoff.ErrPermanent, err)
		}
		return err
	}, func(err error, d time.Duration) {
		s.logger.Warn(err, op+" failed, retrying", loglib.Fields{"backoff": d.String()})
	})
}

func (s *Store) createTable(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", s.schema)); err != nil {
		return fmt.Errorf("error creating checkpoints schema: %w", err)
	}

	createQuery := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s(
	key TEXT PRIMARY KEY,
	id TEXT NOT NULL,
	state BYTEA NOT NULL,
	saved_at TIMESTAMP WITH TIME ZONE NOT NULL)`, s.table)
	if _, err := s.conn.Exec(ctx, createQuery); err != nil {
		return fmt.Errorf("error creating checkpoints postgres table: %w", err)
	}
	return nil
}

func (c *Config) schema() string {
	if c.Schema != "" {
		return c.Schema
	}
	return defaultSchemaName
}
