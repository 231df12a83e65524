// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is a pgx connection pool with errors mapped to the package errors.
type Pool struct {
	pool *pgxpool.Pool
}

type PoolConfig struct {
	URL string
	// MaxConns defaults to the pgx default, unless set in the url.
	MaxConns int32
	// ApplicationName is reported in pg_stat_activity, unless set in the url.
	ApplicationName string
}

const applicationNameParam = "application_name"

func NewConnPool(ctx context.Context, cfg *PoolConfig) (*Pool, error) {
	pgCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", MapError(err))
	}
	if cfg.MaxConns > 0 {
		pgCfg.MaxConns = cfg.MaxConns
	}
	if _, found := pgCfg.ConnConfig.RuntimeParams[applicationNameParam]; !found && cfg.ApplicationName != "" {
		pgCfg.ConnConfig.RuntimeParams[applicationNameParam] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", MapError(err))
	}
	return &Pool{pool: pool}, nil
}

func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) Row {
	return mappedRow{row: p.pool.QueryRow(ctx, query, args...)}
}

func (p *Pool) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return CommandTag{}, MapError(err)
	}
	return CommandTag{CommandTag: tag}, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	return MapError(p.pool.Ping(ctx))
}

func (p *Pool) Close(context.Context) error {
	p.pool.Close()
	return nil
}
