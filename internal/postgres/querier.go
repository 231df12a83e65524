// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Querier is the subset of a postgres connection used by the checkpoint
// store. Errors returned by implementations are mapped with MapError.
type Querier interface {
	QueryRow(ctx context.Context, query string, args ...any) Row
	Exec(ctx context.Context, query string, args ...any) (CommandTag, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Row interface {
	pgx.Row
}

type CommandTag struct {
	pgconn.CommandTag
}

type mappedRow struct {
	row pgx.Row
}

func (r mappedRow) Scan(dest ...any) error {
	return MapError(r.row.Scan(dest...))
}

// QuoteIdentifier quotes every part of a possibly schema qualified name.
func QuoteIdentifier(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(quoted, ".")
}
